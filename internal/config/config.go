package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppPort         string
	AppEnv          string
	LogLevel        string
	DBDriver        string
	DBDSN           string
	JWTSecret       string
	JWTExpiresMin   int
	CookieSecure    bool
	CORSOrigins     string
	IDEncryptKey    string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	AdminEmail      string
	AdminPassword   string
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func Load() Config {
	expires, _ := strconv.Atoi(get("JWT_EXPIRES_MIN", "10080"))
	redisDB, _ := strconv.Atoi(get("REDIS_DB", "0"))
	driver := strings.ToLower(get("DB_DRIVER", "postgres"))

	dsn := get("DB_DSN", "")
	if driver == "postgres" && dsn == "" {
		dsn = must("DB_DSN")
	}

	// empty keeps public job ids numeric
	idKey := get("ID_ENCRYPT_KEY", "")
	switch len(idKey) {
	case 0, 16, 24, 32:
	default:
		panic("invalid env: ID_ENCRYPT_KEY must be 16, 24 or 32 bytes")
	}

	return Config{
		AppPort:         get("APP_PORT", "8080"),
		AppEnv:          get("APP_ENV", "development"),
		LogLevel:        get("LOG_LEVEL", "info"),
		DBDriver:        driver,
		DBDSN:           dsn,
		JWTSecret:       must("JWT_SECRET"),
		JWTExpiresMin:   expires,
		CookieSecure:    get("COOKIE_SECURE", "false") == "true",
		CORSOrigins:     get("CORS_ORIGINS", "http://127.0.0.1:3000, http://localhost:3000"),
		IDEncryptKey:    idKey,
		RedisAddr:       get("REDIS_ADDR", ""),
		RedisPassword:   get("REDIS_PASSWORD", ""),
		RedisDB:         redisDB,
		AdminEmail:      get("ADMIN_EMAIL", ""),
		AdminPassword:   get("ADMIN_PASSWORD", ""),
		GoogleClientID:  get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:    get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect:  get("GOOGLE_REDIRECT_URL", ""),
		FrontendBaseURL: get("FRONTEND_BASE_URL", "http://localhost:3000"),
	}
}

func get(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
