package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "rahasia")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_EXPIRES_MIN", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("ID_ENCRYPT_KEY", "")

	cfg := Load()
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, 10080, cfg.JWTExpiresMin)
	require.Equal(t, "rahasia", cfg.JWTSecret)
	require.False(t, cfg.CookieSecure)
}

func TestLoadRequiresDSNForPostgres(t *testing.T) {
	t.Setenv("JWT_SECRET", "rahasia")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")

	require.PanicsWithValue(t, "missing env: DB_DSN", func() { Load() })
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "sqlite")

	require.Panics(t, func() { Load() })
}

func TestLoadChecksIDEncryptKeyLength(t *testing.T) {
	t.Setenv("JWT_SECRET", "rahasia")
	t.Setenv("DB_DRIVER", "sqlite")

	t.Setenv("ID_ENCRYPT_KEY", "terlalu-pendek")
	require.PanicsWithValue(t, "invalid env: ID_ENCRYPT_KEY must be 16, 24 or 32 bytes", func() { Load() })

	t.Setenv("ID_ENCRYPT_KEY", "0123456789abcdef")
	require.Equal(t, "0123456789abcdef", Load().IDEncryptKey)
}
