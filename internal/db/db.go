package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pintukerja/pintukerja_be/internal/models"
	"github.com/pintukerja/pintukerja_be/internal/utils"
)

// Config contains database connection options.
type Config struct {
	Driver string // postgres (default) or sqlite
	DSN    string
	// MaxOpenConns caps the pool; 0 keeps the driver default.
	MaxOpenConns int
}

// Connect opens a gorm handle for the configured driver.
func Connect(cfg Config) (*gorm.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "postgres"
	}

	gcfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		gdb *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		gdb, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared&_foreign_keys=1"
		}
		gdb, err = gorm.Open(sqlite.Open(dsn), gcfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gdb, nil
}

// AutoMigrate creates or updates every table the API uses.
func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return errors.New("nil database handle")
	}
	return gdb.AutoMigrate(
		&models.User{},
		&models.EmployerProfile{},
		&models.ModerationEvent{},
		&models.Job{},
		&models.Application{},
		&models.Notification{},
	)
}

// SeedAdmin makes sure an admin account exists for the given credentials.
// An existing account with the same email is left untouched.
func SeedAdmin(gdb *gorm.DB, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil
	}

	var existing models.User
	err := gdb.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Name:               "Administrator",
		Email:              email,
		Password:           hashed,
		Role:               models.RoleAdmin,
		VerificationStatus: models.VerificationVerified,
	}
	if err := gdb.Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return &admin, nil
}
