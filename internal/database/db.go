package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"procurement-transparency/internal/config"
	"procurement-transparency/internal/logging"
	"procurement-transparency/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	maxAttempts  = 10
	retryBackoff = 2 * time.Second
)

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(sqliteDSN(dsn)), nil
	}
	return nil, fmt.Errorf("unsupported DB driver %q", driver)
}

// sqlite needs foreign keys switched on per connection
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Open connects to the configured database, retrying while it comes up.
func Open(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	dial, err := dialector(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	for i := 1; i <= maxAttempts; i++ {
		logger.Info("connecting to database", "driver", cfg.DBDriver, "attempt", i, "max", maxAttempts)

		db, err = gorm.Open(dial, &gorm.Config{
			Logger:         logging.GormLogger(logger, cfg.LogLevel),
			TranslateError: true,
		})
		if err == nil {
			break
		}

		logger.Warn("database connection failed", "error", err)
		if i < maxAttempts {
			time.Sleep(retryBackoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to db after %d attempts: %w", maxAttempts, err)
	}

	if cfg.DBDriver == "sqlite" {
		// one writer at a time; row locks are not available
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Info("connected to database")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Ministry{},
		&models.Project{},
		&models.CitizenReview{},
		&models.ProjectStatistics{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SeedAdmin creates the admin account unless an admin already exists.
func SeedAdmin(ctx context.Context, db *gorm.DB, username, password string, logger *slog.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Username:     username,
		Name:         "Administrator",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.Info("created default admin user", "username", username)
	return nil
}
