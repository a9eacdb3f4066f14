package main

import (
	"context"
	"fmt"
	"log/slog"

	"procurement-transparency/internal/config"
	"procurement-transparency/internal/database"
	"procurement-transparency/internal/logging"
	"procurement-transparency/internal/service"
	"procurement-transparency/internal/store"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "transparencyctl",
	Short: "Operator tool for the procurement transparency backend",
	Long: `transparencyctl manages the procurement transparency database: schema
migration, bulk import of projects and citizen reviews, account creation and
statistics rebuilds. It reads the same environment (.env) as the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
}

type env struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *slog.Logger
	deps   service.Deps
}

// openEnv loads configuration and connects to the migrated database.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &env{
		cfg:    cfg,
		db:     db,
		logger: logger,
		deps:   service.Deps{Store: store.New(db), Logger: logger},
	}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
}
