package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"procurement-transparency/internal/auth"
	"procurement-transparency/internal/cache"
	"procurement-transparency/internal/config"
	"procurement-transparency/internal/database"
	"procurement-transparency/internal/logging"
	"procurement-transparency/internal/server"
	"procurement-transparency/internal/service"
	"procurement-transparency/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.MustLoad()
	logger := logging.Setup(cfg.LogLevel)

	if cfg.ServerMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	if err := database.SeedAdmin(ctx, db, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	var c cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		r, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// без кеша сервис работает, только медленнее
			logger.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer r.Close()
			c = r
		}
	}

	st := store.New(db)
	deps := service.Deps{Store: st, Cache: c, CacheTTL: cfg.CacheTTL, Logger: logger}
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpire)

	r := server.NewRouter(cfg, server.Services{
		Projects: service.NewProjectService(deps),
		Reviews:  service.NewReviewService(deps),
		Stats:    service.NewStatisticsService(deps),
		Auth:     service.NewAuthService(deps, tokens),
		Audit:    service.NewAuditService(deps),
		Tokens:   tokens,
		Users:    st,
	})

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	slog.Info("starting server", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
