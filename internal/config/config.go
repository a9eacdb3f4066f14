package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBDriver string
	DBDSN    string

	ServerPort    string
	ServerMode    string
	SessionSecret string
	CORSOrigins   []string

	JWTSecret string
	JWTExpire time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	LogLevel string

	AdminUsername string
	AdminPassword string
}

func defaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("JWT_EXPIRE_HOURS", 24)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ADMIN_USERNAME", "admin@transparency.local")
	v.SetDefault("ADMIN_PASSWORD", "Admin123!")
	v.SetDefault("CORS_ORIGINS", "*")
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)
	return fromViper(v)
}

// MustLoad is Load for process entry points: a bad config is fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBDriver:      strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:         v.GetString("DB_DSN"),
		ServerPort:    v.GetString("SERVER_PORT"),
		ServerMode:    v.GetString("SERVER_MODE"),
		SessionSecret: v.GetString("SESSION_SECRET"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTExpire:     time.Duration(v.GetInt("JWT_EXPIRE_HOURS")) * time.Hour,
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CacheTTL:      time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		LogLevel:      v.GetString("LOG_LEVEL"),
		AdminUsername: v.GetString("ADMIN_USERNAME"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
	}
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	switch cfg.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER %q is not supported", cfg.DBDriver)
	}
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.JWTExpire <= 0 {
		return nil, errors.New("JWT_EXPIRE_HOURS must be positive")
	}
	return cfg, nil
}
