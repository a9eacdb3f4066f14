package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup installs a stderr logger at the given level as the slog default.
func Setup(level string) *slog.Logger {
	logger := NewLogger(os.Stderr, LevelFromString(level))
	slog.SetDefault(logger)
	return logger
}

func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(100)}))
}

// GormLogger routes gorm's SQL log through slog. Only slow queries and
// errors are reported unless the level is debug.
func GormLogger(logger *slog.Logger, level string) gormlogger.Interface {
	gormLevel := gormlogger.Warn
	if LevelFromString(level) == slog.LevelDebug {
		gormLevel = gormlogger.Info
	}
	return gormlogger.New(
		slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
		},
	)
}
