// Package observability provides logger construction and the common fields
// attached to match-scoped log lines.
package observability

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/pantheon/internal/config"
)

// NewLogger creates a structured logger from the given logging configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// ForMatch returns a child logger tagged with the match id.
//
// Precondition: logger must be non-nil.
func ForMatch(logger *zap.Logger, id uuid.UUID) *zap.Logger {
	return logger.With(zap.String("match_id", id.String()))
}

// ForPlayer returns a child logger tagged with the remote address and, once
// the match exists, the match id.
func ForPlayer(logger *zap.Logger, remote string, id uuid.UUID) *zap.Logger {
	l := logger.With(zap.String("remote", remote))
	if id != uuid.Nil {
		l = ForMatch(l, id)
	}
	return l
}
