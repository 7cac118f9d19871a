// Package logging builds the service's zap logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production JSON logger when appEnv is "production" and a
// human-readable development logger otherwise.
func New(appEnv, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if appEnv == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Bootstrap is the logger used before configuration is loaded: APP_ENV from
// the environment, info level.
func Bootstrap() *zap.Logger {
	logger, err := New(os.Getenv("APP_ENV"), "info")
	if err != nil {
		return zap.NewExample()
	}
	return logger
}
