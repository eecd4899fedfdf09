// Package cli provides common CLI initialization utilities shared by
// cmd/ledger, cmd/ledger-worker and cmd/oauth-init.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/config"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// sets it as the slog default. An unknown level falls back to info;
// Validate reports it.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	lc := applog.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.LogFormat
	lc.Component = component

	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads .env and the environment, builds the logger and
// runs validate. It exits the process on validation failure.
func LoadAndValidateConfig(component string, validate func(*config.Config) error) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)

	if validate != nil {
		if err := validate(cfg); err != nil {
			logger.Error("Configuration validation failed", applog.FieldError, err)
			os.Exit(1)
		}
	}
	return cfg, logger
}

// InitStore opens the SQLite store, applying migrations and seeding the
// default categories. It exits the process on failure.
func InitStore(ctx context.Context, logger *applog.Logger, dbPath string) *storage.Store {
	logger = logger.WithComponent(applog.ComponentStorage)
	store, err := storage.Open(ctx, dbPath, core.SystemClock)
	if err != nil {
		logger.Error("Failed to initialize SQLite store", applog.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	logger.Info("SQLite store ready", "path", dbPath)
	return store
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
// Call stop to release the signal handler.
func GracefulShutdown(logger *applog.Logger) (ctx context.Context, stop context.CancelFunc) {
	ctx, stop = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}
