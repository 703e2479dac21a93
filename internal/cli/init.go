// Package cli holds the startup steps shared by cmd/spendwise,
// cmd/spendwise-worker and cmd/reminder-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendwise/internal/config"
	"spendwise/internal/log"
	"spendwise/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(level, format string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	if format != "" {
		cfg.Format = format
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and exits
// the process when it is invalid.
func LoadAndValidateConfig() (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenDatabase opens the SQLite store, dropping the schema first when the
// configuration allows a reset.
func OpenDatabase(logger *log.Logger, cfg *config.Config) (*storage.SQLiteRepository, error) {
	logger = logger.WithComponent(log.ComponentStorage)
	if cfg.DBReset {
		if !cfg.ResetAllowed() {
			logger.Warn("DB_RESET ignored outside development", "app_env", cfg.AppEnv)
		} else {
			logger.Warn("Resetting database schema", "path", cfg.SQLiteDBPath)
			if err := storage.ResetSchema(cfg.SQLiteDBPath); err != nil {
				return nil, fmt.Errorf("reset schema: %w", err)
			}
		}
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLiteDBPath, err)
	}
	logger.Info("Database ready", "path", cfg.SQLiteDBPath)
	return repo, nil
}

// InitSQLite is OpenDatabase that exits the process on failure.
func InitSQLite(logger *log.Logger, cfg *config.Config) *storage.SQLiteRepository {
	repo, err := OpenDatabase(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err)
		os.Exit(1)
	}
	return repo
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// GracefulShutdown runs cleanup with a deadline of timeout and logs whether
// it finished in time.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cleanup(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Shutdown finished with errors", log.FieldError, err)
			return err
		}
		logger.Info("Shutdown complete")
		return nil
	case <-ctx.Done():
		logger.Warn("Shutdown timeout reached", "timeout", timeout)
		return ctx.Err()
	}
}
