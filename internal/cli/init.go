// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/opsdeck and cmd/opsdeck-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"opsdeck/internal/config"
	applog "opsdeck/internal/log"
	"opsdeck/internal/storage"
)

// Bootstrap loads the optional .env file, validates configuration and
// installs the default structured logger per LOG_LEVEL and LOG_FORMAT.
// Exits the process on validation failure.
func Bootstrap() (*config.Config, *slog.Logger) {
	// .env is optional; production runs on real environment variables
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger := slog.New(applog.NewHandler(applog.ParseLevel(cfg.LogLevel), cfg.LogFormat))
	slog.SetDefault(logger)
	return cfg, logger
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *slog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM,
// running cleanup first under the given timeout.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		if cleanup != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
			defer shutdownCancel()
			cleanup(shutdownCtx)
		}
		cancel()
	}()

	return ctx
}
