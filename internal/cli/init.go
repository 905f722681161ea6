// Package cli carries the startup plumbing shared by the despesas binaries.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"despesas/internal/config"
	"despesas/internal/storage"
)

// Bootstrap loads the optional .env file, installs the default text logger,
// and returns the validated configuration. Invalid configuration is fatal.
func Bootstrap() (*slog.Logger, *config.Config) {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return logger, cfg
}

// MustOpenSQLite opens and migrates the repository at dbPath, exiting the
// process on failure. Binaries only; library code returns the error.
func MustOpenSQLite(logger *slog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to open SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// ShutdownOnSignal cancels the returned context on SIGINT or SIGTERM, running
// cleanup first. The done channel closes once shutdown has settled; timeout
// caps how long a slow cleanup may delay that.
func ShutdownOnSignal(logger *slog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)

		sig := <-sigs
		logger.Info("Shutdown signal received", "signal", sig.String())

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}

		cancel()
		// Grace period for goroutines observing ctx.
		time.Sleep(2 * time.Second)
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
