// Package cli holds the start-up steps shared by cmd/metas, cmd/metas-worker
// and cmd/escadinha.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"metas/internal/backend"
	"metas/internal/config"
	"metas/internal/log"
)

// exit is replaced in tests.
var exit = os.Exit

// SetupLogger builds the process logger for the given level name and makes
// it the slog default.
func SetupLogger(level, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		exit(1)
	}
	return cfg
}

// OpenBackend creates the configured store plus the optional broker.
// Exits the process when the store cannot be opened.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		exit(1)
		return nil
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", bcfg.Type)
		exit(1)
		return nil
	}
	return res
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM and
// then runs cleanup, bounded by timeout. The done channel closes once
// cleanup has returned or the timeout expired.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
		runCleanup(logger, timeout, cleanup)
		close(done)
	}()

	return ctx, done
}

func runCleanup(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) {
	if cleanup == nil {
		return
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	finished := make(chan struct{})
	go func() {
		cleanup(shutdownCtx)
		close(finished)
	}()

	select {
	case <-finished:
		logger.Info("Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout reached")
	}
}

// WaitForShutdown blocks until the context is cancelled and cleanup ended.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
