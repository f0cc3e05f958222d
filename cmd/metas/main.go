package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"metas/internal/cache"
	"metas/internal/cli"
	"metas/internal/core"
	apphttp "metas/internal/http"
	"metas/internal/log"
	"metas/internal/metrics"
	"metas/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.OpenBackend(context.Background(), logger, cfg)

	m := metrics.New()
	reports := cache.NewLRUCache[core.Escadinha](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	metrics.RegisterCache(m, "escadinha", reports)
	caches := cache.NewManager()
	caches.Register(reports)
	caches.StartCleanup(context.Background(), cfg.ReportCacheTTL)

	escadinha := services.NewEscadinhaService(res.Backend, reports, cfg.Thresholds)
	exports := services.NewExportService(escadinha, res.Publisher(), res.JobRecorder(), services.ExportOptions{
		Target:   cfg.ExportTarget,
		AutoSync: cfg.ExportAutoSync,
	})
	goals := services.NewGoalService(res.Backend, escadinha, exports)
	quotes := services.NewQuoteService(res.Backend, res.Backend, res.Backend)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Goals:     goals,
		Escadinha: escadinha,
		Exports:   exports,
		Quotes:    quotes,
		Metrics:   m,
		Logger:    logger,
		Checks:    map[string]apphttp.ReadinessCheck{"store": res.Ping},
	}, apphttp.Options{RateLimitRPM: cfg.RateLimitRPM})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting metas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"sync_enabled", exports.SyncEnabled(),
		"export_target", cfg.ExportTarget)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
