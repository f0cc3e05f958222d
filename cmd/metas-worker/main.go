package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"metas/internal/amqp"
	"metas/internal/cache"
	"metas/internal/cli"
	"metas/internal/core"
	"metas/internal/export"
	"metas/internal/log"
	"metas/internal/metrics"
	"metas/internal/services"
	"metas/internal/sheets"
	gsheet "metas/internal/sheets/google"
	"metas/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting metas-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	res := cli.OpenBackend(context.Background(), logger, cfg)
	defer res.Close()

	if res.AMQP == nil {
		logger.Error("metas-worker needs a reachable broker, set AMQP_URL")
		os.Exit(1)
	}

	exporters := map[string]sheets.EscadinhaExporter{
		amqp.TargetFile: export.DirExporter{Dir: filepath.Join(cfg.DataDir, "exports"), Format: export.FormatXLSX},
	}
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetBase:       cfg.EscadinhaSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporters[amqp.TargetSheets] = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	m := metrics.New()
	reports := cache.NewLRUCache[core.Escadinha](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	metrics.RegisterCache(m, "escadinha", reports)

	escadinha := services.NewEscadinhaService(res.Backend, reports, cfg.Thresholds)
	tables := services.NewExportService(escadinha, nil, nil, services.ExportOptions{})

	exportWorker := worker.New(tables, exporters, res.Jobs, m, worker.Config{
		BatchSize:    cfg.ExportBatchSize,
		PollInterval: cfg.ExportPollInterval,
		MaxAttempts:  cfg.ExportMaxAttempts,
	})

	var metricsSrv *http.Server
	if addr := os.Getenv("WORKER_METRICS_ADDR"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := exportWorker.Stop(ctx); err != nil {
			logger.Error("Export worker stop error", log.FieldError, err)
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(ctx)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return res.AMQP.ConsumeExportRequests(gctx, exportWorker.HandleExportRequest)
	})
	g.Go(func() error {
		return exportWorker.Start(gctx)
	})
	if metricsSrv != nil {
		g.Go(func() error {
			logger.Info("Serving worker metrics", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("metas-worker stopped gracefully")
}
