package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"metas/internal/amqp"
	"metas/internal/export"
	"metas/internal/sheets"
	"metas/internal/storage"
)

// TableBuilder produces the export table of a year.
type TableBuilder interface {
	Table(ctx context.Context, year int) (export.Table, error)
}

// JobStore tracks export jobs. It is optional: without one the worker only
// serves broker messages.
type JobStore interface {
	GetExportJob(ctx context.Context, id string) (storage.ExportJob, error)
	PendingExportJobs(ctx context.Context, limit int) ([]storage.ExportJob, error)
	MarkExportDone(ctx context.Context, id, ref string) error
	MarkExportFailed(ctx context.Context, id string, cause error, maxAttempts int) error
}

// Observer receives the outcome of every export attempt.
type Observer interface {
	ObserveExport(target string, err error, d time.Duration)
}

type Config struct {
	// BatchSize bounds the pending jobs retried per sweep.
	BatchSize int
	// PollInterval is the delay between pending sweeps.
	PollInterval time.Duration
	// MaxAttempts marks a job failed after this many errors.
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{BatchSize: 10, PollInterval: 30 * time.Second, MaxAttempts: 5}
}

// ExportWorker pushes escadinha tables to their export targets.
type ExportWorker struct {
	tables    TableBuilder
	exporters map[string]sheets.EscadinhaExporter
	jobs      JobStore
	observer  Observer
	cfg       Config

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New returns a worker. exporters maps amqp targets to sinks; jobs and
// observer may be nil.
func New(tables TableBuilder, exporters map[string]sheets.EscadinhaExporter, jobs JobStore, observer Observer, cfg Config) *ExportWorker {
	def := DefaultConfig()
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	return &ExportWorker{tables: tables, exporters: exporters, jobs: jobs, observer: observer, cfg: cfg}
}

// HandleExportRequest runs one export. A returned error asks the broker to
// redeliver; terminal outcomes (unknown target, no data, job exhausted)
// return nil.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequest) error {
	if w.settled(ctx, msg.JobID) {
		slog.DebugContext(ctx, "Export job already settled", "job_id", msg.JobID)
		return nil
	}

	exporter, ok := w.exporters[msg.Target]
	if !ok {
		err := fmt.Errorf("no exporter configured for target %q", msg.Target)
		slog.ErrorContext(ctx, "Dropping export request", "job_id", msg.JobID, "error", err)
		w.markFailed(ctx, msg.JobID, err, true)
		return nil
	}

	start := time.Now()
	ref, err := w.export(ctx, exporter, msg.Year)
	if w.observer != nil {
		w.observer.ObserveExport(msg.Target, err, time.Since(start))
	}
	if errors.Is(err, export.ErrNoData) {
		slog.InfoContext(ctx, "No goals to export", "job_id", msg.JobID, "year", msg.Year)
		w.markDone(ctx, msg.JobID, "")
		return nil
	}
	if err != nil {
		if w.markFailed(ctx, msg.JobID, err, false) {
			return nil
		}
		return fmt.Errorf("export escadinha %d: %w", msg.Year, err)
	}

	w.markDone(ctx, msg.JobID, ref)
	slog.InfoContext(ctx, "Escadinha exported",
		"job_id", msg.JobID,
		"year", msg.Year,
		"target", msg.Target,
		"ref", ref,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// settled reports whether the job is already done or failed, which happens
// when the retry sweep and a redelivered message race.
func (w *ExportWorker) settled(ctx context.Context, id string) bool {
	if w.jobs == nil || id == "" {
		return false
	}
	job, err := w.jobs.GetExportJob(ctx, id)
	if err != nil {
		return false
	}
	return job.Status == storage.ExportDone || job.Status == storage.ExportFailed
}

func (w *ExportWorker) export(ctx context.Context, exporter sheets.EscadinhaExporter, year int) (string, error) {
	t, err := w.tables.Table(ctx, year)
	if err != nil {
		return "", err
	}
	return exporter.ExportEscadinha(ctx, t)
}

func (w *ExportWorker) markDone(ctx context.Context, id, ref string) {
	if w.jobs == nil {
		return
	}
	if err := w.jobs.MarkExportDone(ctx, id, ref); err != nil && !errors.Is(err, sheets.ErrNotFound) {
		slog.ErrorContext(ctx, "Failed to mark export job done", "job_id", id, "error", err)
	}
}

// markFailed records the failure and reports whether the job is now
// terminally failed.
func (w *ExportWorker) markFailed(ctx context.Context, id string, cause error, terminal bool) bool {
	if w.jobs == nil {
		return terminal
	}
	limit := w.cfg.MaxAttempts
	if terminal {
		limit = 1
	}
	if err := w.jobs.MarkExportFailed(ctx, id, cause, limit); err != nil {
		if !errors.Is(err, sheets.ErrNotFound) {
			slog.ErrorContext(ctx, "Failed to mark export job failed", "job_id", id, "error", err)
		}
		return terminal
	}
	job, err := w.jobs.GetExportJob(ctx, id)
	if err != nil {
		return terminal
	}
	return job.Status == storage.ExportFailed
}

// ProcessPending retries pending jobs whose messages may have been lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	if w.jobs == nil {
		return nil
	}
	jobs, err := w.jobs.PendingExportJobs(ctx, w.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("get pending export jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}
	slog.InfoContext(ctx, "Processing pending export jobs", "count", len(jobs))
	for _, j := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := &amqp.ExportRequest{JobID: j.ID, Year: int(j.Year), Target: j.Target}
		if err := w.HandleExportRequest(ctx, msg); err != nil {
			slog.WarnContext(ctx, "Pending export job failed", "job_id", j.ID, "error", err)
		}
	}
	return nil
}

// Start runs ProcessPending immediately and then every PollInterval.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("export worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)
	slog.InfoContext(ctx, "Export worker started",
		"poll_interval", w.cfg.PollInterval,
		"batch_size", w.cfg.BatchSize)
	return nil
}

func (w *ExportWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExportWorker) sweep(ctx context.Context) {
	if err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Pending export sweep failed", "error", err)
	}
}

// Stop ends the loop and waits for it, or for ctx.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Export worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
