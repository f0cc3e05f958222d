package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"metas/internal/amqp"
	"metas/internal/export"
)

// ErrSyncUnavailable is returned by RequestSync when no broker is configured.
var ErrSyncUnavailable = errors.New("escadinha sync is not configured")

// Publisher sends export requests to the worker.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.ExportRequest) error
}

// JobRecorder persists export requests so lost messages can be retried.
type JobRecorder interface {
	CreateExportJob(ctx context.Context, id string, year int, target string) error
}

type ExportOptions struct {
	// Target is the amqp target requested by RequestSync.
	Target string
	// AutoSync requests an export every time a goal is saved.
	AutoSync bool
}

// ExportService builds escadinha tables and hands them to writers or to the
// export worker.
type ExportService struct {
	escadinha *EscadinhaService
	publisher Publisher
	jobs      JobRecorder
	opts      ExportOptions
}

// NewExportService accepts nil publisher and jobs.
func NewExportService(escadinha *EscadinhaService, publisher Publisher, jobs JobRecorder, opts ExportOptions) *ExportService {
	if opts.Target == "" {
		opts.Target = amqp.TargetSheets
	}
	return &ExportService{escadinha: escadinha, publisher: publisher, jobs: jobs, opts: opts}
}

// Table returns the export table of a year or export.ErrNoData.
func (s *ExportService) Table(ctx context.Context, year int) (export.Table, error) {
	reports, err := s.escadinha.BuildYear(ctx, year)
	if err != nil {
		return export.Table{}, err
	}
	return export.BuildTable(year, reports)
}

// Write serializes the year's table to w.
func (s *ExportService) Write(ctx context.Context, w io.Writer, year int, format export.Format) error {
	t, err := s.Table(ctx, year)
	if err != nil {
		return err
	}
	return export.WriteTo(w, t, format)
}

func (s *ExportService) SyncEnabled() bool { return s.publisher != nil }

func (s *ExportService) AutoSync() bool { return s.opts.AutoSync && s.SyncEnabled() }

// RequestSync records a pending job and publishes it, returning the job id.
func (s *ExportService) RequestSync(ctx context.Context, year int) (string, error) {
	if s.publisher == nil {
		return "", ErrSyncUnavailable
	}
	msg := amqp.NewExportRequest(year, s.opts.Target)
	if err := msg.Validate(); err != nil {
		return "", err
	}
	if s.jobs != nil {
		if err := s.jobs.CreateExportJob(ctx, msg.JobID, year, msg.Target); err != nil {
			return "", fmt.Errorf("record export job: %w", err)
		}
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		// The recorded job is still retried by the worker's pending sweep.
		if s.jobs != nil {
			slog.WarnContext(ctx, "Publish failed, job left pending", "job_id", msg.JobID, "error", err)
			return msg.JobID, nil
		}
		return "", fmt.Errorf("publish export request: %w", err)
	}
	return msg.JobID, nil
}
