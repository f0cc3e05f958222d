package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"metas/internal/core"
	ports "metas/internal/sheets"

	_ "modernc.org/sqlite"
)

const quoteDateLayout = "2006-01-02"

// ExportStatus values of the export_jobs table.
const (
	ExportPending = "pending"
	ExportDone    = "done"
	ExportFailed  = "failed"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveGoal implements sheets.GoalWriter. The producer row is upserted in the
// same transaction.
func (r *SQLiteRepository) SaveGoal(ctx context.Context, g core.MonthlyGoal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.UpsertProducer(ctx, UpsertProducerParams{ID: g.ProducerID, Name: strings.TrimSpace(g.ProducerName)}); err != nil {
		return fmt.Errorf("upsert producer: %w", err)
	}
	if err := q.UpsertMonthlyGoal(ctx, UpsertMonthlyGoalParams{
		ProducerID: g.ProducerID,
		Year:       int64(g.Year),
		Months:     g.Values(),
	}); err != nil {
		return fmt.Errorf("upsert monthly goal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Monthly goal saved to SQLite",
		"producer_id", g.ProducerID,
		"year", g.Year,
		"total_cents", g.Total().Cents)
	return nil
}

// GetGoal implements sheets.GoalReader.
func (r *SQLiteRepository) GetGoal(ctx context.Context, producerID string, year int) (core.MonthlyGoal, error) {
	row, err := r.queries.GetMonthlyGoal(ctx, GetMonthlyGoalParams{ProducerID: producerID, Year: int64(year)})
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyGoal{}, fmt.Errorf("goal %s/%d: %w", producerID, year, ports.ErrNotFound)
	}
	if err != nil {
		return core.MonthlyGoal{}, fmt.Errorf("get monthly goal: %w", err)
	}
	return row.toCore(), nil
}

// ListGoals implements sheets.GoalReader.
func (r *SQLiteRepository) ListGoals(ctx context.Context, year int) ([]core.MonthlyGoal, error) {
	rows, err := r.queries.ListMonthlyGoalsByYear(ctx, int64(year))
	if err != nil {
		return nil, fmt.Errorf("list monthly goals: %w", err)
	}
	goals := make([]core.MonthlyGoal, len(rows))
	for i, row := range rows {
		goals[i] = row.toCore()
	}
	return goals, nil
}

// ListProducers implements sheets.ProducerReader.
func (r *SQLiteRepository) ListProducers(ctx context.Context) ([]core.Producer, error) {
	rows, err := r.queries.ListProducers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list producers: %w", err)
	}
	out := make([]core.Producer, len(rows))
	for i, p := range rows {
		out[i] = core.Producer{ID: p.ID, Name: p.Name}
	}
	return out, nil
}

// AddQuote implements sheets.QuoteWriter.
func (r *SQLiteRepository) AddQuote(ctx context.Context, q core.Quote) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	id, err := r.queries.CreateQuote(ctx, CreateQuoteParams{
		Cnpj:         core.NormalizeCNPJ(q.CNPJ),
		ClientName:   strings.TrimSpace(q.ClientName),
		Branch:       strings.TrimSpace(q.Branch),
		Insurer:      strings.TrimSpace(q.Insurer),
		ProducerID:   strings.TrimSpace(q.ProducerID),
		PremiumCents: q.Premium.Cents,
		Status:       string(q.Status),
		QuoteDate:    q.Date.Format(quoteDateLayout),
	})
	if err != nil {
		return "", fmt.Errorf("create quote: %w", err)
	}
	slog.InfoContext(ctx, "Quote saved to SQLite", "id", id, "status", q.Status, "premium_cents", q.Premium.Cents)
	return strconv.FormatInt(id, 10), nil
}

// ListQuotes implements sheets.QuoteLister.
func (r *SQLiteRepository) ListQuotes(ctx context.Context, year int) ([]core.Quote, error) {
	rows, err := r.queries.ListQuotesBetween(ctx, ListQuotesBetweenParams{
		From:  fmt.Sprintf("%04d-01-01", year),
		Until: fmt.Sprintf("%04d-01-01", year+1),
	})
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	out := make([]core.Quote, 0, len(rows))
	for _, row := range rows {
		d, err := time.Parse(quoteDateLayout, row.QuoteDate)
		if err != nil {
			slog.WarnContext(ctx, "Skipping quote with invalid date", "id", row.ID, "quote_date", row.QuoteDate)
			continue
		}
		out = append(out, core.Quote{
			ID:         strconv.FormatInt(row.ID, 10),
			CNPJ:       row.Cnpj,
			ClientName: row.ClientName,
			Branch:     row.Branch,
			Insurer:    row.Insurer,
			ProducerID: row.ProducerID,
			Premium:    core.Money{Cents: row.PremiumCents},
			Status:     core.QuoteStatus(row.Status),
			Date:       d,
		})
	}
	return out, nil
}

// CreateExportJob records a pending export request.
func (r *SQLiteRepository) CreateExportJob(ctx context.Context, id string, year int, target string) error {
	if err := r.queries.CreateExportJob(ctx, CreateExportJobParams{ID: id, Year: int64(year), Target: target}); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetExportJob(ctx context.Context, id string) (ExportJob, error) {
	job, err := r.queries.GetExportJob(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportJob{}, fmt.Errorf("export job %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return ExportJob{}, fmt.Errorf("get export job: %w", err)
	}
	return job, nil
}

// PendingExportJobs returns up to limit pending jobs, oldest first.
func (r *SQLiteRepository) PendingExportJobs(ctx context.Context, limit int) ([]ExportJob, error) {
	jobs, err := r.queries.ListPendingExportJobs(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending export jobs: %w", err)
	}
	return jobs, nil
}

func (r *SQLiteRepository) MarkExportDone(ctx context.Context, id, ref string) error {
	n, err := r.queries.MarkExportJobDone(ctx, MarkExportJobDoneParams{Ref: ref, ID: id})
	if err != nil {
		return fmt.Errorf("mark export done: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("export job %s: %w", id, ports.ErrNotFound)
	}
	slog.InfoContext(ctx, "Export job marked as done", "job_id", id, "ref", ref)
	return nil
}

// MarkExportFailed records a failed attempt. The job becomes failed once
// maxAttempts attempts have been made and stays pending otherwise.
func (r *SQLiteRepository) MarkExportFailed(ctx context.Context, id string, cause error, maxAttempts int) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	n, err := r.queries.MarkExportJobFailed(ctx, MarkExportJobFailedParams{
		MaxAttempts: int64(maxAttempts),
		LastError:   msg,
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("export job %s: %w", id, ports.ErrNotFound)
	}
	slog.WarnContext(ctx, "Export job attempt failed", "job_id", id, "error", msg)
	return nil
}

func (g MonthlyGoal) toCore() core.MonthlyGoal {
	months := [core.MonthsInYear]int64{g.Jan, g.Fev, g.Mar, g.Abr, g.Mai, g.Jun, g.Jul, g.Ago, g.Set, g.Out, g.Nov, g.Dez}
	out := core.MonthlyGoal{ProducerID: g.ProducerID, ProducerName: g.ProducerName, Year: int(g.Year)}
	for i, c := range months {
		out.Months[i] = core.Money{Cents: c}
	}
	return out
}
