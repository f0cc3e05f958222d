package storage

import (
	"context"
)

const upsertProducer = `
INSERT INTO producers (id, name) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE producers.name END
`

type UpsertProducerParams struct {
	ID   string
	Name string
}

func (q *Queries) UpsertProducer(ctx context.Context, arg UpsertProducerParams) error {
	_, err := q.db.ExecContext(ctx, upsertProducer, arg.ID, arg.Name)
	return err
}

const listProducers = `
SELECT id, name FROM producers
ORDER BY CASE WHEN name = '' THEN id ELSE name END, id
`

func (q *Queries) ListProducers(ctx context.Context) ([]Producer, error) {
	rows, err := q.db.QueryContext(ctx, listProducers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Producer
	for rows.Next() {
		var i Producer
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertMonthlyGoal = `
INSERT INTO monthly_goals (producer_id, year, jan, fev, mar, abr, mai, jun, jul, ago, "set", out, nov, dez, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(producer_id, year) DO UPDATE SET
    jan = excluded.jan, fev = excluded.fev, mar = excluded.mar, abr = excluded.abr,
    mai = excluded.mai, jun = excluded.jun, jul = excluded.jul, ago = excluded.ago,
    "set" = excluded."set", out = excluded.out, nov = excluded.nov, dez = excluded.dez,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertMonthlyGoalParams struct {
	ProducerID string
	Year       int64
	Months     [12]int64
}

func (q *Queries) UpsertMonthlyGoal(ctx context.Context, arg UpsertMonthlyGoalParams) error {
	args := []interface{}{arg.ProducerID, arg.Year}
	for _, m := range arg.Months {
		args = append(args, m)
	}
	_, err := q.db.ExecContext(ctx, upsertMonthlyGoal, args...)
	return err
}

const selectMonthlyGoal = `
SELECT g.producer_id, COALESCE(p.name, ''), g.year,
       g.jan, g.fev, g.mar, g.abr, g.mai, g.jun, g.jul, g.ago, g."set", g.out, g.nov, g.dez
FROM monthly_goals g
LEFT JOIN producers p ON p.id = g.producer_id
`

const getMonthlyGoal = selectMonthlyGoal + `WHERE g.producer_id = ? AND g.year = ?`

type GetMonthlyGoalParams struct {
	ProducerID string
	Year       int64
}

func (q *Queries) GetMonthlyGoal(ctx context.Context, arg GetMonthlyGoalParams) (MonthlyGoal, error) {
	row := q.db.QueryRowContext(ctx, getMonthlyGoal, arg.ProducerID, arg.Year)
	var i MonthlyGoal
	err := row.Scan(
		&i.ProducerID, &i.ProducerName, &i.Year,
		&i.Jan, &i.Fev, &i.Mar, &i.Abr, &i.Mai, &i.Jun,
		&i.Jul, &i.Ago, &i.Set, &i.Out, &i.Nov, &i.Dez,
	)
	return i, err
}

const listMonthlyGoalsByYear = selectMonthlyGoal + `WHERE g.year = ?
ORDER BY CASE WHEN COALESCE(p.name, '') = '' THEN g.producer_id ELSE p.name END, g.producer_id`

func (q *Queries) ListMonthlyGoalsByYear(ctx context.Context, year int64) ([]MonthlyGoal, error) {
	rows, err := q.db.QueryContext(ctx, listMonthlyGoalsByYear, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthlyGoal
	for rows.Next() {
		var i MonthlyGoal
		if err := rows.Scan(
			&i.ProducerID, &i.ProducerName, &i.Year,
			&i.Jan, &i.Fev, &i.Mar, &i.Abr, &i.Mai, &i.Jun,
			&i.Jul, &i.Ago, &i.Set, &i.Out, &i.Nov, &i.Dez,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createQuote = `
INSERT INTO quotes (cnpj, client_name, branch, insurer, producer_id, premium_cents, status, quote_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateQuoteParams struct {
	Cnpj         string
	ClientName   string
	Branch       string
	Insurer      string
	ProducerID   string
	PremiumCents int64
	Status       string
	QuoteDate    string
}

func (q *Queries) CreateQuote(ctx context.Context, arg CreateQuoteParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createQuote,
		arg.Cnpj, arg.ClientName, arg.Branch, arg.Insurer,
		arg.ProducerID, arg.PremiumCents, arg.Status, arg.QuoteDate,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listQuotesBetween = `
SELECT id, cnpj, client_name, branch, insurer, producer_id, premium_cents, status, quote_date
FROM quotes
WHERE quote_date >= ? AND quote_date < ?
ORDER BY quote_date, id
`

type ListQuotesBetweenParams struct {
	From  string
	Until string
}

func (q *Queries) ListQuotesBetween(ctx context.Context, arg ListQuotesBetweenParams) ([]Quote, error) {
	rows, err := q.db.QueryContext(ctx, listQuotesBetween, arg.From, arg.Until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Quote
	for rows.Next() {
		var i Quote
		if err := rows.Scan(
			&i.ID, &i.Cnpj, &i.ClientName, &i.Branch, &i.Insurer,
			&i.ProducerID, &i.PremiumCents, &i.Status, &i.QuoteDate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createExportJob = `
INSERT INTO export_jobs (id, year, target) VALUES (?, ?, ?)
`

type CreateExportJobParams struct {
	ID     string
	Year   int64
	Target string
}

func (q *Queries) CreateExportJob(ctx context.Context, arg CreateExportJobParams) error {
	_, err := q.db.ExecContext(ctx, createExportJob, arg.ID, arg.Year, arg.Target)
	return err
}

const selectExportJob = `
SELECT id, year, target, status, attempts, ref, last_error, created_at, updated_at
FROM export_jobs
`

const getExportJob = selectExportJob + `WHERE id = ?`

func (q *Queries) GetExportJob(ctx context.Context, id string) (ExportJob, error) {
	row := q.db.QueryRowContext(ctx, getExportJob, id)
	var i ExportJob
	err := row.Scan(
		&i.ID, &i.Year, &i.Target, &i.Status, &i.Attempts,
		&i.Ref, &i.LastError, &i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}

const listPendingExportJobs = selectExportJob + `WHERE status = 'pending'
ORDER BY created_at, id
LIMIT ?`

func (q *Queries) ListPendingExportJobs(ctx context.Context, limit int64) ([]ExportJob, error) {
	rows, err := q.db.QueryContext(ctx, listPendingExportJobs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExportJob
	for rows.Next() {
		var i ExportJob
		if err := rows.Scan(
			&i.ID, &i.Year, &i.Target, &i.Status, &i.Attempts,
			&i.Ref, &i.LastError, &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markExportJobDone = `
UPDATE export_jobs
SET status = 'done', attempts = attempts + 1, ref = ?, last_error = '', updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

type MarkExportJobDoneParams struct {
	Ref string
	ID  string
}

func (q *Queries) MarkExportJobDone(ctx context.Context, arg MarkExportJobDoneParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, markExportJobDone, arg.Ref, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// A failed attempt stays pending until maxAttempts is reached.
const markExportJobFailed = `
UPDATE export_jobs
SET attempts = attempts + 1,
    status = CASE WHEN attempts + 1 >= ? THEN 'failed' ELSE 'pending' END,
    last_error = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

type MarkExportJobFailedParams struct {
	MaxAttempts int64
	LastError   string
	ID          string
}

func (q *Queries) MarkExportJobFailed(ctx context.Context, arg MarkExportJobFailedParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, markExportJobFailed, arg.MaxAttempts, arg.LastError, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
