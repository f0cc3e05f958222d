package sheets

import (
	"context"
	"errors"

	"metas/internal/core"
	"metas/internal/export"
)

// ErrNotFound is returned by readers when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	// GoalReader reads producers' monthly goals.
	GoalReader interface {
		GetGoal(ctx context.Context, producerID string, year int) (core.MonthlyGoal, error)
		// ListGoals returns every goal of a year ordered by producer name.
		ListGoals(ctx context.Context, year int) ([]core.MonthlyGoal, error)
	}

	GoalWriter interface {
		SaveGoal(ctx context.Context, g core.MonthlyGoal) error
	}

	ProducerReader interface {
		ListProducers(ctx context.Context) ([]core.Producer, error)
	}

	// QuoteLister returns the quotes dated in a year.
	QuoteLister interface {
		ListQuotes(ctx context.Context, year int) ([]core.Quote, error)
	}

	QuoteWriter interface {
		AddQuote(ctx context.Context, q core.Quote) (string, error)
	}

	// EscadinhaExporter publishes an escadinha table to an external spreadsheet.
	EscadinhaExporter interface {
		ExportEscadinha(ctx context.Context, t export.Table) (ref string, err error)
	}

	// Store is the full set of ports a data backend provides.
	Store interface {
		GoalReader
		GoalWriter
		ProducerReader
		QuoteLister
		QuoteWriter
	}
)
