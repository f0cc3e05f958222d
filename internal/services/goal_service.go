package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"metas/internal/core"
	"metas/internal/sheets"
)

// GoalStore is what GoalService needs from a data backend.
type GoalStore interface {
	sheets.GoalReader
	sheets.GoalWriter
	sheets.ProducerReader
}

// GoalService saves goals and keeps derived reports consistent with them.
type GoalService struct {
	store     GoalStore
	escadinha *EscadinhaService
	sync      *ExportService // optional
}

func NewGoalService(store GoalStore, escadinha *EscadinhaService, sync *ExportService) *GoalService {
	return &GoalService{store: store, escadinha: escadinha, sync: sync}
}

// SaveGoal validates and stores g, drops the cached reports of its year and
// requests a sheets export when one is configured. A failed export request
// does not fail the save.
func (s *GoalService) SaveGoal(ctx context.Context, g core.MonthlyGoal) error {
	g.ProducerID = strings.TrimSpace(g.ProducerID)
	g.ProducerName = strings.TrimSpace(g.ProducerName)
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveGoal(ctx, g); err != nil {
		return fmt.Errorf("save goal: %w", err)
	}
	if s.escadinha != nil {
		s.escadinha.Invalidate(g.Year)
	}
	if s.sync != nil && s.sync.AutoSync() {
		if _, err := s.sync.RequestSync(ctx, g.Year); err != nil {
			slog.ErrorContext(ctx, "Failed to request escadinha sync",
				"producer_id", g.ProducerID, "year", g.Year, "error", err)
		}
	}
	return nil
}

func (s *GoalService) GetGoal(ctx context.Context, producerID string, year int) (core.MonthlyGoal, error) {
	return s.store.GetGoal(ctx, strings.TrimSpace(producerID), year)
}

func (s *GoalService) ListGoals(ctx context.Context, year int) ([]core.MonthlyGoal, error) {
	return s.store.ListGoals(ctx, year)
}

func (s *GoalService) ListProducers(ctx context.Context) ([]core.Producer, error) {
	return s.store.ListProducers(ctx)
}
