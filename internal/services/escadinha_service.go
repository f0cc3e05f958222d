package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"metas/internal/cache"
	"metas/internal/core"
	"metas/internal/sheets"
)

// buildConcurrency bounds the per-producer fan-out of BuildYear.
const buildConcurrency = 8

// EscadinhaService turns stored goals into escadinha reports.
type EscadinhaService struct {
	goals      sheets.GoalReader
	cache      cache.Cache[core.Escadinha]
	thresholds []core.Money
}

// NewEscadinhaService returns a service using thresholds for crossing
// detection. A nil cache disables caching.
func NewEscadinhaService(goals sheets.GoalReader, c cache.Cache[core.Escadinha], thresholds []core.Money) *EscadinhaService {
	if len(thresholds) == 0 {
		thresholds = core.DefaultThresholds
	}
	return &EscadinhaService{goals: goals, cache: c, thresholds: thresholds}
}

func cacheKey(year int, producerID string) string {
	return fmt.Sprintf("escadinha:%d:%s", year, producerID)
}

// Compute runs the accumulator over twelve ad-hoc monthly values.
func (s *EscadinhaService) Compute(monthly [core.MonthsInYear]core.Money) (core.Escadinha, error) {
	if err := core.ValidateMonths(monthly); err != nil {
		return core.Escadinha{}, err
	}
	return core.BuildEscadinha(core.MonthlyGoal{Months: monthly}, s.thresholds), nil
}

// ForProducer builds the escadinha of one producer's goal.
func (s *EscadinhaService) ForProducer(ctx context.Context, producerID string, year int) (core.Escadinha, error) {
	g, err := s.goals.GetGoal(ctx, producerID, year)
	if err != nil {
		return core.Escadinha{}, err
	}
	return s.build(g)
}

// BuildYear returns the escadinha of every producer with a goal in year,
// ordered by producer name.
func (s *EscadinhaService) BuildYear(ctx context.Context, year int) ([]core.Escadinha, error) {
	goals, err := s.goals.ListGoals(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	out := make([]core.Escadinha, len(goals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(buildConcurrency)
	for i, goal := range goals {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.build(goal)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Goal.DisplayName() < out[j].Goal.DisplayName()
	})
	slog.DebugContext(ctx, "Escadinha year built", "year", year, "producers", len(out))
	return out, nil
}

// Invalidate drops cached reports of a year.
func (s *EscadinhaService) Invalidate(year int) {
	if s.cache == nil {
		return
	}
	s.cache.DeletePrefix(fmt.Sprintf("escadinha:%d:", year))
}

// build serves from cache only when the cached report was computed from an
// identical goal, so reports never outlive the goal they came from.
func (s *EscadinhaService) build(g core.MonthlyGoal) (core.Escadinha, error) {
	if err := g.Validate(); err != nil {
		return core.Escadinha{}, err
	}
	key := cacheKey(g.Year, g.ProducerID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok && cached.Goal == g {
			return cached, nil
		}
	}
	r := core.BuildEscadinha(g, s.thresholds)
	if s.cache != nil {
		s.cache.Set(key, r)
	}
	return r, nil
}
