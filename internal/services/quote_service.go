package services

import (
	"context"
	"fmt"

	"metas/internal/core"
	"metas/internal/sheets"
)

// QuoteSummary aggregates a year of quotes.
type QuoteSummary struct {
	Year       int
	Count      int
	Premium    core.Money
	Groups     []core.ClientBranchGroup
	ByInsurer  []core.Share
	ByProducer []core.Share
	ByStatus   []core.Share
	ByBranch   []core.Share
	// Realized holds closed premiums per month.
	Realized [core.MonthsInYear]core.Money
}

type QuoteService struct {
	quotes sheets.QuoteLister
	writer sheets.QuoteWriter
	goals  sheets.GoalReader
}

func NewQuoteService(quotes sheets.QuoteLister, writer sheets.QuoteWriter, goals sheets.GoalReader) *QuoteService {
	return &QuoteService{quotes: quotes, writer: writer, goals: goals}
}

func (s *QuoteService) AddQuote(ctx context.Context, q core.Quote) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	q.CNPJ = core.NormalizeCNPJ(q.CNPJ)
	return s.writer.AddQuote(ctx, q)
}

func (s *QuoteService) Summary(ctx context.Context, year int) (QuoteSummary, error) {
	quotes, err := s.quotes.ListQuotes(ctx, year)
	if err != nil {
		return QuoteSummary{}, fmt.Errorf("list quotes: %w", err)
	}
	sum := QuoteSummary{
		Year:       year,
		Count:      len(quotes),
		Groups:     core.GroupByClientBranch(quotes),
		ByInsurer:  core.PremiumShare(quotes, core.ByInsurer),
		ByProducer: core.PremiumShare(quotes, core.ByProducer),
		ByStatus:   core.PremiumShare(quotes, core.ByStatus),
		ByBranch:   core.PremiumShare(quotes, core.ByBranch),
		Realized:   core.MonthlyPremiums(quotes, year),
	}
	for _, q := range quotes {
		sum.Premium = sum.Premium.Add(q.Premium)
	}
	return sum, nil
}

// Attainment compares a producer's goal with the premiums of the quotes
// they closed in the same year.
func (s *QuoteService) Attainment(ctx context.Context, producerID string, year int) (core.GoalAttainment, error) {
	goal, err := s.goals.GetGoal(ctx, producerID, year)
	if err != nil {
		return core.GoalAttainment{}, err
	}
	quotes, err := s.quotes.ListQuotes(ctx, year)
	if err != nil {
		return core.GoalAttainment{}, fmt.Errorf("list quotes: %w", err)
	}
	var own []core.Quote
	for _, q := range quotes {
		if q.ProducerID == producerID {
			own = append(own, q)
		}
	}
	return core.CompareWithGoal(goal, core.MonthlyPremiums(own, year)), nil
}
