package core

import (
	"errors"
	"testing"
	"time"
)

func TestMonthlyGoalValidate(t *testing.T) {
	good := MonthlyGoal{ProducerID: "p1", Year: 2025}
	good.Months[0] = FromUnits(10)
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	negative := good
	negative.Months[3] = Money{Cents: -1}
	if err := negative.Validate(); !errors.Is(err, ErrNegativeGoal) {
		t.Fatalf("expected ErrNegativeGoal, got %v", err)
	}

	noProducer := good
	noProducer.ProducerID = "  "
	if err := noProducer.Validate(); !errors.Is(err, ErrEmptyProducer) {
		t.Fatalf("expected ErrEmptyProducer, got %v", err)
	}

	atCap := good
	atCap.Months[11] = Money{Cents: MaxMonthlyCents}
	if err := atCap.Validate(); err != nil {
		t.Fatalf("expected cap to be accepted, got %v", err)
	}
	overCap := good
	overCap.Months[0] = Money{Cents: MaxMonthlyCents + 1}
	if err := overCap.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	badYear := good
	badYear.Year = 1999
	if err := badYear.Validate(); !errors.Is(err, ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}

func TestSetMonthAndMonthIndex(t *testing.T) {
	var g MonthlyGoal
	if err := g.SetMonth("Dez", FromUnits(7)); err != nil {
		t.Fatalf("set dez: %v", err)
	}
	if g.Months[11].Cents != 700 {
		t.Fatalf("december = %d", g.Months[11].Cents)
	}
	if err := g.SetMonth("december", FromUnits(1)); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if g.Total().Cents != 700 {
		t.Fatalf("total = %d", g.Total().Cents)
	}
}

func TestQuoteValidate(t *testing.T) {
	q := Quote{CNPJ: "12.345.678/0001-90", Premium: FromUnits(1), Status: QuoteClosed, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	if err := q.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Quote{
		{Premium: FromUnits(1), Status: QuoteClosed, Date: q.Date},
		{CNPJ: "1", Premium: Money{Cents: -1}, Status: QuoteClosed, Date: q.Date},
		{CNPJ: "1", Premium: FromUnits(1), Status: "x", Date: q.Date},
		{CNPJ: "1", Premium: FromUnits(1), Status: QuoteOpen},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
