package core

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func sampleQuotes() []Quote {
	return []Quote{
		{CNPJ: "12.345.678/0001-90", ClientName: "Acme", Branch: "Auto", Insurer: "Porto", ProducerID: "p1", Premium: FromUnits(1000), Status: QuoteClosed, Date: day(2025, 1, 10)},
		{CNPJ: "12345678000190", ClientName: "Acme", Branch: "auto", Insurer: "Allianz", ProducerID: "p1", Premium: FromUnits(500), Status: QuoteOpen, Date: day(2025, 1, 20)},
		{CNPJ: "98.765.432/0001-10", ClientName: "Beta", Branch: "Vida", Insurer: "Porto", ProducerID: "p2", Premium: FromUnits(2500), Status: QuoteClosed, Date: day(2025, 3, 5)},
		{CNPJ: "12.345.678/0001-90", ClientName: "Acme", Branch: "Vida", Insurer: "Porto", ProducerID: "p2", Premium: FromUnits(1000), Status: QuoteClosed, Date: day(2024, 12, 31)},
	}
}

func TestGroupByClientBranch(t *testing.T) {
	got := GroupByClientBranch(sampleQuotes())
	want := []ClientBranchGroup{
		{CNPJ: "12345678000190", ClientName: "Acme", Branch: "Auto", Quotes: 2, Premium: FromUnits(1500)},
		{CNPJ: "98765432000110", ClientName: "Beta", Branch: "Vida", Quotes: 1, Premium: FromUnits(2500)},
		{CNPJ: "12345678000190", ClientName: "Acme", Branch: "Vida", Quotes: 1, Premium: FromUnits(1000)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("groups (-want +got):\n%s", diff)
	}
}

func TestPremiumShare(t *testing.T) {
	got := PremiumShare(sampleQuotes(), ByInsurer)
	if len(got) != 2 {
		t.Fatalf("expected 2 insurers, got %+v", got)
	}
	if got[0].Key != "Porto" || got[0].Premium != FromUnits(4500) || got[0].Quotes != 3 {
		t.Fatalf("unexpected first share: %+v", got[0])
	}
	if math.Abs(got[0].Percent-90) > 1e-9 || math.Abs(got[1].Percent-10) > 1e-9 {
		t.Fatalf("unexpected percentages: %v / %v", got[0].Percent, got[1].Percent)
	}

	zero := PremiumShare([]Quote{{Insurer: "X"}}, ByInsurer)
	if len(zero) != 1 || zero[0].Percent != 0 {
		t.Fatalf("zero total should yield 0%%, got %+v", zero)
	}
	if empty := PremiumShare([]Quote{{}}, ByInsurer); empty[0].Key != "(sem informação)" {
		t.Fatalf("blank key not labelled: %+v", empty)
	}
}

func TestMonthlyPremiumsAndAttainment(t *testing.T) {
	realized := MonthlyPremiums(sampleQuotes(), 2025)
	if realized[0] != FromUnits(1000) || realized[2] != FromUnits(2500) || realized[11].Cents != 0 {
		t.Fatalf("unexpected realized: %v", realized)
	}

	goal := MonthlyGoal{ProducerID: "p1", Year: 2025}
	goal.Months[0] = FromUnits(2000)
	goal.Months[2] = FromUnits(2000)
	att := CompareWithGoal(goal, realized)
	if att.Months[0].Percent != 50 {
		t.Fatalf("january percent = %v", att.Months[0].Percent)
	}
	if att.Months[1].Percent != 0 || att.Months[1].CumulativePercent != 50 {
		t.Fatalf("february = %+v", att.Months[1])
	}
	if att.Months[2].CumulativePercent != 87.5 {
		t.Fatalf("march cumulative = %v", att.Months[2].CumulativePercent)
	}
	if att.Goal != FromUnits(4000) || att.Realized != FromUnits(3500) || att.Percent != 87.5 {
		t.Fatalf("totals = %+v", att)
	}
}
