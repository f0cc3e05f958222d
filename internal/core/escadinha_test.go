package core

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func series(vals ...int64) [MonthsInYear]int64 {
	var out [MonthsInYear]int64
	copy(out[:], vals)
	return out
}

func TestSimpleAccumulation(t *testing.T) {
	got := SimpleAccumulation(series(10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10))
	want := series(10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("simple accumulation mismatch (-want +got):\n%s", diff)
	}
}

func TestStaircaseScenarios(t *testing.T) {
	cases := []struct {
		name      string
		monthly   [MonthsInYear]int64
		simple    [MonthsInYear]int64
		staircase [MonthsInYear]int64
		total     int64
	}{
		{
			name:      "flat 10 per month",
			monthly:   series(10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10),
			simple:    series(10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120),
			staircase: series(10, 30, 60, 100, 150, 210, 280, 360, 450, 550, 660, 780),
			total:     780,
		},
		{
			name:      "all in january",
			monthly:   series(100),
			simple:    series(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100),
			staircase: series(100, 200, 300, 400, 500, 600, 700, 800, 900, 1000, 1100, 1200),
			total:     1200,
		},
		{
			name:      "zero",
			monthly:   series(),
			simple:    series(),
			staircase: series(),
			total:     0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			simple := SimpleAccumulation(tc.monthly)
			if diff := cmp.Diff(tc.simple, simple); diff != "" {
				t.Fatalf("simple (-want +got):\n%s", diff)
			}
			stair := StaircaseAccumulation(simple)
			if diff := cmp.Diff(tc.staircase, stair); diff != "" {
				t.Fatalf("staircase (-want +got):\n%s", diff)
			}
			ins := DeriveInsights(stair, DefaultThresholds)
			if ins.TotalAnnual.Cents != tc.total {
				t.Fatalf("total annual = %d, want %d", ins.TotalAnnual.Cents, tc.total)
			}
		})
	}
}

func TestStaircaseMatchesClosedFormAndIsMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 200; n++ {
		var m [MonthsInYear]int64
		for i := range m {
			m[i] = rng.Int63n(1_000_000_00)
		}
		simple := SimpleAccumulation(m)
		stair := StaircaseAccumulation(simple)

		var sum int64
		for i := range m {
			sum += m[i]
			if simple[i] != sum {
				t.Fatalf("simple[%d] = %d, want prefix sum %d", i, simple[i], sum)
			}
			if i > 0 && (simple[i] < simple[i-1] || stair[i] < stair[i-1]) {
				t.Fatalf("series decreased at %d for input %v", i, m)
			}
		}
		if diff := cmp.Diff(ClosedFormStaircase(m), stair); diff != "" {
			t.Fatalf("closed form mismatch for %v (-closed +stair):\n%s", m, diff)
		}
		if ins := DeriveInsights(stair, nil); ins.TotalAnnual.Cents != stair[11] {
			t.Fatalf("total annual %d != staircase[11] %d", ins.TotalAnnual.Cents, stair[11])
		}
	}
}

func TestDeriveInsightsZeroInput(t *testing.T) {
	ins := DeriveInsights(series(), DefaultThresholds)
	if ins.LargestJump != nil {
		t.Fatalf("expected no jump for zero input, got %+v", ins.LargestJump)
	}
	if len(ins.Crossings) != 0 {
		t.Fatalf("expected no crossings, got %+v", ins.Crossings)
	}
	if ins.TotalAnnual.Cents != 0 {
		t.Fatalf("expected zero total, got %d", ins.TotalAnnual.Cents)
	}
}

func TestDeriveInsightsJumpTieBreak(t *testing.T) {
	stair := StaircaseAccumulation(SimpleAccumulation(series(100)))
	ins := DeriveInsights(stair, nil)
	if ins.LargestJump == nil {
		t.Fatal("expected a jump")
	}
	want := Jump{FromIndex: 0, ToIndex: 1, From: "Jan", To: "Fev", Amount: Money{Cents: 100}}
	if diff := cmp.Diff(want, *ins.LargestJump); diff != "" {
		t.Fatalf("jump (-want +got):\n%s", diff)
	}
}

func TestDeriveInsightsLargestJump(t *testing.T) {
	// Growth accelerates, so the last pair carries the largest jump.
	stair := StaircaseAccumulation(SimpleAccumulation(series(10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10)))
	ins := DeriveInsights(stair, nil)
	if ins.LargestJump == nil || ins.LargestJump.From != "Nov" || ins.LargestJump.To != "Dez" || ins.LargestJump.Amount.Cents != 120 {
		t.Fatalf("unexpected jump: %+v", ins.LargestJump)
	}
}

func TestDeriveInsightsThresholdCrossings(t *testing.T) {
	// A single June spike of 50.000: the staircase reaches 50.000*k by month 5+k.
	goal := MonthlyGoal{ProducerID: "p1", Year: 2025}
	goal.Months[5] = FromUnits(50_000)
	e := BuildEscadinha(goal, []Money{FromUnits(500_000), FromUnits(100_000), FromUnits(250_000)})

	if e.Staircase[11] != FromUnits(350_000).Cents {
		t.Fatalf("december staircase = %d", e.Staircase[11])
	}
	want := []Crossing{
		{Threshold: FromUnits(100_000), MonthIndex: 6, Month: "Jul", Value: FromUnits(100_000)},
		{Threshold: FromUnits(250_000), MonthIndex: 9, Month: "Out", Value: FromUnits(250_000)},
	}
	if diff := cmp.Diff(want, e.Insights.Crossings); diff != "" {
		t.Fatalf("crossings (-want +got):\n%s", diff)
	}
}

func TestBuildEscadinhaKeepsInputs(t *testing.T) {
	goal := MonthlyGoal{ProducerID: "p1", ProducerName: "Ana", Year: 2025}
	for i := range goal.Months {
		goal.Months[i] = Money{Cents: int64(i + 1)}
	}
	e := BuildEscadinha(goal, DefaultThresholds)
	if e.Monthly != goal.Values() {
		t.Fatalf("monthly values not carried: %v", e.Monthly)
	}
	if e.Simple[11] != 78 {
		t.Fatalf("simple total = %d, want 78", e.Simple[11])
	}
	if e.Goal.DisplayName() != "Ana" {
		t.Fatalf("display name = %q", e.Goal.DisplayName())
	}
}

func TestStaircaseAtMonthlyCap(t *testing.T) {
	var m [MonthsInYear]int64
	for i := range m {
		m[i] = MaxMonthlyCents
	}
	stair := StaircaseAccumulation(SimpleAccumulation(m))
	for i := 1; i < MonthsInYear; i++ {
		if stair[i] < stair[i-1] {
			t.Fatalf("staircase decreased at %d: %d < %d", i, stair[i], stair[i-1])
		}
	}
	if want := int64(78 * MaxMonthlyCents); stair[11] != want {
		t.Fatalf("staircase[11] = %d, want %d", stair[11], want)
	}

	// Ten thousand capped producers still fit in an export footer.
	var footer int64
	for range 10_000 {
		footer += stair[11]
	}
	if footer <= 0 {
		t.Fatalf("footer overflowed: %d", footer)
	}
}
