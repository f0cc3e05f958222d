package core

import "sort"

// DefaultThresholds are the milestone amounts reported by DeriveInsights
// when no other set is configured.
var DefaultThresholds = []Money{FromUnits(100_000), FromUnits(250_000), FromUnits(500_000)}

type (
	// Jump is the change between two consecutive months of a series.
	Jump struct {
		FromIndex int
		ToIndex   int
		From      string
		To        string
		Amount    Money
	}

	// Crossing is the first month whose cumulative value reaches a threshold.
	Crossing struct {
		Threshold  Money
		MonthIndex int
		Month      string
		Value      Money
	}

	Insights struct {
		TotalAnnual Money
		// LargestJump is nil when no month grows over the previous one.
		LargestJump *Jump
		// Crossings are ordered by ascending threshold; unreached ones are absent.
		Crossings []Crossing
	}

	// Escadinha is the accumulated view of one producer's yearly goal.
	Escadinha struct {
		Goal      MonthlyGoal
		Monthly   [MonthsInYear]int64
		Simple    [MonthsInYear]int64
		Staircase [MonthsInYear]int64
		Insights  Insights
	}
)

// SimpleAccumulation returns the running total of the monthly values.
func SimpleAccumulation(monthly [MonthsInYear]int64) [MonthsInYear]int64 {
	var out [MonthsInYear]int64
	out[0] = monthly[0]
	for i := 1; i < MonthsInYear; i++ {
		out[i] = out[i-1] + monthly[i]
	}
	return out
}

// StaircaseAccumulation applies a second running total over the output of
// SimpleAccumulation. Each month's goal is carried into every later month.
func StaircaseAccumulation(simple [MonthsInYear]int64) [MonthsInYear]int64 {
	return SimpleAccumulation(simple)
}

// ClosedFormStaircase computes the staircase directly as
// sum over j<=i of (i-j+1)*monthly[j].
func ClosedFormStaircase(monthly [MonthsInYear]int64) [MonthsInYear]int64 {
	var out [MonthsInYear]int64
	for i := 0; i < MonthsInYear; i++ {
		for j := 0; j <= i; j++ {
			out[i] += int64(i-j+1) * monthly[j]
		}
	}
	return out
}

// DeriveInsights summarizes a staircase series. Thresholds are evaluated in
// ascending order regardless of the order they are given in.
func DeriveInsights(staircase [MonthsInYear]int64, thresholds []Money) Insights {
	ins := Insights{TotalAnnual: Money{Cents: staircase[MonthsInYear-1]}}

	var best int64
	for i := 1; i < MonthsInYear; i++ {
		diff := staircase[i] - staircase[i-1]
		if diff > best {
			best = diff
			ins.LargestJump = &Jump{
				FromIndex: i - 1,
				ToIndex:   i,
				From:      MonthLabels[i-1],
				To:        MonthLabels[i],
				Amount:    Money{Cents: diff},
			}
		}
	}

	sorted := append([]Money(nil), thresholds...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Cents < sorted[b].Cents })
	for _, t := range sorted {
		for i, v := range staircase {
			if v >= t.Cents {
				ins.Crossings = append(ins.Crossings, Crossing{
					Threshold:  t,
					MonthIndex: i,
					Month:      MonthLabels[i],
					Value:      Money{Cents: v},
				})
				break
			}
		}
	}
	return ins
}

// BuildEscadinha runs the full accumulation for one goal record.
func BuildEscadinha(goal MonthlyGoal, thresholds []Money) Escadinha {
	monthly := goal.Values()
	simple := SimpleAccumulation(monthly)
	staircase := StaircaseAccumulation(simple)
	return Escadinha{
		Goal:      goal,
		Monthly:   monthly,
		Simple:    simple,
		Staircase: staircase,
		Insights:  DeriveInsights(staircase, thresholds),
	}
}
