package core

// MonthAttainment compares realized premium with the goal for one month.
type MonthAttainment struct {
	Month    string
	Goal     Money
	Realized Money
	// Percent is realized/goal*100; 0 when the goal is 0.
	Percent float64
	// CumulativePercent uses the running totals up to this month.
	CumulativePercent float64
}

// GoalAttainment is a producer's year of goal-vs-realized figures.
type GoalAttainment struct {
	ProducerID string
	Year       int
	Months     [MonthsInYear]MonthAttainment
	Goal       Money
	Realized   Money
	Percent    float64
}

// CompareWithGoal lines up realized premiums against a monthly goal.
func CompareWithGoal(goal MonthlyGoal, realized [MonthsInYear]Money) GoalAttainment {
	out := GoalAttainment{ProducerID: goal.ProducerID, Year: goal.Year}

	var realizedCents [MonthsInYear]int64
	for i, r := range realized {
		realizedCents[i] = r.Cents
	}
	goalRun := SimpleAccumulation(goal.Values())
	realRun := SimpleAccumulation(realizedCents)

	for i := 0; i < MonthsInYear; i++ {
		out.Months[i] = MonthAttainment{
			Month:             MonthLabels[i],
			Goal:              goal.Months[i],
			Realized:          realized[i],
			Percent:           percent(realized[i].Cents, goal.Months[i].Cents),
			CumulativePercent: percent(realRun[i], goalRun[i]),
		}
	}
	out.Goal = Money{Cents: goalRun[MonthsInYear-1]}
	out.Realized = Money{Cents: realRun[MonthsInYear-1]}
	out.Percent = percent(out.Realized.Cents, out.Goal.Cents)
	return out
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
