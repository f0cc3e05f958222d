package http

import (
	"metas/internal/core"
	"metas/internal/services"
)

// Amounts are reported in integer cents next to a pt-BR formatted string.
type moneyJSON struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func newMoney(cents int64) moneyJSON {
	return moneyJSON{Cents: cents, Formatted: core.FormatBRL(cents)}
}

type (
	producerResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	goalResponse struct {
		ProducerID   string               `json:"producer_id"`
		ProducerName string               `json:"producer_name"`
		Year         int                  `json:"year"`
		Months       map[string]moneyJSON `json:"months"`
		Total        moneyJSON            `json:"total"`
	}

	escadinhaMonth struct {
		Month     string    `json:"month"`
		Value     moneyJSON `json:"value"`
		Simple    moneyJSON `json:"simple"`
		Staircase moneyJSON `json:"staircase"`
	}

	jumpResponse struct {
		From   string    `json:"from"`
		To     string    `json:"to"`
		Amount moneyJSON `json:"amount"`
	}

	crossingResponse struct {
		Threshold moneyJSON `json:"threshold"`
		Month     string    `json:"month"`
		Value     moneyJSON `json:"value"`
	}

	insightsResponse struct {
		TotalAnnual moneyJSON          `json:"total_annual"`
		LargestJump *jumpResponse      `json:"largest_jump"`
		Crossings   []crossingResponse `json:"crossings"`
	}

	escadinhaResponse struct {
		ProducerID   string           `json:"producer_id,omitempty"`
		ProducerName string           `json:"producer_name,omitempty"`
		Year         int              `json:"year,omitempty"`
		Months       []escadinhaMonth `json:"months"`
		Insights     insightsResponse `json:"insights"`
	}

	shareResponse struct {
		Key     string    `json:"key"`
		Quotes  int       `json:"quotes"`
		Premium moneyJSON `json:"premium"`
		Percent float64   `json:"percent"`
	}

	groupResponse struct {
		CNPJ       string    `json:"cnpj"`
		ClientName string    `json:"client_name"`
		Branch     string    `json:"branch"`
		Quotes     int       `json:"quotes"`
		Premium    moneyJSON `json:"premium"`
	}

	quoteSummaryResponse struct {
		Year       int             `json:"year"`
		Count      int             `json:"count"`
		Premium    moneyJSON       `json:"premium"`
		Groups     []groupResponse `json:"groups"`
		ByInsurer  []shareResponse `json:"by_insurer"`
		ByProducer []shareResponse `json:"by_producer"`
		ByStatus   []shareResponse `json:"by_status"`
		ByBranch   []shareResponse `json:"by_branch"`
		Realized   []moneyJSON     `json:"realized"`
	}

	attainmentMonth struct {
		Month             string    `json:"month"`
		Goal              moneyJSON `json:"goal"`
		Realized          moneyJSON `json:"realized"`
		Percent           float64   `json:"percent"`
		CumulativePercent float64   `json:"cumulative_percent"`
	}

	attainmentResponse struct {
		ProducerID string            `json:"producer_id"`
		Year       int               `json:"year"`
		Months     []attainmentMonth `json:"months"`
		Goal       moneyJSON         `json:"goal"`
		Realized   moneyJSON         `json:"realized"`
		Percent    float64           `json:"percent"`
	}

	syncResponse struct {
		JobID  string `json:"job_id"`
		Year   int    `json:"year"`
		Status string `json:"status"`
	}

	quoteCreatedResponse struct {
		ID string `json:"id"`
	}
)

func toProducers(ps []core.Producer) []producerResponse {
	out := make([]producerResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, producerResponse{ID: p.ID, Name: p.Name})
	}
	return out
}

func toGoal(g core.MonthlyGoal) goalResponse {
	months := make(map[string]moneyJSON, core.MonthsInYear)
	for i, key := range core.MonthKeys {
		months[key] = newMoney(g.Months[i].Cents)
	}
	return goalResponse{
		ProducerID:   g.ProducerID,
		ProducerName: g.DisplayName(),
		Year:         g.Year,
		Months:       months,
		Total:        newMoney(g.Total().Cents),
	}
}

func toGoals(gs []core.MonthlyGoal) []goalResponse {
	out := make([]goalResponse, 0, len(gs))
	for _, g := range gs {
		out = append(out, toGoal(g))
	}
	return out
}

func toEscadinha(e core.Escadinha) escadinhaResponse {
	resp := escadinhaResponse{
		ProducerID: e.Goal.ProducerID,
		Year:       e.Goal.Year,
		Months:     make([]escadinhaMonth, core.MonthsInYear),
		Insights: insightsResponse{
			TotalAnnual: newMoney(e.Insights.TotalAnnual.Cents),
			Crossings:   make([]crossingResponse, 0, len(e.Insights.Crossings)),
		},
	}
	if e.Goal.ProducerID != "" {
		resp.ProducerName = e.Goal.DisplayName()
	}
	for i := range resp.Months {
		resp.Months[i] = escadinhaMonth{
			Month:     core.MonthLabels[i],
			Value:     newMoney(e.Monthly[i]),
			Simple:    newMoney(e.Simple[i]),
			Staircase: newMoney(e.Staircase[i]),
		}
	}
	if j := e.Insights.LargestJump; j != nil {
		resp.Insights.LargestJump = &jumpResponse{From: j.From, To: j.To, Amount: newMoney(j.Amount.Cents)}
	}
	for _, c := range e.Insights.Crossings {
		resp.Insights.Crossings = append(resp.Insights.Crossings, crossingResponse{
			Threshold: newMoney(c.Threshold.Cents),
			Month:     c.Month,
			Value:     newMoney(c.Value.Cents),
		})
	}
	return resp
}

func toEscadinhas(es []core.Escadinha) []escadinhaResponse {
	out := make([]escadinhaResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toEscadinha(e))
	}
	return out
}

func toShares(shares []core.Share) []shareResponse {
	out := make([]shareResponse, 0, len(shares))
	for _, s := range shares {
		out = append(out, shareResponse{Key: s.Key, Quotes: s.Quotes, Premium: newMoney(s.Premium.Cents), Percent: s.Percent})
	}
	return out
}

func toQuoteSummary(sum services.QuoteSummary) quoteSummaryResponse {
	resp := quoteSummaryResponse{
		Year:       sum.Year,
		Count:      sum.Count,
		Premium:    newMoney(sum.Premium.Cents),
		Groups:     make([]groupResponse, 0, len(sum.Groups)),
		ByInsurer:  toShares(sum.ByInsurer),
		ByProducer: toShares(sum.ByProducer),
		ByStatus:   toShares(sum.ByStatus),
		ByBranch:   toShares(sum.ByBranch),
		Realized:   make([]moneyJSON, core.MonthsInYear),
	}
	for _, g := range sum.Groups {
		resp.Groups = append(resp.Groups, groupResponse{
			CNPJ: g.CNPJ, ClientName: g.ClientName, Branch: g.Branch, Quotes: g.Quotes, Premium: newMoney(g.Premium.Cents),
		})
	}
	for i, r := range sum.Realized {
		resp.Realized[i] = newMoney(r.Cents)
	}
	return resp
}

func toAttainment(a core.GoalAttainment) attainmentResponse {
	resp := attainmentResponse{
		ProducerID: a.ProducerID,
		Year:       a.Year,
		Months:     make([]attainmentMonth, core.MonthsInYear),
		Goal:       newMoney(a.Goal.Cents),
		Realized:   newMoney(a.Realized.Cents),
		Percent:    a.Percent,
	}
	for i, m := range a.Months {
		resp.Months[i] = attainmentMonth{
			Month:             m.Month,
			Goal:              newMoney(m.Goal.Cents),
			Realized:          newMoney(m.Realized.Cents),
			Percent:           m.Percent,
			CumulativePercent: m.CumulativePercent,
		}
	}
	return resp
}
