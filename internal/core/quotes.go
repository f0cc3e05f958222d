package core

import (
	"sort"
	"strings"
)

type (
	// ClientBranchGroup aggregates quotes that share a CNPJ and a branch.
	ClientBranchGroup struct {
		CNPJ       string
		ClientName string
		Branch     string
		Quotes     int
		Premium    Money
	}

	// Share is one slice of a premium breakdown.
	Share struct {
		Key     string
		Quotes  int
		Premium Money
		Percent float64
	}

	// ShareKey extracts the grouping dimension of a breakdown.
	ShareKey func(Quote) string
)

// Common breakdown dimensions.
var (
	ByInsurer  ShareKey = func(q Quote) string { return q.Insurer }
	ByProducer ShareKey = func(q Quote) string { return q.ProducerID }
	ByStatus   ShareKey = func(q Quote) string { return string(q.Status) }
	ByBranch   ShareKey = func(q Quote) string { return q.Branch }
)

// NormalizeCNPJ strips punctuation so "12.345.678/0001-90" and
// "12345678000190" group together.
func NormalizeCNPJ(cnpj string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cnpj)
}

// GroupByClientBranch groups quotes by CNPJ+branch in first-seen order.
func GroupByClientBranch(quotes []Quote) []ClientBranchGroup {
	index := map[string]int{}
	var groups []ClientBranchGroup
	for _, q := range quotes {
		cnpj := NormalizeCNPJ(q.CNPJ)
		key := cnpj + "|" + strings.ToLower(strings.TrimSpace(q.Branch))
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ClientBranchGroup{CNPJ: cnpj, ClientName: q.ClientName, Branch: q.Branch})
		}
		groups[i].Quotes++
		groups[i].Premium = groups[i].Premium.Add(q.Premium)
	}
	return groups
}

// PremiumShare sums premiums per key and reports each key's percentage of
// the total. Percentages are 0 when the total is 0. Results are ordered by
// premium descending, then key.
func PremiumShare(quotes []Quote, key ShareKey) []Share {
	index := map[string]int{}
	var shares []Share
	var total int64
	for _, q := range quotes {
		k := strings.TrimSpace(key(q))
		if k == "" {
			k = "(sem informação)"
		}
		i, ok := index[k]
		if !ok {
			i = len(shares)
			index[k] = i
			shares = append(shares, Share{Key: k})
		}
		shares[i].Quotes++
		shares[i].Premium = shares[i].Premium.Add(q.Premium)
		total += q.Premium.Cents
	}
	for i := range shares {
		if total > 0 {
			shares[i].Percent = float64(shares[i].Premium.Cents) * 100 / float64(total)
		}
	}
	sort.SliceStable(shares, func(a, b int) bool {
		if shares[a].Premium.Cents != shares[b].Premium.Cents {
			return shares[a].Premium.Cents > shares[b].Premium.Cents
		}
		return shares[a].Key < shares[b].Key
	})
	return shares
}

// MonthlyPremiums sums the premium of closed quotes per month of year.
func MonthlyPremiums(quotes []Quote, year int) [MonthsInYear]Money {
	var out [MonthsInYear]Money
	for _, q := range quotes {
		if q.Status != QuoteClosed || q.Date.Year() != year {
			continue
		}
		m := int(q.Date.Month()) - 1
		out[m] = out[m].Add(q.Premium)
	}
	return out
}
