package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// MonthsInYear is the fixed length of every monthly series.
const MonthsInYear = 12

const (
	QuoteOpen   QuoteStatus = "em_negociacao"
	QuoteClosed QuoteStatus = "fechada"
	QuoteLost   QuoteStatus = "perdida"
)

// MonthKeys are the storage and JSON keys of the twelve monthly goal fields.
var MonthKeys = [MonthsInYear]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// MonthLabels are the display labels, index 0 = January.
var MonthLabels = [MonthsInYear]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

type (
	QuoteStatus string

	Money struct {
		Cents int64
	}

	Producer struct {
		ID   string
		Name string
	}

	// MonthlyGoal holds the premium targets of one producer for one year.
	MonthlyGoal struct {
		ProducerID   string
		ProducerName string
		Year         int
		Months       [MonthsInYear]Money
	}

	// Quote is a cotação: a premium offer to a client for one insurance branch.
	Quote struct {
		ID         string
		CNPJ       string
		ClientName string
		Branch     string // ramo
		Insurer    string // seguradora
		ProducerID string
		Premium    Money
		Status     QuoteStatus
		Date       time.Time
	}
)

// MaxMonthlyCents caps a single monthly goal so that a year's staircase
// (up to 78 times a uniform month) summed over ten thousand producers stays
// within int64.
const MaxMonthlyCents = math.MaxInt64 / (78 * 10_000)

var (
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidYear    = errors.New("invalid year")
	ErrEmptyProducer  = errors.New("empty producer id")
	ErrNegativeGoal   = errors.New("negative goal amount")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidStatus  = errors.New("invalid quote status")
	ErrEmptyCNPJ      = errors.New("empty cnpj")
	ErrInvalidPremium = errors.New("invalid premium")
)

// MonthIndex returns the 0-based index of a month key or label ("jan", "Fev").
func MonthIndex(name string) (int, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, k := range MonthKeys {
		if k == n {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrInvalidMonth, name)
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Values returns the twelve monthly amounts in cents.
func (g MonthlyGoal) Values() [MonthsInYear]int64 {
	var out [MonthsInYear]int64
	for i, m := range g.Months {
		out[i] = m.Cents
	}
	return out
}

// Total returns the plain sum of the twelve months.
func (g MonthlyGoal) Total() Money {
	var total Money
	for _, m := range g.Months {
		total = total.Add(m)
	}
	return total
}

// SetMonth assigns the amount for a month key ("jan".."dez").
func (g *MonthlyGoal) SetMonth(key string, amount Money) error {
	idx, err := MonthIndex(key)
	if err != nil {
		return err
	}
	g.Months[idx] = amount
	return nil
}

// Validate rejects records the accumulator must never see: a missing
// producer, an implausible year or a monthly target out of range.
func (g MonthlyGoal) Validate() error {
	if strings.TrimSpace(g.ProducerID) == "" {
		return ErrEmptyProducer
	}
	if g.Year < 2000 || g.Year > 2100 {
		return fmt.Errorf("%w: %d", ErrInvalidYear, g.Year)
	}
	return ValidateMonths(g.Months)
}

// ValidateMonths checks that every month lies in [0, MaxMonthlyCents].
func ValidateMonths(months [MonthsInYear]Money) error {
	for i, m := range months {
		if m.Cents < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeGoal, MonthKeys[i])
		}
		if m.Cents > MaxMonthlyCents {
			return fmt.Errorf("%w: %s above %s", ErrInvalidAmount, MonthKeys[i], Money{Cents: MaxMonthlyCents})
		}
	}
	return nil
}

// DisplayName falls back to the producer id when no name is known.
func (g MonthlyGoal) DisplayName() string {
	if strings.TrimSpace(g.ProducerName) != "" {
		return g.ProducerName
	}
	return g.ProducerID
}

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteOpen, QuoteClosed, QuoteLost:
		return true
	}
	return false
}

func (q Quote) Validate() error {
	if strings.TrimSpace(q.CNPJ) == "" {
		return ErrEmptyCNPJ
	}
	if q.Premium.Cents < 0 {
		return ErrInvalidPremium
	}
	if !q.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, q.Status)
	}
	if q.Date.IsZero() {
		return errors.New("quote date cannot be zero")
	}
	return nil
}
