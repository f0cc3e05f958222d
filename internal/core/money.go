// Package core provides money parsing and handling utilities.
//
// Amounts are kept in integer cents. Parsing accepts the Brazilian
// notation used across the brokerage ("R$ 1.234,56") as well as plain
// dot decimals ("1234.56").
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place.
//
// When both separators are present the last one is the decimal separator
// and the other is a thousands separator. A lone comma is always decimal;
// a lone dot is decimal unless it groups exactly three digits more than
// once ("1.234.567"). Zero is accepted, negative values are not.
//
// Examples:
//
//	ParseDecimalToCents("12.34")       -> 1234, nil
//	ParseDecimalToCents("R$ 1.234,56") -> 123456, nil
//	ParseDecimalToCents("12,345")      -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	s = normalizeSeparators(s)

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if iv > math.MaxInt64/100 {
		return 0, ErrInvalidAmount
	}

	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	if iv*100 > math.MaxInt64-fracCents {
		return 0, ErrInvalidAmount
	}
	return iv*100 + fracCents, nil
}

// normalizeSeparators rewrites s so that "." is the only (decimal) separator.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		groups := strings.Split(s, ".")
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return s
			}
		}
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// FromUnits converts whole currency units to Money.
func FromUnits(units int64) Money {
	return Money{Cents: units * 100}
}

// Reais returns the value as a float64 for display purposes only.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// FormatBRL renders cents as "R$ 1.234,56".
func FormatBRL(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "R$ " + b.String() + "," + strconv.FormatInt(100+cents%100, 10)[1:]
	if neg {
		return "-" + out
	}
	return out
}

func (m Money) String() string {
	return FormatBRL(m.Cents)
}
