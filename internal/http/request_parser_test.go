package http

import (
	"encoding/json"
	"errors"
	"testing"

	"metas/internal/core"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		cents   int64
		wantErr error
	}{
		{in: "1000", cents: 100000},
		{in: "12.34", cents: 1234},
		{in: "1e5", cents: 10000000},
		{in: "2.5E-1", cents: 25},
		{in: "1.005e0", cents: 101},
		{in: "1.0049999e0", cents: 100},
		{in: "-1e5", wantErr: core.ErrNegativeGoal},
		{in: "-3", wantErr: core.ErrNegativeGoal},
		{in: "1e400", wantErr: core.ErrInvalidAmount},
		{in: "92233720368547758.99", wantErr: core.ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := parseAmount(json.Number(tc.in))
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("parseAmount(%q) err = %v, want %v", tc.in, err, tc.wantErr)
			}
			continue
		}
		if err != nil || got.Cents != tc.cents {
			t.Errorf("parseAmount(%q) = %d, %v; want %d", tc.in, got.Cents, err, tc.cents)
		}
	}
}

func TestQuoteRequestExponentPremium(t *testing.T) {
	req := quoteRequest{
		CNPJ:       "11.222.333/0001-81",
		ClientName: "Acme",
		Branch:     "Auto",
		Insurer:    "Porto",
		ProducerID: "p1",
		Premium:    json.Number("1.5e3"),
		Status:     "fechada",
		Date:       "2025-03-10",
	}
	q, err := req.toQuote()
	if err != nil {
		t.Fatalf("toQuote: %v", err)
	}
	if q.Premium.Cents != 150000 {
		t.Fatalf("premium = %d, want 150000", q.Premium.Cents)
	}
}
