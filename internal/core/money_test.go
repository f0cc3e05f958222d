package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"0", 0, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"R$ 1.234,56", 123456, true},
		{"1,234.56", 123456, true},
		{"1.234.567", 123456700, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1,2,3", 0, false},
		{"", 0, false},
		{"R$", 0, false},
		{"92233720368547758.07", 9223372036854775807, true},
		{"92233720368547758.08", 0, false},
		{"92233720368547758.99", 0, false},
		{"92233720368547759", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	cases := map[int64]string{
		0:          "R$ 0,00",
		5:          "R$ 0,05",
		123456:     "R$ 1.234,56",
		100000000:  "R$ 1.000.000,00",
		-250:       "-R$ 2,50",
		9999999999: "R$ 99.999.999,99",
	}
	for in, want := range cases {
		if got := FormatBRL(in); got != want {
			t.Errorf("FormatBRL(%d) = %q, want %q", in, got, want)
		}
	}
}
