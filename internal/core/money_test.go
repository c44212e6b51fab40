package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole", input: "1500", want: 150000},
		{name: "dot decimal", input: "1500.50", want: 150050},
		{name: "comma decimal", input: "1500,50", want: 150050},
		{name: "single fraction digit", input: "12.5", want: 1250},
		{name: "bare fraction", input: ".5", want: 50},
		{name: "third digit rounds up", input: "10.005", want: 1001},
		{name: "third digit rounds down", input: "10.004", want: 1000},
		{name: "leading whitespace", input: "  42 ", want: 4200},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "zero decimal", input: "0.00", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "explicit plus", input: "+5", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
		{name: "grouping separators", input: "1,234,567", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
		{name: "overflow", input: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseDecimalToCents(%q) err = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) err = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLenientCents(t *testing.T) {
	if got := ParseLenientCents("1500.50"); got != 150050 {
		t.Errorf("valid input = %d, want 150050", got)
	}
	if got := ParseLenientCents("garbage"); got != 0 {
		t.Errorf("malformed input = %d, want 0", got)
	}
	if got := ParseLenientCents(""); got != 0 {
		t.Errorf("empty input = %d, want 0", got)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 150000}
	b := Money{Cents: 200000}

	if got := a.Add(b); got.Cents != 350000 {
		t.Errorf("Add = %d, want 350000", got.Cents)
	}
	if got := a.Sub(b); got.Cents != -50000 {
		t.Errorf("Sub = %d, want -50000", got.Cents)
	}
	if got := a.Rupees(); got != 1500.0 {
		t.Errorf("Rupees = %v, want 1500", got)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "₹0"},
		{100, "₹1"},
		{99900, "₹999"},
		{100000, "₹1,000"},
		{12345600, "₹1,23,456"},
		{123456700, "₹12,34,567"},
		{1234567800, "₹1,23,45,678"},
		{-123456700, "-₹12,34,567"},
		{150, "₹2"}, // half-up to whole rupees
		{149, "₹1"},
	}

	for _, tt := range tests {
		if got := FormatCurrency(Money{Cents: tt.cents}); got != tt.want {
			t.Errorf("FormatCurrency(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
