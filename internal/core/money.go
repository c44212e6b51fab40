// Package core holds the domain model and the pure aggregation
// functions that turn raw project and payment records into the figures
// the dashboard displays.
//
// This file contains money parsing and formatting. Amounts are stored
// in minor units (paise) and converted to whole rupees only for
// display.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
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
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64 = 0
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 {
				if fracPart[2] >= '5' {
					fracCents++
				}
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseLenientCents is the scan-boundary variant of ParseDecimalToCents:
// malformed or empty numeric fields coerce to 0 instead of failing, so a
// bad stored value understates a total rather than breaking the whole
// dashboard.
func ParseLenientCents(s string) int64 {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return 0
	}
	return cents
}

// Rupees returns the rupee value as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Rupees() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m minus o. The result may be negative (an over-budget
// balance).
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// FormatCurrency renders an amount as a rupee string with Indian digit
// grouping and zero fraction digits, e.g. ₹12,34,567. Cents are rounded
// half-up to the nearest whole rupee, never truncated.
func FormatCurrency(m Money) string {
	cents := m.Cents
	negative := cents < 0
	if negative {
		cents = -cents
	}
	rupees := (cents + 50) / 100

	digits := strconv.FormatInt(rupees, 10)
	grouped := groupIndian(digits)
	if negative {
		return "-₹" + grouped
	}
	return "₹" + grouped
}

// groupIndian inserts separators per the en-IN convention: the last
// three digits form one group, the rest pair off (12,34,567).
func groupIndian(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := digits[:n-3]
	// Pairs from the right of the head
	rem := len(head) % 2
	if rem == 1 {
		b.WriteString(head[:1])
		head = head[1:]
		if len(head) > 0 {
			b.WriteString(",")
		}
	}
	for i := 0; i < len(head); i += 2 {
		b.WriteString(head[i : i+2])
		if i+2 < len(head) {
			b.WriteString(",")
		}
	}
	b.WriteString(",")
	b.WriteString(digits[n-3:])
	return b.String()
}
