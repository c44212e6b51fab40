package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"opsdeck/internal/core"
)

const maxBodyBytes = 1 << 20

// amountField accepts a JSON number or a decimal string ("1500",
// "1500.50", "₹1500") and normalizes to cents. Zero is a valid amount
// here; fields that require a positive value enforce that in their
// Validate methods. Malformed strings coerce to zero and fail domain
// validation downstream.
type amountField struct {
	Cents int64
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(strings.ReplaceAll(raw, "₹", ""))
		a.Cents = core.ParseLenientCents(raw)
		return nil
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil && f == 0 {
			return nil
		}
		return err
	}
	a.Cents = cents
	return nil
}

// dateField accepts "2006-01-02" or RFC 3339; empty means unset.
type dateField struct {
	Time time.Time
}

func (d *dateField) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	d.Time = t
	return nil
}

// decodeJSON parses the request body into dst, rejecting unknown
// fields and oversized payloads.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected trailing content")
	}
	return nil
}

// confirmRequested reports whether the delete was double-confirmed.
func confirmRequested(r *http.Request) bool {
	return r.URL.Query().Get("confirm") == "true"
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// paymentFilter narrows a payment listing. Period "7d" keeps the last
// seven days; anything else (including empty) keeps everything.
type paymentFilter struct {
	Period string
	PaidBy string
}

func parsePaymentFilter(r *http.Request) paymentFilter {
	q := r.URL.Query()
	return paymentFilter{
		Period: strings.TrimSpace(q.Get("period")),
		PaidBy: strings.TrimSpace(q.Get("paidBy")),
	}
}

func (f paymentFilter) apply(payments []core.Payment, now time.Time) []core.Payment {
	out := make([]core.Payment, 0, len(payments))
	cutoff := now.AddDate(0, 0, -7)
	for _, p := range payments {
		if f.Period == "7d" && p.PaidAt.Before(cutoff) {
			continue
		}
		if f.PaidBy != "" && p.PaidBy != f.PaidBy {
			continue
		}
		out = append(out, p)
	}
	return out
}
