package core

import (
	"sort"
	"time"
)

type TrendRange string

const (
	TrendWeekly  TrendRange = "weekly"
	TrendMonthly TrendRange = "monthly"
)

// TrendPoint is one bucket of the payment trend chart. Revenue is the
// client-payment inflow, Payout the developer-payout outflow, Profit
// their difference. Buckets are emitted oldest first.
type TrendPoint struct {
	Label   string `json:"label"`
	Revenue Money  `json:"revenue"`
	Payout  Money  `json:"payout"`
	Profit  Money  `json:"profit"`
}

// SeriesPoint is one step of a cumulative series.
type SeriesPoint struct {
	Label string `json:"label"`
	Value Money  `json:"value"`
}

// PaymentTrend buckets payments by calendar week or month of their
// effective date. An unknown range falls back to monthly.
func PaymentTrend(payments []Payment, r TrendRange) []TrendPoint {
	type bucket struct {
		start   time.Time
		revenue Money
		payout  Money
	}
	buckets := make(map[time.Time]*bucket)

	for _, p := range payments {
		start := monthStart(p.PaidAt)
		if r == TrendWeekly {
			start = weekStart(p.PaidAt)
		}
		b, ok := buckets[start]
		if !ok {
			b = &bucket{start: start}
			buckets[start] = b
		}
		switch p.Type {
		case ClientPayment:
			b.revenue = b.revenue.Add(p.Amount)
		case DeveloperPayout:
			b.payout = b.payout.Add(p.Amount)
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start.Before(ordered[j].start) })

	layout := "Jan 06"
	if r == TrendWeekly {
		layout = "2 Jan"
	}
	points := make([]TrendPoint, 0, len(ordered))
	for _, b := range ordered {
		points = append(points, TrendPoint{
			Label:   b.start.Format(layout),
			Revenue: b.revenue,
			Payout:  b.payout,
			Profit:  b.revenue.Sub(b.payout),
		})
	}
	return points
}

// CumulativePayouts returns the running developer-payout total for one
// project, one point per payout in date order. Feeds the per-project
// spend sparkline.
func CumulativePayouts(payments []Payment, projectID string) []SeriesPoint {
	var payouts []Payment
	for _, p := range payments {
		if p.ProjectID == projectID && p.Type == DeveloperPayout {
			payouts = append(payouts, p)
		}
	}
	sort.Slice(payouts, func(i, j int) bool { return payouts[i].PaidAt.Before(payouts[j].PaidAt) })

	points := make([]SeriesPoint, 0, len(payouts))
	var running Money
	for _, p := range payouts {
		running = running.Add(p.Amount)
		points = append(points, SeriesPoint{
			Label: p.PaidAt.Format("2 Jan"),
			Value: running,
		})
	}
	return points
}

// ProfitGrowth is the cumulative projected profit across projects in
// creation order, one point per project.
func ProfitGrowth(projects []Project) []SeriesPoint {
	ordered := make([]Project, len(projects))
	copy(ordered, projects)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CreatedAt.Before(ordered[j].CreatedAt) })

	points := make([]SeriesPoint, 0, len(ordered))
	var running Money
	for _, p := range ordered {
		running = running.Add(p.TotalCost.Sub(p.DeveloperCost))
		points = append(points, SeriesPoint{
			Label: p.Name,
			Value: running,
		})
	}
	return points
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// weekStart normalizes to the Monday of t's week.
func weekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
