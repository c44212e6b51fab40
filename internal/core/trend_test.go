package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestPaymentTrendMonthly(t *testing.T) {
	payments := []Payment{
		{ID: "a", ProjectID: "p1", Amount: rupees(20000), Type: ClientPayment, PaidAt: date(2026, time.March, 5)},
		{ID: "b", ProjectID: "p1", Amount: rupees(8000), Type: DeveloperPayout, PaidAt: date(2026, time.March, 20)},
		{ID: "c", ProjectID: "p2", Amount: rupees(15000), Type: ClientPayment, PaidAt: date(2026, time.April, 2)},
		{ID: "d", ProjectID: "p2", Amount: rupees(5000), Type: DeveloperPayout, PaidAt: date(2026, time.January, 15)},
	}

	points := PaymentTrend(payments, TrendMonthly)

	if len(points) != 3 {
		t.Fatalf("got %d buckets, want 3", len(points))
	}
	if points[0].Label != "Jan 26" || points[1].Label != "Mar 26" || points[2].Label != "Apr 26" {
		t.Errorf("labels out of order: %q, %q, %q", points[0].Label, points[1].Label, points[2].Label)
	}
	march := points[1]
	if march.Revenue != rupees(20000) || march.Payout != rupees(8000) {
		t.Errorf("march bucket = revenue %d payout %d", march.Revenue.Cents, march.Payout.Cents)
	}
	if march.Profit != rupees(12000) {
		t.Errorf("march profit = %d, want %d", march.Profit.Cents, rupees(12000).Cents)
	}
	jan := points[0]
	if jan.Revenue.Cents != 0 || jan.Payout != rupees(5000) {
		t.Errorf("jan bucket = revenue %d payout %d", jan.Revenue.Cents, jan.Payout.Cents)
	}
}

func TestPaymentTrendWeekly(t *testing.T) {
	// 2026-03-02 is a Monday; the 4th and 6th share its week,
	// the 9th starts the next one.
	payments := []Payment{
		{ID: "a", Amount: rupees(1000), Type: ClientPayment, PaidAt: date(2026, time.March, 4)},
		{ID: "b", Amount: rupees(400), Type: DeveloperPayout, PaidAt: date(2026, time.March, 6)},
		{ID: "c", Amount: rupees(2000), Type: ClientPayment, PaidAt: date(2026, time.March, 9)},
	}

	points := PaymentTrend(payments, TrendWeekly)

	if len(points) != 2 {
		t.Fatalf("got %d buckets, want 2", len(points))
	}
	if points[0].Label != "2 Mar" {
		t.Errorf("first week label = %q, want %q", points[0].Label, "2 Mar")
	}
	if points[0].Revenue != rupees(1000) || points[0].Payout != rupees(400) {
		t.Errorf("first week = revenue %d payout %d", points[0].Revenue.Cents, points[0].Payout.Cents)
	}
	if points[1].Label != "9 Mar" || points[1].Revenue != rupees(2000) {
		t.Errorf("second week = %q revenue %d", points[1].Label, points[1].Revenue.Cents)
	}
}

func TestPaymentTrendEmpty(t *testing.T) {
	if points := PaymentTrend(nil, TrendMonthly); len(points) != 0 {
		t.Errorf("got %d buckets from no payments", len(points))
	}
}

func TestCumulativePayouts(t *testing.T) {
	payments := []Payment{
		{ID: "late", ProjectID: "p1", Amount: rupees(3000), Type: DeveloperPayout, PaidAt: date(2026, time.May, 20)},
		{ID: "early", ProjectID: "p1", Amount: rupees(2000), Type: DeveloperPayout, PaidAt: date(2026, time.May, 1)},
		{ID: "other", ProjectID: "p2", Amount: rupees(9999), Type: DeveloperPayout, PaidAt: date(2026, time.May, 5)},
		{ID: "income", ProjectID: "p1", Amount: rupees(50000), Type: ClientPayment, PaidAt: date(2026, time.May, 2)},
	}

	points := CumulativePayouts(payments, "p1")

	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].Value != rupees(2000) || points[1].Value != rupees(5000) {
		t.Errorf("running totals = %d, %d", points[0].Value.Cents, points[1].Value.Cents)
	}
	if points[0].Label != "1 May" {
		t.Errorf("first label = %q, want %q", points[0].Label, "1 May")
	}
}

func TestProfitGrowth(t *testing.T) {
	projects := []Project{
		{ID: "p2", Name: "Booking App", TotalCost: rupees(50000), DeveloperCost: rupees(45000), CreatedAt: date(2026, time.February, 1)},
		{ID: "p1", Name: "Retail Site", TotalCost: rupees(100000), DeveloperCost: rupees(40000), CreatedAt: date(2026, time.January, 1)},
	}

	points := ProfitGrowth(projects)

	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].Label != "Retail Site" || points[0].Value != rupees(60000) {
		t.Errorf("first point = %q %d", points[0].Label, points[0].Value.Cents)
	}
	if points[1].Value != rupees(65000) {
		t.Errorf("cumulative = %d, want %d", points[1].Value.Cents, rupees(65000).Cents)
	}
}
