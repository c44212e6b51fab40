package http

import (
	"net/http"
	"testing"
	"time"

	"opsdeck/internal/core"
)

func TestDashboardSummary(t *testing.T) {
	s, repo := newTestServer(t)
	project := seedServerProject(t, repo)

	doJSON(t, s, http.MethodPost, "/api/payments", paymentBody(project.ID, "10000"))

	var summary dashboardSummary
	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", rec.Code, rec.Body.String())
	}
	decodeEnvelope(t, rec, &summary)

	if summary.TotalRevenue.Cents != 10000000 {
		t.Errorf("revenue = %d, want 10000000", summary.TotalRevenue.Cents)
	}
	if summary.AdminProfit.Cents != 6000000 {
		t.Errorf("admin profit = %d, want 6000000", summary.AdminProfit.Cents)
	}
	if summary.ActiveProjects != 1 {
		t.Errorf("active projects = %d, want 1", summary.ActiveProjects)
	}
	if len(summary.Projects) != 1 {
		t.Fatalf("project views = %d, want 1", len(summary.Projects))
	}
	view := summary.Projects[0]
	if view.Paid.Cents != 1000000 {
		t.Errorf("paid = %d, want 1000000", view.Paid.Cents)
	}
	if view.Balance.Cents != 3000000 {
		t.Errorf("balance = %d, want 3000000", view.Balance.Cents)
	}
	if view.Health != core.HealthHealthy {
		t.Errorf("health = %v, want healthy", view.Health)
	}
}

func TestDashboardCacheInvalidation(t *testing.T) {
	s, repo := newTestServer(t)
	project := seedServerProject(t, repo)

	var before dashboardSummary
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/dashboard", nil), &before)
	if before.Projects[0].Paid.Cents != 0 {
		t.Fatalf("paid before payment = %d", before.Projects[0].Paid.Cents)
	}

	doJSON(t, s, http.MethodPost, "/api/payments", paymentBody(project.ID, "10000"))

	// The hub subscription clears the cache asynchronously; poll
	// until the fresh snapshot lands.
	var after dashboardSummary
	refreshed := false
	for i := 0; i < 200; i++ {
		decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/dashboard", nil), &after)
		if after.Projects[0].Paid.Cents == 1000000 {
			refreshed = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !refreshed {
		t.Fatal("dashboard cache never refreshed after the payment")
	}
}

func TestTrendsEndpoint(t *testing.T) {
	s, repo := newTestServer(t)
	project := seedServerProject(t, repo)
	doJSON(t, s, http.MethodPost, "/api/payments", paymentBody(project.ID, "10000"))

	var monthly []core.TrendPoint
	rec := doJSON(t, s, http.MethodGet, "/api/dashboard/trends", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	decodeEnvelope(t, rec, &monthly)
	if len(monthly) != 1 {
		t.Fatalf("monthly points = %d, want 1", len(monthly))
	}
	if monthly[0].Payout.Cents != 1000000 {
		t.Errorf("payout = %d, want 1000000", monthly[0].Payout.Cents)
	}

	var weekly []core.TrendPoint
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/dashboard/trends?range=weekly", nil), &weekly)
	if len(weekly) != 1 {
		t.Errorf("weekly points = %d, want 1", len(weekly))
	}
}

func TestInsightsEndpoint(t *testing.T) {
	s, repo := newTestServer(t)
	seedServerProject(t, repo)

	var insights []core.Insight
	rec := doJSON(t, s, http.MethodGet, "/api/dashboard/insights", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	decodeEnvelope(t, rec, &insights)
	// Whole developer budget unpaid: the project must be flagged.
	if len(insights) != 1 {
		t.Fatalf("insights = %d, want 1", len(insights))
	}
	if insights[0].UnpaidPct != 100 {
		t.Errorf("unpaid pct = %v, want 100", insights[0].UnpaidPct)
	}
}

func TestActivityEndpoint(t *testing.T) {
	s, repo := newTestServer(t)
	project := seedServerProject(t, repo)
	doJSON(t, s, http.MethodPost, "/api/payments", paymentBody(project.ID, "10000"))

	var activity []core.Activity
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/dashboard/activity", nil), &activity)
	if len(activity) != 1 || activity[0].Action != "payment-recorded" {
		t.Errorf("activity = %+v, want one payment-recorded entry", activity)
	}
}

func TestActivityEndpointPaging(t *testing.T) {
	s, _ := newTestServer(t)

	for i := 0; i < 7; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/notices", map[string]string{"text": "notice"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("notice %d: code = %d", i, rec.Code)
		}
	}

	// the feed head stays at five entries
	var head []core.Activity
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/dashboard/activity", nil), &head)
	if len(head) != 5 {
		t.Fatalf("default feed = %d entries, want 5", len(head))
	}

	// a wider limit pages through the full log
	var full []core.Activity
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/dashboard/activity?limit=50", nil), &full)
	if len(full) != 7 {
		t.Fatalf("limit=50 returned %d entries, want 7", len(full))
	}

	var narrow []core.Activity
	decodeEnvelope(t, doJSON(t, s, http.MethodGet, "/api/dashboard/activity?limit=2", nil), &narrow)
	if len(narrow) != 2 {
		t.Fatalf("limit=2 returned %d entries, want 2", len(narrow))
	}

	if rec := doJSON(t, s, http.MethodGet, "/api/dashboard/activity?limit=abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("limit=abc code = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/api/dashboard/activity?limit=0", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0 code = %d, want 400", rec.Code)
	}
}

func TestProjectFinanceEndpoint(t *testing.T) {
	s, repo := newTestServer(t)
	project := seedServerProject(t, repo)
	doJSON(t, s, http.MethodPost, "/api/payments", paymentBody(project.ID, "10000"))

	var view projectFinanceView
	rec := doJSON(t, s, http.MethodGet, "/api/projects/"+project.ID+"/finance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	decodeEnvelope(t, rec, &view)
	if view.Progress != 25 {
		t.Errorf("progress = %v, want 25", view.Progress)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/projects/missing/finance", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing project code = %d, want 404", rec.Code)
	}
}
