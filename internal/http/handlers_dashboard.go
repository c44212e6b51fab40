package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"opsdeck/internal/core"
)

type projectFinanceView struct {
	ProjectID string            `json:"projectId"`
	Name      string            `json:"name"`
	Paid      core.Money        `json:"paid"`
	Balance   core.Money        `json:"balance"`
	Progress  float64           `json:"progress"`
	Margin    float64           `json:"margin"`
	Health    core.HealthStatus `json:"health"`
}

type dashboardSummary struct {
	TotalRevenue   core.Money           `json:"totalRevenue"`
	TotalDevBudget core.Money           `json:"totalDevBudget"`
	AdminProfit    core.Money           `json:"adminProfit"`
	AdminProfitINR string               `json:"adminProfitFormatted"`
	ActiveProjects int                  `json:"activeProjects"`
	Projects       []projectFinanceView `json:"projects"`
}

const summaryCacheKey = "summary"

// handleDashboard returns the headline figures plus per-project
// financial state.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if summary, ok := s.summaryCache.Get(summaryCacheKey); ok {
		NewResponse().Data(summary).Write(w)
		return
	}

	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard read failed", "error", err)
		InternalServerError("Could not load dashboard").Write(w)
		return
	}

	summary := dashboardSummary{
		TotalRevenue:   core.TotalRevenue(board.Projects),
		TotalDevBudget: core.TotalDevBudget(board.Projects),
		AdminProfit:    core.AdminProfit(board.Projects),
		ActiveProjects: core.ActiveProjectCount(board.Projects),
	}
	summary.AdminProfitINR = core.FormatCurrency(summary.AdminProfit)
	for _, p := range board.Projects {
		fin := core.FinanceFor(p, board.Payments)
		summary.Projects = append(summary.Projects, projectFinanceView{
			ProjectID: p.ID,
			Name:      p.Name,
			Paid:      fin.Paid,
			Balance:   fin.Balance,
			Progress:  fin.Progress,
			Margin:    fin.Margin,
			Health:    fin.Health,
		})
	}

	s.summaryCache.Set(summaryCacheKey, summary)
	NewResponse().Data(summary).Write(w)
}

// handleTrends returns bucketed revenue/payout/profit points. The
// range query selects weekly or monthly buckets; monthly is the
// default.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	trendRange := core.TrendMonthly
	if r.URL.Query().Get("range") == string(core.TrendWeekly) {
		trendRange = core.TrendWeekly
	}

	if points, ok := s.trendCache.Get(string(trendRange)); ok {
		NewResponse().Data(points).Write(w)
		return
	}

	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Trend read failed", "error", err)
		InternalServerError("Could not load trends").Write(w)
		return
	}

	points := core.PaymentTrend(board.Payments, trendRange)
	s.trendCache.Set(string(trendRange), points)
	NewResponse().Data(points).Write(w)
}

// handleInsights flags active projects with more than half the
// developer budget unpaid.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	board, err := s.hub.Current(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Insight read failed", "error", err)
		InternalServerError("Could not load insights").Write(w)
		return
	}
	NewResponse().Data(core.UnpaidBalanceInsights(board.Projects, board.Payments)).Write(w)
}

// activityFeedLimit is the feed head shown on the dashboard; the full
// log view requests a larger page via the limit parameter.
const (
	activityFeedLimit = 5
	activityPageMax   = 100
)

// handleActivity returns the latest activity entries, newest first.
// An optional limit query widens the page up to activityPageMax.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := activityFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			BadRequestError("limit must be a positive integer").Write(w)
			return
		}
		limit = min(n, activityPageMax)
	}

	activity, err := s.registry.RecentActivity(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Activity read failed", "error", err)
		InternalServerError("Could not load activity").Write(w)
		return
	}
	NewResponse().Data(activity).Write(w)
}
