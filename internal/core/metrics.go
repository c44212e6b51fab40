package core

// Aggregators in this file are deterministic and side-effect free: they
// fold a snapshot of project/payment records into display figures and
// always recompute from scratch, so redelivered snapshots are safe to
// feed in any order. Nil or empty inputs contribute zero; nothing here
// ever produces NaN or Inf.

// Profit health tiers. Boundaries are inclusive at the lower bound of
// each tier; every finite margin maps to exactly one tier, negative
// margins included.
const (
	HealthHealthy HealthStatus = "Healthy"
	HealthTight   HealthStatus = "Tight Margin"
	HealthLow     HealthStatus = "Low Profit"
)

type HealthStatus string

// ProjectFinance is the per-project derived view: cumulative developer
// spend, remaining balance and the margin classification.
type ProjectFinance struct {
	ProjectID string
	Paid      Money
	Balance   Money // DeveloperCost - Paid; negative when over budget
	Progress  float64
	Margin    float64
	Health    HealthStatus
}

// TotalRevenue sums totalCost over all projects (total contract value).
func TotalRevenue(projects []Project) Money {
	var total Money
	for _, p := range projects {
		total = total.Add(p.TotalCost)
	}
	return total
}

// TotalDevBudget sums developerCost over all projects (allocated pay).
func TotalDevBudget(projects []Project) Money {
	var total Money
	for _, p := range projects {
		total = total.Add(p.DeveloperCost)
	}
	return total
}

// AdminProfit is the projected margin: total revenue minus the total
// developer budget. Equal by construction to the sum of per-project
// (totalCost - developerCost).
func AdminProfit(projects []Project) Money {
	return TotalRevenue(projects).Sub(TotalDevBudget(projects))
}

// ActiveProjectCount counts projects with status "active".
func ActiveProjectCount(projects []Project) int {
	count := 0
	for _, p := range projects {
		if p.Status == StatusActive {
			count++
		}
	}
	return count
}

// PaymentProgress returns paid as a percentage of total, clamped to 100.
// A zero total yields 0 rather than propagating a division by zero.
func PaymentProgress(paid, total Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	pct := float64(paid.Cents) / float64(total.Cents) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Margin returns (totalCost - developerCost) / totalCost as a
// percentage; 0 when totalCost is 0 (a direct project with no contract
// value recorded yet).
func Margin(totalCost, developerCost Money) float64 {
	if totalCost.Cents == 0 {
		return 0
	}
	return float64(totalCost.Cents-developerCost.Cents) / float64(totalCost.Cents) * 100
}

// ProfitHealth classifies a project's margin: >= 40 Healthy, [20, 40)
// Tight Margin, < 20 Low Profit.
func ProfitHealth(totalCost, developerCost Money) HealthStatus {
	margin := Margin(totalCost, developerCost)
	switch {
	case margin >= 40:
		return HealthHealthy
	case margin >= 20:
		return HealthTight
	default:
		return HealthLow
	}
}

// TotalPaidToDev sums developer-payout amounts recorded against the
// given project. Client payments never count toward developer spend.
func TotalPaidToDev(payments []Payment, projectID string) Money {
	var total Money
	for _, p := range payments {
		if p.ProjectID == projectID && p.Type == DeveloperPayout {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// RemainingBalance is how much is left to pay the developers. It goes
// negative only through a payout that carried an over-budget
// justification (or an unguarded direct edit).
func RemainingBalance(developerCost, paid Money) Money {
	return developerCost.Sub(paid)
}

// FinanceFor derives the full per-project financial view from the
// payment snapshot.
func FinanceFor(p Project, payments []Payment) ProjectFinance {
	paid := TotalPaidToDev(payments, p.ID)
	return ProjectFinance{
		ProjectID: p.ID,
		Paid:      paid,
		Balance:   RemainingBalance(p.DeveloperCost, paid),
		Progress:  PaymentProgress(paid, p.DeveloperCost),
		Margin:    Margin(p.TotalCost, p.DeveloperCost),
		Health:    ProfitHealth(p.TotalCost, p.DeveloperCost),
	}
}
