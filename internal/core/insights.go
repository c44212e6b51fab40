package core

// Insight flags a project that needs attention on the dashboard.
type Insight struct {
	ProjectID   string  `json:"projectId"`
	ProjectName string  `json:"projectName"`
	Unpaid      Money   `json:"unpaid"`
	UnpaidPct   float64 `json:"unpaidPct"`
}

// UnpaidBalanceInsights lists active projects where more than half of
// the developer budget is still unpaid. Projects without a developer
// budget are skipped.
func UnpaidBalanceInsights(projects []Project, payments []Payment) []Insight {
	var insights []Insight
	for _, p := range projects {
		if p.Status != StatusActive || p.DeveloperCost.Cents == 0 {
			continue
		}
		paid := TotalPaidToDev(payments, p.ID)
		unpaid := p.DeveloperCost.Sub(paid)
		pct := float64(unpaid.Cents) / float64(p.DeveloperCost.Cents) * 100
		if pct > 50 {
			insights = append(insights, Insight{
				ProjectID:   p.ID,
				ProjectName: p.Name,
				Unpaid:      unpaid,
				UnpaidPct:   pct,
			})
		}
	}
	return insights
}
