package analysis

import (
	"sort"
	"strings"
)

// CoverageRow is the portfolio coverage for one salesperson.
type CoverageRow struct {
	Salesperson   string  `json:"salesperson"`
	Assigned      int     `json:"assigned"`
	Served        int     `json:"served"`
	Gap           int     `json:"gap"`
	Effectiveness float64 `json:"effectiveness_pct"`
}

// CoverageClient is the per-client served/pending detail.
type CoverageClient struct {
	ClientID    string `json:"client_id"`
	ClientName  string `json:"client_name"`
	Salesperson string `json:"salesperson"`
	Served      bool   `json:"served"`
}

// CoverageReport compares assigned portfolio against clients actually
// served in the selection.
type CoverageReport struct {
	TotalAssigned int              `json:"total_assigned"`
	TotalServed   int              `json:"total_served"`
	TotalGap      int              `json:"total_gap"`
	Effectiveness float64          `json:"effectiveness_pct"`
	BySalesperson []CoverageRow    `json:"by_salesperson"`
	Clients       []CoverageClient `json:"clients"`
}

// Coverage computes portfolio coverage. It requires the client master; the
// served side comes from the filtered sales and may legitimately be empty.
// A non-empty active list restricts the assigned portfolio to those
// salespeople, so dormant portfolios don't inflate the denominator; names
// match case-insensitively.
//
// Effectiveness divides served by assigned; a zero assigned denominator is
// clamped to 1 so the figure stays defined (100% of nothing is 0 served of
// 1). Effectiveness is in [0, 100] whenever assigned > 0 because served
// counts only assigned clients.
func Coverage(v *View, active []string) (*CoverageReport, error) {
	if len(v.Clients) == 0 {
		return nil, unavailable("client master")
	}

	activeSet := make(map[string]bool, len(active))
	for _, name := range active {
		activeSet[strings.ToUpper(strings.TrimSpace(name))] = true
	}

	served := make(map[string]bool)
	for _, s := range v.Sales {
		if s.ClientID != "" {
			served[s.ClientID] = true
		}
	}

	type counter struct{ assigned, served int }
	perSalesperson := make(map[string]*counter)
	report := &CoverageReport{}
	for _, c := range v.Clients {
		if len(activeSet) > 0 && !activeSet[strings.ToUpper(strings.TrimSpace(c.Salesperson))] {
			continue
		}
		report.TotalAssigned++
		cnt := perSalesperson[c.Salesperson]
		if cnt == nil {
			cnt = &counter{}
			perSalesperson[c.Salesperson] = cnt
		}
		cnt.assigned++
		isServed := served[c.ClientID]
		if isServed {
			report.TotalServed++
			cnt.served++
		}
		report.Clients = append(report.Clients, CoverageClient{
			ClientID:    c.ClientID,
			ClientName:  c.ClientName,
			Salesperson: c.Salesperson,
			Served:      isServed,
		})
	}
	report.TotalGap = report.TotalAssigned - report.TotalServed
	report.Effectiveness = effectiveness(report.TotalServed, report.TotalAssigned)

	for name, cnt := range perSalesperson {
		report.BySalesperson = append(report.BySalesperson, CoverageRow{
			Salesperson:   name,
			Assigned:      cnt.assigned,
			Served:        cnt.served,
			Gap:           cnt.assigned - cnt.served,
			Effectiveness: effectiveness(cnt.served, cnt.assigned),
		})
	}
	sort.Slice(report.BySalesperson, func(i, j int) bool {
		a, b := report.BySalesperson[i], report.BySalesperson[j]
		if a.Effectiveness != b.Effectiveness {
			return a.Effectiveness > b.Effectiveness
		}
		return a.Salesperson < b.Salesperson
	})
	sort.Slice(report.Clients, func(i, j int) bool {
		a, b := report.Clients[i], report.Clients[j]
		if a.Served != b.Served {
			return !a.Served // pending clients first
		}
		return a.ClientID < b.ClientID
	})
	return report, nil
}

// effectiveness clamps a zero denominator to 1.
func effectiveness(served, assigned int) float64 {
	if assigned < 1 {
		assigned = 1
	}
	return float64(served) / float64(assigned) * 100
}
