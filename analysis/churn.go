package analysis

import (
	"sort"
	"time"
)

// churnWindow is the width of the early and late purchase windows.
const churnWindow = 7 * 24 * time.Hour

// ChurnClient is a client active early in the period but absent at the end.
type ChurnClient struct {
	ClientID     string    `json:"client_id"`
	ClientName   string    `json:"client_name"`
	Salesperson  string    `json:"salesperson"`
	LastPurchase time.Time `json:"last_purchase"`
	// AmountAtRisk is the client's total purchases over the selection,
	// the revenue that disappears if the client lapses.
	AmountAtRisk float64 `json:"amount_at_risk"`
}

// ChurnReport lists clients at risk of lapsing: those that purchased within
// the first week of the selection but not within its last week.
type ChurnReport struct {
	PeriodStart   time.Time     `json:"period_start"`
	PeriodEnd     time.Time     `json:"period_end"`
	EarlyClients  int           `json:"early_clients"`
	AtRisk        int           `json:"at_risk"`
	AmountAtRisk  float64       `json:"amount_at_risk"`
	Clients       []ChurnClient `json:"clients"`
}

// Churn detects clients present in the opening week of the selection but
// absent from its closing week. It requires the sales feed. When the
// selection spans less than two weeks the windows overlap and the at-risk
// set is empty by construction, which is the honest answer.
func Churn(v *View) (*ChurnReport, error) {
	if len(v.Sales) == 0 {
		return nil, unavailable("sales")
	}

	type clientAgg struct {
		name        string
		salesperson string
		first, last time.Time
		amount      float64
	}
	clients := make(map[string]*clientAgg)
	var minDate, maxDate time.Time
	for _, s := range v.Sales {
		if s.ClientID == "" || s.Date.IsZero() {
			continue
		}
		if minDate.IsZero() || s.Date.Before(minDate) {
			minDate = s.Date
		}
		if s.Date.After(maxDate) {
			maxDate = s.Date
		}
		c := clients[s.ClientID]
		if c == nil {
			c = &clientAgg{name: s.ClientName, salesperson: s.Salesperson, first: s.Date, last: s.Date}
			clients[s.ClientID] = c
		}
		if s.Date.Before(c.first) {
			c.first = s.Date
		}
		if s.Date.After(c.last) {
			c.last = s.Date
		}
		c.amount += s.Amount
	}
	if minDate.IsZero() {
		return nil, unavailable("sales")
	}

	earlyCutoff := minDate.Add(churnWindow)
	lateCutoff := maxDate.Add(-churnWindow)
	report := &ChurnReport{PeriodStart: minDate, PeriodEnd: maxDate}
	for id, c := range clients {
		if c.first.After(earlyCutoff) {
			continue
		}
		report.EarlyClients++
		if !c.last.Before(lateCutoff) {
			continue
		}
		report.AtRisk++
		report.AmountAtRisk += c.amount
		report.Clients = append(report.Clients, ChurnClient{
			ClientID:     id,
			ClientName:   c.name,
			Salesperson:  c.salesperson,
			LastPurchase: c.last,
			AmountAtRisk: c.amount,
		})
	}
	sort.Slice(report.Clients, func(i, j int) bool {
		a, b := report.Clients[i], report.Clients[j]
		if a.AmountAtRisk != b.AmountAtRisk {
			return a.AmountAtRisk > b.AmountAtRisk
		}
		return a.ClientID < b.ClientID
	})
	return report, nil
}
