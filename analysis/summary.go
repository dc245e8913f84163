package analysis

import "sort"

// SummaryReport is the headline figures for the current selection.
type SummaryReport struct {
	TotalAmount       float64 `json:"total_amount"`
	DistinctClients   int     `json:"distinct_clients"`
	Transactions      int     `json:"transactions"`
	AverageTicket     float64 `json:"average_ticket"`
	MonthlyTarget     float64 `json:"monthly_target"`
	TargetProgress    float64 `json:"target_progress_pct"`
	LeadingCluster    string  `json:"leading_cluster,omitempty"`
	LeadingClusterAmt float64 `json:"leading_cluster_amount,omitempty"`

	// EstimatedDrop is pre-sale total minus sales total, only meaningful
	// when the pre-sale feed is present.
	EstimatedDrop float64 `json:"estimated_drop"`
	HasPreSales   bool    `json:"has_presales"`
}

// Summary computes the headline figures. It requires the sales feed.
func Summary(v *View, monthlyTarget float64) (*SummaryReport, error) {
	if len(v.Sales) == 0 {
		return nil, unavailable("sales")
	}

	r := &SummaryReport{MonthlyTarget: monthlyTarget}
	clients := make(map[string]bool)
	transactions := make(map[string]bool)
	clusters := make(map[string]float64)
	for _, s := range v.Sales {
		r.TotalAmount += s.Amount
		if s.ClientID != "" {
			clients[s.ClientID] = true
		}
		if s.TransactionID != "" {
			transactions[s.TransactionID] = true
		}
		if s.Cluster != "" {
			clusters[s.Cluster] += s.Amount
		}
	}
	r.DistinctClients = len(clients)
	r.Transactions = len(transactions)
	if r.Transactions > 0 {
		r.AverageTicket = r.TotalAmount / float64(r.Transactions)
	}
	if monthlyTarget > 0 {
		r.TargetProgress = r.TotalAmount / monthlyTarget * 100
	}

	// Leading cluster by amount, ties broken by name for determinism.
	names := make([]string, 0, len(clusters))
	for name := range clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if clusters[name] > r.LeadingClusterAmt {
			r.LeadingCluster = name
			r.LeadingClusterAmt = clusters[name]
		}
	}

	if len(v.PreSales) > 0 {
		r.HasPreSales = true
		var preTotal float64
		for _, p := range v.PreSales {
			preTotal += p.Amount
		}
		r.EstimatedDrop = preTotal - r.TotalAmount
	}
	return r, nil
}
