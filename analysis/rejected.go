package analysis

import (
	"sort"
	"strings"
	"time"

	"salesboard/dataset"
)

// RejectedFilter narrows the rejected-delivery view. It is independent of
// the main Filter because the feed carries its own zone and distributor
// dimensions.
type RejectedFilter struct {
	Distributor string
	Zone        string
	From        time.Time
	To          time.Time
}

// RejectedReason is a rejection reason with its occurrence count.
type RejectedReason struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// RejectedBySalesperson totals rejected amounts per salesperson.
type RejectedBySalesperson struct {
	Salesperson string  `json:"salesperson"`
	Count       int     `json:"count"`
	Amount      float64 `json:"amount"`
}

// RejectedRecord is one rejected delivery as presented to the caller.
type RejectedRecord struct {
	ClientID     string    `json:"client_id"`
	ClientName   string    `json:"client_name"`
	Salesperson  string    `json:"salesperson"`
	Zone         string    `json:"zone"`
	Distributor  string    `json:"distributor"`
	Reason       string    `json:"reason"`
	DeliveryDate time.Time `json:"delivery_date"`
	Amount       float64   `json:"amount"`
}

// RejectedReport summarizes the rejected-delivery feed.
type RejectedReport struct {
	TotalRecords  int                     `json:"total_records"`
	TotalAmount   float64                 `json:"total_amount"`
	Distributors  []string                `json:"distributors"`
	Zones         []string                `json:"zones"`
	ByReason      []RejectedReason        `json:"by_reason"`
	BySalesperson []RejectedBySalesperson `json:"by_salesperson"`
	Records       []RejectedRecord        `json:"records"`
}

// RejectedDeliveries summarizes the rejected-delivery feed under an optional
// distributor/zone/date narrowing. It requires the feed to have loaded. The
// distributor and zone option lists always come from the unnarrowed view so
// the caller can offer every choice.
func RejectedDeliveries(v *View, f RejectedFilter) (*RejectedReport, error) {
	if len(v.Rejections) == 0 {
		return nil, unavailable("rejected-delivery")
	}

	report := &RejectedReport{
		Distributors: distinctSorted(v.Rejections, func(r dataset.RejectionRecord) string { return r.Distributor }),
		Zones:        distinctSorted(v.Rejections, func(r dataset.RejectionRecord) string { return r.Zone }),
	}

	reasons := make(map[string]int)
	type agg struct {
		count  int
		amount float64
	}
	perSalesperson := make(map[string]*agg)
	for _, r := range v.Rejections {
		if f.Distributor != "" && !strings.EqualFold(r.Distributor, f.Distributor) {
			continue
		}
		if f.Zone != "" && !strings.EqualFold(r.Zone, f.Zone) {
			continue
		}
		if !inRange(r.DeliveryDate, f.From, f.To) {
			continue
		}

		report.TotalRecords++
		report.TotalAmount += r.Amount
		reason := r.Reason
		if reason == "" {
			reason = "Sin Motivo"
		}
		reasons[reason]++
		a := perSalesperson[r.Salesperson]
		if a == nil {
			a = &agg{}
			perSalesperson[r.Salesperson] = a
		}
		a.count++
		a.amount += r.Amount
		report.Records = append(report.Records, RejectedRecord(r))
	}

	for reason, count := range reasons {
		report.ByReason = append(report.ByReason, RejectedReason{Reason: reason, Count: count})
	}
	sort.Slice(report.ByReason, func(i, j int) bool {
		a, b := report.ByReason[i], report.ByReason[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Reason < b.Reason
	})

	for name, a := range perSalesperson {
		report.BySalesperson = append(report.BySalesperson, RejectedBySalesperson{
			Salesperson: name,
			Count:       a.count,
			Amount:      a.amount,
		})
	}
	sort.Slice(report.BySalesperson, func(i, j int) bool {
		a, b := report.BySalesperson[i], report.BySalesperson[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Salesperson < b.Salesperson
	})

	sort.Slice(report.Records, func(i, j int) bool {
		a, b := report.Records[i], report.Records[j]
		if !a.DeliveryDate.Equal(b.DeliveryDate) {
			return a.DeliveryDate.Before(b.DeliveryDate)
		}
		return a.ClientID < b.ClientID
	})
	return report, nil
}

// distinctSorted collects the distinct non-empty values of a field over a
// slice.
func distinctSorted[T any](items []T, field func(T) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		val := field(item)
		if val != "" && !seen[val] {
			seen[val] = true
			out = append(out, val)
		}
	}
	sort.Strings(out)
	return out
}
