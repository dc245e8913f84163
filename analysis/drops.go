package analysis

import (
	"math"
	"sort"
)

// DropStatus classifies how a pre-sale order converted into delivery.
type DropStatus string

const (
	DropDelivered DropStatus = "delivered"
	DropPartial   DropStatus = "partial"
	DropRejected  DropStatus = "rejected"
)

// classifyDrop compares a pre-sale amount with the matched delivered
// amount: delivered when the difference is within the tolerance, partial
// when a trace amount shipped (non-zero but within the tolerance), rejected
// for any other shortfall.
func classifyDrop(preAmount, deliveredAmount, tolerance float64) DropStatus {
	switch {
	case math.Abs(preAmount-deliveredAmount) <= tolerance:
		return DropDelivered
	case deliveredAmount > 0 && deliveredAmount <= tolerance:
		return DropPartial
	default:
		return DropRejected
	}
}

// DropRow is the reconciliation of one pre-sale order reference.
type DropRow struct {
	CrossRef        string     `json:"cross_ref"`
	Salesperson     string     `json:"salesperson"`
	PreSaleAmount   float64    `json:"presale_amount"`
	DeliveredAmount float64    `json:"delivered_amount"`
	Drop            float64    `json:"drop"`
	Status          DropStatus `json:"status"`
}

// DropBySalesperson totals the dropped amount per salesperson.
type DropBySalesperson struct {
	Salesperson string  `json:"salesperson"`
	Drop        float64 `json:"drop"`
}

// DropReport reconciles pre-sale orders against delivered sales.
type DropReport struct {
	Tolerance      float64                `json:"tolerance"`
	TotalPreSale   float64                `json:"total_presale"`
	TotalDelivered float64                `json:"total_delivered"`
	TotalDrop      float64                `json:"total_drop"`
	AmountByStatus map[DropStatus]float64 `json:"amount_by_status"`
	Rows           []DropRow              `json:"rows"`
	TopSalespeople []DropBySalesperson    `json:"top_salespeople"`
}

// Drops matches pre-sale orders to sales by cross-reference id and
// classifies each order as delivered, partial or rejected. It requires both
// the pre-sale and sales feeds. Orders without a cross-reference id cannot
// be matched and are skipped.
func Drops(v *View, tolerance float64) (*DropReport, error) {
	if len(v.PreSales) == 0 {
		return nil, unavailable("pre-sale")
	}
	if len(v.Sales) == 0 {
		return nil, unavailable("sales")
	}

	delivered := make(map[string]float64)
	for _, s := range v.Sales {
		if s.PreSaleRef != "" {
			delivered[s.PreSaleRef] += s.Amount
		}
	}

	type agg struct {
		amount      float64
		salesperson string
	}
	orders := make(map[string]*agg)
	var refs []string
	for _, p := range v.PreSales {
		if p.CrossRef == "" {
			continue
		}
		a := orders[p.CrossRef]
		if a == nil {
			a = &agg{salesperson: p.Salesperson}
			orders[p.CrossRef] = a
			refs = append(refs, p.CrossRef)
		}
		a.amount += p.Amount
	}
	sort.Strings(refs)

	report := &DropReport{
		Tolerance:      tolerance,
		AmountByStatus: make(map[DropStatus]float64),
	}
	perSalesperson := make(map[string]float64)
	for _, ref := range refs {
		a := orders[ref]
		got := delivered[ref]
		drop := a.amount - got
		status := classifyDrop(a.amount, got, tolerance)

		report.TotalPreSale += a.amount
		report.TotalDelivered += got
		report.TotalDrop += drop
		report.AmountByStatus[status] += a.amount
		perSalesperson[a.salesperson] += drop
		report.Rows = append(report.Rows, DropRow{
			CrossRef:        ref,
			Salesperson:     a.salesperson,
			PreSaleAmount:   a.amount,
			DeliveredAmount: got,
			Drop:            drop,
			Status:          status,
		})
	}

	for name, drop := range perSalesperson {
		report.TopSalespeople = append(report.TopSalespeople, DropBySalesperson{
			Salesperson: name,
			Drop:        drop,
		})
	}
	sort.Slice(report.TopSalespeople, func(i, j int) bool {
		a, b := report.TopSalespeople[i], report.TopSalespeople[j]
		if a.Drop != b.Drop {
			return a.Drop > b.Drop
		}
		return a.Salesperson < b.Salesperson
	})
	if len(report.TopSalespeople) > 10 {
		report.TopSalespeople = report.TopSalespeople[:10]
	}
	return report, nil
}
