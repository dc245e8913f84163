package analysis

import (
	"sort"
	"strings"
)

// PaymentSlice is one payment type's share of the selection.
type PaymentSlice struct {
	PaymentType  string  `json:"payment_type"`
	Amount       float64 `json:"amount"`
	Transactions int     `json:"transactions"`
	SharePct     float64 `json:"share_pct"`
}

// CreditExposure is a salesperson's credit-sale total.
type CreditExposure struct {
	Salesperson  string  `json:"salesperson"`
	Amount       float64 `json:"amount"`
	Transactions int     `json:"transactions"`
}

// PaymentsReport is the payment-type mix plus the credit exposure ranking.
type PaymentsReport struct {
	TotalAmount float64        `json:"total_amount"`
	Mix         []PaymentSlice `json:"mix"`
	// TopCredit ranks salespeople by amount sold on credit, the figure
	// collections chases.
	TopCredit []CreditExposure `json:"top_credit"`
}

// creditLimit caps the credit exposure ranking.
const creditLimit = 10

// isCredit matches the credit payment type with or without the accent.
func isCredit(paymentType string) bool {
	p := strings.ToLower(paymentType)
	return strings.Contains(p, "crédito") || strings.Contains(p, "credito")
}

// Payments computes the payment-type mix over the selection and ranks
// salespeople by credit exposure. It requires the sales feed. Rows without a
// payment type are grouped under "Sin Tipo".
func Payments(v *View) (*PaymentsReport, error) {
	if len(v.Sales) == 0 {
		return nil, unavailable("sales")
	}

	type agg struct {
		amount float64
		txs    map[string]bool
	}
	mix := make(map[string]*agg)
	credit := make(map[string]*agg)
	report := &PaymentsReport{}
	for _, s := range v.Sales {
		report.TotalAmount += s.Amount

		pt := s.PaymentType
		if pt == "" {
			pt = "Sin Tipo"
		}
		m := mix[pt]
		if m == nil {
			m = &agg{txs: make(map[string]bool)}
			mix[pt] = m
		}
		m.amount += s.Amount
		if s.TransactionID != "" {
			m.txs[s.TransactionID] = true
		}

		if isCredit(s.PaymentType) {
			c := credit[s.Salesperson]
			if c == nil {
				c = &agg{txs: make(map[string]bool)}
				credit[s.Salesperson] = c
			}
			c.amount += s.Amount
			if s.TransactionID != "" {
				c.txs[s.TransactionID] = true
			}
		}
	}

	for pt, m := range mix {
		slice := PaymentSlice{PaymentType: pt, Amount: m.amount, Transactions: len(m.txs)}
		if report.TotalAmount != 0 {
			slice.SharePct = m.amount / report.TotalAmount * 100
		}
		report.Mix = append(report.Mix, slice)
	}
	sort.Slice(report.Mix, func(i, j int) bool {
		a, b := report.Mix[i], report.Mix[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.PaymentType < b.PaymentType
	})

	for name, c := range credit {
		report.TopCredit = append(report.TopCredit, CreditExposure{
			Salesperson:  name,
			Amount:       c.amount,
			Transactions: len(c.txs),
		})
	}
	sort.Slice(report.TopCredit, func(i, j int) bool {
		a, b := report.TopCredit[i], report.TopCredit[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Salesperson < b.Salesperson
	})
	if len(report.TopCredit) > creditLimit {
		report.TopCredit = report.TopCredit[:creditLimit]
	}
	return report, nil
}
