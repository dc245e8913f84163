package analysis

import "sort"

// ProductRank is a product with its sold amount and transaction count.
type ProductRank struct {
	Product      string  `json:"product"`
	Amount       float64 `json:"amount"`
	Transactions int     `json:"transactions"`
}

// CrossSellReport lists the products most frequently bought in the same
// transaction as an anchor product.
type CrossSellReport struct {
	Anchor       string        `json:"anchor"`
	Transactions int           `json:"transactions"`
	Companions   []ProductRank `json:"companions"`
}

// crossSellLimit caps the companion list.
const crossSellLimit = 5

// CrossSell finds the products that co-occur with the anchor product inside
// the same transaction, ranked by the number of shared transactions. It
// requires the sales feed and a non-empty anchor.
func CrossSell(v *View, anchor string) (*CrossSellReport, error) {
	if len(v.Sales) == 0 {
		return nil, unavailable("sales")
	}

	// Transactions containing the anchor.
	anchored := make(map[string]bool)
	for _, s := range v.Sales {
		if s.Product == anchor && s.TransactionID != "" {
			anchored[s.TransactionID] = true
		}
	}

	// Companion products and the distinct anchored transactions they appear in.
	companions := make(map[string]map[string]bool)
	amounts := make(map[string]float64)
	for _, s := range v.Sales {
		if !anchored[s.TransactionID] || s.Product == anchor || s.Product == "" {
			continue
		}
		if companions[s.Product] == nil {
			companions[s.Product] = make(map[string]bool)
		}
		companions[s.Product][s.TransactionID] = true
		amounts[s.Product] += s.Amount
	}

	report := &CrossSellReport{Anchor: anchor, Transactions: len(anchored)}
	for product, txs := range companions {
		report.Companions = append(report.Companions, ProductRank{
			Product:      product,
			Amount:       amounts[product],
			Transactions: len(txs),
		})
	}
	sort.Slice(report.Companions, func(i, j int) bool {
		a, b := report.Companions[i], report.Companions[j]
		if a.Transactions != b.Transactions {
			return a.Transactions > b.Transactions
		}
		return a.Product < b.Product
	})
	if len(report.Companions) > crossSellLimit {
		report.Companions = report.Companions[:crossSellLimit]
	}
	return report, nil
}

// TopProducts ranks the view's products by sold amount, for populating the
// cross-sell anchor selector. n <= 0 means no limit.
func TopProducts(v *View, n int) []ProductRank {
	amounts := make(map[string]float64)
	txs := make(map[string]map[string]bool)
	for _, s := range v.Sales {
		if s.Product == "" {
			continue
		}
		amounts[s.Product] += s.Amount
		if s.TransactionID != "" {
			if txs[s.Product] == nil {
				txs[s.Product] = make(map[string]bool)
			}
			txs[s.Product][s.TransactionID] = true
		}
	}
	var out []ProductRank
	for product, amount := range amounts {
		out = append(out, ProductRank{
			Product:      product,
			Amount:       amount,
			Transactions: len(txs[product]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Product < b.Product
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
