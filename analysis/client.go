package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Client360 is the single-client profile: identity, assignment, purchase
// history and product ranking within the selection.
type Client360 struct {
	ClientID      string        `json:"client_id"`
	ClientName    string        `json:"client_name"`
	Salesperson   string        `json:"salesperson"`
	VisitDay      string        `json:"visit_day,omitempty"`
	TotalAmount   float64       `json:"total_amount"`
	Transactions  int           `json:"transactions"`
	FirstPurchase time.Time     `json:"first_purchase"`
	LastPurchase  time.Time     `json:"last_purchase"`
	Bucket        Bucket        `json:"bucket"`
	TopProducts   []ProductRank `json:"top_products"`
}

// clientProductLimit caps the product ranking in a client profile.
const clientProductLimit = 10

// Client builds a 360 profile for one client id over the selection. It
// requires the sales feed; the client master, when present, supplies the
// assignment and visit day. A client with no sales and no master entry is
// not found.
func Client(v *View, clientID string) (*Client360, error) {
	if len(v.Sales) == 0 {
		return nil, unavailable("sales")
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, fmt.Errorf("client id is required")
	}

	profile := &Client360{ClientID: clientID}
	found := false
	for _, c := range v.Clients {
		if c.ClientID == clientID {
			profile.ClientName = c.ClientName
			profile.Salesperson = c.Salesperson
			profile.VisitDay = c.VisitDay
			found = true
			break
		}
	}

	products := make(map[string]*struct {
		amount float64
		txs    map[string]bool
	})
	transactions := make(map[string]bool)
	dates := make(map[string]bool)
	for _, s := range v.Sales {
		if s.ClientID != clientID {
			continue
		}
		found = true
		if profile.ClientName == "" {
			profile.ClientName = s.ClientName
		}
		if profile.Salesperson == "" {
			profile.Salesperson = s.Salesperson
		}
		profile.TotalAmount += s.Amount
		if s.TransactionID != "" {
			transactions[s.TransactionID] = true
		}
		if !s.Date.IsZero() {
			dates[s.Date.Format("2006-01-02")] = true
			if profile.FirstPurchase.IsZero() || s.Date.Before(profile.FirstPurchase) {
				profile.FirstPurchase = s.Date
			}
			if s.Date.After(profile.LastPurchase) {
				profile.LastPurchase = s.Date
			}
		}
		if s.Product != "" {
			p := products[s.Product]
			if p == nil {
				p = &struct {
					amount float64
					txs    map[string]bool
				}{txs: make(map[string]bool)}
				products[s.Product] = p
			}
			p.amount += s.Amount
			if s.TransactionID != "" {
				p.txs[s.TransactionID] = true
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("client %q not found in the current selection", clientID)
	}

	profile.Transactions = len(transactions)
	profile.Bucket = Classify(len(dates))

	for product, p := range products {
		profile.TopProducts = append(profile.TopProducts, ProductRank{
			Product:      product,
			Amount:       p.amount,
			Transactions: len(p.txs),
		})
	}
	sort.Slice(profile.TopProducts, func(i, j int) bool {
		a, b := profile.TopProducts[i], profile.TopProducts[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Product < b.Product
	})
	if len(profile.TopProducts) > clientProductLimit {
		profile.TopProducts = profile.TopProducts[:clientProductLimit]
	}
	return profile, nil
}
