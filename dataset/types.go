// Package dataset consolidates the four salesboard feeds into a read-only
// in-memory dataset: normalized sales enriched with territory assignments,
// pre-sale orders, the client master and the rejected-delivery feed.
package dataset

import "time"

// Sale is one sales line item. A transaction may span several line items;
// TransactionID groups them, and every "transaction" figure in the views is
// a distinct-TransactionID count while client figures are distinct-ClientID
// counts.
type Sale struct {
	TransactionID string
	ClientID      string
	ClientName    string

	// Salesperson is the canonical attribution after enrichment: the
	// client-master assignment when present, otherwise the point-of-sale
	// value. SourceSalesperson always carries the point-of-sale value.
	Salesperson       string
	SourceSalesperson string

	Date   time.Time // zero when the source date did not parse
	Week   int       // ISO week number, 0 when Date is zero
	Amount float64

	// Channel is derived from Salesperson via the configured channel map,
	// never trusted from input.
	Channel string

	Product     string
	PaymentType string
	PreSaleRef  string
	Cluster     string
	Hierarchy1  string
	Category    string
}

// PreSaleOrder is an order captured before fulfilment; it may never
// materialize into a delivered sale.
type PreSaleOrder struct {
	CrossRef    string // matched against Sale.PreSaleRef
	Salesperson string
	Product     string
	Date        time.Time
	Amount      float64
}

// ClientMasterEntry is the authoritative territory assignment for a client.
// Entries are unique per ClientID after load. HasGeo reports whether the
// coordinates parsed to non-zero values; entries without geo stay in
// coverage but are excluded from any mapping view.
type ClientMasterEntry struct {
	ClientID    string
	ClientName  string
	Salesperson string
	VisitDay    string
	Latitude    float64
	Longitude   float64
	HasGeo      bool
}

// RejectionRecord is one rejected-delivery ("rebote") record. This feed is
// independent of the pre-sale reconciliation.
type RejectionRecord struct {
	ClientID     string
	ClientName   string
	Salesperson  string
	Zone         string
	Distributor  string
	Reason       string
	DeliveryDate time.Time
	Amount       float64
}

// Dataset is the consolidated, read-only result of one load. Views derive
// filtered subsets; nothing mutates the base slices after construction.
type Dataset struct {
	Sales      []Sale
	PreSales   []PreSaleOrder
	Clients    []ClientMasterEntry
	Rejections []RejectionRecord

	// Hash is the combined content hash of the source feeds, keying the
	// snapshot store.
	Hash     string
	LoadedAt time.Time
}

// HasSales reports whether the sales feed loaded with at least one row.
func (d *Dataset) HasSales() bool { return d != nil && len(d.Sales) > 0 }

// HasPreSales reports whether the pre-sale feed loaded with at least one row.
func (d *Dataset) HasPreSales() bool { return d != nil && len(d.PreSales) > 0 }

// HasClients reports whether the client master loaded with at least one row.
func (d *Dataset) HasClients() bool { return d != nil && len(d.Clients) > 0 }

// HasRejections reports whether the rejected-delivery feed loaded with at
// least one row.
func (d *Dataset) HasRejections() bool { return d != nil && len(d.Rejections) > 0 }
