// Package analysis computes the salesboard aggregation views over a
// consolidated dataset. Each view is an independent pure function of a
// filtered subset: a view needing a feed that did not load degrades to a
// typed unavailability error and never affects another view.
package analysis

import (
	"sort"
	"strings"
	"time"

	"salesboard/dataset"
)

// Filter is the UI selection applied before any view runs: a channel
// multi-select, an optional single salesperson, and an optional date range
// over the sale date. The zero Filter selects everything.
type Filter struct {
	Channels    []string
	Salesperson string
	From        time.Time
	To          time.Time
}

// View is the filtered subset the aggregations run on. The client master,
// pre-sale and rejection slices are narrowed to the selected salesperson
// (or to the salespeople present in the channel-filtered sales, matching
// how a territory selection narrows every panel).
type View struct {
	Sales      []dataset.Sale
	Clients    []dataset.ClientMasterEntry
	PreSales   []dataset.PreSaleOrder
	Rejections []dataset.RejectionRecord
}

// Apply derives a filtered View from the dataset. The base tables are never
// mutated.
func Apply(ds *dataset.Dataset, f Filter) *View {
	v := &View{}
	if ds == nil {
		return v
	}

	channelSet := make(map[string]bool, len(f.Channels))
	for _, c := range f.Channels {
		if c != "" {
			channelSet[c] = true
		}
	}

	// Sales: channel, salesperson and date range.
	salespeople := make(map[string]bool)
	for _, s := range ds.Sales {
		if len(channelSet) > 0 && !channelSet[s.Channel] {
			continue
		}
		salespeople[s.Salesperson] = true
		if f.Salesperson != "" && !equalName(s.Salesperson, f.Salesperson) {
			continue
		}
		if !inRange(s.Date, f.From, f.To) {
			continue
		}
		v.Sales = append(v.Sales, s)
	}

	// Client master and pre-sales narrow to the selected salesperson, or to
	// the salespeople of the channel-filtered sales.
	keep := func(name string) bool {
		if f.Salesperson != "" {
			return equalName(name, f.Salesperson)
		}
		if len(channelSet) == 0 {
			return true
		}
		return salespeople[name]
	}
	for _, c := range ds.Clients {
		if keep(c.Salesperson) {
			v.Clients = append(v.Clients, c)
		}
	}
	for _, p := range ds.PreSales {
		if keep(p.Salesperson) {
			v.PreSales = append(v.PreSales, p)
		}
	}

	// The rejection feed attributes by its own salesperson field; it only
	// narrows when a specific salesperson is selected.
	for _, r := range ds.Rejections {
		if f.Salesperson == "" || equalName(r.Salesperson, f.Salesperson) {
			v.Rejections = append(v.Rejections, r)
		}
	}
	return v
}

// Channels lists the distinct channels present in the dataset's sales,
// sorted, for populating the channel filter.
func Channels(ds *dataset.Dataset) []string {
	if ds == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, s := range ds.Sales {
		if s.Channel != "" && !seen[s.Channel] {
			seen[s.Channel] = true
			out = append(out, s.Channel)
		}
	}
	sort.Strings(out)
	return out
}

// Salespeople lists the distinct canonical salespeople in the view's sales,
// sorted.
func (v *View) Salespeople() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range v.Sales {
		if s.Salesperson != "" && !seen[s.Salesperson] {
			seen[s.Salesperson] = true
			out = append(out, s.Salesperson)
		}
	}
	sort.Strings(out)
	return out
}

func equalName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func inRange(t, from, to time.Time) bool {
	if t.IsZero() {
		// Rows with unparseable dates stay in unless a range is requested.
		return from.IsZero() && to.IsZero()
	}
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
