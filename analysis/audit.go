package analysis

import (
	"sort"

	"salesboard/dataset"
)

// AuditFilter narrows the audit pivot. Each selection is a multi-select
// matched case-insensitively; an empty selection keeps everything.
type AuditFilter struct {
	Hierarchies []string
	Categories  []string
	Products    []string
}

// Audit pivot dimensions; the most specific selection wins.
const (
	AuditByHierarchy = "hierarchy1"
	AuditByCategory  = "category"
	AuditByProduct   = "product"
)

// AuditRow is one salesperson's amounts across the pivot columns.
type AuditRow struct {
	Salesperson string             `json:"salesperson"`
	Amounts     map[string]float64 `json:"amounts"`
	Total       float64            `json:"total"`
}

// AuditReport pivots sale amounts by salesperson against a product
// hierarchy dimension.
type AuditReport struct {
	Dimension   string     `json:"dimension"`
	Columns     []string   `json:"columns"`
	Rows        []AuditRow `json:"rows"`
	TotalAmount float64    `json:"total_amount"`

	// Option lists for the three selectors, from the unnarrowed selection.
	Hierarchies []string `json:"hierarchies"`
	Categories  []string `json:"categories"`
	Products    []string `json:"products"`
}

// Audit pivots sale amounts by salesperson over the product hierarchy. The
// column dimension follows the narrowest selection made: product when
// products are selected, category for a category selection, the top
// hierarchy otherwise. Sales with an empty value in the chosen dimension
// stay out of the pivot. It requires the sales feed.
func Audit(v *View, f AuditFilter) (*AuditReport, error) {
	if len(v.Sales) == 0 {
		return nil, unavailable("sales")
	}

	report := &AuditReport{
		Dimension:   AuditByHierarchy,
		Hierarchies: distinctSorted(v.Sales, func(s dataset.Sale) string { return s.Hierarchy1 }),
		Categories:  distinctSorted(v.Sales, func(s dataset.Sale) string { return s.Category }),
		Products:    distinctSorted(v.Sales, func(s dataset.Sale) string { return s.Product }),
	}

	dimension := func(s dataset.Sale) string { return s.Hierarchy1 }
	switch {
	case len(f.Products) > 0:
		report.Dimension = AuditByProduct
		dimension = func(s dataset.Sale) string { return s.Product }
	case len(f.Categories) > 0:
		report.Dimension = AuditByCategory
		dimension = func(s dataset.Sale) string { return s.Category }
	}

	matches := func(value string, selected []string) bool {
		if len(selected) == 0 {
			return true
		}
		for _, want := range selected {
			if equalName(value, want) {
				return true
			}
		}
		return false
	}

	rows := make(map[string]*AuditRow)
	columns := make(map[string]bool)
	var names []string
	for _, s := range v.Sales {
		if !matches(s.Hierarchy1, f.Hierarchies) ||
			!matches(s.Category, f.Categories) ||
			!matches(s.Product, f.Products) {
			continue
		}
		col := dimension(s)
		if col == "" {
			continue
		}
		row := rows[s.Salesperson]
		if row == nil {
			row = &AuditRow{Salesperson: s.Salesperson, Amounts: make(map[string]float64)}
			rows[s.Salesperson] = row
			names = append(names, s.Salesperson)
		}
		row.Amounts[col] += s.Amount
		row.Total += s.Amount
		report.TotalAmount += s.Amount
		columns[col] = true
	}

	for col := range columns {
		report.Columns = append(report.Columns, col)
	}
	sort.Strings(report.Columns)

	for _, name := range names {
		report.Rows = append(report.Rows, *rows[name])
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Salesperson < b.Salesperson
	})
	return report, nil
}
