package dataset

import (
	"fmt"

	"salesboard/feed"
)

// NormalizePreSales converts a raw pre-sale order table into PreSaleOrder
// rows. A date column is required; the amount follows the same fallback
// chain as sales (final amount, then generic amount, then 0); the
// cross-reference id comes from a "nro preventa" style column whose exact
// name varies across sources and defaults to absent when not found.
func NormalizePreSales(t *feed.Table) ([]PreSaleOrder, error) {
	dateCol, err := resolveColumn("fecha", t.Columns, []string{"fecha"})
	if err != nil {
		return nil, fmt.Errorf("%w: pre-sale feed: %v", ErrSchemaInvalid, err)
	}
	amountCol, err := resolveOptional("monto", t.Columns, []string{"monto_final", "montofinal", "monto"})
	if err != nil {
		return nil, fmt.Errorf("%w: pre-sale feed: %v", ErrSchemaInvalid, err)
	}
	crossRefCol, err := resolveOptional("nro_preventa", t.Columns,
		[]string{"nro_preventa", "nropreventa"},
		tokenRule{all: []string{"nro", "preventa"}},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: pre-sale feed: %v", ErrSchemaInvalid, err)
	}
	salespersonCol, _ := resolveOptional("vendedor", t.Columns, []string{"vendedor"})
	productCol, _ := resolveOptional("producto", t.Columns, []string{"producto"})

	orders := make([]PreSaleOrder, 0, len(t.Rows))
	for _, row := range t.Rows {
		orders = append(orders, PreSaleOrder{
			CrossRef:    t.Cell(row, crossRefCol),
			Salesperson: t.Cell(row, salespersonCol),
			Product:     t.Cell(row, productCol),
			Date:        parseDate(t.Cell(row, dateCol)),
			Amount:      parseAmount(t.Cell(row, amountCol)),
		})
	}
	return orders, nil
}
