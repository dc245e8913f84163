package dataset

import (
	"fmt"

	"salesboard/feed"
)

// NormalizeRejections converts the rejected-delivery ("rebotes") feed into
// RejectionRecord rows. The delivery date prefers a "fecha entrega" style
// column and falls back to any date column; the rejected amount comes from a
// "monto rechazo" style column defaulting to 0 when absent.
func NormalizeRejections(t *feed.Table) ([]RejectionRecord, error) {
	dateCol, err := resolveColumn("fecha_entrega", t.Columns,
		[]string{"fecha_entrega", "fechaentrega"},
		tokenRule{all: []string{"fecha", "entrega"}},
		tokenRule{all: []string{"fecha"}},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: rejected-delivery feed: %v", ErrSchemaInvalid, err)
	}
	amountCol, err := resolveOptional("monto_rechazo", t.Columns,
		[]string{"monto_rechazo", "montorechazo"},
		tokenRule{all: []string{"monto", "rechazo"}},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: rejected-delivery feed: %v", ErrSchemaInvalid, err)
	}
	reasonCol, err := resolveOptional("motivo", t.Columns,
		[]string{"motivo", "motivo_rechazo"},
		tokenRule{all: []string{"motivo"}},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: rejected-delivery feed: %v", ErrSchemaInvalid, err)
	}

	salespersonCol, _ := resolveOptional("vendedor", t.Columns, []string{"vendedor"})
	zoneCol, _ := resolveOptional("zona", t.Columns, []string{"zona"})
	distributorCol, _ := resolveOptional("distribuidor", t.Columns, []string{"distribuidor"})
	clientIDCol, _ := resolveOptional("clienteid", t.Columns,
		[]string{"clienteid", "cliente_id"},
		tokenRule{all: []string{"cliente", "id"}},
	)
	clientCol, _ := resolveOptional("cliente", t.Columns, []string{"cliente"})

	records := make([]RejectionRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, RejectionRecord{
			ClientID:     t.Cell(row, clientIDCol),
			ClientName:   normalizeName(t.Cell(row, clientCol)),
			Salesperson:  normalizeName(t.Cell(row, salespersonCol)),
			Zone:         t.Cell(row, zoneCol),
			Distributor:  t.Cell(row, distributorCol),
			Reason:       t.Cell(row, reasonCol),
			DeliveryDate: parseDate(t.Cell(row, dateCol)),
			Amount:       parseAmount(t.Cell(row, amountCol)),
		})
	}
	return records, nil
}
