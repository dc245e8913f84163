package dataset

import (
	"errors"
	"fmt"

	"salesboard/feed"
)

// ErrSchemaInvalid reports that a feed was readable but its columns could
// not serve the required logical fields.
var ErrSchemaInvalid = errors.New("feed schema invalid")

// NormalizeSales converts a raw sales table into Sale rows.
//
// The feed must carry a date column or the whole load fails; every other
// field degrades: the amount prefers the final amount column and falls back
// to the generic one (default 0), and the transaction id prefers the sale id
// column falling back to the first column of the table. The channel is
// derived from the point-of-sale salesperson here and recomputed after
// enrichment.
func NormalizeSales(t *feed.Table, channels ChannelMap) ([]Sale, error) {
	dateCol, err := resolveColumn("fecha", t.Columns, []string{"fecha"})
	if err != nil {
		return nil, fmt.Errorf("%w: sales feed: %v", ErrSchemaInvalid, err)
	}

	amountCol, err := resolveOptional("monto", t.Columns, []string{"montofinal", "monto_final", "monto"})
	if err != nil {
		return nil, fmt.Errorf("%w: sales feed: %v", ErrSchemaInvalid, err)
	}
	txCol, err := resolveOptional("ventaid", t.Columns, []string{"ventaid", "venta_id"})
	if err != nil {
		return nil, fmt.Errorf("%w: sales feed: %v", ErrSchemaInvalid, err)
	}
	if txCol < 0 {
		txCol = 0 // fall back to the first column of the table
	}

	clientIDCol, _ := resolveOptional("clienteid", t.Columns, []string{"clienteid", "cliente_id"})
	clientCol, _ := resolveOptional("cliente", t.Columns, []string{"cliente"})
	salespersonCol, _ := resolveOptional("vendedor", t.Columns, []string{"vendedor"})
	preSaleCol, _ := resolveOptional("preventaid", t.Columns, []string{"preventaid", "preventa_id"})
	productCol, _ := resolveOptional("producto", t.Columns, []string{"producto"})
	paymentCol, _ := resolveOptional("tipopago", t.Columns, []string{"tipopago", "tipo_pago"})
	clusterCol, _ := resolveOptional("cluster", t.Columns, []string{"cluster"})
	hierarchyCol, _ := resolveOptional("jerarquia1", t.Columns, []string{"jerarquia1"})
	categoryCol, _ := resolveOptional("categoria", t.Columns, []string{"categoria"})

	sales := make([]Sale, 0, len(t.Rows))
	for _, row := range t.Rows {
		date := parseDate(t.Cell(row, dateCol))
		salesperson := t.Cell(row, salespersonCol)
		cluster := t.Cell(row, clusterCol)
		if clusterCol >= 0 && cluster == "" {
			cluster = "Sin Cluster"
		}
		s := Sale{
			TransactionID:     t.Cell(row, txCol),
			ClientID:          t.Cell(row, clientIDCol),
			ClientName:        normalizeName(t.Cell(row, clientCol)),
			Salesperson:       salesperson,
			SourceSalesperson: salesperson,
			Date:              date,
			Week:              isoWeek(date),
			Amount:            parseAmount(t.Cell(row, amountCol)),
			Channel:           channels.Channel(salesperson),
			Product:           t.Cell(row, productCol),
			PaymentType:       t.Cell(row, paymentCol),
			PreSaleRef:        t.Cell(row, preSaleCol),
			Cluster:           cluster,
			Hierarchy1:        t.Cell(row, hierarchyCol),
			Category:          t.Cell(row, categoryCol),
		}
		sales = append(sales, s)
	}
	return sales, nil
}
