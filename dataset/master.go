package dataset

import (
	"fmt"

	"salesboard/feed"
)

// NormalizeClientMaster converts a raw client-assignment table into unique
// ClientMasterEntry rows.
//
// Source files name their columns inconsistently, so the client id and
// salesperson columns are resolved through alias lists and token rules
// ("cliente"+"id" tokens for the id; "cliente" without "id" for the display
// name). The load fails if either the id or the salesperson column cannot be
// located. Entries deduplicate to one per client id, first occurrence wins.
func NormalizeClientMaster(t *feed.Table) ([]ClientMasterEntry, error) {
	idCol, err := resolveColumn("clienteid", t.Columns,
		[]string{"clienteid", "cliente_id"},
		tokenRule{all: []string{"cliente", "id"}},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: client master: %v", ErrSchemaInvalid, err)
	}
	salespersonCol, err := resolveColumn("vendedor", t.Columns,
		[]string{"vendedor"},
		tokenRule{all: []string{"vendedor"}},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: client master: %v", ErrSchemaInvalid, err)
	}
	nameCol, err := resolveOptional("cliente", t.Columns,
		[]string{"cliente"},
		tokenRule{all: []string{"cliente"}, none: []string{"id"}},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: client master: %v", ErrSchemaInvalid, err)
	}

	latCol, _ := resolveOptional("latitud", t.Columns, []string{"latitud"})
	lonCol, _ := resolveOptional("longitud", t.Columns, []string{"longitud"})
	dayCol, _ := resolveOptional("dia", t.Columns, []string{"dia", "dia_visita"})

	seen := make(map[string]bool, len(t.Rows))
	clients := make([]ClientMasterEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := t.Cell(row, idCol)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		entry := ClientMasterEntry{
			ClientID:    id,
			Salesperson: t.Cell(row, salespersonCol),
			VisitDay:    t.Cell(row, dayCol),
		}
		if nameCol >= 0 {
			entry.ClientName = normalizeName(t.Cell(row, nameCol))
		}
		if entry.ClientName == "" {
			entry.ClientName = "Cliente " + id
		}
		if latCol >= 0 && lonCol >= 0 {
			lat, latOK := parseCoordinate(t.Cell(row, latCol))
			lon, lonOK := parseCoordinate(t.Cell(row, lonCol))
			if latOK && lonOK {
				entry.Latitude = lat
				entry.Longitude = lon
				entry.HasGeo = true
			}
		}
		clients = append(clients, entry)
	}
	return clients, nil
}
