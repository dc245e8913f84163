package dataset

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"salesboard/feed"
)

func testChannels() ChannelMap {
	return NewChannelMap(map[string]string{
		"PEREZ JUAN":  "TRADICIONAL",
		"GOMEZ MARIA": "MAYORISTA",
	}, "OTROS")
}

func TestNormalizeSales(t *testing.T) {

	table := &feed.Table{
		Columns: []string{"ventaid", "fecha", "montofinal", "clienteid", "cliente", "vendedor", "cluster", "producto", "tipopago", "preventaid"},
		Rows: [][]string{
			{"V1", "01/03/2024", "1200,50", "C01", "kiosco el sol", "PEREZ JUAN", "Oro", "Agua 2L", "Contado", "P9"},
			{"V2", "02/03/2024", "800", "C02", "almacen norte", "desconocido", "", "Gaseosa", "Crédito", ""},
			{"V3", "bad-date", "", "", "", "", "Plata", "", "", ""},
		},
	}

	sales, err := NormalizeSales(table, testChannels())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(sales), 3; got != want {
		t.Fatalf("got %d sales, want %d", got, want)
	}

	want := Sale{
		TransactionID:     "V1",
		ClientID:          "C01",
		ClientName:        "KIOSCO EL SOL",
		Salesperson:       "PEREZ JUAN",
		SourceSalesperson: "PEREZ JUAN",
		Date:              time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Week:              9,
		Amount:            1200.50,
		Channel:           "TRADICIONAL",
		Product:           "Agua 2L",
		PaymentType:       "Contado",
		PreSaleRef:        "P9",
		Cluster:           "Oro",
	}
	if diff := cmp.Diff(want, sales[0]); diff != "" {
		t.Errorf("first sale mismatch (-want +got):\n%s", diff)
	}

	// Unmapped salesperson falls to the default channel; an empty cluster
	// cell becomes the explicit placeholder.
	if got, want := sales[1].Channel, "OTROS"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := sales[1].Cluster, "Sin Cluster"; got != want {
		t.Errorf("got %s want %s", got, want)
	}

	// An unparseable date survives as the zero time with week 0.
	if !sales[2].Date.IsZero() {
		t.Errorf("expected zero date, got %v", sales[2].Date)
	}
	if got, want := sales[2].Week, 0; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := sales[2].Amount, 0.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}
}

func TestNormalizeSalesWithoutDateColumn(t *testing.T) {
	table := &feed.Table{
		Columns: []string{"ventaid", "monto"},
		Rows:    [][]string{{"V1", "10"}},
	}
	_, err := NormalizeSales(table, testChannels())
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("got %v, want ErrSchemaInvalid", err)
	}
}

func TestNormalizeSalesTransactionIDFallback(t *testing.T) {
	// Without a sale id column the first column serves as transaction id.
	table := &feed.Table{
		Columns: []string{"comprobante", "fecha", "monto"},
		Rows:    [][]string{{"F-0001", "01/03/2024", "10"}},
	}
	sales, err := NormalizeSales(table, testChannels())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := sales[0].TransactionID, "F-0001"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
}

func TestNormalizeClientMaster(t *testing.T) {

	table := &feed.Table{
		Columns: []string{"codigo_cliente_id", "nombre_cliente", "vendedor", "latitud", "longitud", "dia"},
		Rows: [][]string{
			{"C01", "kiosco el sol", "PEREZ JUAN", "-34,6037", "-58,3816", "Lunes"},
			{"C02", "", "GOMEZ MARIA", "", "", "Martes"},
			{"C01", "duplicado", "OTRO", "-1", "-1", "Lunes"}, // dropped
			{"", "sin id", "PEREZ JUAN", "", "", ""},          // dropped
			{"C03", "almacen norte", "PEREZ JUAN", "0", "-58,4", "Lunes"},
		},
	}

	clients, err := NormalizeClientMaster(table)
	if err != nil {
		t.Fatal(err)
	}

	want := []ClientMasterEntry{
		{
			ClientID:    "C01",
			ClientName:  "KIOSCO EL SOL",
			Salesperson: "PEREZ JUAN",
			VisitDay:    "Lunes",
			Latitude:    -34.6037,
			Longitude:   -58.3816,
			HasGeo:      true,
		},
		{
			ClientID:    "C02",
			ClientName:  "Cliente C02",
			Salesperson: "GOMEZ MARIA",
			VisitDay:    "Martes",
		},
		{
			// A zero latitude means no usable geo, but the entry stays.
			ClientID:    "C03",
			ClientName:  "ALMACEN NORTE",
			Salesperson: "PEREZ JUAN",
			VisitDay:    "Lunes",
		},
	}
	if diff := cmp.Diff(want, clients); diff != "" {
		t.Errorf("clients mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeClientMasterRequiredColumns(t *testing.T) {
	table := &feed.Table{
		Columns: []string{"cliente", "zona"},
		Rows:    [][]string{{"alguien", "norte"}},
	}
	_, err := NormalizeClientMaster(table)
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("got %v, want ErrSchemaInvalid", err)
	}
}

func TestNormalizePreSales(t *testing.T) {

	table := &feed.Table{
		Columns: []string{"nro preventa", "fecha", "monto_final", "vendedor", "producto"},
		Rows: [][]string{
			{"P1", "01/03/2024", "500,25", "PEREZ JUAN", "Agua 2L"},
			{"", "02/03/2024", "100", "GOMEZ MARIA", "Gaseosa"},
		},
	}

	orders, err := NormalizePreSales(table)
	if err != nil {
		t.Fatal(err)
	}
	want := []PreSaleOrder{
		{
			CrossRef:    "P1",
			Salesperson: "PEREZ JUAN",
			Product:     "Agua 2L",
			Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Amount:      500.25,
		},
		{
			Salesperson: "GOMEZ MARIA",
			Product:     "Gaseosa",
			Date:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Amount:      100,
		},
	}
	if diff := cmp.Diff(want, orders); diff != "" {
		t.Errorf("orders mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeRejections(t *testing.T) {

	table := &feed.Table{
		Columns: []string{"cliente", "vendedor", "zona", "distribuidor", "motivo", "fecha entrega", "monto rechazo"},
		Rows: [][]string{
			{"kiosco el sol", "perez juan", "Norte", "Dist A", "Cerrado", "05/03/2024", "350,75"},
		},
	}

	records, err := NormalizeRejections(table)
	if err != nil {
		t.Fatal(err)
	}
	want := []RejectionRecord{
		{
			ClientName:   "KIOSCO EL SOL",
			Salesperson:  "PEREZ JUAN",
			Zone:         "Norte",
			Distributor:  "Dist A",
			Reason:       "Cerrado",
			DeliveryDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Amount:       350.75,
		},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeRejectionsDateFallback(t *testing.T) {
	// No "fecha entrega" column; a plain "fecha" column serves instead.
	table := &feed.Table{
		Columns: []string{"cliente", "fecha"},
		Rows:    [][]string{{"x", "05/03/2024"}},
	}
	records, err := NormalizeRejections(table)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := records[0].DeliveryDate, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v want %v", got, want)
	}
}

func TestEnrich(t *testing.T) {

	channels := testChannels()
	sales := []Sale{
		{ClientID: "C01", Salesperson: "VENDEDOR MOSTRADOR", SourceSalesperson: "VENDEDOR MOSTRADOR", Channel: "OTROS"},
		{ClientID: "C99", Salesperson: "GOMEZ MARIA", SourceSalesperson: "GOMEZ MARIA", Channel: "MAYORISTA"},
		{ClientID: "C02", Salesperson: "PEREZ JUAN", SourceSalesperson: "PEREZ JUAN", Channel: "TRADICIONAL"},
	}
	clients := []ClientMasterEntry{
		{ClientID: "C01", Salesperson: "PEREZ JUAN"},
		{ClientID: "C02", Salesperson: "GOMEZ MARIA"},
	}

	enriched := Enrich(sales, clients, channels)

	// The master assignment wins over the point-of-sale attribution, and the
	// channel follows the final salesperson.
	if got, want := enriched[0].Salesperson, "PEREZ JUAN"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := enriched[0].SourceSalesperson, "VENDEDOR MOSTRADOR"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := enriched[0].Channel, "TRADICIONAL"; got != want {
		t.Errorf("got %s want %s", got, want)
	}

	// Clients absent from the master keep their point-of-sale attribution.
	if got, want := enriched[1].Salesperson, "GOMEZ MARIA"; got != want {
		t.Errorf("got %s want %s", got, want)
	}

	// Reassignment applies even when the point-of-sale value looks valid.
	if got, want := enriched[2].Salesperson, "GOMEZ MARIA"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := enriched[2].Channel, "MAYORISTA"; got != want {
		t.Errorf("got %s want %s", got, want)
	}

	// The input slice is not mutated.
	if got, want := sales[0].Salesperson, "VENDEDOR MOSTRADOR"; got != want {
		t.Errorf("input mutated: got %s want %s", got, want)
	}
}
