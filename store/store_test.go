package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"salesboard/dataset"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Shared-cache in-memory databases persist across connections within
	// the process; start from a clean slate.
	if err := s.Wipe(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func testSnapshot(hash string) (*dataset.Dataset, *dataset.Report) {
	loaded := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	ds := &dataset.Dataset{
		Hash:     hash,
		LoadedAt: loaded,
		Sales: []dataset.Sale{
			{
				TransactionID:     "V1",
				ClientID:          "C01",
				ClientName:        "KIOSCO EL SOL",
				Salesperson:       "PEREZ JUAN",
				SourceSalesperson: "VENDEDOR MOSTRADOR",
				Date:              time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Week:              9,
				Amount:            1200.50,
				Channel:           "TRADICIONAL",
				Product:           "Agua 2L",
				PaymentType:       "Contado",
				PreSaleRef:        "P1",
				Cluster:           "Oro",
			},
			{TransactionID: "V2", Amount: 800}, // zero date round-trips as zero
		},
		PreSales: []dataset.PreSaleOrder{
			{CrossRef: "P1", Salesperson: "PEREZ JUAN", Product: "Agua 2L", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: 1500},
		},
		Clients: []dataset.ClientMasterEntry{
			{ClientID: "C01", ClientName: "KIOSCO EL SOL", Salesperson: "PEREZ JUAN", VisitDay: "Lunes", Latitude: -34.6, Longitude: -58.4, HasGeo: true},
		},
		Rejections: []dataset.RejectionRecord{
			{ClientID: "C01", Salesperson: "PEREZ JUAN", Zone: "Norte", Distributor: "Dist A", Reason: "Cerrado", DeliveryDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Amount: 350},
		},
	}
	report := &dataset.Report{
		Sales:      dataset.FeedReport{Name: "sales", Status: dataset.FeedOK, Path: "/data/ventas.csv", Rows: 2},
		PreSales:   dataset.FeedReport{Name: "presales", Status: dataset.FeedOK, Path: "/data/preventa.csv", Rows: 1},
		Clients:    dataset.FeedReport{Name: "clients", Status: dataset.FeedOK, Path: "/data/maestro.csv", Rows: 1},
		Rejections: dataset.FeedReport{Name: "rejections", Status: dataset.FeedMissing, Reason: "feed file not found"},
		LoadedAt:   loaded,
	}
	return ds, report
}

func TestStoreRoundTrip(t *testing.T) {

	s := testStore(t)
	ctx := context.Background()

	ds, report, err := s.Load(ctx, "nope")
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("got %v, want ErrNoSnapshot", err)
	}

	wantDS, wantReport := testSnapshot("hash-1")
	if err := s.Save(ctx, wantDS, wantReport); err != nil {
		t.Fatal(err)
	}

	ds, report, err = s.Load(ctx, "hash-1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(wantDS, ds); diff != "" {
		t.Errorf("dataset mismatch (-want +got):\n%s", diff)
	}
	if !report.FromSnapshot {
		t.Error("restored report should be marked FromSnapshot")
	}
	report.FromSnapshot = false
	if diff := cmp.Diff(wantReport, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreSaveReplacesSameHash(t *testing.T) {

	s := testStore(t)
	ctx := context.Background()

	ds, report := testSnapshot("hash-replace")
	if err := s.Save(ctx, ds, report); err != nil {
		t.Fatal(err)
	}

	// Save the same hash again with fewer rows; the old rows must go.
	ds.Sales = ds.Sales[:1]
	if err := s.Save(ctx, ds, report); err != nil {
		t.Fatal(err)
	}

	got, _, err := s.Load(ctx, "hash-replace")
	if err != nil {
		t.Fatal(err)
	}
	if gotN, want := len(got.Sales), 1; gotN != want {
		t.Errorf("got %d sales want %d", gotN, want)
	}

	metas, err := s.Snapshots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if gotN, want := len(metas), 1; gotN != want {
		t.Errorf("got %d snapshots want %d", gotN, want)
	}
}

func TestStorePruneAndWipe(t *testing.T) {

	s := testStore(t)
	ctx := context.Background()

	for _, hash := range []string{"h1", "h2", "h3"} {
		ds, report := testSnapshot(hash)
		if err := s.Save(ctx, ds, report); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Prune(ctx, 2); err != nil {
		t.Fatal(err)
	}
	metas, err := s.Snapshots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(metas), 2; got != want {
		t.Errorf("got %d snapshots want %d", got, want)
	}

	if err := s.Wipe(ctx); err != nil {
		t.Fatal(err)
	}
	metas, err = s.Snapshots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(metas), 0; got != want {
		t.Errorf("got %d snapshots want %d", got, want)
	}
	if _, _, err := s.Load(ctx, "h3"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("got %v, want ErrNoSnapshot", err)
	}
}

func TestStoreSaveRequiresHash(t *testing.T) {
	s := testStore(t)
	if err := s.Save(context.Background(), &dataset.Dataset{}, &dataset.Report{}); err == nil {
		t.Error("expected an error for a dataset without a hash")
	}
}

func TestOpenInMemoryValidation(t *testing.T) {
	if _, err := Open(":memory:"); err == nil {
		t.Error("an in-memory path without cache=shared should be rejected")
	}
}
