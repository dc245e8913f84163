package analysis

import (
	"fmt"
	"testing"

	"salesboard/dataset"
)

func TestClassifyDrop(t *testing.T) {

	const tol = 5.0
	tests := []struct {
		name      string
		pre       float64
		delivered float64
		want      DropStatus
	}{
		{"exact_match", 100, 100, DropDelivered},
		{"within_tolerance", 100, 96, DropDelivered},
		{"at_tolerance_boundary", 100, 95, DropDelivered},
		{"nothing_delivered", 100, 0, DropRejected},
		{"trace_delivery_partial", 100, 5, DropPartial},
		{"substantial_shortfall_rejected", 100, 60, DropRejected},
		{"quarter_delivered_rejected", 200, 50, DropRejected},
		{"over_delivered_within_tolerance", 100, 104, DropDelivered},
	}

	for ii, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", ii, tt.name), func(t *testing.T) {
			if got, want := classifyDrop(tt.pre, tt.delivered, tol), tt.want; got != want {
				t.Errorf("got %s want %s", got, want)
			}
		})
	}
}

// TestClassifyDropPartition checks every order lands in exactly one status
// for a range of delivered amounts.
func TestClassifyDropPartition(t *testing.T) {
	const pre, tol = 100.0, 5.0
	for delivered := 0.0; delivered <= 120; delivered++ {
		switch classifyDrop(pre, delivered, tol) {
		case DropDelivered, DropPartial, DropRejected:
		default:
			t.Fatalf("delivered=%f fell outside every status", delivered)
		}
	}
}

func TestDrops(t *testing.T) {

	v := &View{
		PreSales: []dataset.PreSaleOrder{
			{CrossRef: "P1", Salesperson: "PEREZ JUAN", Amount: 100},
			{CrossRef: "P1", Salesperson: "PEREZ JUAN", Amount: 50}, // second line, same order
			{CrossRef: "P2", Salesperson: "GOMEZ MARIA", Amount: 200},
			{CrossRef: "P3", Salesperson: "PEREZ JUAN", Amount: 80},
			{Salesperson: "PEREZ JUAN", Amount: 999}, // no cross-ref, skipped
		},
		Sales: []dataset.Sale{
			{PreSaleRef: "P1", Amount: 150}, // fully delivered
			{PreSaleRef: "P2", Amount: 50},  // a quarter delivered: rejected
			{PreSaleRef: "P3", Amount: 3},   // trace delivery: partial
			{Amount: 60},                    // unlinked sale, ignored by matching
		},
	}

	r, err := Drops(v, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(r.Rows), 3; got != want {
		t.Fatalf("got %d rows want %d", got, want)
	}
	if got, want := r.TotalPreSale, 430.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}
	if got, want := r.TotalDelivered, 203.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}
	if got, want := r.TotalDrop, 227.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}

	byRef := make(map[string]DropRow)
	for _, row := range r.Rows {
		byRef[row.CrossRef] = row
	}
	if got, want := byRef["P1"].Status, DropDelivered; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := byRef["P2"].Status, DropRejected; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := byRef["P3"].Status, DropPartial; got != want {
		t.Errorf("got %s want %s", got, want)
	}

	// The drop ranking leads with the salesperson losing the most.
	if got, want := r.TopSalespeople[0].Salesperson, "GOMEZ MARIA"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := r.TopSalespeople[0].Drop, 150.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}
}

func TestDropsUnavailable(t *testing.T) {

	// No presales.
	_, err := Drops(&View{Sales: []dataset.Sale{{Amount: 1}}}, 5)
	if !IsUnavailable(err) {
		t.Fatalf("got %v, want an unavailability error", err)
	}

	// No sales.
	_, err = Drops(&View{PreSales: []dataset.PreSaleOrder{{CrossRef: "P1"}}}, 5)
	if !IsUnavailable(err) {
		t.Fatalf("got %v, want an unavailability error", err)
	}
}
