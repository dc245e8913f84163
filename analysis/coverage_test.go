package analysis

import (
	"testing"

	"salesboard/dataset"
)

func TestCoverage(t *testing.T) {

	v := &View{
		Sales: []dataset.Sale{
			{ClientID: "C01", Amount: 100},
			{ClientID: "C01", Amount: 50}, // repeat purchase, still one served client
			{ClientID: "C99", Amount: 10}, // unassigned client, ignored by coverage
		},
		Clients: []dataset.ClientMasterEntry{
			{ClientID: "C01", Salesperson: "PEREZ JUAN"},
			{ClientID: "C02", Salesperson: "PEREZ JUAN"},
			{ClientID: "C03", Salesperson: "GOMEZ MARIA"},
		},
	}

	r, err := Coverage(v, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.TotalAssigned, 3; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := r.TotalServed, 1; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := r.TotalGap, 2; got != want {
		t.Errorf("got %d want %d", got, want)
	}

	// Rows sort by effectiveness descending.
	if got, want := r.BySalesperson[0].Salesperson, "PEREZ JUAN"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := r.BySalesperson[0].Effectiveness, 50.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}
	if got, want := r.BySalesperson[1].Effectiveness, 0.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}

	// Pending clients sort before served ones.
	if r.Clients[0].Served {
		t.Error("pending clients should come first")
	}

	// Effectiveness stays within [0, 100] whenever clients are assigned.
	for _, row := range r.BySalesperson {
		if row.Effectiveness < 0 || row.Effectiveness > 100 {
			t.Errorf("effectiveness %f out of range for %s", row.Effectiveness, row.Salesperson)
		}
	}
}

func TestCoverageActiveSalespeople(t *testing.T) {

	v := &View{
		Sales: []dataset.Sale{
			{ClientID: "C01", Amount: 100},
		},
		Clients: []dataset.ClientMasterEntry{
			{ClientID: "C01", Salesperson: "PEREZ JUAN"},
			{ClientID: "C02", Salesperson: "PEREZ JUAN"},
			{ClientID: "C03", Salesperson: "GOMEZ MARIA"}, // left the company
		},
	}

	// Only active portfolios count toward the denominator; names match
	// case-insensitively.
	r, err := Coverage(v, []string{"perez juan"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.TotalAssigned, 2; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := r.TotalServed, 1; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := len(r.BySalesperson), 1; got != want {
		t.Fatalf("got %d rows want %d", got, want)
	}
	if got, want := r.BySalesperson[0].Salesperson, "PEREZ JUAN"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := len(r.Clients), 2; got != want {
		t.Errorf("got %d client rows want %d", got, want)
	}

	// An empty list keeps every portfolio.
	r, err = Coverage(v, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.TotalAssigned, 3; got != want {
		t.Errorf("got %d want %d", got, want)
	}
}

func TestCoverageUnavailableWithoutMaster(t *testing.T) {
	_, err := Coverage(&View{Sales: []dataset.Sale{{ClientID: "C01"}}}, nil)
	if !IsUnavailable(err) {
		t.Fatalf("got %v, want an unavailability error", err)
	}
}

func TestEffectivenessClampsZeroDenominator(t *testing.T) {
	if got, want := effectiveness(0, 0), 0.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}
	if got, want := effectiveness(3, 4), 75.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}
}
