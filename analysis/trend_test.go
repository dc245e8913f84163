package analysis

import (
	"testing"

	"salesboard/dataset"
)

func TestTrend(t *testing.T) {

	v := &View{
		Sales: []dataset.Sale{
			{ClientID: "C01", Date: day(1), Week: 9, Amount: 100},
			{ClientID: "C02", Date: day(1), Week: 9, Amount: 50},
			{ClientID: "C01", Date: day(4), Week: 10, Amount: 200},
			{ClientID: "C01", Amount: 999}, // undated, excluded from both series
		},
	}

	r, err := Trend(v)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := len(r.Daily), 2; got != want {
		t.Fatalf("got %d daily points want %d", got, want)
	}
	if got, want := r.Daily[0].Date, day(1); !got.Equal(want) {
		t.Errorf("got %v want %v", got, want)
	}
	if got, want := r.Daily[0].Amount, 150.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}
	if got, want := r.Daily[0].Clients, 2; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := r.Daily[1].Clients, 1; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if !r.Daily[0].Date.Before(r.Daily[1].Date) {
		t.Error("daily points should sort ascending by date")
	}

	if got, want := len(r.Weekly), 2; got != want {
		t.Fatalf("got %d weekly points want %d", got, want)
	}
	if got, want := r.Weekly[0].Week, 9; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := r.Weekly[0].Amount, 150.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}
	if got, want := r.Weekly[1].Amount, 200.0; got != want {
		t.Errorf("got %f want %f", got, want)
	}
}

func TestTrendUnavailable(t *testing.T) {
	if _, err := Trend(&View{}); !IsUnavailable(err) {
		t.Fatalf("got %v, want an unavailability error", err)
	}
}
