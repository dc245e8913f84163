package analysis

import (
	"fmt"
	"testing"

	"salesboard/dataset"
)

func TestClassify(t *testing.T) {

	tests := []struct {
		purchases int
		want      Bucket
	}{
		{-1, BucketNone},
		{0, BucketNone},
		{1, BucketLow},
		{2, BucketLow},
		{3, BucketInModel},
		{5, BucketInModel},
		{6, BucketHigh},
		{40, BucketHigh},
	}
	for ii, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d_purchases", ii, tt.purchases), func(t *testing.T) {
			if got, want := Classify(tt.purchases), tt.want; got != want {
				t.Errorf("got %s want %s", got, want)
			}
		})
	}
}

// TestClassifyTotal checks the bucket mapping is total and mutually
// exclusive over a span of counts: every count lands in exactly one bucket.
func TestClassifyTotal(t *testing.T) {
	for n := 0; n <= 100; n++ {
		switch Classify(n) {
		case BucketNone, BucketLow, BucketInModel, BucketHigh:
		default:
			t.Fatalf("count %d fell outside every bucket", n)
		}
	}
}

func TestFrequency(t *testing.T) {

	v := &View{
		Sales: []dataset.Sale{
			// C01 buys on three distinct dates (one date repeated).
			{ClientID: "C01", Date: day(1)},
			{ClientID: "C01", Date: day(1)},
			{ClientID: "C01", Date: day(2)},
			{ClientID: "C01", Date: day(3)},
			// C02 buys once.
			{ClientID: "C02", Date: day(5)},
			// Undated rows never count as purchase dates.
			{ClientID: "C03"},
		},
		Clients: []dataset.ClientMasterEntry{
			{ClientID: "C01", Salesperson: "PEREZ JUAN"},
			{ClientID: "C02", Salesperson: "PEREZ JUAN"},
			{ClientID: "C03", Salesperson: "GOMEZ MARIA"},
		},
	}

	r, err := Frequency(v)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.PortfolioSize, 3; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := r.InModel, 1; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := r.OutOfModel, 2; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := r.Distribution[BucketInModel], 1; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := r.Distribution[BucketLow], 1; got != want {
		t.Errorf("got %d want %d", got, want)
	}
	if got, want := r.Distribution[BucketNone], 1; got != want {
		t.Errorf("got %d want %d", got, want)
	}

	// The attention list carries none and low clients, least frequent first.
	if got, want := len(r.OutOfModelClients), 2; got != want {
		t.Fatalf("got %d want %d", got, want)
	}
	if got, want := r.OutOfModelClients[0].ClientID, "C03"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := r.OutOfModelClients[1].ClientID, "C02"; got != want {
		t.Errorf("got %s want %s", got, want)
	}

	// Every portfolio client is in exactly one bucket.
	total := 0
	for _, n := range r.Distribution {
		total += n
	}
	if got, want := total, r.PortfolioSize; got != want {
		t.Errorf("got %d bucketed clients want %d", got, want)
	}
}

func TestFrequencyUnavailableWithoutMaster(t *testing.T) {
	_, err := Frequency(&View{Sales: []dataset.Sale{{ClientID: "C01", Date: day(1)}}})
	if !IsUnavailable(err) {
		t.Fatalf("got %v, want an unavailability error", err)
	}
}
