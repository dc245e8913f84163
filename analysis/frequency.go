package analysis

import "sort"

// Bucket classifies how often a client purchased in the period. The
// thresholds are business-defined, not computed.
type Bucket string

const (
	BucketNone    Bucket = "no purchase"
	BucketLow     Bucket = "low"
	BucketInModel Bucket = "in model"
	BucketHigh    Bucket = "high"
)

// Classify buckets a distinct-purchase-date count. The mapping is total and
// mutually exclusive over non-negative counts: 0, 1-2, 3-5, >5.
func Classify(purchaseDates int) Bucket {
	switch {
	case purchaseDates <= 0:
		return BucketNone
	case purchaseDates <= 2:
		return BucketLow
	case purchaseDates <= 5:
		return BucketInModel
	default:
		return BucketHigh
	}
}

// FrequencyClient is a client with its purchase-date count and bucket.
type FrequencyClient struct {
	ClientID    string `json:"client_id"`
	ClientName  string `json:"client_name"`
	Salesperson string `json:"salesperson"`
	Purchases   int    `json:"purchase_dates"`
	Bucket      Bucket `json:"bucket"`
}

// FrequencyMix is a per-salesperson bucket distribution.
type FrequencyMix struct {
	Salesperson string         `json:"salesperson"`
	Counts      map[Bucket]int `json:"counts"`
	Total       int            `json:"total"`
}

// FrequencyReport classifies the assigned portfolio by purchase frequency.
type FrequencyReport struct {
	PortfolioSize int               `json:"portfolio_size"`
	InModel       int               `json:"in_model"`
	OutOfModel    int               `json:"out_of_model"`
	Distribution  map[Bucket]int    `json:"distribution"`
	BySalesperson []FrequencyMix    `json:"by_salesperson"`
	// OutOfModelClients lists the none/low clients needing attention,
	// least frequent first.
	OutOfModelClients []FrequencyClient `json:"out_of_model_clients"`
}

// Frequency buckets each assigned client by the number of distinct dates
// it purchased on within the selection. It requires the client master;
// clients without sales land in the no-purchase bucket.
func Frequency(v *View) (*FrequencyReport, error) {
	if len(v.Clients) == 0 {
		return nil, unavailable("client master")
	}

	// Distinct purchase dates per client over the filtered sales.
	dates := make(map[string]map[string]bool)
	for _, s := range v.Sales {
		if s.ClientID == "" || s.Date.IsZero() {
			continue
		}
		day := s.Date.Format("2006-01-02")
		if dates[s.ClientID] == nil {
			dates[s.ClientID] = make(map[string]bool)
		}
		dates[s.ClientID][day] = true
	}

	report := &FrequencyReport{Distribution: make(map[Bucket]int)}
	mixes := make(map[string]*FrequencyMix)
	for _, c := range v.Clients {
		n := len(dates[c.ClientID])
		bucket := Classify(n)

		report.PortfolioSize++
		report.Distribution[bucket]++
		if bucket == BucketInModel {
			report.InModel++
		}

		mix := mixes[c.Salesperson]
		if mix == nil {
			mix = &FrequencyMix{Salesperson: c.Salesperson, Counts: make(map[Bucket]int)}
			mixes[c.Salesperson] = mix
		}
		mix.Counts[bucket]++
		mix.Total++

		if bucket == BucketNone || bucket == BucketLow {
			report.OutOfModelClients = append(report.OutOfModelClients, FrequencyClient{
				ClientID:    c.ClientID,
				ClientName:  c.ClientName,
				Salesperson: c.Salesperson,
				Purchases:   n,
				Bucket:      bucket,
			})
		}
	}
	report.OutOfModel = report.PortfolioSize - report.InModel

	for _, mix := range mixes {
		report.BySalesperson = append(report.BySalesperson, *mix)
	}
	sort.Slice(report.BySalesperson, func(i, j int) bool {
		return report.BySalesperson[i].Salesperson < report.BySalesperson[j].Salesperson
	})
	sort.Slice(report.OutOfModelClients, func(i, j int) bool {
		a, b := report.OutOfModelClients[i], report.OutOfModelClients[j]
		if a.Purchases != b.Purchases {
			return a.Purchases < b.Purchases
		}
		return a.ClientID < b.ClientID
	})
	return report, nil
}
