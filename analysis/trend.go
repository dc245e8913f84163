package analysis

import (
	"sort"
	"time"
)

// TrendPoint is one day's sales activity.
type TrendPoint struct {
	Date    time.Time `json:"date"`
	Amount  float64   `json:"amount"`
	Clients int       `json:"clients"`
}

// WeekPoint is one ISO week's sales total.
type WeekPoint struct {
	Week   int     `json:"week"`
	Amount float64 `json:"amount"`
}

// TrendReport is the daily and weekly evolution of the selection.
type TrendReport struct {
	Daily  []TrendPoint `json:"daily"`
	Weekly []WeekPoint  `json:"weekly"`
}

// Trend computes daily amount and distinct-client series plus per-ISO-week
// totals. It requires the sales feed; rows without a parseable date are
// excluded from both series.
func Trend(v *View) (*TrendReport, error) {
	if len(v.Sales) == 0 {
		return nil, unavailable("sales")
	}

	type dayAgg struct {
		date    time.Time
		amount  float64
		clients map[string]bool
	}
	days := make(map[string]*dayAgg)
	weeks := make(map[int]float64)
	for _, s := range v.Sales {
		if s.Date.IsZero() {
			continue
		}
		key := s.Date.Format("2006-01-02")
		d := days[key]
		if d == nil {
			y, m, dd := s.Date.Date()
			d = &dayAgg{
				date:    time.Date(y, m, dd, 0, 0, 0, 0, time.UTC),
				clients: make(map[string]bool),
			}
			days[key] = d
		}
		d.amount += s.Amount
		if s.ClientID != "" {
			d.clients[s.ClientID] = true
		}
		if s.Week > 0 {
			weeks[s.Week] += s.Amount
		}
	}

	report := &TrendReport{}
	for _, d := range days {
		report.Daily = append(report.Daily, TrendPoint{
			Date:    d.date,
			Amount:  d.amount,
			Clients: len(d.clients),
		})
	}
	sort.Slice(report.Daily, func(i, j int) bool {
		return report.Daily[i].Date.Before(report.Daily[j].Date)
	})

	for week, amount := range weeks {
		report.Weekly = append(report.Weekly, WeekPoint{Week: week, Amount: amount})
	}
	sort.Slice(report.Weekly, func(i, j int) bool {
		return report.Weekly[i].Week < report.Weekly[j].Week
	})
	return report, nil
}
