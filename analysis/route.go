package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// RouteStop is one georeferenced client on a salesperson's route.
type RouteStop struct {
	ClientID   string  `json:"client_id"`
	ClientName string  `json:"client_name"`
	VisitDay   string  `json:"visit_day,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Purchased  bool    `json:"purchased"`
	MapsLink   string  `json:"maps_link"`
}

// RouteReport is the map view for the selected portfolio: georeferenced
// clients marked by whether they purchased in the selection.
type RouteReport struct {
	TotalClients int         `json:"total_clients"`
	WithGeo      int         `json:"with_geo"`
	Purchased    int         `json:"purchased"`
	Pending      int         `json:"pending"`
	VisitDays    []string    `json:"visit_days"`
	Stops        []RouteStop `json:"stops"`
}

// routeMessageLimit caps how many pending clients the shareable message
// lists before truncating.
const routeMessageLimit = 20

// mapsLink builds a Google Maps search link for a coordinate pair.
func mapsLink(lat, lon float64) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%.6f,%.6f", lat, lon)
}

// Route builds the map view over the selected client master, optionally
// narrowed to one visit day. Only georeferenced entries become stops;
// entries without coordinates still count toward the portfolio totals. It
// requires the client master.
func Route(v *View, visitDay string) (*RouteReport, error) {
	if len(v.Clients) == 0 {
		return nil, unavailable("client master")
	}

	purchased := make(map[string]bool)
	for _, s := range v.Sales {
		if s.ClientID != "" {
			purchased[s.ClientID] = true
		}
	}

	report := &RouteReport{}
	days := make(map[string]bool)
	for _, c := range v.Clients {
		if c.VisitDay != "" && !days[c.VisitDay] {
			days[c.VisitDay] = true
			report.VisitDays = append(report.VisitDays, c.VisitDay)
		}
		if visitDay != "" && !strings.EqualFold(c.VisitDay, visitDay) {
			continue
		}
		report.TotalClients++
		if !c.HasGeo {
			continue
		}
		report.WithGeo++
		bought := purchased[c.ClientID]
		if bought {
			report.Purchased++
		} else {
			report.Pending++
		}
		report.Stops = append(report.Stops, RouteStop{
			ClientID:   c.ClientID,
			ClientName: c.ClientName,
			VisitDay:   c.VisitDay,
			Latitude:   c.Latitude,
			Longitude:  c.Longitude,
			Purchased:  bought,
			MapsLink:   mapsLink(c.Latitude, c.Longitude),
		})
	}
	sort.Strings(report.VisitDays)
	sort.Slice(report.Stops, func(i, j int) bool {
		a, b := report.Stops[i], report.Stops[j]
		if a.Purchased != b.Purchased {
			return !a.Purchased // pending stops first
		}
		return a.ClientID < b.ClientID
	})
	return report, nil
}

// RouteMessage renders the pending stops of a route as a plain-text block
// ready to paste into a chat message, one client per line with its maps
// link, truncated after a fixed count.
func RouteMessage(r *RouteReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Clientes pendientes de visita: %d\n", r.Pending))
	listed := 0
	for _, stop := range r.Stops {
		if stop.Purchased {
			continue
		}
		if listed >= routeMessageLimit {
			b.WriteString(fmt.Sprintf("... y %d más\n", r.Pending-listed))
			break
		}
		b.WriteString(fmt.Sprintf("- %s (%s): %s\n", stop.ClientName, stop.ClientID, stop.MapsLink))
		listed++
	}
	return b.String()
}
