package dataset

import (
	"strconv"
	"strings"
	"time"
)

// dayFirstFormats are the accepted date layouts, tried in order. Exports
// use day/month/year; ISO dates appear in some hand-edited files.
var dayFirstFormats = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
}

// parseDate parses a day-first date, returning the zero time when no layout
// matches. Unparseable dates are kept as missing rather than dropping the
// row.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	// Trim a trailing time component such as "01/03/2024 00:00".
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range dayFirstFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// isoWeek returns the ISO week number for t, or 0 for the zero time.
func isoWeek(t time.Time) int {
	if t.IsZero() {
		return 0
	}
	_, week := t.ISOWeek()
	return week
}

// parseAmount coerces a currency cell to a float, tolerating decimal commas
// and thousands separators. Unparseable values become 0.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		// The rightmost separator is the decimal separator.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseCoordinate coerces a latitude or longitude cell, normalizing the
// decimal comma. It reports ok=false for unparseable or zero values, which
// excludes the row from mapping views.
func parseCoordinate(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// normalizeName trims and uppercases a display name.
func normalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
