package record

import (
	"strings"
	"time"
)

// dateFormats are tried in order. Day-month-year comes first because the
// source documents are Colombian.
var dateFormats = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02",
	"2006/01/02",
	"02/01/06",
	"2 January 2006",
	"January 2, 2006",
}

// spanishMonths maps Spanish month names to their English equivalents so the
// textual formats above can parse them.
var spanishMonths = map[string]string{
	"enero": "January", "febrero": "February", "marzo": "March",
	"abril": "April", "mayo": "May", "junio": "June",
	"julio": "July", "agosto": "August", "septiembre": "September",
	"setiembre": "September", "octubre": "October",
	"noviembre": "November", "diciembre": "December",
}

// ParseDate parses a date string against the configured formats. Textual
// Spanish months are translated first and "de" connectives dropped, so
// "10 de enero de 2024" parses as day-month-year.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, &DateParseError{Value: value}
	}

	lower := strings.ToLower(v)
	if strings.Contains(lower, " de ") {
		lower = strings.ReplaceAll(lower, " de ", " ")
	}
	fields := strings.Fields(lower)
	for i, f := range fields {
		if en, ok := spanishMonths[f]; ok {
			fields[i] = en
		}
	}
	candidate := strings.Join(fields, " ")

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t, nil
		}
	}
	// Retry the raw input for formats the rewriting may have disturbed.
	if candidate != v {
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, &DateParseError{Value: value}
}

// DaysApart returns the absolute difference between two dates in whole days.
func DaysApart(a, b time.Time) int {
	ua := a.Truncate(24 * time.Hour)
	ub := b.Truncate(24 * time.Hour)
	d := ua.Sub(ub)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
