package menu

import (
	"fmt"
	"time"
)

const isoDateLayout = "2006-01-02"

// ISODate formats a day as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format(isoDateLayout)
}

// ParseISODate parses a YYYY-MM-DD date string in UTC.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// Days returns every calendar day from start to stop inclusive, stepping
// toward stop regardless of direction. A scrape normally walks backwards in
// time, so start is usually the later date.
func Days(start, stop time.Time) []time.Time {
	start = start.Truncate(24 * time.Hour)
	stop = stop.Truncate(24 * time.Hour)

	step := 1
	if start.After(stop) {
		step = -1
	}

	var out []time.Time
	for d := start; ; d = d.AddDate(0, 0, step) {
		out = append(out, d)
		if d.Equal(stop) {
			break
		}
	}
	return out
}

// RangeFromDaysBack converts a "last N days" request into an inclusive
// start/stop pair anchored at today.
func RangeFromDaysBack(anchor time.Time, daysBack int) (start, stop time.Time) {
	day := anchor.Truncate(24 * time.Hour)
	return day, day.AddDate(0, 0, -(daysBack - 1))
}
