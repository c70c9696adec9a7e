package util

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order by ParseDate. Government CSV feeds mix
// ISO dates, day-month-name and month-name-year forms.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02-Jan-2006",
	"2-Jan-2006",
	"02/01/2006",
	"Jan-2006",
	"Jan 2006",
	"January 2006",
	"2006-01",
}

// ParseDate parses s with the known layouts and returns the calendar date
// at UTC midnight. Unix seconds are accepted as well.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return DateOnly(time.Unix(ts, 0).UTC()), true
	}
	return time.Time{}, false
}

// DateOnly keeps the wall-clock calendar date of t and drops its zone.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// AddMonths moves a month-end date by n months and snaps to month end.
func AddMonths(monthEnd time.Time, n int) time.Time {
	return MonthEnd(MonthStart(monthEnd).AddDate(0, n, 0))
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// ParseFloat parses a numeric cell, tolerating thousands separators and
// surrounding whitespace. Empty cells and provider missing markers fail.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	switch s {
	case "", ".", "-", "NA", "N/A", "n/a", "null":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
