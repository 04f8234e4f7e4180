package common

import "time"

// DateLayout is the ISO calendar-date form used for storage keys, API query
// parameters and upstream weather requests.
const DateLayout = "2006-01-02"

// DateOnly normalizes a timestamp to 00:00:00 UTC (one bucket per day).
func DateOnly(t time.Time) time.Time {
	tt := t.UTC()
	return time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats a timestamp as "YYYY-MM-DD" in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a "YYYY-MM-DD" string into a UTC midnight timestamp.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
