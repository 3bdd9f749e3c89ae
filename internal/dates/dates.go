package dates

import (
	"time"
)

// Layout is the calendar-date wire format used at every boundary.
// Dates carry no time-of-day and no timezone.
const Layout = "2006-01-02"

// Parse parses a YYYY-MM-DD calendar date. The returned time is the start of
// that day in UTC.
func Parse(value string) (time.Time, bool) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Format renders a calendar date in YYYY-MM-DD form
func Format(t time.Time) string {
	return t.Format(Layout)
}

// StartOfDay truncates an instant to the start of its calendar day in UTC
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the whole-day count from today's date to the given date.
// Negative when the date is in the past, zero when it is today.
func DaysUntil(date, today time.Time) int {
	from := StartOfDay(today)
	to := StartOfDay(date)
	return int(to.Sub(from).Hours() / 24)
}

// BeforeToday reports whether the date's calendar day is strictly before
// today's. A date equal to today is not yet "before" it: whole-day
// granularity, so a document expiring today is not overdue.
func BeforeToday(date, today time.Time) bool {
	return StartOfDay(date).Before(StartOfDay(today))
}
