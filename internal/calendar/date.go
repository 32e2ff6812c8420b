package calendar

import "time"

const dateLayout = "2006-01-02"

// DateOf truncates t to calendar-date granularity, keeping its location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDate renders t's calendar day as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses a "2006-01-02" string in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, loc)
}
