package domain

import "time"

// Epoch is the moment of the default organization rating, unless the
// history of the organization starts earlier.
var Epoch = time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)

// StartOfDay truncates t to midnight UTC. It is used as the key of a day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay is the last instant of t's calendar day, 23:59:59.999999 UTC.
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999000, time.UTC)
}

func SameDay(a, b time.Time) bool { return StartOfDay(a).Equal(StartOfDay(b)) }

// ParseInstant accepts RFC 3339 or a bare YYYY-MM-DD date, which means the
// end of that day.
func ParseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return EndOfDay(d), nil
}
