package utils

import (
	"strings"
	"time"
)

func CurrentTimeInTimezone(tz string, now time.Time) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format("15:04")
}

// IsWithinHours reports whether clock ("15:04") falls inside [open, close).
// Hours that wrap past midnight ("18:00"-"02:00") are supported. Empty or
// malformed bounds mean always open.
func IsWithinHours(open, close, clock string) bool {
	o, okOpen := parseClock(open)
	c, okClose := parseClock(close)
	now, okNow := parseClock(clock)
	if !okOpen || !okClose || !okNow {
		return true
	}
	if o == c {
		return true
	}
	if o < c {
		return now >= o && now < c
	}
	return now >= o || now < c
}

func parseClock(value string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
