package models

import (
	"fmt"
	"time"
)

// TimeSince renders the distance between t and now the way profile and post
// pages show it, e.g. "3 minutes ago".
func TimeSince(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < 10*time.Second:
		return "now"
	case d < time.Minute:
		return plural(int(d/time.Second), "second")
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "month")
	default:
		return plural(int(d/(365*24*time.Hour)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		if unit == "hour" {
			return "an hour ago"
		}
		return fmt.Sprintf("a %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
