package util

import (
	"fmt"
	"time"
)

type unit struct {
	d     time.Duration
	long  string
	short string
}

// most significant first
var units = []unit{
	{24 * time.Hour, "day", "d"},
	{time.Hour, "hour", "h"},
	{time.Minute, "minute", "m"},
	{time.Second, "second", "s"},
	{time.Millisecond, "millisecond", "ms"},
}

func plural(n int, u unit) string {
	switch n {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%d %s", n, u.long)
	default:
		return fmt.Sprintf("%d %ss", n, u.long)
	}
}

func number(n int, u unit) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d%s", n, u.short)
}

func joinpair(a, b string) string {
	if a != "" && b != "" {
		return a + " " + b
	}
	return a + b
}

// format d as its largest unit, followed by the next unit down for durations
// of a minute or more.
func format(d time.Duration, name func(int, unit) string) string {
	for i, u := range units {
		if d < u.d {
			continue
		}
		n := d / u.d
		ret := name(int(n), u)
		if u.d >= time.Minute {
			next := units[i+1]
			ret = joinpair(ret, name(int((d-n*u.d)/next.d), next))
		}
		return ret
	}
	return ""
}

// FriendlyDuration formats d for people, eg "3 minutes" or "1 day 2 hours".
func FriendlyDuration(d time.Duration) string {
	if s := format(d, plural); s != "" {
		return s
	}
	if d > 0 {
		return fmt.Sprintf("%d nanoseconds", d.Nanoseconds())
	}
	return "0 seconds"
}

// ShortDuration formats d for logs, eg "3m" or "1d 2h".
func ShortDuration(d time.Duration) string {
	if s := format(d, number); s != "" {
		return s
	}
	return "0s"
}
