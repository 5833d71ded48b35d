// Package xtime extends time.Duration parsing and formatting with day, week,
// month and year units, so that configuration values can be written as
// "1d12h" or "2w" instead of "36h" or "336h".
package xtime

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

// Units longer than an hour, keyed by their suffix. Lookup is done in
// longestFirst order so that formatting and parsing agree.
var (
	longUnits = map[string]time.Duration{
		"Y": year, "y": year,
		"M": month,
		"w": week, "W": week,
		"d": day, "D": day,
	}
	longestFirst = []string{"Y", "y", "M", "w", "W", "d", "D"}

	componentRx = regexp.MustCompile(`(\d*\.\d+|\d+)([^\d.]*)`)
)

// ParseDuration parses a duration string such as "10d", "-1.5w", "3Y4M5d" or
// "1h30m". Besides the units understood by time.ParseDuration it accepts
// "d"/"D" (days), "w"/"W" (weeks), "M" (30-day months) and "y"/"Y"
// (365-day years).
func ParseDuration(s string) (time.Duration, error) {
	orig := s
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("invalid duration '%s'", orig)
	}

	matches := componentRx.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration '%s'", orig)
	}

	var total time.Duration
	for _, m := range matches {
		num, unit := m[1], m[2]
		if mult, ok := longUnits[unit]; ok {
			dur, err := time.ParseDuration(num + "h")
			if err != nil {
				return 0, fmt.Errorf("invalid duration '%s': %w", orig, err)
			}
			total += dur * (mult / time.Hour)
			continue
		}

		dur, err := time.ParseDuration(num + unit)
		if err != nil {
			return 0, fmt.Errorf("invalid duration '%s': %w", orig, err)
		}
		total += dur
	}

	if neg {
		total = -total
	}

	return total, nil
}

// FormatDuration formats d using the largest units available, e.g. "1w2d",
// "1d12h" or "30s". The value is first rounded to round; components smaller
// than round are omitted. A zero duration is formatted as "0s".
func FormatDuration(d, round time.Duration) string {
	if round > 0 {
		d = d.Round(round)
	}
	if d == 0 {
		return "0s"
	}

	neg := d < 0
	if neg {
		d = -d
	}

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}

	for _, unit := range []struct {
		suffix string
		size   time.Duration
	}{
		{"Y", year}, {"M", month}, {"w", week}, {"d", day},
		{"h", time.Hour}, {"m", time.Minute}, {"s", time.Second},
		{"ms", time.Millisecond}, {"µs", time.Microsecond}, {"ns", time.Nanosecond},
	} {
		if round > unit.size {
			break
		}
		if n := d / unit.size; n > 0 {
			fmt.Fprintf(&sb, "%d%s", n, unit.suffix)
			d -= n * unit.size
		}
	}

	return sb.String()
}
