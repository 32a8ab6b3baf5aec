package metrics

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatCompact renders a request count the way the dashboard cards do:
// millions with one decimal, thousands truncated, small values grouped.
func FormatCompact(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.0fK", float64(n)/1_000)
	default:
		return humanize.Comma(n)
	}
}

// FormatInteger renders a full count with thousands separators.
func FormatInteger(n int64) string {
	return humanize.Comma(n)
}

// FormatBandwidth renders transferred bytes in TB/GB, falling back to raw
// bytes below a gigabyte. Decimal units, matching the provider's own
// reporting.
func FormatBandwidth(bytes float64) string {
	if bytes <= 0 {
		return "0"
	}
	tb := bytes / 1e12
	gb := bytes / 1e9
	if tb >= 1 {
		return fmt.Sprintf("%.1f TB", tb)
	}
	if gb >= 1 {
		return fmt.Sprintf("%.3f GB", gb)
	}
	return fmt.Sprintf("%.0f B", bytes)
}

// ParseFlexibleDate parses the date formats the upstream mixes freely
// (RFC3339, space-separated, date-only).
func ParseFlexibleDate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders an upstream RFC3339-ish date as "02 Jan 2006" for
// card subtitles and log lines. Unparseable inputs pass through untouched
// so a bad date never blanks a card.
func FormatDate(raw string) string {
	if t, ok := ParseFlexibleDate(raw); ok {
		return t.Format("02 Jan 2006")
	}
	return raw
}

// FormatMonthLabel renders a "MM-YYYY" reference month as "Jan 2006".
func FormatMonthLabel(monthRef string) string {
	t, err := time.Parse("01-2006", monthRef)
	if err != nil {
		return monthRef
	}
	return t.Format("Jan 2006")
}
