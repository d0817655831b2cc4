package tui

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// truncateEnd shortens s to at most limit characters, appending an ellipsis
// if truncation occurs.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle shortens s to at most limit characters by keeping the
// start and end of the string around a single ellipsis. Used for URLs.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	if left <= 0 {
		return "…" + string(r[n-right:])
	}
	return string(r[:left]) + "…" + string(r[n-right:])
}

// singleLine collapses all whitespace runs, newlines included.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// relativeDate renders a stored date as "3 days ago" or "in 2 weeks".
// Values that are not dates are shown as they are.
func relativeDate(value string, now time.Time) string {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return humanize.RelTime(t, now, "ago", "from now")
		}
	}
	return value
}
