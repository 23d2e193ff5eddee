package render

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// Width is the number of terminal cells s occupies. Hangul takes two.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate cuts s to at most width cells, marking the cut with "...".
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "...")
}

// Price formats a listing price in won.
func Price(won int) string {
	return humanize.Comma(int64(won)) + "원"
}

// TimeAgo describes t relative to now, e.g. "3 hours ago".
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
