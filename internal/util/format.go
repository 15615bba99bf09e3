package util

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes formats a byte count into a human-readable string.
func FormatBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}

// FormatSpeed formats a transfer rate in bytes per second.
func FormatSpeed(bps float64) string {
	if bps <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(bps)) + "/s"
}

// FormatAge renders t relative to now, e.g. "3 minutes ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// TruncatePath truncates a path from the left, keeping the rightmost part visible.
func TruncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[len(path)-maxLen:]
	}
	return "..." + path[len(path)-maxLen+3:]
}

// TruncateText shortens s to maxRunes, marking the cut with "...".
func TruncateText(s string, maxRunes int) string {
	r := []rune(s)
	if maxRunes < 4 || len(r) <= maxRunes {
		return s
	}
	return strings.TrimRight(string(r[:maxRunes-3]), " ") + "..."
}
