// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatAmount formats a metric value with comma separators and at most
// one decimal place. e.g., 1327.3 -> "1,327.3", 1428 -> "1,428"
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return humanize.CommafWithDigits(math.Round(v*10)/10, 1)
}

// FormatCompact formats a value with a K/M/B suffix for narrow cards.
// e.g., 17136 -> "17.1K", 950 -> "950"
func FormatCompact(v float64) string {
	abs := math.Abs(v)

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return FormatAmount(v)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatRate formats a percentage that is already scaled to 0-100.
func FormatRate(pct float64) string {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		pct = 0
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDelta formats the change between two amounts with an explicit sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatAmount(delta)
	}
	return "-" + FormatAmount(-delta)
}

// FormatAge formats how long ago something happened.
// e.g., 45s -> "45s ago", 3725s -> "1h 2m ago"
func FormatAge(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs <= 0 {
		return "just now"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm ago", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm ago", mins)
	default:
		return fmt.Sprintf("%ds ago", secs)
	}
}
