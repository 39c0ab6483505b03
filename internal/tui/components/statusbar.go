package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/attain/internal/tui/theme"
)

// Status is what the bottom bar reports.
type Status struct {
	Range       string
	Source      string
	DataAge     string
	Refreshing  bool
	AutoRefresh bool
	Err         error
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warn := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	left := base.Render(" [?]help  [q]uit  ") + accent.Render(s.Range)
	if s.Source != "" {
		left += base.Render(" · " + s.Source)
	}

	var right []string
	if s.Err != nil {
		right = append(right, warn.Render("error: "+s.Err.Error()))
	}
	switch {
	case s.Refreshing:
		right = append(right, accent.Render("refreshing…"))
	case s.DataAge != "":
		right = append(right, base.Render("data "+s.DataAge))
	}
	if s.AutoRefresh {
		right = append(right, base.Render("auto"))
	}
	r := strings.Join(right, base.Render("  ")) + base.Render(" ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(r)
	if padding < 1 {
		// Drop the right side before overflowing the line.
		r = ""
		padding = width - lipgloss.Width(left)
		if padding < 0 {
			padding = 0
		}
	}

	return lipgloss.NewStyle().MaxWidth(width).Render(left + base.Render(strings.Repeat(" ", padding)) + r)
}
