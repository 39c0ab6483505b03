package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/attain/internal/cli"
	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/pipeline"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

// SeverityColor maps a severity band to the active theme's color.
func SeverityColor(s model.Severity) lipgloss.Color {
	t := theme.Active
	switch s {
	case model.Good:
		return t.Good
	case model.Warning:
		return t.Warning
	default:
		return t.Critical
	}
}

// RateBar renders a labeled progress bar for a percentage. The fill is
// clamped; the trailing number is the raw rate.
func RateBar(label string, rate float64, labelW, barWidth int) string {
	t := theme.Active
	sev := pipeline.Classify(rate)
	color := SeverityColor(sev)

	if barWidth < 4 {
		barWidth = 4
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(pipeline.ClampRate(rate)/100) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%7s", cli.FormatRate(rate)))
}
