package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/theirongolddev/attain/internal/model"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// SeverityColor maps a severity band to its display color.
func SeverityColor(s model.Severity) lipgloss.Color {
	switch s {
	case model.Good:
		return ColorGreen
	case model.Warning:
		return ColorOrange
	default:
		return ColorRed
	}
}

// RenderSeverity renders a severity label in its band color.
func RenderSeverity(s model.Severity) string {
	return lipgloss.NewStyle().Foreground(SeverityColor(s)).Render(s.String())
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Totals is rendered bold after the data rows when non-empty.
	Totals []string
	// CellColor optionally overrides the foreground of a data cell.
	CellColor func(row, col int) (lipgloss.Color, bool)
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows. The first
// column is left-aligned, every other column right-aligned.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	rows := t.Rows
	totalsIdx := -1
	if len(t.Totals) > 0 {
		rows = append(append([][]string(nil), t.Rows...), t.Totals)
		totalsIdx = len(rows) - 1
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(t.Headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			if row == table.HeaderRow {
				s = headerStyle
			} else {
				s = valueStyle
				if row == totalsIdx {
					s = s.Bold(true)
				} else if t.CellColor != nil {
					if c, ok := t.CellColor(row, col); ok {
						s = s.Foreground(c)
					}
				}
			}
			s = s.Padding(0, 1)
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}
	b.WriteString(tbl.Render())
	b.WriteString("\n")
	return b.String()
}

// RenderRateBar renders a fixed-width text bar for a percentage. The bar
// fill is clamped to 100%; the label keeps the raw value.
func RenderRateBar(pct float64, width int, sev model.Severity) string {
	if width <= 0 {
		return ""
	}
	fill := pct
	if fill != fill || fill < 0 {
		fill = 0
	}
	if fill > 100 {
		fill = 100
	}

	filled := int(fill / 100 * float64(width))
	if filled > width {
		filled = width
	}

	bar := lipgloss.NewStyle().Foreground(SeverityColor(sev)).Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("[%s] %s", bar, mutedStyle.Render(FormatRate(pct)))
}

// CategoryHeaders are the unified category table's columns.
var CategoryHeaders = []string{"Category", "Target", "Completed", "Forecast", "Gap", "Pipeline", "Rate"}

// RateCol is the index of the achievement rate in CategoryHeaders.
const RateCol = 6

// CategoryCells formats one row of the unified category table.
func CategoryCells(label string, r model.Row) []string {
	return []string{
		label,
		FormatAmount(r.Target),
		FormatAmount(r.Completed),
		FormatAmount(r.ForecastCompletion),
		FormatAmount(r.Gap),
		FormatAmount(r.Pipeline),
		FormatRate(r.Achievement),
	}
}
