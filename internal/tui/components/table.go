package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/theirongolddev/attain/internal/cli"
	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

// CategoryTable renders the unified per-category table followed by a bold
// totals row. The rate column is tinted by each row's severity.
func CategoryTable(rows []model.Row, total model.Row, width int) string {
	t := theme.Active

	data := make([][]string, 0, len(rows)+1)
	severities := make([]model.Severity, 0, len(rows)+1)
	for _, r := range rows {
		data = append(data, cli.CategoryCells(r.Category.Label(), r))
		severities = append(severities, r.Severity)
	}
	data = append(data, cli.CategoryCells("Total", total))
	severities = append(severities, total.Severity)
	totalIdx := len(data) - 1

	base := lipgloss.NewStyle().Background(t.Surface).Padding(0, 1)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface)).
		Headers(cli.CategoryHeaders...).
		Rows(data...).
		Width(width).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := base
			switch {
			case row == table.HeaderRow:
				s = s.Foreground(t.Accent).Bold(true)
			case col == cli.RateCol && row >= 0 && row < len(severities):
				s = s.Foreground(SeverityColor(severities[row])).Bold(true)
			case row == totalIdx:
				s = s.Foreground(t.TextPrimary).Bold(true)
			default:
				s = s.Foreground(t.TextPrimary)
			}
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	return tbl.Render()
}
