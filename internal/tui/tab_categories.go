package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/attain/internal/anim"
	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/pipeline"
	"github.com/theirongolddev/attain/internal/tui/components"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

// totalRow builds the table's totals line from the animated aggregate.
func (a App) totalRow() model.Row {
	e := a.engine
	r := model.Row{
		Target:             e.Value(anim.FieldTarget),
		Completed:          e.Value(anim.FieldCompleted),
		ForecastCompletion: e.Value(anim.FieldForecast),
		Gap:                e.Value(anim.FieldGap),
		Pipeline:           e.Value(anim.FieldPipeline),
		Achievement:        e.Value(anim.FieldAchievement),
	}
	r.Severity = pipeline.Classify(r.Achievement)
	return r
}

func (a App) renderCategoriesTab(cw int) string {
	t := theme.Active

	rows := make([]model.Row, len(a.dash.Rows))
	for i, r := range a.dash.Rows {
		rows[i] = a.animatedRow(r)
	}

	innerW := components.CardInnerWidth(cw)
	table := components.CategoryTable(rows, a.totalRow(), innerW)

	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	legend := func(sev model.Severity, text string) string {
		return lipgloss.NewStyle().Foreground(components.SeverityColor(sev)).Background(t.Surface).Render("■ ") +
			dim.Render(text)
	}

	var b strings.Builder
	b.WriteString(table)
	b.WriteString("\n")
	b.WriteString(legend(model.Good, fmt.Sprintf(">= %.0f%%", pipeline.GoodThreshold)))
	b.WriteString(dim.Render("   "))
	b.WriteString(legend(model.Warning, fmt.Sprintf("%.0f-%.0f%%", pipeline.WarningThreshold, pipeline.GoodThreshold)))
	b.WriteString(dim.Render("   "))
	b.WriteString(legend(model.Critical, fmt.Sprintf("< %.0f%%", pipeline.WarningThreshold)))
	b.WriteString("\n")
	b.WriteString(dim.Render("Forecast = completed + pipeline · Gap = target - forecast, floored at 0"))

	return components.ContentCard(fmt.Sprintf("Categories (%s)", strings.ToLower(a.rng.Label())), b.String(), cw)
}
