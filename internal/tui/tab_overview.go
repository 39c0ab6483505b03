package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/attain/internal/anim"
	"github.com/theirongolddev/attain/internal/cli"
	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/pipeline"
	"github.com/theirongolddev/attain/internal/tui/components"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	e := a.engine
	dash := a.dash

	achieved := e.Value(anim.FieldAchievement)
	forecastRate := e.Value(anim.FieldForecastRate)

	// Row 1: headline figures
	gapDelta := "on track"
	gapColor := t.Good
	if !dash.Aggregate.CanComplete() {
		gapDelta = "pipeline won't close it"
		gapColor = t.Critical
	}

	completedDelta := cli.FormatRate(achieved) + " achieved"
	if a.hasPrev && dash.Aggregate.Completed != a.prevCompleted {
		completedDelta = cli.FormatDelta(dash.Aggregate.Completed, a.prevCompleted) + " since refresh"
	}

	cards := []components.Metric{
		{Label: "Target", Value: cli.FormatAmount(e.Value(anim.FieldTarget)), Delta: a.rng.Label() + " goal"},
		{Label: "Completed", Value: cli.FormatAmount(e.Value(anim.FieldCompleted)),
			Delta: completedDelta, Color: components.SeverityColor(dash.Severity)},
		{Label: "Forecast", Value: cli.FormatAmount(e.Value(anim.FieldForecast)),
			Delta: "+" + cli.FormatAmount(e.Value(anim.FieldPipeline)) + " pipeline"},
		{Label: "Gap", Value: cli.FormatAmount(e.Value(anim.FieldGap)), Delta: gapDelta, Color: gapColor},
	}
	var b strings.Builder
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: progress rings
	halves := components.LayoutRow(cw, 2)
	ring := func(title string, rate float64, sev model.Severity, width int) string {
		inner := components.CardInnerWidth(width)
		body := components.Ring(rate, sev.String(), components.SeverityColor(sev), ringRadius)
		body = lipgloss.PlaceHorizontal(inner, lipgloss.Center, body,
			lipgloss.WithWhitespaceBackground(t.Surface))
		return components.ContentCard(title, body, width)
	}

	if a.isCompactLayout() {
		b.WriteString(ring("Achievement Rate", achieved, pipeline.Classify(achieved), cw))
		b.WriteString("\n")
		b.WriteString(ring("Forecast Completion", forecastRate, pipeline.Classify(forecastRate), cw))
	} else {
		b.WriteString(components.CardRow([]string{
			ring("Achievement Rate", achieved, pipeline.Classify(achieved), halves[0]),
			ring("Forecast Completion", forecastRate, pipeline.Classify(forecastRate), halves[1]),
		}))
	}
	b.WriteString("\n")

	// Row 3: per-category achievement bars
	innerW := components.CardInnerWidth(cw)
	labelW := 12
	barW := innerW - labelW - 10
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var cat strings.Builder
	for i, r := range dash.Rows {
		row := a.animatedRow(r)
		if i > 0 {
			cat.WriteString("\n")
		}
		cat.WriteString(components.RateBar(r.Category.Label(), row.Achievement, labelW, barW))
	}
	if len(dash.Rows) == 0 {
		cat.WriteString(muted.Render("No category data for this range."))
	}
	b.WriteString(components.ContentCard(
		fmt.Sprintf("By Category (%s)", strings.ToLower(a.rng.Label())),
		cat.String(), cw))

	return b.String()
}
