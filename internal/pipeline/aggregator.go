package pipeline

import (
	"github.com/theirongolddev/attain/internal/model"
)

// Aggregate sums category metrics field-wise for one time range.
// Categories absent from metrics contribute zero; repeated categories are
// summed. The result does not depend on input order.
func Aggregate(r model.TimeRange, metrics []model.CategoryMetrics) model.AggregateMetrics {
	byCat := groupByCategory(metrics)

	agg := model.AggregateMetrics{Range: r}
	// Iterate in fixed category order so float addition order is stable.
	for _, c := range model.Categories {
		m := byCat[c]
		agg.Target += m.Target
		agg.Completed += m.Completed
		agg.Pipeline += m.Pipeline
		agg.ForecastCompletion += m.ForecastCompletion
	}
	return agg
}

// Rows returns one table row per known category in display order,
// zero-filling categories that have no metrics.
func Rows(metrics []model.CategoryMetrics) []model.Row {
	byCat := groupByCategory(metrics)

	rows := make([]model.Row, 0, len(model.Categories))
	for _, c := range model.Categories {
		m := byCat[c]
		m.Category = c
		achievement := rate(m.Completed, m.Target)
		rows = append(rows, model.Row{
			Category:           c,
			Target:             m.Target,
			Completed:          m.Completed,
			ForecastCompletion: m.ForecastCompletion,
			Gap:                m.Gap(),
			Pipeline:           m.Pipeline,
			Achievement:        achievement,
			Severity:           Classify(achievement),
		})
	}
	return rows
}

// groupByCategory merges duplicate entries so each category appears once.
// Entries for categories outside model.Categories are dropped.
func groupByCategory(metrics []model.CategoryMetrics) map[model.Category]model.CategoryMetrics {
	known := make(map[model.Category]struct{}, len(model.Categories))
	for _, c := range model.Categories {
		known[c] = struct{}{}
	}

	byCat := make(map[model.Category]model.CategoryMetrics, len(model.Categories))
	for _, m := range metrics {
		if _, ok := known[m.Category]; !ok {
			continue
		}
		cur := byCat[m.Category]
		cur.Category = m.Category
		cur.Target += m.Target
		cur.Completed += m.Completed
		cur.Pipeline += m.Pipeline
		cur.ForecastCompletion += m.ForecastCompletion
		byCat[m.Category] = cur
	}
	return byCat
}
