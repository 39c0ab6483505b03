// Package pipeline turns raw per-category records into aggregates, rates and
// table rows for one time range.
package pipeline

import (
	"math"

	"github.com/theirongolddev/attain/internal/model"
)

// BuildCategory normalizes a raw record. Negative or non-finite inputs are
// treated as zero so downstream rates never go negative or NaN.
func BuildCategory(rec model.CategoryRecord) model.CategoryMetrics {
	target := nonNegative(rec.Target)
	completed := nonNegative(rec.Completed)
	pipe := nonNegative(rec.Pipeline)

	return model.CategoryMetrics{
		Category:           rec.Category,
		Target:             target,
		Completed:          completed,
		Pipeline:           pipe,
		ForecastCompletion: completed + pipe,
	}
}

// BuildAll applies BuildCategory to every record.
func BuildAll(recs []model.CategoryRecord) []model.CategoryMetrics {
	out := make([]model.CategoryMetrics, 0, len(recs))
	for _, r := range recs {
		out = append(out, BuildCategory(r))
	}
	return out
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
