package pipeline

import (
	"github.com/theirongolddev/attain/internal/model"
)

// Severity thresholds in percent. Each band includes its lower bound.
const (
	GoodThreshold    = 90.0
	WarningThreshold = 70.0
)

// Rates derives achievement and forecast-completion rates in percent.
// A zero target means no goal is set and both rates are 0.
func Rates(agg model.AggregateMetrics) model.RateSnapshot {
	return model.RateSnapshot{
		Achievement: rate(agg.Completed, agg.Target),
		Forecast:    rate(agg.ForecastCompletion, agg.Target),
	}
}

// ClampRate bounds a rate to [0, 100] for arc sweeps and bars.
func ClampRate(r float64) float64 { return model.ClampRate(r) }

// Classify maps a rate to good (>= 90), warning (>= 70) or critical.
func Classify(rate float64) model.Severity {
	switch {
	case rate >= GoodThreshold:
		return model.Good
	case rate >= WarningThreshold:
		return model.Warning
	default:
		return model.Critical
	}
}

func rate(part, target float64) float64 {
	if target <= 0 {
		return 0
	}
	// Multiply first so whole-number percentages come out exact.
	return part * 100 / target
}

// Dashboard is every render-ready figure for one selected range.
type Dashboard struct {
	Aggregate        model.AggregateMetrics
	Rates            model.RateSnapshot
	Severity         model.Severity // from the achievement rate
	ForecastSeverity model.Severity
	Rows             []model.Row
}

// Compute runs builder, aggregator and rate calculator over one range's
// records. It is a pure function of its input.
func Compute(recs model.RangeRecords) Dashboard {
	metrics := BuildAll(recs.PerCategory)
	agg := Aggregate(recs.Range, metrics)
	rates := Rates(agg)

	return Dashboard{
		Aggregate:        agg,
		Rates:            rates,
		Severity:         Classify(rates.Achievement),
		ForecastSeverity: Classify(rates.Forecast),
		Rows:             Rows(metrics),
	}
}
