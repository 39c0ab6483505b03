package model

import "math"

// CategoryRecord is the raw per-category figure set supplied by a data source.
type CategoryRecord struct {
	Category  Category
	Target    float64
	Completed float64
	Pipeline  float64 // in-flight value expected to close, not yet recognized
}

// RangeRecords is everything a data source returns for one time range.
type RangeRecords struct {
	Range       TimeRange
	PerCategory []CategoryRecord
}

// CategoryMetrics holds normalized metrics for a single category.
// ForecastCompletion is always Completed + Pipeline.
type CategoryMetrics struct {
	Category           Category
	Target             float64
	Completed          float64
	Pipeline           float64
	ForecastCompletion float64
}

// Gap is the shortfall between target and forecast, floored at zero.
func (m CategoryMetrics) Gap() float64 {
	return gap(m.Target, m.ForecastCompletion)
}

// AggregateMetrics is the field-wise sum of CategoryMetrics for one range.
type AggregateMetrics struct {
	Range              TimeRange
	Target             float64
	Completed          float64
	Pipeline           float64
	ForecastCompletion float64
}

// Gap is the shortfall between target and forecast, floored at zero.
func (a AggregateMetrics) Gap() float64 {
	return gap(a.Target, a.ForecastCompletion)
}

// CanComplete reports whether the forecast covers the whole target.
func (a AggregateMetrics) CanComplete() bool {
	return a.Gap() == 0
}

func gap(target, forecast float64) float64 {
	if d := target - forecast; d > 0 {
		return d
	}
	return 0
}

// RateSnapshot holds achievement and forecast-completion rates in percent.
// Values are unclamped: 137 means 37% over target.
type RateSnapshot struct {
	Achievement float64
	Forecast    float64
}

// ClampedAchievement returns the achievement rate bounded to [0, 100] for
// arc and bar rendering.
func (r RateSnapshot) ClampedAchievement() float64 {
	return ClampRate(r.Achievement)
}

// ClampedForecast returns the forecast rate bounded to [0, 100].
func (r RateSnapshot) ClampedForecast() float64 {
	return ClampRate(r.Forecast)
}

// ClampRate bounds a rate to [0, 100]. NaN maps to 0.
func ClampRate(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Severity classifies a rate into a display band.
type Severity int

const (
	Critical Severity = iota
	Warning
	Good
)

func (s Severity) String() string {
	switch s {
	case Good:
		return "good"
	case Warning:
		return "warning"
	default:
		return "critical"
	}
}

// Row is one line of the unified per-category table.
type Row struct {
	Category           Category
	Target             float64
	Completed          float64
	ForecastCompletion float64
	Gap                float64
	Pipeline           float64
	Achievement        float64
	Severity           Severity
}
