package source

import (
	"context"

	"github.com/theirongolddev/attain/internal/model"
)

// Demo serves a fixed sample dataset so the dashboard works out of the box.
type Demo struct{}

var demoData = map[model.TimeRange][]model.CategoryRecord{
	model.Week: {
		{Category: model.NewBuyout, Target: 178.5, Completed: 88, Pipeline: 83},
		{Category: model.NewLease, Target: 107, Completed: 51, Pipeline: 49},
		{Category: model.Renewal, Target: 71.5, Completed: 30, Pipeline: 29},
	},
	model.Month: {
		{Category: model.NewBuyout, Target: 714, Completed: 352, Pipeline: 331.5},
		{Category: model.NewLease, Target: 428, Completed: 205, Pipeline: 198.3},
		{Category: model.Renewal, Target: 286, Completed: 120, Pipeline: 120.5},
	},
	model.Quarter: {
		{Category: model.NewBuyout, Target: 2142, Completed: 1056, Pipeline: 994.5},
		{Category: model.NewLease, Target: 1284, Completed: 615, Pipeline: 594.9},
		{Category: model.Renewal, Target: 858, Completed: 360, Pipeline: 361.5},
	},
	model.Year: {
		{Category: model.NewBuyout, Target: 8568, Completed: 4224, Pipeline: 3978},
		{Category: model.NewLease, Target: 5136, Completed: 2460, Pipeline: 2379.6},
		{Category: model.Renewal, Target: 3432, Completed: 1440, Pipeline: 1446},
	},
}

// Name implements Source.
func (Demo) Name() string { return "demo" }

// MetricsForRange implements Source. The returned slice is a copy.
func (Demo) MetricsForRange(ctx context.Context, r model.TimeRange) (model.RangeRecords, error) {
	if err := ctx.Err(); err != nil {
		return model.RangeRecords{}, err
	}
	recs := demoData[r]
	return model.RangeRecords{
		Range:       r,
		PerCategory: append([]model.CategoryRecord(nil), recs...),
	}, nil
}

// Close implements Source.
func (Demo) Close() error { return nil }
