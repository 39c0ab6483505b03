// Package source provides the data collaborators that supply raw
// per-category records for a time range.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/store"
)

// ErrUnknownSource is returned by Open for an unrecognized kind.
var ErrUnknownSource = errors.New("unknown source")

// Source supplies the raw records for one time range.
type Source interface {
	Name() string
	MetricsForRange(ctx context.Context, r model.TimeRange) (model.RangeRecords, error)
	Close() error
}

// Options carries the paths a source kind may need.
type Options struct {
	DataFile string
	DBPath   string
}

// Open builds the source named by kind: "demo", "file" or "sqlite".
func Open(kind string, opts Options) (Source, error) {
	switch kind {
	case "", "demo":
		return Demo{}, nil
	case "file":
		if opts.DataFile == "" {
			return nil, errors.New("file source: no data file configured")
		}
		return NewFileSource(opts.DataFile), nil
	case "sqlite":
		if opts.DBPath == "" {
			return nil, errors.New("sqlite source: no database path configured")
		}
		s, err := store.Open(opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite source: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}
}

// LoadAll fetches every time range in display order, stopping at the
// first error.
func LoadAll(ctx context.Context, src Source) ([]model.RangeRecords, error) {
	out := make([]model.RangeRecords, 0, len(model.TimeRanges))
	for _, r := range model.TimeRanges {
		recs, err := src.MetricsForRange(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", r, err)
		}
		out = append(out, recs)
	}
	return out, nil
}
