package source

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/attain/internal/model"
)

// FileSource reads a TOML dataset laid out as
//
//	[month.new_buyout]
//	target = 500
//	completed = 480
//	pipeline = 0
//
// The file is re-read on every call so edits show up on the next refresh.
type FileSource struct {
	path string
}

// NewFileSource returns a source backed by the TOML file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements Source.
func (f *FileSource) Name() string { return "file:" + f.path }

// Close implements Source.
func (f *FileSource) Close() error { return nil }

// MetricsForRange implements Source. A range missing from the file yields
// no records; unknown category tables and stray keys are ignored.
func (f *FileSource) MetricsForRange(ctx context.Context, r model.TimeRange) (model.RangeRecords, error) {
	if err := ctx.Err(); err != nil {
		return model.RangeRecords{}, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return model.RangeRecords{}, fmt.Errorf("reading dataset: %w", err)
	}

	// Scalars and non-table entries at any level (titles, notes) are skipped.
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return model.RangeRecords{}, fmt.Errorf("parsing dataset: %w", err)
	}

	recs := model.RangeRecords{Range: r}
	section, _ := doc[r.String()].(map[string]any)
	for key, v := range section {
		fields, ok := v.(map[string]any)
		if !ok {
			continue
		}
		cat, err := model.ParseCategory(key)
		if err != nil {
			continue
		}
		recs.PerCategory = append(recs.PerCategory, model.CategoryRecord{
			Category:  cat,
			Target:    toFloat(fields["target"]),
			Completed: toFloat(fields["completed"]),
			Pipeline:  toFloat(fields["pipeline"]),
		})
	}
	return recs, nil
}

// toFloat coerces a decoded TOML value to a number. Anything that is not
// numeric becomes 0.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(n, ",", "")), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
