package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRange is returned by ParseTimeRange for unrecognized names.
var ErrUnknownRange = errors.New("unknown time range")

// TimeRange is the reporting period that selects the active aggregate.
type TimeRange int

const (
	Week TimeRange = iota
	Month
	Quarter
	Year
)

// TimeRanges lists every range in selector order.
var TimeRanges = []TimeRange{Week, Month, Quarter, Year}

func (r TimeRange) String() string {
	switch r {
	case Week:
		return "week"
	case Month:
		return "month"
	case Quarter:
		return "quarter"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("range(%d)", int(r))
	}
}

// Label returns the display name used in headers ("Monthly", ...).
func (r TimeRange) Label() string {
	switch r {
	case Week:
		return "Weekly"
	case Month:
		return "Monthly"
	case Quarter:
		return "Quarterly"
	case Year:
		return "Yearly"
	default:
		return "Unknown"
	}
}

// Next returns the following range, wrapping from Year to Week.
func (r TimeRange) Next() TimeRange {
	return TimeRanges[(r.index()+1)%len(TimeRanges)]
}

// Prev returns the preceding range, wrapping from Week to Year.
func (r TimeRange) Prev() TimeRange {
	return TimeRanges[(r.index()-1+len(TimeRanges))%len(TimeRanges)]
}

func (r TimeRange) index() int {
	for i, tr := range TimeRanges {
		if tr == r {
			return i
		}
	}
	return 0
}

// ParseTimeRange accepts a range name, its first letter, or a common alias
// ("monthly", "qtr").
func ParseTimeRange(s string) (TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week", "weekly", "w":
		return Week, nil
	case "month", "monthly", "m":
		return Month, nil
	case "quarter", "quarterly", "qtr", "q":
		return Quarter, nil
	case "year", "yearly", "annual", "y":
		return Year, nil
	}
	return Month, fmt.Errorf("%w: %q", ErrUnknownRange, s)
}
