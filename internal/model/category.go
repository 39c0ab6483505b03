// Package model defines domain types for attain target-achievement metrics.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned by ParseCategory for unrecognized keys.
var ErrUnknownCategory = errors.New("unknown category")

// Category is one of the fixed sales categories tracked against a target.
type Category int

const (
	NewBuyout Category = iota
	NewLease
	Renewal
)

// Categories lists every category in display order.
var Categories = []Category{NewBuyout, NewLease, Renewal}

// String returns the config/storage key for the category.
func (c Category) String() string {
	switch c {
	case NewBuyout:
		return "new_buyout"
	case NewLease:
		return "new_lease"
	case Renewal:
		return "renewal"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Label returns the human-readable name shown in tables and cards.
func (c Category) Label() string {
	switch c {
	case NewBuyout:
		return "New Buyout"
	case NewLease:
		return "New Lease"
	case Renewal:
		return "Renewal"
	default:
		return "Unknown"
	}
}

// ParseCategory maps a key such as "new_lease" (case-insensitive, dashes
// allowed) to its Category.
func ParseCategory(s string) (Category, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, c := range Categories {
		if c.String() == key {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}
