// Package query filters, orders and pages the record snapshot for the
// table views.
package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"abc-dashboard/internal/records"
)

// DateField selects which record date a range filter compares
type DateField string

const (
	DateOfCatch    DateField = "catch"
	DateSurgery    DateField = "surgery"
	DateRelocation DateField = "relocation"
)

// ParseDateField maps a query value onto a DateField, defaulting to catch
func ParseDateField(s string) (DateField, error) {
	switch DateField(strings.ToLower(strings.TrimSpace(s))) {
	case "", DateOfCatch:
		return DateOfCatch, nil
	case DateSurgery:
		return DateSurgery, nil
	case DateRelocation:
		return DateRelocation, nil
	default:
		return "", fmt.Errorf("unknown date field %q", s)
	}
}

// Filter holds the user-selected predicates. Zero values disable a
// predicate.
type Filter struct {
	District  string     `json:"district,omitempty"`
	ULB       string     `json:"ulb,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	DateField DateField  `json:"date_field,omitempty"`
}

// HasDateRange reports whether both bounds are present
func (f Filter) HasDateRange() bool {
	return f.DateFrom != nil && f.DateTo != nil
}

// ApplyFilters returns the matching records sorted by ascending id. The
// ULB predicate only applies together with a district. A date range is
// inclusive at day granularity and needs both bounds; records without the
// designated date are excluded while it is active. The input is not
// modified.
func ApplyFilters(recs []records.AnimalRecord, f Filter) []records.AnimalRecord {
	var from, to time.Time
	ranged := f.HasDateRange()
	if ranged {
		from, to = calendarDay(*f.DateFrom), calendarDay(*f.DateTo)
	}

	out := make([]records.AnimalRecord, 0, len(recs))
	for _, r := range recs {
		if f.District != "" {
			if r.District != f.District {
				continue
			}
			if f.ULB != "" && r.ULB != f.ULB {
				continue
			}
		}
		if ranged {
			d := dateOf(r, f.DateField)
			if d.IsZero() {
				continue
			}
			day := calendarDay(d.Time)
			if day.Before(from) || day.After(to) {
				continue
			}
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func dateOf(r records.AnimalRecord, field DateField) records.Date {
	switch field {
	case DateSurgery:
		return r.SurgeryDate
	case DateRelocation:
		return r.RelocationDate
	default:
		return r.DateOfCatch
	}
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
