package stats

import (
	"fmt"
	"strings"

	"abc-dashboard/internal/records"
)

// StatusSlice is one segment of the status pie
type StatusSlice struct {
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// StatusDistribution splits the snapshot into lifecycle stages
type StatusDistribution struct {
	Total          int         `json:"total"`
	Pending        StatusSlice `json:"pending"`
	SterilizedOnly StatusSlice `json:"sterilized_only"`
	Released       StatusSlice `json:"released"`
}

// AggregateStatusDistribution computes pending / sterilized-only /
// released counts. Released is capped by the sterilized count so the
// three segments never exceed the total.
func AggregateStatusDistribution(recs []records.AnimalRecord) StatusDistribution {
	total := len(recs)
	sterilized, relocated := 0, 0
	for _, r := range recs {
		if r.Sterilized() {
			sterilized++
		}
		if r.Relocated() {
			relocated++
		}
	}

	released := min(relocated, sterilized)
	sterilizedOnly := max(0, sterilized-relocated)
	pending := total - sterilized

	return StatusDistribution{
		Total:          total,
		Pending:        slice(pending, total),
		SterilizedOnly: slice(sterilizedOnly, total),
		Released:       slice(released, total),
	}
}

func slice(count, total int) StatusSlice {
	return StatusSlice{Count: count, Percentage: FormatPercent(Percentage(count, total))}
}

// FormatPercent renders a percentage with one decimal and a % suffix
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Metrics are the headline dashboard numbers
type Metrics struct {
	TotalULBs       int     `json:"total_ulbs"`
	TotalStrayDogs  int     `json:"total_stray_dogs"`
	SterilizedDogs  int     `json:"sterilized_dogs"`
	PendingDogs     int     `json:"pending_dogs"`
	ReleasedDogs    int     `json:"released_dogs"`
	OverallProgress float64 `json:"overall_progress"`
}

// ComputeMetrics derives the headline numbers. Every record counts toward
// the total, including ones with an unknown district.
func ComputeMetrics(recs []records.AnimalRecord) Metrics {
	m := Metrics{TotalStrayDogs: len(recs)}
	ulbs := make(map[string]struct{})
	for _, r := range recs {
		if r.Sterilized() {
			m.SterilizedDogs++
		}
		if r.Released() {
			m.ReleasedDogs++
		}
		if name := strings.TrimSpace(r.ULB); name != "" {
			ulbs[r.District+"\x00"+name] = struct{}{}
		}
	}
	m.TotalULBs = len(ulbs)
	m.PendingDogs = m.TotalStrayDogs - m.SterilizedDogs
	m.OverallProgress = Percentage(m.SterilizedDogs, m.TotalStrayDogs)
	return m
}

// GenderCounts splits the snapshot by reported gender
type GenderCounts struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Other  int `json:"other"`
}

// GenderBreakdown counts male, female and unrecognised genders
func GenderBreakdown(recs []records.AnimalRecord) GenderCounts {
	var g GenderCounts
	for _, r := range recs {
		switch {
		case r.IsMale():
			g.Male++
		case r.IsFemale():
			g.Female++
		default:
			g.Other++
		}
	}
	return g
}
