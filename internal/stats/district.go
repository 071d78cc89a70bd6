// Package stats derives the dashboard aggregates from a record snapshot.
// Every function here is pure and tolerates malformed records.
package stats

import (
	"math"
	"sort"

	"abc-dashboard/internal/records"
)

// DistrictSummary is the per-district roll-up shown on the dashboard
type DistrictSummary struct {
	Name               string  `json:"name"`
	Total              int     `json:"total"`
	Completed          int     `json:"completed"`
	Released           int     `json:"released"`
	MaleCount          int     `json:"male_count"`
	FemaleCount        int     `json:"female_count"`
	PendingCount       int     `json:"pending_count"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// AggregateByDistrict counts records per district in one pass. Districts
// come from the ordered list; those without records are dropped and the
// rest are sorted by total, largest first, ties keeping list order.
// Records whose district is not in the list are ignored.
func AggregateByDistrict(recs []records.AnimalRecord, districts []string) []DistrictSummary {
	buckets := make(map[string]*DistrictSummary, len(districts))
	for _, name := range districts {
		if _, ok := buckets[name]; !ok {
			buckets[name] = &DistrictSummary{Name: name}
		}
	}

	for _, r := range recs {
		s, ok := buckets[r.District]
		if !ok {
			continue
		}
		s.Total++
		if r.Sterilized() {
			s.Completed++
		}
		if r.Released() {
			s.Released++
		}
		switch {
		case r.IsMale():
			s.MaleCount++
		case r.IsFemale():
			s.FemaleCount++
		}
	}

	out := make([]DistrictSummary, 0, len(buckets))
	emitted := make(map[string]bool, len(districts))
	for _, name := range districts {
		s := buckets[name]
		if s.Total == 0 || emitted[name] {
			continue
		}
		emitted[name] = true
		s.PendingCount = s.Total - s.Completed
		s.ProgressPercentage = Percentage(s.Completed, s.Total)
		out = append(out, *s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

// Percentage returns part/total*100 rounded to one decimal, or 0 when
// total is not positive
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
