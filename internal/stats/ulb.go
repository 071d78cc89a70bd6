package stats

import (
	"sort"
	"strings"

	"abc-dashboard/internal/records"
)

// ULBKey identifies a ULB. Names repeat across districts (Gudur,
// Atmakur), so the district is part of the key.
type ULBKey struct {
	District string `json:"district"`
	ULB      string `json:"ulb"`
}

// ULBSummary is one row of the municipality target table
type ULBSummary struct {
	District           string `json:"district"`
	ULB                string `json:"ulb"`
	Total              int    `json:"total"`
	Male               int    `json:"male"`
	Female             int    `json:"female"`
	Sterilized         int    `json:"sterilized"`
	Released           int    `json:"released"`
	AchievedWithoutApp int    `json:"achieved_without_app"`
	Balance            int    `json:"balance"`
}

// SummarizeULBs groups records by (district, ulb). Balance is released
// minus total, so it reads as the number still awaiting release. Records
// without a ULB are skipped. achieved may be nil.
func SummarizeULBs(recs []records.AnimalRecord, achieved map[ULBKey]int) []ULBSummary {
	rows := make(map[ULBKey]*ULBSummary)
	for _, r := range recs {
		ulb := strings.TrimSpace(r.ULB)
		if ulb == "" {
			continue
		}
		key := ULBKey{District: r.District, ULB: ulb}
		row, ok := rows[key]
		if !ok {
			row = &ULBSummary{District: key.District, ULB: key.ULB}
			rows[key] = row
		}
		row.Total++
		switch {
		case r.IsMale():
			row.Male++
		case r.IsFemale():
			row.Female++
		}
		if r.Sterilized() {
			row.Sterilized++
		}
		if r.Released() {
			row.Released++
		}
	}

	out := make([]ULBSummary, 0, len(rows))
	for key, row := range rows {
		row.AchievedWithoutApp = achieved[key]
		row.Balance = row.Released - row.Total
		out = append(out, *row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		if out[i].ULB != out[j].ULB {
			return out[i].ULB < out[j].ULB
		}
		return out[i].District < out[j].District
	})
	return out
}
