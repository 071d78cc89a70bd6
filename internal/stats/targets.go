package stats

import (
	"strings"
	"time"

	"abc-dashboard/internal/catalog"
	"abc-dashboard/internal/records"
)

// Period optionally bounds the live sterilization count by surgery date
type Period struct {
	From *time.Time
	To   *time.Time
}

// Active reports whether both bounds are set
func (p Period) Active() bool {
	return p.From != nil && p.To != nil
}

// Contains reports whether t falls inside the inclusive period
func (p Period) Contains(t time.Time) bool {
	d := day(t)
	return !d.Before(day(*p.From)) && !d.After(day(*p.To))
}

// TargetTotals is a target/completed/balance triple
type TargetTotals struct {
	Target    int     `json:"target"`
	Completed int     `json:"completed"`
	Balance   int     `json:"balance"`
	Progress  float64 `json:"progress"`
}

func (t *TargetTotals) add(o TargetTotals) {
	t.Target += o.Target
	t.Completed += o.Completed
	t.Balance += o.Balance
}

func (t *TargetTotals) finish() {
	t.Progress = Percentage(t.Completed, t.Target)
}

// TargetRow is one ULB line of the report
type TargetRow struct {
	SerialNo   int    `json:"sl_no"`
	ULB        string `json:"ulb"`
	Baseline   int    `json:"baseline"`
	Live       int    `json:"live"`
	WithoutApp int    `json:"without_app"`
	TargetTotals
}

// DistrictTargets groups the ULB rows of one district
type DistrictTargets struct {
	Name   string       `json:"name"`
	ULBs   []TargetRow  `json:"ulbs"`
	Totals TargetTotals `json:"totals"`
}

// RegionTargets groups districts
type RegionTargets struct {
	Name      string            `json:"name"`
	Districts []DistrictTargets `json:"districts"`
	Totals    TargetTotals      `json:"totals"`
}

// TargetReport is the region, district and ULB progress report
type TargetReport struct {
	AsOf    time.Time       `json:"as_of"`
	Period  Period          `json:"-"`
	Regions []RegionTargets `json:"regions"`
	Totals  TargetTotals    `json:"totals"`
}

// BuildTargetReport combines the catalog targets with live and manual
// counts. A ULB's completed figure is its pre-app baseline, plus the
// sterilized records in the snapshot, plus the manual without-app entry.
// Balance is target minus completed and goes negative once a ULB
// exceeds its target.
func BuildTargetReport(cat *catalog.Catalog, recs []records.AnimalRecord, achieved map[ULBKey]int, period Period, asOf time.Time) TargetReport {
	live := make(map[ULBKey]int)
	for _, r := range recs {
		if !r.Sterilized() {
			continue
		}
		if period.Active() && (r.SurgeryDate.IsZero() || !period.Contains(r.SurgeryDate.Time)) {
			continue
		}
		live[ULBKey{District: r.District, ULB: strings.TrimSpace(r.ULB)}]++
	}

	report := TargetReport{AsOf: asOf, Period: period}
	serial := 1
	for _, region := range cat.Regions() {
		rt := RegionTargets{Name: region.Name}
		for _, name := range region.Districts {
			district, ok := cat.District(name)
			if !ok {
				continue
			}
			dt := DistrictTargets{Name: district.Name}
			for _, u := range district.ULBs {
				key := ULBKey{District: district.Name, ULB: u.Name}
				row := TargetRow{
					SerialNo:   serial,
					ULB:        u.Name,
					Baseline:   u.Baseline,
					Live:       live[key],
					WithoutApp: achieved[key],
				}
				row.Target = u.Target
				row.Completed = row.Baseline + row.Live + row.WithoutApp
				row.Balance = row.Target - row.Completed
				row.finish()
				dt.ULBs = append(dt.ULBs, row)
				dt.Totals.add(row.TargetTotals)
				serial++
			}
			dt.Totals.finish()
			rt.Districts = append(rt.Districts, dt)
			rt.Totals.add(dt.Totals)
		}
		rt.Totals.finish()
		report.Regions = append(report.Regions, rt)
		report.Totals.add(rt.Totals)
	}
	report.Totals.finish()
	return report
}
