package stats

import (
	"errors"
	"time"

	"abc-dashboard/internal/records"
)

// MaxTimelineDays bounds the timeline window
const MaxTimelineDays = 366

var (
	ErrInvalidWindow  = errors.New("timeline start is after end")
	ErrWindowTooLarge = errors.New("timeline window exceeds one year")
)

// DayCount is one point of the activity chart
type DayCount struct {
	Date       string `json:"date"`
	Caught     int    `json:"caught"`
	Sterilized int    `json:"sterilized"`
	Released   int    `json:"released"`
}

// Timeline buckets catch, surgery and relocation dates into days in the
// inclusive window [from, to]. Days without activity are still emitted.
func Timeline(recs []records.AnimalRecord, from, to time.Time) ([]DayCount, error) {
	start := day(from)
	end := day(to)
	if start.After(end) {
		return nil, ErrInvalidWindow
	}
	n := int(end.Sub(start).Hours()/24) + 1
	if n > MaxTimelineDays {
		return nil, ErrWindowTooLarge
	}

	out := make([]DayCount, n)
	for i := range out {
		out[i].Date = start.AddDate(0, 0, i).Format("2006-01-02")
	}

	index := func(d records.Date) (int, bool) {
		if d.IsZero() {
			return 0, false
		}
		dd := day(d.Time)
		if dd.Before(start) || dd.After(end) {
			return 0, false
		}
		return int(dd.Sub(start).Hours() / 24), true
	}

	for _, r := range recs {
		if i, ok := index(r.DateOfCatch); ok {
			out[i].Caught++
		}
		if i, ok := index(r.SurgeryDate); ok {
			out[i].Sterilized++
		}
		if i, ok := index(r.RelocationDate); ok {
			out[i].Released++
		}
	}
	return out, nil
}

// day truncates to the calendar date in UTC, keeping the wall-clock date
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
