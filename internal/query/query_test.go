package query

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abc-dashboard/internal/records"
)

func mustDate(t *testing.T, s string) records.Date {
	t.Helper()
	var d records.Date
	require.NoError(t, json.Unmarshal([]byte(`"`+s+`"`), &d))
	return d
}

func ids(recs []records.AnimalRecord) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func fixture(t *testing.T) []records.AnimalRecord {
	return []records.AnimalRecord{
		{ID: 5, District: "Guntur District", ULB: "Tenali", DateOfCatch: mustDate(t, "2025-01-05")},
		{ID: 2, District: "Guntur District", ULB: "Guntur", DateOfCatch: mustDate(t, "2025-01-10"), SurgeryDate: mustDate(t, "2025-01-11")},
		{ID: 9, District: "Chittoor District", ULB: "Kuppam", DateOfCatch: mustDate(t, "2025-02-01")},
		{ID: 1, District: "Guntur District", ULB: "Tenali", DateOfCatch: mustDate(t, "2025-01-31T23:00:00.000Z")},
		{ID: 4, District: "Guntur District", ULB: "Tenali"},
	}
}

func TestApplyFilters(t *testing.T) {
	recs := fixture(t)
	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	jan11 := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"no filter sorts by id", Filter{}, []int{1, 2, 4, 5, 9}},
		{"district", Filter{District: "Guntur District"}, []int{1, 2, 4, 5}},
		{"district and ulb", Filter{District: "Guntur District", ULB: "Tenali"}, []int{1, 4, 5}},
		{"ulb without district is ignored", Filter{ULB: "Kuppam"}, []int{1, 2, 4, 5, 9}},
		{"inclusive range", Filter{DateFrom: &jan1, DateTo: &jan31}, []int{1, 2, 5}},
		{"one bound disables range", Filter{DateFrom: &jan1}, []int{1, 2, 4, 5, 9}},
		{"surgery field", Filter{DateFrom: &jan11, DateTo: &jan11, DateField: DateSurgery}, []int{2}},
		{"combined", Filter{District: "Guntur District", ULB: "Tenali", DateFrom: &jan1, DateTo: &jan31}, []int{1, 5}},
		{"unknown district", Filter{District: "Nowhere"}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ApplyFilters(recs, tt.filter)))
		})
	}

	// input order untouched
	assert.Equal(t, 5, recs[0].ID)
}

func TestApplyFiltersIdempotent(t *testing.T) {
	recs := fixture(t)
	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	filters := []Filter{
		{},
		{District: "Guntur District"},
		{District: "Guntur District", ULB: "Tenali"},
		{DateFrom: &jan1, DateTo: &feb1},
	}
	for _, f := range filters {
		once := ApplyFilters(recs, f)
		assert.Equal(t, once, ApplyFilters(once, f))
	}
}

func TestParseDateField(t *testing.T) {
	f, err := ParseDateField("")
	require.NoError(t, err)
	assert.Equal(t, DateOfCatch, f)
	f, err = ParseDateField("Relocation")
	require.NoError(t, err)
	assert.Equal(t, DateRelocation, f)
	_, err = ParseDateField("birthday")
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	recs := make([]records.AnimalRecord, 12)
	for i := range recs {
		recs[i].ID = i + 1
	}

	p, err := Paginate(recs, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(p.Items))
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 12, p.TotalItems)

	p, err = Paginate(recs, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12}, ids(p.Items))

	p, err = Paginate(recs, 3, 5)
	require.NoError(t, err)
	assert.Empty(t, p.Items)

	p, err = Paginate(nil, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.TotalPages)

	_, err = Paginate(recs, 0, 7)
	assert.ErrorIs(t, err, ErrInvalidPageSize)
	_, err = Paginate(recs, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPageSize)
	_, err = Paginate(recs, -1, 5)
	assert.ErrorIs(t, err, ErrInvalidPage)

	p, err = Paginate(recs, math.MaxInt, 10)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Equal(t, 2, p.TotalPages)
}

func TestPaginateCoversAllRecords(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		recs := make([]records.AnimalRecord, rng.Intn(60))
		for i := range recs {
			recs[i].ID = rng.Intn(1000)
		}
		sorted := ApplyFilters(recs, Filter{})

		for _, size := range PageSizes {
			var joined []records.AnimalRecord
			for page := 0; ; page++ {
				p, err := Paginate(sorted, page, size)
				require.NoError(t, err)
				if len(p.Items) == 0 {
					break
				}
				assert.LessOrEqual(t, len(p.Items), size)
				joined = append(joined, p.Items...)
			}
			assert.Equal(t, ids(sorted), ids(joined))
		}
	}
}

type directory map[string][]string

func (d directory) HasULB(district, ulb string) bool {
	for _, u := range d[district] {
		if u == ulb {
			return true
		}
	}
	return false
}

func TestViewState(t *testing.T) {
	dir := directory{"Guntur District": {"Tenali", "Guntur"}}
	s := NewViewState(dir)
	assert.Equal(t, DefaultPageSize, s.PageSize())

	assert.ErrorIs(t, s.SetULB("Tenali"), ErrDistrictRequired)

	s.SetDistrict("Guntur District")
	require.NoError(t, s.SetULB("Tenali"))
	assert.ErrorIs(t, s.SetULB("Kuppam"), ErrULBNotInDistrict)
	assert.Equal(t, "Tenali", s.Filter().ULB)

	s.NextPage(100)
	s.NextPage(100)
	assert.Equal(t, 2, s.Page())

	// district change clears ulb and page
	s.SetDistrict("Chittoor District")
	assert.Equal(t, "", s.Filter().ULB)
	assert.Equal(t, 0, s.Page())

	s.NextPage(100)
	require.NoError(t, s.SetPageSize(25))
	assert.Equal(t, 0, s.Page())
	assert.ErrorIs(t, s.SetPageSize(3), ErrInvalidPageSize)
	assert.Equal(t, 25, s.PageSize())

	s.NextPage(100)
	from := time.Now()
	s.SetDateRange(&from, &from, DateOfCatch)
	assert.Equal(t, 0, s.Page())
}

func TestViewStatePagingClamps(t *testing.T) {
	s := NewViewState(nil)
	require.NoError(t, s.SetPageSize(5))

	s.PrevPage(12)
	assert.Equal(t, 0, s.Page())
	for i := 0; i < 10; i++ {
		s.NextPage(12)
	}
	assert.Equal(t, 2, s.Page())

	s.SetPage(50, 0)
	assert.Equal(t, 0, s.Page())
}

func TestCyclePageSize(t *testing.T) {
	s := NewViewState(nil)
	assert.Equal(t, 25, s.CyclePageSize())
	assert.Equal(t, 5, s.CyclePageSize())
	assert.Equal(t, 10, s.CyclePageSize())
}
