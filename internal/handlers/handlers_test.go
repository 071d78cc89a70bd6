package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"abc-dashboard/internal/cache"
	"abc-dashboard/internal/catalog"
	"abc-dashboard/internal/database"
	"abc-dashboard/internal/records"
	"abc-dashboard/internal/workers"
)

// setupTestDB opens a migrated in-memory database
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	return db
}

func teardownTestDB(db *database.DB) {
	db.Close()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testCatalogYAML = `
regions:
  - name: South Region
    districts: [Guntur District, Tirupati District]
districts:
  - name: Guntur District
    ulbs:
      - {name: Tenali, target: 100, baseline: 5}
      - {name: Guntur, target: 200, baseline: 0}
  - name: Tirupati District
    ulbs:
      - {name: Puttur, target: 50, baseline: 0, lat: 13.44, lng: 79.55}
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalogYAML))
	require.NoError(t, err)
	return cat
}

func day(t *testing.T, s string) records.Date {
	t.Helper()
	var d records.Date
	require.NoError(t, json.Unmarshal([]byte(strconv.Quote(s)), &d))
	return d
}

// testRecords returns 15 records: 12 in Tenali, one in Guntur with a
// broken latitude and two in Puttur without coordinates
func testRecords(t *testing.T) []records.AnimalRecord {
	recs := []records.AnimalRecord{
		{ID: 2, District: "Guntur District", ULB: "Guntur", Gender: "Female",
			Latitude: "abc", Longitude: "80.4", DateOfCatch: day(t, "2025-01-10")},
		{ID: 3, District: "Tirupati District", ULB: "Puttur", Gender: "Male",
			AfterSurgeryImage: "https://img/3.jpg", RelocationImage: "https://img/3r.jpg", DateOfCatch: day(t, "2025-02-01")},
		{ID: 4, District: "Tirupati District", ULB: "Puttur", Gender: "Male", DateOfCatch: day(t, "2025-02-02")},
	}
	for i := 0; i < 12; i++ {
		recs = append(recs, records.AnimalRecord{
			ID: 100 + i, District: "Guntur District", ULB: "Tenali", Gender: "Male",
			Latitude: "16.24", Longitude: "80.64", AfterSurgeryImage: "x",
			DateOfCatch: day(t, "2025-01-05"), SurgeryDate: day(t, "2025-01-06"),
		})
	}
	return recs
}

type fakeSnapshots struct {
	snap      *records.Snapshot
	err       error
	last      *time.Time
	refreshes int
}

func newFakeSnapshots(recs []records.AnimalRecord) *fakeSnapshots {
	now := time.Now()
	return &fakeSnapshots{snap: &records.Snapshot{Version: 1, FetchedAt: now, Records: recs}}
}

func (f *fakeSnapshots) Current() (*records.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *fakeSnapshots) LastRefresh() *time.Time { return f.last }

func (f *fakeSnapshots) Status() workers.PollerStatus {
	s := workers.PollerStatus{Running: true, Version: f.snap.Version, Records: f.snap.Len()}
	if f.err != nil {
		s.LastError = f.err.Error()
	}
	return s
}

func (f *fakeSnapshots) Refresh(ctx context.Context) (*records.Snapshot, error) {
	f.refreshes++
	if f.err != nil {
		return nil, f.err
	}
	f.snap = &records.Snapshot{Version: f.snap.Version + 1, FetchedAt: time.Now(), Records: f.snap.Records}
	return f.snap, nil
}

func testCache() *cache.Manager {
	return cache.NewManager(false, time.Minute, testLogger())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}
