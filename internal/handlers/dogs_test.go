package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abc-dashboard/internal/workers"
)

func TestGetDogs(t *testing.T) {
	h := NewDogHandler(newFakeSnapshots(testRecords(t)), testCatalog(t), testCache(), testLogger())

	get := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.GetDogs(w, httptest.NewRequest("GET", target, nil))
		return w
	}

	t.Run("DefaultPage", func(t *testing.T) {
		w := get("/api/dogs")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[DogsResponse](t, w)
		assert.Equal(t, 15, resp.TotalItems)
		assert.Equal(t, 10, resp.PageSize)
		assert.Equal(t, 2, resp.TotalPages)
		require.Len(t, resp.Items, 10)
		assert.Equal(t, 2, resp.Items[0].ID)
		assert.Empty(t, resp.Items[0].MapURL, "garbage latitude has no map link")
		assert.Empty(t, resp.Items[1].MapURL, "blank coordinates have no map link")
		assert.Equal(t, "https://maps.mapmyindia.com/@16.24,80.64,17z", resp.Items[3].MapURL)
	})

	t.Run("DistrictAndULB", func(t *testing.T) {
		w := get("/api/dogs?district=Guntur+District&ulb=Tenali&page_size=5&page=2")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[DogsResponse](t, w)
		assert.Equal(t, 12, resp.TotalItems)
		assert.Equal(t, 3, resp.TotalPages)
		assert.Equal(t, 2, resp.Page)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, 110, resp.Items[0].ID)
		assert.Equal(t, "Tenali", resp.Filter.ULB)
	})

	t.Run("DateRange", func(t *testing.T) {
		w := get("/api/dogs?from=2025-02-01&to=2025-02-28")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, decode[DogsResponse](t, w).TotalItems)
	})

	t.Run("PageBeyondEnd", func(t *testing.T) {
		for _, page := range []string{"9", "9223372036854775807"} {
			w := get("/api/dogs?page=" + page)
			require.Equal(t, http.StatusOK, w.Code, page)
			resp := decode[DogsResponse](t, w)
			assert.Empty(t, resp.Items, page)
			assert.Equal(t, 15, resp.TotalItems, page)
		}
	})

	t.Run("NegativePage", func(t *testing.T) {
		w := get("/api/dogs?page=-1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ULBOutsideDistrict", func(t *testing.T) {
		w := get("/api/dogs?district=Guntur+District&ulb=Puttur")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ULBWithoutDistrict", func(t *testing.T) {
		w := get("/api/dogs?ulb=Tenali")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnsupportedPageSize", func(t *testing.T) {
		w := get("/api/dogs?page_size=7")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NoSnapshotYet", func(t *testing.T) {
		snaps := newFakeSnapshots(nil)
		snaps.err = workers.ErrNoSnapshot
		h := NewDogHandler(snaps, testCatalog(t), testCache(), testLogger())

		w := httptest.NewRecorder()
		h.GetDogs(w, httptest.NewRequest("GET", "/api/dogs", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

// refreshLimits stands in for the server config in refresh tests
type refreshLimits struct {
	disabled bool
	window   time.Duration
}

func (l refreshLimits) GetDisableRateLimit() bool       { return l.disabled }
func (l refreshLimits) GetRefreshWindow() time.Duration { return l.window }

func TestSnapshotHandler(t *testing.T) {
	limits := refreshLimits{window: time.Minute}

	t.Run("Status", func(t *testing.T) {
		h := NewSnapshotHandler(newFakeSnapshots(testRecords(t)), limits, testCache(), testLogger())
		w := httptest.NewRecorder()
		h.GetSnapshot(w, httptest.NewRequest("GET", "/api/snapshot", nil))
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[SnapshotResponse](t, w)
		assert.Equal(t, 15, resp.Records)
		assert.False(t, resp.Cache.Disabled)
	})

	t.Run("RefreshAllowed", func(t *testing.T) {
		snaps := newFakeSnapshots(testRecords(t))
		h := NewSnapshotHandler(snaps, limits, testCache(), testLogger())

		w := httptest.NewRecorder()
		h.Refresh(w, httptest.NewRequest("POST", "/api/snapshot/refresh", nil))
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[RefreshResponse](t, w)
		assert.Equal(t, uint64(2), resp.Version)
		assert.Equal(t, "no_previous_refresh", resp.Reason)
		assert.Equal(t, 1, snaps.refreshes)
	})

	t.Run("RefreshRateLimited", func(t *testing.T) {
		snaps := newFakeSnapshots(testRecords(t))
		recent := time.Now().Add(-10 * time.Second)
		snaps.last = &recent
		h := NewSnapshotHandler(snaps, limits, testCache(), testLogger())

		w := httptest.NewRecorder()
		h.Refresh(w, httptest.NewRequest("POST", "/api/snapshot/refresh", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.True(t, strings.HasPrefix(decode[ErrorResponse](t, w).Error, "Rate limit exceeded"))
		assert.Zero(t, snaps.refreshes)

		w = httptest.NewRecorder()
		h.Refresh(w, httptest.NewRequest("POST", "/api/snapshot/refresh?force=true", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "forced_refresh", decode[RefreshResponse](t, w).Reason)
	})

	t.Run("RefreshUpstreamFailure", func(t *testing.T) {
		snaps := newFakeSnapshots(nil)
		snaps.err = workers.ErrPollerStopped
		h := NewSnapshotHandler(snaps, limits, testCache(), testLogger())

		w := httptest.NewRecorder()
		h.Refresh(w, httptest.NewRequest("POST", "/api/snapshot/refresh", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
