package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"abc-dashboard/internal/cache"
	"abc-dashboard/internal/catalog"
	"abc-dashboard/internal/records"
	"abc-dashboard/internal/stats"
)

// topDistrictCount is the number of districts on the dashboard chart
const topDistrictCount = 5

// AchievementCounts supplies the manual without-app counts
type AchievementCounts interface {
	Counts() (map[stats.ULBKey]int, error)
}

// DashboardHandler serves the aggregate views of the snapshot
type DashboardHandler struct {
	snapshots    SnapshotSource
	catalog      *catalog.Catalog
	achievements AchievementCounts
	cache        *cache.Manager
	logger       *slog.Logger
	now          func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(snapshots SnapshotSource, cat *catalog.Catalog, achievements AchievementCounts, cacheManager *cache.Manager, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		snapshots:    snapshots,
		catalog:      cat,
		achievements: achievements,
		cache:        cacheManager,
		logger:       logger,
		now:          time.Now,
	}
}

// DashboardResponse is the body of GET /api/dashboard
type DashboardResponse struct {
	Version      uint64                   `json:"version"`
	FetchedAt    time.Time                `json:"fetched_at"`
	Metrics      stats.Metrics            `json:"metrics"`
	Status       stats.StatusDistribution `json:"status"`
	Gender       stats.GenderCounts       `json:"gender"`
	TopDistricts []stats.DistrictSummary  `json:"top_districts"`
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Current()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := cache.Memoize(h.cache, snap.Version, "dashboard", func() (DashboardResponse, error) {
		return buildDashboard(snap, h.catalog), nil
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func buildDashboard(snap *records.Snapshot, cat *catalog.Catalog) DashboardResponse {
	districts := stats.AggregateByDistrict(snap.Records, cat.DistrictNames())
	if len(districts) > topDistrictCount {
		districts = districts[:topDistrictCount]
	}
	return DashboardResponse{
		Version:      snap.Version,
		FetchedAt:    snap.FetchedAt,
		Metrics:      stats.ComputeMetrics(snap.Records),
		Status:       stats.AggregateStatusDistribution(snap.Records),
		Gender:       stats.GenderBreakdown(snap.Records),
		TopDistricts: districts,
	}
}

// GetTimeline handles GET /api/dashboard/timeline. The window defaults
// to the last seven days.
func (h *DashboardHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	today := h.now().UTC()
	if to == nil {
		to = &today
	}
	if from == nil {
		start := to.AddDate(0, 0, -7)
		from = &start
	}

	snap, err := h.snapshots.Current()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	key := "timeline:" + from.Format("2006-01-02") + ":" + to.Format("2006-01-02")
	days, err := cache.Memoize(h.cache, snap.Version, key, func() ([]stats.DayCount, error) {
		return stats.Timeline(snap.Records, *from, *to)
	})
	if errors.Is(err, stats.ErrInvalidWindow) || errors.Is(err, stats.ErrWindowTooLarge) {
		badRequest(w, err.Error())
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// GetDistricts handles GET /api/districts
func (h *DashboardHandler) GetDistricts(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Current()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	districts, err := cache.Memoize(h.cache, snap.Version, "districts", func() ([]stats.DistrictSummary, error) {
		return stats.AggregateByDistrict(snap.Records, h.catalog.DistrictNames()), nil
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, districts)
}

// DistrictULBsResponse lists the ULB choices of a district
type DistrictULBsResponse struct {
	District string   `json:"district"`
	ULBs     []string `json:"ulbs"`
}

// GetDistrictULBs handles GET /api/districts/{district}/ulbs
func (h *DashboardHandler) GetDistrictULBs(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "district")
	if _, ok := h.catalog.District(name); !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown district: " + name})
		return
	}
	writeJSON(w, http.StatusOK, DistrictULBsResponse{District: name, ULBs: h.catalog.ULBs(name)})
}

// GetULBs handles GET /api/ulbs. The optional district parameter limits
// the table to one district.
func (h *DashboardHandler) GetULBs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.ulbSummaries(strings.TrimSpace(r.URL.Query().Get("district")))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *DashboardHandler) ulbSummaries(district string) ([]stats.ULBSummary, error) {
	snap, err := h.snapshots.Current()
	if err != nil {
		return nil, err
	}
	counts, err := h.achievements.Counts()
	if err != nil {
		return nil, err
	}
	rows := stats.SummarizeULBs(snap.Records, counts)
	if district == "" {
		return rows, nil
	}
	filtered := make([]stats.ULBSummary, 0, len(rows))
	for _, row := range rows {
		if row.District == district {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

// GetStatistics handles GET /api/statistics. from and to bound the live
// sterilization count when both are given.
func (h *DashboardHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	report, err := h.targetReport(stats.Period{From: from, To: to})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *DashboardHandler) targetReport(period stats.Period) (stats.TargetReport, error) {
	snap, err := h.snapshots.Current()
	if err != nil {
		return stats.TargetReport{}, err
	}
	counts, err := h.achievements.Counts()
	if err != nil {
		return stats.TargetReport{}, err
	}
	return stats.BuildTargetReport(h.catalog, snap.Records, counts, period, h.now()), nil
}
