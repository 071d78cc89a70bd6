package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"abc-dashboard/internal/cache"
	"abc-dashboard/internal/ratelimit"
	"abc-dashboard/internal/workers"
)

// SnapshotHandler exposes the poller state and manual refresh
type SnapshotHandler struct {
	snapshots SnapshotSource
	limits    ratelimit.Config
	cache     *cache.Manager
	logger    *slog.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(snapshots SnapshotSource, limits ratelimit.Config, cacheManager *cache.Manager, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots, limits: limits, cache: cacheManager, logger: logger}
}

// SnapshotResponse is the body of GET /api/snapshot
type SnapshotResponse struct {
	workers.PollerStatus
	Cache cache.CacheStats `json:"cache"`
}

// GetSnapshot handles GET /api/snapshot
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SnapshotResponse{
		PollerStatus: h.snapshots.Status(),
		Cache:        h.cache.GetStats(),
	})
}

// RefreshResponse represents the response from a manual refresh request
type RefreshResponse struct {
	Version   uint64    `json:"version"`
	Records   int       `json:"records"`
	FetchedAt time.Time `json:"fetched_at"`
	Reason    string    `json:"reason"`
}

// Refresh handles POST /api/snapshot/refresh
func (h *SnapshotHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	decision := ratelimit.CheckRefreshRateLimit(h.limits, h.snapshots.LastRefresh(), boolParam(r, "force"), time.Now())
	if decision.Blocked {
		w.Header().Set("Retry-After", decision.RetryAfter())
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error: fmt.Sprintf("Rate limit exceeded. Please wait %v before refreshing again", decision.Wait.Truncate(time.Second)),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	snap, err := h.snapshots.Refresh(ctx)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("Manual refresh completed", "version", snap.Version, "records", snap.Len(), "reason", decision.Reason)
	writeJSON(w, http.StatusOK, RefreshResponse{
		Version:   snap.Version,
		Records:   snap.Len(),
		FetchedAt: snap.FetchedAt,
		Reason:    string(decision.Reason),
	})
}

// Ensure the poller satisfies SnapshotSource
var _ SnapshotSource = (*workers.SnapshotPoller)(nil)
