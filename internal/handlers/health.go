package handlers

import (
	"net/http"
	"time"

	"abc-dashboard/internal/database"
)

// HealthHandler reports database and record source health
type HealthHandler struct {
	db        *database.DB
	snapshots SnapshotSource
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, snapshots SnapshotSource) *HealthHandler {
	return &HealthHandler{db: db, snapshots: snapshots}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string     `json:"status"`
	Database  string     `json:"database"`
	Records   string     `json:"records"`
	Version   uint64     `json:"version,omitempty"`
	Count     int        `json:"record_count"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// HealthCheck handles GET /api/health. Only a broken database is a 503;
// an unreachable record source reports "degraded" with the last error.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Database: "ok", Records: "ok"}

	if err := h.db.IsHealthy(); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "error"
		resp.Records = "unknown"
		resp.Message = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	snap, err := h.snapshots.Current()
	if err != nil {
		resp.Status = "degraded"
		resp.Records = "unavailable"
		resp.Message = err.Error()
	} else {
		resp.Version = snap.Version
		resp.Count = snap.Len()
		fetched := snap.FetchedAt
		resp.FetchedAt = &fetched
	}

	writeJSON(w, http.StatusOK, resp)
}
