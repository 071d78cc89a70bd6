package handlers

import (
	"log/slog"
	"net/http"

	"abc-dashboard/internal/cache"
	"abc-dashboard/internal/catalog"
	"abc-dashboard/internal/geo"
)

// MapHandler serves the geo-bucketed views
type MapHandler struct {
	snapshots SnapshotSource
	catalog   *catalog.Catalog
	cache     *cache.Manager
	apiKey    string
	mode      geo.HeatmapMode
	logger    *slog.Logger
}

// NewMapHandler creates a new map handler
func NewMapHandler(snapshots SnapshotSource, cat *catalog.Catalog, cacheManager *cache.Manager, apiKey string, mode geo.HeatmapMode, logger *slog.Logger) *MapHandler {
	return &MapHandler{
		snapshots: snapshots,
		catalog:   cat,
		cache:     cacheManager,
		apiKey:    apiKey,
		mode:      mode,
		logger:    logger,
	}
}

// MapConfigResponse tells the UI how to load the map provider
type MapConfigResponse struct {
	APIKey      string          `json:"api_key"`
	HeatmapMode geo.HeatmapMode `json:"heatmap_mode"`
}

// GetConfig handles GET /api/map/config
func (h *MapHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	if h.apiKey == "" {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "map provider API key is not configured"})
		return
	}
	writeJSON(w, http.StatusOK, MapConfigResponse{APIKey: h.apiKey, HeatmapMode: h.mode})
}

func (h *MapHandler) buckets(r *http.Request) (geo.Result, error) {
	snap, err := h.snapshots.Current()
	if err != nil {
		return geo.Result{}, err
	}
	mode := h.mode
	if raw := r.URL.Query().Get("mode"); raw != "" {
		if m, err := geo.ParseHeatmapMode(raw); err == nil {
			mode = m
		}
	}
	return cache.Memoize(h.cache, snap.Version, "map:"+string(mode), func() (geo.Result, error) {
		return geo.BucketByULB(snap.Records, h.catalog, mode, h.logger), nil
	})
}

// GetULBPoints handles GET /api/map/ulbs
func (h *MapHandler) GetULBPoints(w http.ResponseWriter, r *http.Request) {
	result, err := h.buckets(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"points":   result.Points,
		"excluded": result.Excluded,
	})
}

// GetHeatmap handles GET /api/map/heatmap
func (h *MapHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	result, err := h.buckets(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":    result.Mode,
		"samples": result.Heatmap,
	})
}

// GetGeoJSON handles GET /api/map/geojson
func (h *MapHandler) GetGeoJSON(w http.ResponseWriter, r *http.Request) {
	result, err := h.buckets(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	data, err := geo.MarshalFeatureCollection(result.Points)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
