package handlers

import (
	"log/slog"
	"net/http"

	"abc-dashboard/internal/cache"
	"abc-dashboard/internal/catalog"
	"abc-dashboard/internal/geo"
	"abc-dashboard/internal/query"
	"abc-dashboard/internal/records"
)

// DogHandler serves the filtered dog table
type DogHandler struct {
	snapshots SnapshotSource
	catalog   *catalog.Catalog
	cache     *cache.Manager
	logger    *slog.Logger
}

// NewDogHandler creates a new dog handler
func NewDogHandler(snapshots SnapshotSource, cat *catalog.Catalog, cacheManager *cache.Manager, logger *slog.Logger) *DogHandler {
	return &DogHandler{snapshots: snapshots, catalog: cat, cache: cacheManager, logger: logger}
}

// DogRow is one table row with its map link
type DogRow struct {
	records.AnimalRecord
	MapURL string `json:"map_url,omitempty"`
}

// DogsResponse is one page of the dog table
type DogsResponse struct {
	Items      []DogRow     `json:"items"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalItems int          `json:"total_items"`
	TotalPages int          `json:"total_pages"`
	Filter     query.Filter `json:"filter"`
	Version    uint64       `json:"version"`
}

// GetDogs handles GET /api/dogs
func (h *DogHandler) GetDogs(w http.ResponseWriter, r *http.Request) {
	state, err := parseView(r, h.catalog)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	page, err := parsePage(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	snap, err := h.snapshots.Current()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	filtered, err := filteredRecords(h.cache, snap, state.Filter())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := query.Paginate(filtered, page, state.PageSize())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := DogsResponse{
		Items:      make([]DogRow, 0, len(p.Items)),
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
		Filter:     state.Filter(),
		Version:    snap.Version,
	}
	for _, rec := range p.Items {
		row := DogRow{AnimalRecord: rec}
		if lat, lng, ok := geo.ParseCoordinates(rec.Latitude, rec.Longitude); ok {
			row.MapURL = geo.MapURL(lat, lng)
		}
		resp.Items = append(resp.Items, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// filteredRecords memoizes the filtered, id-ordered record list
func filteredRecords(m *cache.Manager, snap *records.Snapshot, f query.Filter) ([]records.AnimalRecord, error) {
	return cache.Memoize(m, snap.Version, "dogs:"+filterKey(f), func() ([]records.AnimalRecord, error) {
		return query.ApplyFilters(snap.Records, f), nil
	})
}
