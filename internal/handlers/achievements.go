package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"abc-dashboard/internal/catalog"
	"abc-dashboard/internal/database"
	"abc-dashboard/internal/session"
)

// AchievementStore persists the manual without-app counts
type AchievementStore interface {
	AchievementCounts
	GetAll() ([]database.Achievement, error)
	Upsert(a *database.Achievement) error
}

// AchievementHandler reads and edits the manual counts
type AchievementHandler struct {
	store   AchievementStore
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(store AchievementStore, cat *catalog.Catalog, logger *slog.Logger) *AchievementHandler {
	return &AchievementHandler{store: store, catalog: cat, logger: logger}
}

// GetAchievements handles GET /api/achievements
func (h *AchievementHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.GetAll()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// AchievementRequest is the body of PUT /api/achievements
type AchievementRequest struct {
	District           string `json:"district"`
	ULB                string `json:"ulb"`
	AchievedWithoutApp int    `json:"achieved_without_app"`
}

// PutAchievement handles PUT /api/achievements
func (h *AchievementHandler) PutAchievement(w http.ResponseWriter, r *http.Request) {
	var req AchievementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}
	req.District = strings.TrimSpace(req.District)
	req.ULB = strings.TrimSpace(req.ULB)

	if !h.catalog.HasULB(req.District, req.ULB) {
		badRequest(w, "unknown ULB "+req.ULB+" in "+req.District)
		return
	}
	if req.AchievedWithoutApp < 0 {
		badRequest(w, "achieved_without_app must not be negative")
		return
	}

	a := &database.Achievement{
		District:           req.District,
		ULB:                req.ULB,
		AchievedWithoutApp: req.AchievedWithoutApp,
		UpdatedBy:          session.Username(r.Context()),
	}
	if err := h.store.Upsert(a); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("Achievement updated", "district", a.District, "ulb", a.ULB,
		"achieved_without_app", a.AchievedWithoutApp, "by", a.UpdatedBy)
	writeJSON(w, http.StatusOK, a)
}
