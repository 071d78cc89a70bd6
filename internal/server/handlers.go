package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"abc-dashboard/internal/cache"
	"abc-dashboard/internal/catalog"
	"abc-dashboard/internal/database"
	"abc-dashboard/internal/export"
	"abc-dashboard/internal/geo"
	"abc-dashboard/internal/handlers"
	"abc-dashboard/internal/ratelimit"
	"abc-dashboard/internal/session"
)

// Dependencies are the shared services the handlers are built from
type Dependencies struct {
	DB        *database.DB
	Snapshots handlers.SnapshotSource
	Catalog   *catalog.Catalog
	Cache     *cache.Manager
	Sessions  *session.Manager
	Limits    ratelimit.Config
	// PDF is nil when no browser is available
	PDF         *export.PDFExporter
	MapAPIKey   string
	HeatmapMode geo.HeatmapMode
	// StaticDir serves the dashboard UI when set
	StaticDir string
	Logger    *slog.Logger
}

// Handlers groups every HTTP handler of the dashboard API
type Handlers struct {
	health       *handlers.HealthHandler
	auth         *handlers.AuthHandler
	snapshot     *handlers.SnapshotHandler
	dashboard    *handlers.DashboardHandler
	dogs         *handlers.DogHandler
	achievements *handlers.AchievementHandler
	maps         *handlers.MapHandler
	exports      *handlers.ExportHandler
	static       *handlers.StaticHandler
	sessions     *session.Manager
	logger       *slog.Logger
}

// NewHandlers builds the handlers from deps
func NewHandlers(deps Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cacheManager := deps.Cache
	if cacheManager == nil {
		cacheManager = cache.NewManager(true, 5*time.Minute, logger)
	}

	h := &Handlers{
		health:       handlers.NewHealthHandler(deps.DB, deps.Snapshots),
		auth:         handlers.NewAuthHandler(deps.Sessions, logger),
		snapshot:     handlers.NewSnapshotHandler(deps.Snapshots, deps.Limits, cacheManager, logger),
		dashboard:    handlers.NewDashboardHandler(deps.Snapshots, deps.Catalog, deps.DB.Achievements, cacheManager, logger),
		dogs:         handlers.NewDogHandler(deps.Snapshots, deps.Catalog, cacheManager, logger),
		achievements: handlers.NewAchievementHandler(deps.DB.Achievements, deps.Catalog, logger),
		maps:         handlers.NewMapHandler(deps.Snapshots, deps.Catalog, cacheManager, deps.MapAPIKey, deps.HeatmapMode, logger),
		exports:      handlers.NewExportHandler(deps.Snapshots, deps.Catalog, deps.DB.Achievements, cacheManager, deps.PDF, deps.DB.Exports, logger),
		sessions:     deps.Sessions,
		logger:       logger,
	}
	if deps.StaticDir != "" {
		h.static = handlers.NewStaticHandler(deps.StaticDir)
	}
	return h
}

// RegisterChiRoutes registers all routes with a chi router. Everything
// under /api except health and login needs a session.
func (h *Handlers) RegisterChiRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health.HealthCheck)
		r.Post("/auth/login", h.auth.Login)
		r.Post("/auth/logout", h.auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(h.sessions, h.logger))

			r.Get("/auth/session", h.auth.Session)

			r.Get("/snapshot", h.snapshot.GetSnapshot)
			r.Post("/snapshot/refresh", h.snapshot.Refresh)

			r.Get("/dashboard", h.dashboard.GetDashboard)
			r.Get("/dashboard/timeline", h.dashboard.GetTimeline)
			r.Get("/districts", h.dashboard.GetDistricts)
			r.Get("/districts/{district}/ulbs", h.dashboard.GetDistrictULBs)
			r.Get("/ulbs", h.dashboard.GetULBs)
			r.Get("/statistics", h.dashboard.GetStatistics)

			r.Get("/dogs", h.dogs.GetDogs)

			r.Get("/achievements", h.achievements.GetAchievements)
			r.Put("/achievements", h.achievements.PutAchievement)

			r.Get("/map/config", h.maps.GetConfig)
			r.Get("/map/ulbs", h.maps.GetULBPoints)
			r.Get("/map/heatmap", h.maps.GetHeatmap)
			r.Get("/map/geojson", h.maps.GetGeoJSON)

			r.Get("/export/dogs.xlsx", h.exports.DogsSpreadsheet)
			r.Get("/export/dogs.pdf", h.exports.DogsPDF)
			r.Get("/export/dashboard.pdf", h.exports.DashboardPDF)
			r.Get("/export/ulbs.xlsx", h.exports.ULBsSpreadsheet)
			r.Get("/export/statistics.xlsx", h.exports.StatisticsSpreadsheet)
			r.Get("/print/dogs", h.exports.PrintDogs)
			r.Get("/exports", h.exports.GetExports)
		})
	})

	// Static file routes (catch-all for SPA)
	if h.static != nil {
		r.Get("/*", h.static.ServeHTTP)
	}
}
