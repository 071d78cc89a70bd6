package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"abc-dashboard/internal/cache"
	"abc-dashboard/internal/catalog"
	"abc-dashboard/internal/config"
	"abc-dashboard/internal/database"
	"abc-dashboard/internal/export"
	"abc-dashboard/internal/geo"
	"abc-dashboard/internal/records"
	"abc-dashboard/internal/render"
	"abc-dashboard/internal/server"
	"abc-dashboard/internal/session"
	"abc-dashboard/internal/workers"
)

func main() {
	// Load configuration
	cfg, err := config.LoadServerConfigWithEnvFile(os.Getenv("ABC_DASHBOARD_ENV_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Initialize database
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	logger.Info("Database initialized", "path", cfg.DBPath)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load ULB catalog: %v", err)
	}

	heatmap, err := geo.ParseHeatmapMode(cfg.HeatmapMode)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var oauth *records.OAuthConfig
	if cfg.SourceOAuthClientID != "" {
		oauth = &records.OAuthConfig{
			ClientID:     cfg.SourceOAuthClientID,
			ClientSecret: cfg.SourceOAuthClientSecret,
			TokenURL:     cfg.SourceOAuthTokenURL,
			Scopes:       cfg.SourceOAuthScopes,
		}
	}
	source := records.NewClient(records.ClientConfig{
		URL:     cfg.SourceURL,
		Timeout: cfg.SourceTimeout,
		OAuth:   oauth,
	})

	cacheManager := cache.NewManager(cfg.DisableCache, cfg.CacheTTL, logger)

	poller := workers.NewSnapshotPoller(cfg.PollInterval, source, cacheManager, logger)
	poller.Start()

	cleanup := []func(){poller.Stop}

	pdf, pool := newPDFExporter(cfg, logger)
	if pool != nil {
		cleanup = append(cleanup, func() {
			if err := pool.Close(); err != nil {
				logger.Warn("Failed to close browser pool", "error", err)
			}
		})
	}

	if cfg.UsesDefaultCredentials() {
		logger.Warn("Dashboard login uses the default admin/admin credentials; set ABC_DASHBOARD_AUTH_USERNAME and ABC_DASHBOARD_AUTH_PASSWORD")
	}
	sessions := session.NewManager(db.Sessions, session.Config{
		Username:    cfg.AuthUsername,
		Password:    cfg.AuthPassword,
		TTL:         cfg.SessionTTL,
		LoginPerMin: cfg.LoginRatePerMin,
		LoginBurst:  cfg.LoginBurst,
	}, logger)

	handlers := server.NewHandlers(server.Dependencies{
		DB:          db,
		Snapshots:   poller,
		Catalog:     cat,
		Cache:       cacheManager,
		Sessions:    sessions,
		Limits:      cfg,
		PDF:         pdf,
		MapAPIKey:   cfg.MapAPIKey,
		HeatmapMode: heatmap,
		StaticDir:   cfg.StaticDir,
		Logger:      logger,
	})

	router := server.NewRouter(handlers, server.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:    cfg.Address(),
		Handler: router,

		// PDF exports can take most of a minute on large datasets
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ExportBrowserTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle server startup and graceful shutdown
	shutdownTimeout := 30 * time.Second
	if err := server.HandleSignals(srv, shutdownTimeout, logger, cleanup...); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newPDFExporter starts the browser pool when Chrome is installed. Without
// it the PDF endpoints answer 503 and the rest of the dashboard runs.
func newPDFExporter(cfg *config.Config, logger *slog.Logger) (*export.PDFExporter, *render.Pool) {
	if err := render.ValidateChromeAvailable(); err != nil {
		logger.Warn("PDF export disabled", "error", err)
		return nil, nil
	}

	format, err := render.ParsePageFormat(cfg.ExportPageFormat)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	opts := render.DefaultOptions()
	opts.Timeout = cfg.ExportBrowserTimeout
	opts.Scale = cfg.ExportScale

	poolConfig := render.DefaultPoolConfig()
	poolConfig.MaxBrowsers = cfg.ExportMaxBrowsers

	pool := render.NewPool(poolConfig, opts)
	renderer := render.NewRenderer(pool, opts, logger)

	resolver := export.NewImageResolver(nil, export.ImageResolverConfig{
		Concurrency: cfg.ExportImageConcurrency,
		Timeout:     cfg.ExportImageTimeout,
		MaxBytes:    cfg.ExportMaxImageBytes,
	}, logger)

	logger.Info("PDF export enabled", "max_browsers", poolConfig.MaxBrowsers, "page_format", format)
	return export.NewPDFExporter(renderer, resolver, export.PDFOptions{
		Format:    format,
		Landscape: cfg.ExportLandscape,
	}, logger), pool
}
