package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RouterOptions configures the outer middleware
type RouterOptions struct {
	// CORSOrigins lists the dashboard UI origins allowed to call the API.
	// Empty disables CORS headers.
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter builds the chi router with the middleware chain and every
// route registered
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition", "Retry-After", "X-Omitted-Images"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(SecurityMiddleware)
	r.Use(ContentTypeMiddleware)

	h.RegisterChiRoutes(r)
	return r
}
