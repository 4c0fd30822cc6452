package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/scoracle-leaderboard/internal/api/handler"
	"github.com/albapepper/scoracle-leaderboard/internal/cache"
	"github.com/albapepper/scoracle-leaderboard/internal/config"
	"github.com/albapepper/scoracle-leaderboard/internal/leaderboard"
)

// Deps are the collaborators the router wires into handlers. Archive and DB
// are nil when no database is configured.
type Deps struct {
	Board   *leaderboard.Board
	Cache   *cache.Cache
	Archive handler.Archive
	DB      handler.Pinger
	Logger  *slog.Logger
}

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(deps Deps, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if deps.Logger != nil && cfg.Debug {
		r.Use(LoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(deps.Board, deps.Cache, cfg, deps.Archive, deps.DB)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Swagger UI over the embedded OpenAPI description
	r.Get(OpenAPIPath, serveOpenAPI)
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL(OpenAPIPath),
		httpSwagger.DocExpansion("list"),
	))

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", h.GetLeaderboard)
			r.Get("/stats", h.GetStats)
			r.Get("/teams/{name}", h.GetTeam)
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", h.ListSnapshots)
			r.Get("/{snapshotID}", h.GetSnapshot)
		})
	})

	return r
}
