// Package handler provides HTTP handlers for all API endpoints.
// Leaderboard reads come from the in-memory board; archived snapshots are
// passed through from Postgres as raw JSON.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-leaderboard/internal/api/respond"
	"github.com/albapepper/scoracle-leaderboard/internal/archive"
	"github.com/albapepper/scoracle-leaderboard/internal/cache"
	"github.com/albapepper/scoracle-leaderboard/internal/config"
	"github.com/albapepper/scoracle-leaderboard/internal/leaderboard"
)

// Archive is the snapshot history the handlers read.
type Archive interface {
	Recent(ctx context.Context, limit int) ([]archive.Summary, error)
	Payload(ctx context.Context, id uuid.UUID) ([]byte, error)
}

// Pinger reports database reachability.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	board   *leaderboard.Board
	cache   *cache.Cache
	cfg     *config.Config
	archive Archive
	db      Pinger
}

// New creates a Handler with shared dependencies. archive and db may be nil
// when no database is configured.
func New(board *leaderboard.Board, c *cache.Cache, cfg *config.Config, arch Archive, db Pinger) *Handler {
	return &Handler{
		board:   board,
		cache:   c,
		cfg:     cfg,
		archive: arch,
		db:      db,
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.Object(w, http.StatusOK, map[string]interface{}{
		"name":    "Scoracle Leaderboard API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": []string{
			"/api/v1/leaderboard",
			"/api/v1/leaderboard/stats",
			"/api/v1/leaderboard/teams/{name}",
			"/api/v1/snapshots",
		},
		"docs":            "/docs/index.html",
		"archive_enabled": h.archive != nil,
	})
}

// HealthCheck returns basic health status and the age of the board.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"ready":     false,
	}
	if snap, ok := h.board.Current(); ok {
		body["ready"] = true
		body["last_refresh"] = snap.LoadedAt.Format(time.RFC3339)
		body["source"] = snap.Source
		body["fallback"] = snap.Fallback
	}
	respond.Object(w, http.StatusOK, body)
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respond.Object(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unavailable",
			"database":  "not configured",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	if err := h.db.HealthCheck(r.Context()); err != nil {
		respond.Object(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.Object(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.Object(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
