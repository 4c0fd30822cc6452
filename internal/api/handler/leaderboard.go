package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/albapepper/scoracle-leaderboard/internal/api/respond"
	"github.com/albapepper/scoracle-leaderboard/internal/archive"
	"github.com/albapepper/scoracle-leaderboard/internal/cache"
	"github.com/albapepper/scoracle-leaderboard/internal/leaderboard"
)

const maxListLimit = 500

// GetLeaderboard returns the ranked teams of the current snapshot.
// ?limit=N truncates the team list; stats still cover every team.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 0)
	if !ok {
		return
	}
	snap, ok := h.current(w, r)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%d", snap.ID, limit)
	h.serveCached(w, r, cacheKey, func() (interface{}, error) {
		return snap.Document(limit), nil
	})
}

// GetStats returns only the summary statistics.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w, r)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("stats:%s", snap.ID)
	h.serveCached(w, r, cacheKey, func() (interface{}, error) {
		return map[string]interface{}{
			"snapshot_id": snap.ID.String(),
			"fallback":    snap.Fallback,
			"stats":       snap.Stats,
		}, nil
	})
}

// GetTeam returns one team with its rank.
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	// chi matches on RawPath when the request carried one, leaving the
	// param escaped; otherwise it is already decoded.
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	snap, ok := h.current(w, r)
	if !ok {
		return
	}

	team, rank, found := snap.Teams.Find(name)
	if !found {
		respond.Fail(w, r, respond.NotFound("No team named "+name))
		return
	}
	respond.Object(w, http.StatusOK, leaderboard.NewEntry(rank, team))
}

// ListSnapshots returns recently archived snapshot summaries.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if !h.requireArchive(w, r) {
		return
	}
	limit, ok := parseLimit(w, r, 20)
	if !ok {
		return
	}

	summaries, err := h.archive.Recent(r.Context(), limit)
	if err != nil {
		respond.Fail(w, r, respond.Internal("ARCHIVE_ERROR", "Failed to list snapshots", err))
		return
	}
	if summaries == nil {
		summaries = []archive.Summary{}
	}
	respond.Object(w, http.StatusOK, map[string]interface{}{
		"snapshots": summaries,
		"count":     len(summaries),
	})
}

// GetSnapshot passes an archived snapshot document through unchanged.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if !h.requireArchive(w, r) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "snapshotID"))
	if err != nil {
		respond.Fail(w, r, respond.BadRequest("INVALID_ID", "snapshot id must be a UUID"))
		return
	}

	cacheKey := "snapshot:" + id.String()
	ttl := cache.TTLLeaderboard
	if data, etag, ok := h.cache.Get(cacheKey); ok {
		respond.Payload{Data: data, ETag: etag, TTL: ttl, Hit: true}.Serve(w, r)
		return
	}

	raw, err := h.archive.Payload(r.Context(), id)
	if errors.Is(err, archive.ErrNotFound) {
		respond.Fail(w, r, respond.NotFound("No snapshot "+id.String()))
		return
	}
	if err != nil {
		respond.Fail(w, r, respond.Internal("ARCHIVE_ERROR", "Failed to load snapshot", err))
		return
	}

	etag := h.cache.Set(cacheKey, raw, ttl)
	respond.Payload{Data: raw, ETag: etag, TTL: ttl}.Serve(w, r)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (h *Handler) current(w http.ResponseWriter, r *http.Request) (leaderboard.Snapshot, bool) {
	snap, ok := h.board.Current()
	if !ok {
		w.Header().Set("Retry-After", "5")
		respond.Fail(w, r, respond.ErrNotReady)
		return leaderboard.Snapshot{}, false
	}
	return snap, true
}

func (h *Handler) requireArchive(w http.ResponseWriter, r *http.Request) bool {
	if h.archive == nil {
		respond.Fail(w, r, respond.ErrArchiveDisabled)
		return false
	}
	return true
}

// serveCached answers from the cache when possible, honoring If-None-Match,
// and otherwise encodes build's result and caches it.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, build func() (interface{}, error)) {
	ttl := cache.TTLLeaderboard

	if data, etag, ok := h.cache.Get(key); ok {
		respond.Payload{Data: data, ETag: etag, TTL: ttl, Hit: true}.Serve(w, r)
		return
	}

	v, err := build()
	if err != nil {
		respond.Fail(w, r, respond.Internal("INTERNAL", "Failed to build response", err))
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		respond.Fail(w, r, respond.Internal("INTERNAL", "Failed to encode response", err))
		return
	}

	etag := h.cache.Set(key, data, ttl)
	respond.Payload{Data: data, ETag: etag, TTL: ttl}.Serve(w, r)
}

func parseLimit(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxListLimit {
		respond.Fail(w, r, respond.BadRequest("INVALID_LIMIT",
			fmt.Sprintf("limit must be an integer between 0 and %d", maxListLimit)))
		return 0, false
	}
	return n, true
}
