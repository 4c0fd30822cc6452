package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-leaderboard/internal/archive"
	"github.com/albapepper/scoracle-leaderboard/internal/cache"
	"github.com/albapepper/scoracle-leaderboard/internal/config"
	"github.com/albapepper/scoracle-leaderboard/internal/leaderboard"
	"github.com/albapepper/scoracle-leaderboard/internal/source"
)

func testConfig() *config.Config {
	return &config.Config{
		CORSAllowOrigins:  []string{"http://localhost:3000"},
		RateLimitEnabled:  false,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
}

type fakeArchive struct {
	summaries []archive.Summary
	payloads  map[uuid.UUID][]byte
	err       error
}

func (f *fakeArchive) Recent(context.Context, int) ([]archive.Summary, error) {
	return f.summaries, f.err
}

func (f *fakeArchive) Payload(_ context.Context, id uuid.UUID) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, ok := f.payloads[id]
	if !ok {
		return nil, archive.ErrNotFound
	}
	return raw, nil
}

type fakePinger struct{ err error }

func (f fakePinger) HealthCheck(context.Context) error { return f.err }

func newTestServer(t *testing.T, deps Deps) *httptest.Server {
	t.Helper()
	if deps.Board == nil {
		deps.Board = leaderboard.NewBoard()
	}
	if deps.Cache == nil {
		deps.Cache = cache.New(true)
	}
	srv := httptest.NewServer(NewRouter(deps, testConfig()))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, rawURL string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestLeaderboardNotReady(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Deps{})
	resp := get(t, srv.URL+"/api/v1/leaderboard", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "NOT_READY", body["error"]["code"])
}

func TestLeaderboardServesFallback(t *testing.T) {
	t.Parallel()

	board := leaderboard.NewBoard()
	board.Publish(context.Background(), leaderboard.FromText(source.FallbackCSV, source.FallbackLocation, true, nil))
	srv := newTestServer(t, Deps{Board: board})

	resp := get(t, srv.URL+"/api/v1/leaderboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	var doc leaderboard.Document
	decode(t, resp, &doc)
	assert.True(t, doc.Fallback)
	require.Len(t, doc.Teams, 10)
	assert.Equal(t, "NULL", doc.Teams[0].Name)
	assert.Equal(t, 1, doc.Teams[0].Rank)
	assert.Equal(t, leaderboard.TierExcellent, doc.Teams[0].Tier)
	assert.Equal(t, 10, doc.Stats.TeamCount)
	assert.Equal(t, 85.1, doc.Stats.MaxScore)

	cached := get(t, srv.URL+"/api/v1/leaderboard", nil)
	assert.Equal(t, "HIT", cached.Header.Get("X-Cache"))

	notModified := get(t, srv.URL+"/api/v1/leaderboard", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, notModified.StatusCode)
}

func TestLeaderboardLimit(t *testing.T) {
	t.Parallel()

	board := leaderboard.NewBoard()
	board.Publish(context.Background(), leaderboard.FromText(source.FallbackCSV, source.FallbackLocation, true, nil))
	srv := newTestServer(t, Deps{Board: board})

	resp := get(t, srv.URL+"/api/v1/leaderboard?limit=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc leaderboard.Document
	decode(t, resp, &doc)
	assert.Len(t, doc.Teams, 3)
	assert.Equal(t, 10, doc.Stats.TeamCount)

	bad := get(t, srv.URL+"/api/v1/leaderboard?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestStatsAndTeam(t *testing.T) {
	t.Parallel()

	board := leaderboard.NewBoard()
	board.Publish(context.Background(), leaderboard.FromText(source.FallbackCSV, source.FallbackLocation, true, nil))
	srv := newTestServer(t, Deps{Board: board})

	resp := get(t, srv.URL+"/api/v1/leaderboard/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		Stats struct {
			TeamCount int     `json:"team_count"`
			MaxScore  float64 `json:"max_score"`
		} `json:"stats"`
	}
	decode(t, resp, &stats)
	assert.Equal(t, 10, stats.Stats.TeamCount)
	assert.Equal(t, 85.1, stats.Stats.MaxScore)

	team := get(t, srv.URL+"/api/v1/leaderboard/teams/"+url.PathEscape("TP BANK"), nil)
	require.Equal(t, http.StatusOK, team.StatusCode)
	var entry leaderboard.Entry
	decode(t, team, &entry)
	assert.Equal(t, "TP BANK", entry.Name)
	assert.Equal(t, 9, entry.Rank)

	missing := get(t, srv.URL+"/api/v1/leaderboard/teams/nobody", nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestTeamNameDecodedOnce(t *testing.T) {
	t.Parallel()

	board := leaderboard.NewBoard()
	board.Publish(context.Background(), leaderboard.FromText(
		"Team,#sub1\nA,90\n%41,80\na/b,70\n100%,60\n", "a", false, nil))
	srv := newTestServer(t, Deps{Board: board})

	for _, tc := range []struct {
		name string
		rank int
	}{
		{"A", 1},
		{"%41", 2},
		{"a/b", 3},
		{"100%", 4},
	} {
		resp := get(t, srv.URL+"/api/v1/leaderboard/teams/"+url.PathEscape(tc.name), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, tc.name)
		var entry leaderboard.Entry
		decode(t, resp, &entry)
		assert.Equal(t, tc.name, entry.Name)
		assert.Equal(t, tc.rank, entry.Rank, tc.name)
	}
}

func TestNewSnapshotReplacesCachedResponse(t *testing.T) {
	t.Parallel()

	board := leaderboard.NewBoard()
	c := cache.New(true)
	board.OnUpdate(func(leaderboard.Snapshot) { c.Purge() })
	srv := newTestServer(t, Deps{Board: board, Cache: c})

	board.Publish(context.Background(), leaderboard.FromText("Team,#sub1\nOld,50\n", "a", false, nil))
	var first leaderboard.Document
	decode(t, get(t, srv.URL+"/api/v1/leaderboard", nil), &first)
	require.Len(t, first.Teams, 1)
	assert.Equal(t, "Old", first.Teams[0].Name)

	board.Publish(context.Background(), leaderboard.FromText("Team,#sub1\nNew,60\n", "b", false, nil))
	resp := get(t, srv.URL+"/api/v1/leaderboard", nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	var second leaderboard.Document
	decode(t, resp, &second)
	require.Len(t, second.Teams, 1)
	assert.Equal(t, "New", second.Teams[0].Name)
}

func TestSnapshotsArchiveDisabled(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Deps{})
	resp := get(t, srv.URL+"/api/v1/snapshots", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	db := get(t, srv.URL+"/health/db", nil)
	assert.Equal(t, http.StatusServiceUnavailable, db.StatusCode)
}

func TestSnapshotsArchive(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	arch := &fakeArchive{
		summaries: []archive.Summary{{ID: id, Source: "remote", TeamCount: 2}},
		payloads:  map[uuid.UUID][]byte{id: []byte(`{"id":"` + id.String() + `"}`)},
	}
	srv := newTestServer(t, Deps{Archive: arch, DB: fakePinger{}})

	resp := get(t, srv.URL+"/api/v1/snapshots?limit=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Count     int               `json:"count"`
		Snapshots []archive.Summary `json:"snapshots"`
	}
	decode(t, resp, &list)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, id, list.Snapshots[0].ID)

	one := get(t, srv.URL+"/api/v1/snapshots/"+id.String(), nil)
	require.Equal(t, http.StatusOK, one.StatusCode)
	var payload map[string]string
	decode(t, one, &payload)
	assert.Equal(t, id.String(), payload["id"])

	missing := get(t, srv.URL+"/api/v1/snapshots/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	invalid := get(t, srv.URL+"/api/v1/snapshots/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, invalid.StatusCode)

	db := get(t, srv.URL+"/health/db", nil)
	assert.Equal(t, http.StatusOK, db.StatusCode)
}

func TestSnapshotsArchiveError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Deps{Archive: &fakeArchive{err: errors.New("db down")}, DB: fakePinger{err: errors.New("db down")}})

	resp := get(t, srv.URL+"/api/v1/snapshots", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	db := get(t, srv.URL+"/health/db", nil)
	assert.Equal(t, http.StatusServiceUnavailable, db.StatusCode)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	board := leaderboard.NewBoard()
	srv := newTestServer(t, Deps{Board: board})

	var before map[string]interface{}
	decode(t, get(t, srv.URL+"/health", nil), &before)
	assert.Equal(t, false, before["ready"])

	board.Publish(context.Background(), leaderboard.FromText("Team,#sub1\nA,1\n", "a.csv", false, nil))
	var after map[string]interface{}
	decode(t, get(t, srv.URL+"/health", nil), &after)
	assert.Equal(t, true, after["ready"])
	assert.Equal(t, "a.csv", after["source"])

	resp := get(t, srv.URL+"/health/cache", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Hour

	srv := httptest.NewServer(NewRouter(Deps{Board: leaderboard.NewBoard(), Cache: cache.New(false)}, cfg))
	t.Cleanup(srv.Close)

	first := get(t, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, first.StatusCode)
	second := get(t, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "3600", second.Header.Get("Retry-After"))
}

func TestDocsServed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Deps{})

	spec := get(t, srv.URL+"/openapi.json", nil)
	require.Equal(t, http.StatusOK, spec.StatusCode)
	assert.Equal(t, "application/json", spec.Header.Get("Content-Type"))
	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	decode(t, spec, &doc)
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	for _, path := range []string{
		"/api/v1/leaderboard",
		"/api/v1/leaderboard/stats",
		"/api/v1/leaderboard/teams/{name}",
		"/api/v1/snapshots",
		"/api/v1/snapshots/{snapshotID}",
		"/health",
	} {
		assert.Contains(t, doc.Paths, path)
	}

	ui := get(t, srv.URL+"/docs/index.html", nil)
	require.Equal(t, http.StatusOK, ui.StatusCode)
	body, err := io.ReadAll(ui.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "swagger-ui")
}
