package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-leaderboard/internal/ranking"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func csvServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadFirstSuccessWins(t *testing.T) {
	t.Parallel()

	var failHits, okHits, laterHits int32
	failing := csvServer(t, http.StatusNotFound, "nope", &failHits)
	ok := csvServer(t, http.StatusOK, "Team,#sub1\nA,1\n", &okHits)
	later := csvServer(t, http.StatusOK, "Team,#sub1\nB,2\n", &laterHits)

	l := NewLoader(quietLogger())
	res := l.Load(context.Background(), []string{failing.URL, ok.URL, later.URL})

	assert.False(t, res.Fallback)
	assert.Equal(t, ok.URL, res.Location)
	assert.Equal(t, "Team,#sub1\nA,1\n", res.Text)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, http.StatusNotFound, res.Attempts[0].Status)
	assert.NotEmpty(t, res.Attempts[0].Error)
	assert.Empty(t, res.Attempts[1].Error)

	assert.EqualValues(t, 1, failHits)
	assert.EqualValues(t, 1, okHits)
	assert.EqualValues(t, 0, laterHits, "candidates after the first success must not be fetched")
}

func TestLoadReadsLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "Leaderboard.csv")
	require.NoError(t, os.WriteFile(path, []byte("Team,#sub1\nLocal,42\n"), 0o644))

	l := NewLoader(quietLogger())
	res := l.Load(context.Background(), []string{filepath.Join(dir, "missing.csv"), path})

	assert.False(t, res.Fallback)
	assert.Equal(t, path, res.Location)
	assert.Contains(t, res.Text, "Local,42")
	require.Len(t, res.Attempts, 2)
	assert.NotEmpty(t, res.Attempts[0].Error)

	res = l.Load(context.Background(), []string{"file://" + path})
	assert.False(t, res.Fallback)
	assert.Contains(t, res.Text, "Local,42")
}

func TestLoadAllFailUsesFallback(t *testing.T) {
	t.Parallel()

	broken := csvServer(t, http.StatusInternalServerError, "boom", nil)
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	l := NewLoader(quietLogger())
	res := l.Load(context.Background(), []string{
		broken.URL,
		closedURL,
		filepath.Join(t.TempDir(), "absent.csv"),
		"",
	})

	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackLocation, res.Location)
	assert.Len(t, res.Attempts, 4)
	for _, a := range res.Attempts {
		assert.NotEmpty(t, a.Error, a.Location)
	}

	teams := ranking.Rank(res.Text)
	require.Len(t, teams, 10)
	want := []string{"NULL", "27", "ACVcoders", "camgbi", "AITrio", "NoCap", "Xtreme", "NaN", "TP BANK", "Kanami"}
	got := make([]string, len(teams))
	for i, team := range teams {
		got[i] = team.Name
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 85.1, teams[0].RankScore)
	assert.Equal(t, 71.7, teams[9].RankScore)
}

func TestLoadNoCandidates(t *testing.T) {
	t.Parallel()

	res := NewLoader(quietLogger()).Load(context.Background(), nil)
	assert.True(t, res.Fallback)
	assert.Empty(t, res.Attempts)
	assert.Equal(t, FallbackCSV, res.Text)
}

func TestLoadCancelledContext(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := csvServer(t, http.StatusOK, "Team\nA\n", &hits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewLoader(quietLogger()).Load(ctx, []string{srv.URL})
	assert.True(t, res.Fallback)
	assert.EqualValues(t, 0, hits)
}

type stubDoer struct {
	calls []string
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.calls = append(s.calls, req.URL.String())
	return &http.Response{
		StatusCode: http.StatusNoContent,
		Status:     "204 No Content",
		Body:       io.NopCloser(http.NoBody),
	}, nil
}

func TestLoadWithCustomClient(t *testing.T) {
	t.Parallel()

	doer := &stubDoer{}
	l := NewLoader(quietLogger(), WithHTTPClient(doer), WithRequestsPerMinute(0))
	res := l.Load(context.Background(), []string{"https://example.invalid/board.csv"})

	assert.False(t, res.Fallback)
	assert.Equal(t, "", res.Text)
	assert.Equal(t, []string{"https://example.invalid/board.csv"}, doer.calls)
	assert.Contains(t, res.Summary(), "fallback=false")
}

func TestRequestsPerMinutePacesFetches(t *testing.T) {
	t.Parallel()

	var hits int32
	failing := csvServer(t, http.StatusServiceUnavailable, "", &hits)
	ok := csvServer(t, http.StatusOK, "Team,#sub1\nA,1\n", &hits)

	// 600/min allows one request every 100ms after the first.
	l := NewLoader(quietLogger(), WithRequestsPerMinute(600))
	start := time.Now()
	res := l.Load(context.Background(), []string{failing.URL, ok.URL})
	elapsed := time.Since(start)

	assert.False(t, res.Fallback)
	assert.Equal(t, ok.URL, res.Location)
	assert.EqualValues(t, 2, hits)
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
}

func TestRateLimitWaitCancelledUsesFallback(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := csvServer(t, http.StatusOK, "Team,#sub1\nA,1\n", &hits)

	// One request per minute: the first load spends the only token.
	l := NewLoader(quietLogger(), WithRequestsPerMinute(1))
	first := l.Load(context.Background(), []string{srv.URL})
	require.False(t, first.Fallback)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := l.Load(ctx, []string{srv.URL})

	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackLocation, res.Location)
	require.Len(t, res.Attempts, 1)
	assert.Contains(t, res.Attempts[0].Error, "rate limit wait")
	assert.EqualValues(t, 1, hits)
}

func TestRequestsPerMinuteDisabled(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := csvServer(t, http.StatusOK, "Team,#sub1\nA,1\n", &hits)
	l := NewLoader(quietLogger(), WithRequestsPerMinute(0))

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.False(t, l.Load(context.Background(), []string{srv.URL}).Fallback)
	}
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.EqualValues(t, 3, hits)
}
