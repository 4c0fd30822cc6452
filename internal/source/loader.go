// Package source fetches raw leaderboard CSV from an ordered list of
// candidate locations.
//
// Candidates are tried one at a time, in order; the first success wins. When
// every candidate fails the built-in fallback dataset is returned, so Load
// always produces text to rank.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
)

// FallbackLocation names the built-in dataset in a Result.
const FallbackLocation = "builtin:fallback"

// HTTPDoer is the subset of *http.Client the loader needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Attempt records the outcome of one candidate.
type Attempt struct {
	Location string `json:"location"`
	Status   int    `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Result is the outcome of a Load.
type Result struct {
	Text     string
	Location string
	Fallback bool
	Attempts []Attempt
}

// Summary returns a human-readable summary of the load.
func (r *Result) Summary() string {
	failed := 0
	for _, a := range r.Attempts {
		if a.Error != "" {
			failed++
		}
	}
	return fmt.Sprintf("location=%s fallback=%v attempts=%d failed=%d bytes=%d",
		r.Location, r.Fallback, len(r.Attempts), failed, len(r.Text))
}

// Loader fetches CSV text from URLs or local files.
type Loader struct {
	httpClient HTTPDoer
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(l *Loader) { l.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.httpClient = &http.Client{Timeout: d} }
}

// WithRequestsPerMinute paces remote fetches. Zero or negative disables pacing.
func WithRequestsPerMinute(n int) Option {
	return func(l *Loader) {
		if n <= 0 {
			l.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		l.limiter = rate.NewLimiter(rate.Limit(float64(n)/60.0), 1)
	}
}

// NewLoader creates a Loader. A nil logger uses slog.Default().
func NewLoader(logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load tries each candidate in order and returns the first successful body.
// Failures are logged and recorded in Result.Attempts. If no candidate
// succeeds, or ctx is cancelled first, the fallback dataset is returned.
func (l *Loader) Load(ctx context.Context, candidates []string) Result {
	var result Result

	for _, loc := range candidates {
		if ctx.Err() != nil {
			l.logger.Info("Source load abandoned", "error", ctx.Err())
			break
		}

		text, status, err := l.fetch(ctx, loc)
		attempt := Attempt{Location: loc, Status: status}
		if err != nil {
			attempt.Error = err.Error()
			result.Attempts = append(result.Attempts, attempt)
			l.logger.Warn("Source candidate failed", "location", loc, "status", status, "error", err)
			continue
		}

		result.Attempts = append(result.Attempts, attempt)
		result.Text = text
		result.Location = loc
		l.logger.Info("Source loaded", "location", loc, "status", status, "bytes", len(text))
		return result
	}

	l.logger.Warn("All sources failed, using fallback dataset", "candidates", len(candidates))
	result.Text = FallbackCSV
	result.Location = FallbackLocation
	result.Fallback = true
	return result
}

// fetch reads one location. Locations that parse as absolute http(s) URLs are
// requested over HTTP; anything else is treated as a file path.
func (l *Loader) fetch(ctx context.Context, loc string) (string, int, error) {
	if u, err := url.ParseRequestURI(loc); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return l.fetchURL(ctx, u.String())
	}
	if u, err := url.Parse(loc); err == nil && u.Scheme == "file" {
		return l.readFile(u.Path)
	}
	return l.readFile(loc)
}

func (l *Loader) fetchURL(ctx context.Context, rawURL string) (string, int, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", 0, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	return string(body), resp.StatusCode, nil
}

func (l *Loader) readFile(path string) (string, int, error) {
	if path == "" {
		return "", 0, errors.New("empty location")
	}
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, maxBodyBytes))
	if err != nil {
		return "", 0, fmt.Errorf("read file: %w", err)
	}
	return string(body), 0, nil
}
