// Package refresh re-runs the load and rank flow on a fixed interval and
// hands each snapshot to registered sinks.
//
// The scheduler owns the timer; the ranking core stays stateless. A run that
// is still in progress when ctx is cancelled is abandoned.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-leaderboard/internal/leaderboard"
)

// DefaultInterval matches the leaderboard page's auto-refresh.
const DefaultInterval = 2 * time.Minute

// Sink receives every snapshot produced by a run.
type Sink func(ctx context.Context, snap leaderboard.Snapshot)

// Config controls a Scheduler. Zero Interval uses DefaultInterval.
type Config struct {
	Interval   time.Duration
	Candidates []string
}

// Scheduler drives periodic refreshes.
type Scheduler struct {
	cfg    Config
	loader leaderboard.Loader
	sinks  []Sink
	logger *slog.Logger
}

// New creates a Scheduler. A nil logger uses slog.Default().
func New(cfg Config, loader leaderboard.Loader, logger *slog.Logger, sinks ...Sink) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Scheduler{cfg: cfg, loader: loader, sinks: sinks, logger: logger}
}

// RunOnce performs a single load+rank and delivers it to every sink.
func (s *Scheduler) RunOnce(ctx context.Context) leaderboard.Snapshot {
	start := time.Now()
	snap := leaderboard.Build(ctx, s.loader, s.cfg.Candidates)
	if ctx.Err() != nil {
		s.logger.Info("Refresh abandoned", "error", ctx.Err())
		return snap
	}
	for _, sink := range s.sinks {
		sink(ctx, snap)
	}
	s.logger.Info("Refresh complete",
		"duration", time.Since(start).Round(time.Millisecond),
		"summary", snap.Summary())
	return snap
}

// Start runs immediately, then on every tick. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Refresh scheduler started",
		"interval", s.cfg.Interval,
		"candidates", len(s.cfg.Candidates))

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	runLoop(ctx, ticker.C, func() { s.RunOnce(ctx) })

	s.logger.Info("Refresh scheduler stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}
