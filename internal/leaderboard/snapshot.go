// Package leaderboard assembles ranked snapshots and holds the latest one for
// readers.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-leaderboard/internal/ranking"
	"github.com/albapepper/scoracle-leaderboard/internal/source"
)

// Loader is satisfied by *source.Loader.
type Loader interface {
	Load(ctx context.Context, candidates []string) source.Result
}

// Snapshot is one immutable load+rank result.
type Snapshot struct {
	ID       uuid.UUID
	Source   string
	Fallback bool
	Attempts []source.Attempt
	Teams    ranking.RankedList
	Stats    ranking.Statistics
	LoadedAt time.Time
}

// Summary returns a human-readable summary.
func (s *Snapshot) Summary() string {
	return fmt.Sprintf("id=%s source=%s fallback=%v teams=%d max=%.1f mean=%.1f",
		s.ID, s.Source, s.Fallback, s.Stats.TeamCount, s.Stats.MaxScore, s.Stats.MeanScore)
}

// Build performs a single load and rank.
func Build(ctx context.Context, loader Loader, candidates []string) Snapshot {
	res := loader.Load(ctx, candidates)
	return FromText(res.Text, res.Location, res.Fallback, res.Attempts)
}

// FromText ranks already-fetched text into a Snapshot.
func FromText(text, location string, fallback bool, attempts []source.Attempt) Snapshot {
	teams := ranking.Rank(text)
	return Snapshot{
		ID:       uuid.New(),
		Source:   location,
		Fallback: fallback,
		Attempts: attempts,
		Teams:    teams,
		Stats:    teams.Stats(),
		LoadedAt: time.Now().UTC(),
	}
}
