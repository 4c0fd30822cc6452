// Package archive persists leaderboard snapshots to Postgres so past
// rankings can be listed and replayed.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/scoracle-leaderboard/internal/leaderboard"
)

// ErrNotFound is returned when a snapshot id is not archived.
var ErrNotFound = errors.New("snapshot not found")

// Querier is the subset of *pgxpool.Pool the store uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Summary is one archived snapshot without its team list.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"`
	Fallback  bool      `json:"fallback"`
	TeamCount int       `json:"team_count"`
	MaxScore  float64   `json:"max_score"`
	MeanScore float64   `json:"mean_score"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Store reads and writes archived snapshots.
type Store struct {
	q      Querier
	logger *slog.Logger
}

// NewStore creates a Store. A nil logger uses slog.Default().
func NewStore(q Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{q: q, logger: logger}
}

// Save archives a snapshot. Saving the same snapshot twice is a no-op.
func (s *Store) Save(ctx context.Context, snap leaderboard.Snapshot) error {
	payload, err := json.Marshal(snap.Document(0))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.q.Exec(ctx, "insert_snapshot",
		snap.ID, snap.Source, snap.Fallback,
		snap.Stats.TeamCount, snap.Stats.MaxScore, snap.Stats.MeanScore,
		payload, snap.LoadedAt)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// Sink archives every snapshot handed to it; failures are logged, never
// propagated, so a database outage cannot stall refreshes.
func (s *Store) Sink(ctx context.Context, snap leaderboard.Snapshot) {
	if err := s.Save(ctx, snap); err != nil {
		s.logger.Warn("Archive: failed to save snapshot", "id", snap.ID, "error", err)
		return
	}
	s.logger.Debug("Archive: saved snapshot", "id", snap.ID)
}

// Recent lists the newest snapshots first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.q.Query(ctx, "recent_snapshots", limit)
	if err != nil {
		return nil, fmt.Errorf("query recent snapshots: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Source, &sum.Fallback,
			&sum.TeamCount, &sum.MaxScore, &sum.MeanScore, &sum.LoadedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// Payload returns the archived JSON document of one snapshot.
func (s *Store) Payload(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var raw []byte
	err := s.q.QueryRow(ctx, "snapshot_payload", id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return raw, nil
}

// Prune deletes snapshots loaded before cutoff and reports how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, "prune_snapshots", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
