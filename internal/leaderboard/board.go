package leaderboard

import (
	"context"
	"sync"
)

// Board keeps the most recent snapshot for concurrent readers. A newer
// snapshot fully replaces the previous one.
type Board struct {
	mu       sync.RWMutex
	current  *Snapshot
	onUpdate []func(Snapshot)
}

// NewBoard returns an empty Board.
func NewBoard() *Board {
	return &Board{}
}

// OnUpdate registers fn to run after each Publish, e.g. to purge caches.
func (b *Board) OnUpdate(fn func(Snapshot)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onUpdate = append(b.onUpdate, fn)
}

// Publish stores snap as the current snapshot. Its signature matches a
// refresh sink.
func (b *Board) Publish(_ context.Context, snap Snapshot) {
	b.mu.Lock()
	b.current = &snap
	hooks := append([]func(Snapshot){}, b.onUpdate...)
	b.mu.Unlock()

	for _, fn := range hooks {
		fn(snap)
	}
}

// Current returns the latest snapshot, or false before the first Publish.
func (b *Board) Current() (Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return Snapshot{}, false
	}
	return *b.current, true
}
