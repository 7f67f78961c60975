package store

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oh2fk/pskprop/internal/types"
)

// DefaultSweepInterval is how often the background sweeper prunes when the
// caller does not override it.
const DefaultSweepInterval = 30 * time.Second

// SpotStore is the live, self-pruning collection of spots. Writes come from
// the ingestion adapter only; the filter engine reads via Snapshot. Memory
// stays proportional to ingest rate × age window because every sweep and
// every snapshot-side caller prunes against the active window.
type SpotStore struct {
	mu    sync.RWMutex
	spots map[types.SpotKey]types.Spot

	clock    clockwork.Clock
	onChange func()
	onPrune  func(removed int)
}

// New creates an empty store using the given clock. A nil clock falls back
// to real time.
func New(clock clockwork.Clock) *SpotStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SpotStore{
		spots: make(map[types.SpotKey]types.Spot),
		clock: clock,
	}
}

// SetOnChange registers a hook invoked after any mutation (upsert or a prune
// that removed something). Called outside the store lock; must not block.
func (s *SpotStore) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetOnPrune registers a hook receiving the eviction count of each sweep
// that removed something. Called outside the store lock.
func (s *SpotStore) SetOnPrune(fn func(removed int)) {
	s.mu.Lock()
	s.onPrune = fn
	s.mu.Unlock()
}

// Upsert inserts a spot or replaces the record with the same identity.
func (s *SpotStore) Upsert(spot types.Spot) {
	s.mu.Lock()
	s.spots[spot.Key()] = spot
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Prune removes every spot older than maxAge relative to now and returns the
// number removed.
func (s *SpotStore) Prune(now time.Time, maxAge time.Duration) int {
	cutoff := now.Add(-maxAge)

	s.mu.Lock()
	removed := 0
	for key, spot := range s.spots {
		if spot.Timestamp.Before(cutoff) {
			delete(s.spots, key)
			removed++
		}
	}
	fn := s.onChange
	pruneFn := s.onPrune
	s.mu.Unlock()

	if removed > 0 {
		if fn != nil {
			fn()
		}
		if pruneFn != nil {
			pruneFn(removed)
		}
	}
	return removed
}

// Snapshot returns a point-in-time copy of all stored spots. The copy is
// taken under a read lock and is the caller's to keep; ingestion is never
// blocked beyond the copy itself.
func (s *SpotStore) Snapshot() []types.Spot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Spot, 0, len(s.spots))
	for _, spot := range s.spots {
		out = append(out, spot)
	}
	return out
}

// Len returns the current number of stored spots.
func (s *SpotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.spots)
}

// Run prunes on a fixed interval until the context is canceled. maxAge is
// read through the callback on every sweep so criteria changes take effect
// without restarting the sweeper.
func (s *SpotStore) Run(ctx context.Context, interval time.Duration, maxAge func() time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Prune(s.clock.Now(), maxAge())
		}
	}
}
