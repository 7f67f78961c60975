package stats

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Drop reasons counted during ingestion.
const (
	DropParse          = "parse"
	DropBandFiltered   = "band_filtered"
	DropMissingLocator = "missing_locator"
	DropInvalidGrid    = "grid_invalid"
)

var dropReasons = []string{DropParse, DropBandFiltered, DropMissingLocator, DropInvalidGrid}

// recentSize bounds the ring of recent ingest decisions kept for debugging.
const recentSize = 50

// Decision records the outcome of one ingested message.
type Decision struct {
	Reason string    `json:"reason"`
	Band   string    `json:"band,omitempty"`
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

// Persister stores a statistics snapshot somewhere durable.
type Persister interface {
	StoreIngestStats(stats map[string]any) error
}

// Stats tracks ingest statistics: message counts, per-reason drops and a
// short ring of recent decisions.
type Stats struct {
	Seen      uint64
	Processed uint64

	mu        sync.RWMutex
	drops     map[string]*uint64
	recent    []Decision
	recentPos int
	lastMsg   time.Time
	persister Persister
}

// New creates a zeroed Stats instance.
func New() *Stats {
	drops := make(map[string]*uint64, len(dropReasons))
	for _, reason := range dropReasons {
		drops[reason] = new(uint64)
	}
	return &Stats{
		drops:   drops,
		recent:  make([]Decision, 0, recentSize),
		lastMsg: time.Now(),
	}
}

// SetPersister sets the sink for periodic persistence.
func (s *Stats) SetPersister(p Persister) {
	s.mu.Lock()
	s.persister = p
	s.mu.Unlock()
}

// IncrementSeen counts a message received from the feed.
func (s *Stats) IncrementSeen() {
	atomic.AddUint64(&s.Seen, 1)
	s.mu.Lock()
	s.lastMsg = time.Now()
	s.mu.Unlock()
}

// IncrementProcessed counts a message that produced stored spots.
func (s *Stats) IncrementProcessed() {
	atomic.AddUint64(&s.Processed, 1)
}

// IncrementDrop counts a dropped message by reason. Unknown reasons are
// ignored rather than invented at runtime.
func (s *Stats) IncrementDrop(reason string) {
	s.mu.RLock()
	counter, ok := s.drops[reason]
	s.mu.RUnlock()
	if ok {
		atomic.AddUint64(counter, 1)
	}
}

// RecordDecision appends to the recent-decisions ring.
func (s *Stats) RecordDecision(d Decision) {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	s.mu.Lock()
	if len(s.recent) < recentSize {
		s.recent = append(s.recent, d)
	} else {
		s.recent[s.recentPos] = d
		s.recentPos = (s.recentPos + 1) % recentSize
	}
	s.mu.Unlock()
}

// Recent returns the recent decisions, oldest first.
func (s *Stats) Recent() []Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Decision, 0, len(s.recent))
	if len(s.recent) == recentSize {
		out = append(out, s.recent[s.recentPos:]...)
		out = append(out, s.recent[:s.recentPos]...)
	} else {
		out = append(out, s.recent...)
	}
	return out
}

// Drops returns a copy of the per-reason drop counters.
func (s *Stats) Drops() map[string]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]uint64, len(s.drops))
	for reason, counter := range s.drops {
		out[reason] = atomic.LoadUint64(counter)
	}
	return out
}

// GetStats returns a snapshot of all counters.
func (s *Stats) GetStats() map[string]any {
	s.mu.RLock()
	lastMsg := s.lastMsg
	s.mu.RUnlock()

	return map[string]any{
		"seen":              atomic.LoadUint64(&s.Seen),
		"processed":         atomic.LoadUint64(&s.Processed),
		"drops":             s.Drops(),
		"last_message_time": lastMsg,
	}
}

// String renders the counters for periodic log lines.
func (s *Stats) String() string {
	drops := s.Drops()
	return fmt.Sprintf("seen=%d processed=%d drop_parse=%d drop_band=%d drop_missing_loc=%d drop_grid=%d",
		atomic.LoadUint64(&s.Seen),
		atomic.LoadUint64(&s.Processed),
		drops[DropParse],
		drops[DropBandFiltered],
		drops[DropMissingLocator],
		drops[DropInvalidGrid],
	)
}

// Persist stores the current snapshot through the configured persister.
func (s *Stats) Persist() error {
	s.mu.RLock()
	p := s.persister
	s.mu.RUnlock()
	if p == nil {
		return fmt.Errorf("stats persister not set")
	}
	return p.StoreIngestStats(s.GetStats())
}

// StartPersistence persists on a fixed interval until the context is
// canceled, with a final flush on shutdown.
func (s *Stats) StartPersistence(ctx context.Context, interval time.Duration, onErr func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Persist(); err != nil && onErr != nil {
				onErr(err)
			}
			return
		case <-ticker.C:
			if err := s.Persist(); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
