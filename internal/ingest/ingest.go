package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/oh2fk/pskprop/internal/band"
	"github.com/oh2fk/pskprop/internal/broker"
	"github.com/oh2fk/pskprop/internal/metrics"
	"github.com/oh2fk/pskprop/internal/stats"
	"github.com/oh2fk/pskprop/internal/store"
	"github.com/oh2fk/pskprop/internal/types"
)

// Broker is the subscribe side of the feed connection. Satisfied by
// *broker.Client.
type Broker interface {
	Subscribe(subject string, handler func(data []byte)) (broker.Subscription, error)
}

// Upserter is the write-side of the spot store plus the optional mirror
// the adapter feeds.
type Upserter interface {
	Upsert(spot types.Spot)
	Len() int
}

// Mirror receives a copy of every stored spot, best-effort. Used for the
// Redis warm-start cache; failures are logged, never propagated.
type Mirror interface {
	StoreSpot(spot types.Spot) error
}

// Manager owns the per-band feed subscriptions and the decode path between
// the broker and the spot store. Band selection changes re-subscribe on the
// fly; everything else flows through without touching the subscriptions.
type Manager struct {
	broker  Broker
	store   Upserter
	stats   *stats.Stats
	metrics *metrics.Metrics
	clock   clockwork.Clock
	logger  *slog.Logger
	mirror  Mirror

	mu   sync.Mutex
	subs map[string]broker.Subscription
}

// New creates a manager with no active subscriptions. The clock stamps
// reports that arrive without their own timestamp; nil falls back to real
// time.
func New(b Broker, st Upserter, ingestStats *stats.Stats, m *metrics.Metrics, clock clockwork.Clock, logger *slog.Logger) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		broker:  b,
		store:   st,
		stats:   ingestStats,
		metrics: m,
		clock:   clock,
		logger:  logger,
		subs:    make(map[string]broker.Subscription),
	}
}

// SetMirror attaches a best-effort spot mirror.
func (m *Manager) SetMirror(mirror Mirror) {
	m.mu.Lock()
	m.mirror = mirror
	m.mu.Unlock()
}

var _ Upserter = (*store.SpotStore)(nil)

// SetBands reconciles the active subscriptions against the wanted band set:
// removed bands are unsubscribed, added bands subscribed, unchanged ones
// left alone so no in-flight messages are lost.
func (m *Manager) SetBands(bands []string) error {
	wanted := make(map[string]bool, len(bands))
	for _, name := range bands {
		if !band.IsValid(name) {
			return fmt.Errorf("unknown band %q", name)
		}
		wanted[name] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, sub := range m.subs {
		if wanted[name] {
			continue
		}
		if err := sub.Unsubscribe(); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribe %s: %w", name, err))
		}
		delete(m.subs, name)
		m.logger.Info("unsubscribed from band", "band", name)
	}

	for name := range wanted {
		if _, ok := m.subs[name]; ok {
			continue
		}
		sub, err := m.broker.Subscribe(broker.Subject(name), m.handle)
		if err != nil {
			errs = append(errs, fmt.Errorf("subscribe %s: %w", name, err))
			continue
		}
		m.subs[name] = sub
		m.logger.Info("subscribed to band", "band", name, "subject", broker.Subject(name))
	}

	return errors.Join(errs...)
}

// Bands returns the currently subscribed bands, sorted.
func (m *Manager) Bands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.subs))
	for name := range m.subs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Close drops all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, sub := range m.subs {
		if err := sub.Unsubscribe(); err != nil {
			m.logger.Warn("failed to unsubscribe", "band", name, "error", err)
		}
		delete(m.subs, name)
	}
}

// handle processes one feed message. The feed is best-effort telemetry:
// anything malformed is counted and dropped, never surfaced as an error.
func (m *Manager) handle(data []byte) {
	start := m.clock.Now()
	m.stats.IncrementSeen()
	m.metrics.MessagesSeen.Inc()

	spots, err := Decode(data, start.UTC())
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			m.stats.IncrementDrop(decodeErr.Reason)
			m.stats.RecordDecision(stats.Decision{Reason: decodeErr.Reason, Detail: decodeErr.Detail})
			m.metrics.Dropped.WithLabelValues(decodeErr.Reason).Inc()
		}
		m.logger.Debug("dropped feed message", "error", err)
		return
	}

	m.mu.Lock()
	_, enabled := m.subs[spots[0].Band]
	mirror := m.mirror
	m.mu.Unlock()

	// A payload can name a band other than its subject's; count it the same
	// way an unresolvable band is counted.
	if !enabled {
		m.stats.IncrementDrop(stats.DropBandFiltered)
		m.stats.RecordDecision(stats.Decision{Reason: stats.DropBandFiltered, Band: spots[0].Band})
		m.metrics.Dropped.WithLabelValues(stats.DropBandFiltered).Inc()
		return
	}

	for _, spot := range spots {
		m.store.Upsert(spot)
		m.metrics.SpotsIngested.Inc()
		if mirror != nil {
			if err := mirror.StoreSpot(spot); err != nil {
				m.logger.Debug("spot mirror write failed", "error", err)
			}
		}
	}

	m.stats.IncrementProcessed()
	m.stats.RecordDecision(stats.Decision{Reason: "ok", Band: spots[0].Band})
	m.metrics.StoreSize.Set(float64(m.store.Len()))
	m.metrics.DecodeLatency.Observe(m.clock.Since(start).Seconds())
}
