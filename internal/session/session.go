package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oh2fk/pskprop/internal/filter"
	"github.com/oh2fk/pskprop/internal/geo"
	"github.com/oh2fk/pskprop/internal/hub"
	"github.com/oh2fk/pskprop/internal/projection"
	"github.com/oh2fk/pskprop/internal/types"
)

// Snapshotter is the read side of the spot store.
type Snapshotter interface {
	Snapshot() []types.Spot
}

// Resubscriber reconciles broker subscriptions when the band selection
// changes. Satisfied by the ingest manager.
type Resubscriber interface {
	SetBands(bands []string) error
}

// Update is a partial configuration change; nil fields keep their current
// value. Bands nil means unchanged, empty means invalid.
type Update struct {
	HomeLocator *string
	RadiusKm    *float64
	MaxAge      *time.Duration
	Bands       []string
	Projection  *types.ProjectionKind
}

// Config is the active session configuration exposed to the delivery layer.
type Config struct {
	Home       types.HomeStation    `json:"home"`
	Criteria   types.FilterCriteria `json:"criteria"`
	Projection types.ProjectionKind `json:"projection"`
}

// Session owns the active home station, filter criteria and projection, and
// answers the delivery layer's queries against the live store. All state is
// explicit and mutex-guarded; nothing here is package-global.
type Session struct {
	mu         sync.RWMutex
	home       types.HomeStation
	criteria   types.FilterCriteria
	projection types.ProjectionKind

	store  Snapshotter
	resub  Resubscriber
	events *hub.Hub
	clock  clockwork.Clock
	logger *slog.Logger
}

// New creates a session with an initial, already-validated configuration.
// The initial band set must match what the resubscriber was started with.
func New(store Snapshotter, resub Resubscriber, events *hub.Hub, clock clockwork.Clock, logger *slog.Logger, initial Config) (*Session, error) {
	if err := filter.Validate(initial.Criteria); err != nil {
		return nil, err
	}
	point, err := geo.Decode(initial.Home.Locator)
	if err != nil {
		return nil, err
	}
	if !validProjection(initial.Projection) {
		return nil, fmt.Errorf("unknown projection kind %q", initial.Projection)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	initial.Home.Point = point
	return &Session{
		home:       initial.Home,
		criteria:   initial.Criteria,
		projection: initial.Projection,
		store:      store,
		resub:      resub,
		events:     events,
		clock:      clock,
		logger:     logger,
	}, nil
}

func validProjection(kind types.ProjectionKind) bool {
	switch kind {
	case types.ProjectionMercator, types.ProjectionRobinson, types.ProjectionAzimuthal:
		return true
	}
	return false
}

// Configure applies a partial update. The merged configuration is validated
// before anything is applied: an invalid update is rejected whole and the
// previous configuration stays in effect. A band change re-subscribes the
// feed; everything else takes effect on the next query without touching
// ingestion or stored spots.
func (s *Session) Configure(u Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	home := s.home
	criteria := s.criteria
	proj := s.projection

	if u.HomeLocator != nil {
		point, err := geo.Decode(*u.HomeLocator)
		if err != nil {
			return err
		}
		home = types.HomeStation{Locator: *u.HomeLocator, Point: point}
	}
	if u.RadiusKm != nil {
		criteria.RadiusKm = *u.RadiusKm
	}
	if u.MaxAge != nil {
		criteria.MaxAge = *u.MaxAge
	}
	if u.Bands != nil {
		criteria.Bands = append([]string(nil), u.Bands...)
	}
	if u.Projection != nil {
		if !validProjection(*u.Projection) {
			return fmt.Errorf("%w: unknown projection kind %q", filter.ErrInvalidCriteria, *u.Projection)
		}
		proj = *u.Projection
	}

	if err := filter.Validate(criteria); err != nil {
		return err
	}

	bandsChanged := u.Bands != nil && !equalSets(s.criteria.Bands, criteria.Bands)
	if bandsChanged && s.resub != nil {
		if err := s.resub.SetBands(criteria.Bands); err != nil {
			return fmt.Errorf("failed to re-subscribe bands: %w", err)
		}
	}

	s.home = home
	s.criteria = criteria
	s.projection = proj
	s.logger.Info("session configured",
		"home", home.Locator,
		"radius_km", criteria.RadiusKm,
		"max_age", criteria.MaxAge,
		"bands", criteria.Bands,
		"projection", proj,
	)

	if s.events != nil {
		s.events.NotifyConfig()
	}
	return nil
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}

// Current returns a copy of the active configuration.
func (s *Session) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := Config{
		Home:       s.home,
		Criteria:   s.criteria,
		Projection: s.projection,
	}
	cfg.Criteria.Bands = append([]string(nil), s.criteria.Bands...)
	return cfg
}

// MaxAge returns the active age window; the store's prune sweeper reads it
// through this so criteria changes apply on the next sweep.
func (s *Session) MaxAge() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria.MaxAge
}

// Query evaluates the current filter against a fresh store snapshot and
// projects the visible spots onto a w×h canvas. Age is judged against the
// session clock at call time.
func (s *Session) Query(w, h int) ([]types.PlottedSpot, error) {
	s.mu.RLock()
	home := s.home
	criteria := s.criteria
	spec := types.ProjectionSpec{Kind: s.projection, Center: s.home.Point}
	s.mu.RUnlock()

	visible := filter.Visible(s.store.Snapshot(), home, criteria, s.clock.Now())

	out := make([]types.PlottedSpot, 0, len(visible))
	for _, spot := range visible {
		x, y, err := projection.Project(spot.Point, spec, w, h)
		if err != nil {
			return nil, err
		}
		out = append(out, types.PlottedSpot{Spot: spot, X: x, Y: y})
	}
	return out, nil
}
