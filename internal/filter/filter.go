package filter

import (
	"errors"
	"fmt"
	"time"

	"github.com/oh2fk/pskprop/internal/band"
	"github.com/oh2fk/pskprop/internal/geo"
	"github.com/oh2fk/pskprop/internal/types"
)

// ErrInvalidCriteria is returned for criteria that can never match anything
// sensibly: non-positive radius or age, or an empty/unknown band set.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Validate rejects criteria the engine refuses to evaluate. Callers keep
// their previous valid criteria when this fails.
func Validate(c types.FilterCriteria) error {
	if c.RadiusKm <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidCriteria, c.RadiusKm)
	}
	if c.MaxAge <= 0 {
		return fmt.Errorf("%w: max age must be positive, got %v", ErrInvalidCriteria, c.MaxAge)
	}
	if len(c.Bands) == 0 {
		return fmt.Errorf("%w: band set is empty", ErrInvalidCriteria)
	}
	for _, name := range c.Bands {
		if !band.IsValid(name) {
			return fmt.Errorf("%w: unknown band %q", ErrInvalidCriteria, name)
		}
	}
	return nil
}

// Visible returns the subset of spots matching the criteria: inside the age
// window, on an included band, and with the spot's role endpoint within the
// radius of home. Age is evaluated against the passed now on every call;
// nothing is cached. The result is always a fresh slice and the input is
// never mutated.
func Visible(spots []types.Spot, home types.HomeStation, c types.FilterCriteria, now time.Time) []types.Spot {
	included := make(map[string]bool, len(c.Bands))
	for _, name := range c.Bands {
		included[name] = true
	}

	out := make([]types.Spot, 0, len(spots))
	for _, spot := range spots {
		if spot.Age(now) > c.MaxAge {
			continue
		}
		if !included[spot.Band] {
			continue
		}
		if geo.DistanceKm(home.Point, spot.Point) > c.RadiusKm {
			continue
		}
		out = append(out, spot)
	}
	return out
}
