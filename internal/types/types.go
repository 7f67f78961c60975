package types

import (
	"time"
)

// Role indicates which endpoint of a propagation report this spot is
// geolocated at for radius purposes.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// GeoPoint is a position on the sphere in decimal degrees.
// Latitude is in [-90, 90], longitude in [-180, 180].
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Spot represents a single propagation report, pinned to one of its two
// endpoints. A report that geolocates both endpoints yields two Spot
// instances, one per role.
type Spot struct {
	SenderCallsign   string    `json:"sender_callsign"`
	SenderLocator    string    `json:"sender_locator"`
	ReceiverCallsign string    `json:"receiver_callsign"`
	ReceiverLocator  string    `json:"receiver_locator"`
	Band             string    `json:"band"`
	SNR              *int      `json:"snr,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	Role             Role      `json:"role"`

	// Point is the decoded location of the endpoint named by Role.
	Point GeoPoint `json:"point"`
}

// SpotKey identifies a spot in the store. The (sender, receiver, band,
// timestamp) tuple identifies the underlying report; Role discriminates the
// two records a single report produces, so a re-delivered report updates in
// place instead of duplicating.
type SpotKey struct {
	Sender   string
	Receiver string
	Band     string
	Unix     int64
	Role     Role
}

// Key returns the store identity of the spot.
func (s *Spot) Key() SpotKey {
	return SpotKey{
		Sender:   s.SenderCallsign,
		Receiver: s.ReceiverCallsign,
		Band:     s.Band,
		Unix:     s.Timestamp.Unix(),
		Role:     s.Role,
	}
}

// Age returns how old the spot is relative to now.
func (s *Spot) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}

// HomeStation is the operator's location, derived from a grid locator.
type HomeStation struct {
	Locator string   `json:"locator"`
	Point   GeoPoint `json:"point"`
}

// FilterCriteria selects which stored spots are currently visible.
type FilterCriteria struct {
	RadiusKm float64       `json:"radius_km"`
	MaxAge   time.Duration `json:"max_age"`
	Bands    []string      `json:"bands"`
}

// ProjectionKind selects the map projection family.
type ProjectionKind string

const (
	ProjectionMercator  ProjectionKind = "mercator"
	ProjectionRobinson  ProjectionKind = "robinson"
	ProjectionAzimuthal ProjectionKind = "aeqd"
)

// ProjectionSpec describes how to map a GeoPoint onto the canvas. Center is
// the projection origin for the azimuthal projection and the seam rotation
// for the cylindrical ones.
type ProjectionSpec struct {
	Kind   ProjectionKind `json:"kind"`
	Center GeoPoint       `json:"center"`
}

// PlottedSpot is a visible spot together with its canvas position, the unit
// handed to the delivery layer.
type PlottedSpot struct {
	Spot
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
