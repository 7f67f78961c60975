package geo

import (
	"math"

	"github.com/oh2fk/pskprop/internal/types"
)

const (
	// EarthRadiusKm is the mean Earth radius (IUGG R1).
	EarthRadiusKm = 6371.0088

	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// DistanceKm returns the great-circle distance between two points using the
// haversine formula on a spherical Earth.
func DistanceKm(a, b types.GeoPoint) float64 {
	lat1 := a.Lat * degToRad
	lat2 := b.Lat * degToRad
	dLat := (b.Lat - a.Lat) * degToRad
	dLon := (b.Lon - a.Lon) * degToRad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h past 1 near the antipode; Sqrt(1-h) would be NaN.
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// InitialBearing returns the initial great-circle bearing from a to b in
// degrees, normalized to [0, 360).
func InitialBearing(a, b types.GeoPoint) float64 {
	lat1 := a.Lat * degToRad
	lat2 := b.Lat * degToRad
	dLon := (b.Lon - a.Lon) * degToRad

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * radToDeg
	return math.Mod(deg+360, 360)
}

// AngularDistance returns the central angle between two points in radians.
// Used by the azimuthal projection, where the angle rather than the surface
// distance sets the canvas radius.
func AngularDistance(a, b types.GeoPoint) float64 {
	return DistanceKm(a, b) / EarthRadiusKm
}
