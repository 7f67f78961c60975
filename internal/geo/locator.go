package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/oh2fk/pskprop/internal/types"
)

// ErrInvalidLocator is returned for malformed Maidenhead grid squares.
var ErrInvalidLocator = errors.New("invalid grid locator")

// Cell sizes per precision level, in degrees of longitude and latitude.
const (
	fieldLonDeg  = 20.0
	fieldLatDeg  = 10.0
	squareLonDeg = 2.0
	squareLatDeg = 1.0
	subLonDeg    = 5.0 / 60.0
	subLatDeg    = 2.5 / 60.0
	extLonDeg    = 0.5 / 60.0
	extLatDeg    = 0.25 / 60.0
)

// Decode converts a Maidenhead grid locator into the center point of its
// cell. Accepted lengths are 4, 6 and 8 characters; anything else, or a
// character outside its pair's alphabet, fails with ErrInvalidLocator.
func Decode(locator string) (types.GeoPoint, error) {
	g := strings.ToUpper(strings.TrimSpace(locator))
	switch len(g) {
	case 4, 6, 8:
	default:
		return types.GeoPoint{}, fmt.Errorf("%w: %q has length %d, want 4, 6 or 8", ErrInvalidLocator, locator, len(g))
	}

	lon := -180.0
	lat := -90.0

	// Field pair: A-R.
	if g[0] < 'A' || g[0] > 'R' || g[1] < 'A' || g[1] > 'R' {
		return types.GeoPoint{}, fmt.Errorf("%w: %q has an out-of-range field pair", ErrInvalidLocator, locator)
	}
	lon += float64(g[0]-'A') * fieldLonDeg
	lat += float64(g[1]-'A') * fieldLatDeg

	// Square pair: 0-9.
	if g[2] < '0' || g[2] > '9' || g[3] < '0' || g[3] > '9' {
		return types.GeoPoint{}, fmt.Errorf("%w: %q has an out-of-range square pair", ErrInvalidLocator, locator)
	}
	lon += float64(g[2]-'0') * squareLonDeg
	lat += float64(g[3]-'0') * squareLatDeg
	sizeLon, sizeLat := squareLonDeg, squareLatDeg

	// Subsquare pair: A-X.
	if len(g) >= 6 {
		if g[4] < 'A' || g[4] > 'X' || g[5] < 'A' || g[5] > 'X' {
			return types.GeoPoint{}, fmt.Errorf("%w: %q has an out-of-range subsquare pair", ErrInvalidLocator, locator)
		}
		lon += float64(g[4]-'A') * subLonDeg
		lat += float64(g[5]-'A') * subLatDeg
		sizeLon, sizeLat = subLonDeg, subLatDeg
	}

	// Extended square pair: 0-9.
	if len(g) == 8 {
		if g[6] < '0' || g[6] > '9' || g[7] < '0' || g[7] > '9' {
			return types.GeoPoint{}, fmt.Errorf("%w: %q has an out-of-range extended pair", ErrInvalidLocator, locator)
		}
		lon += float64(g[6]-'0') * extLonDeg
		lat += float64(g[7]-'0') * extLatDeg
		sizeLon, sizeLat = extLonDeg, extLatDeg
	}

	return types.GeoPoint{
		Lat: lat + sizeLat/2,
		Lon: lon + sizeLon/2,
	}, nil
}

// Encode converts a point back to a grid locator of the given length
// (4, 6 or 8). Inverse of Decode up to cell resolution.
func Encode(p types.GeoPoint, length int) (string, error) {
	if length != 4 && length != 6 && length != 8 {
		return "", fmt.Errorf("%w: unsupported locator length %d", ErrInvalidLocator, length)
	}
	lon := clamp(p.Lon, -180, 180) + 180
	lat := clamp(p.Lat, -90, 90) + 90
	// Keep the extreme east/north edges inside the last cell.
	if lon >= 360 {
		lon = math.Nextafter(360, 0)
	}
	if lat >= 180 {
		lat = math.Nextafter(180, 0)
	}

	var sb strings.Builder
	sb.WriteByte('A' + byte(int(lon/fieldLonDeg)))
	sb.WriteByte('A' + byte(int(lat/fieldLatDeg)))
	lon = math.Mod(lon, fieldLonDeg)
	lat = math.Mod(lat, fieldLatDeg)

	sb.WriteByte('0' + byte(int(lon/squareLonDeg)))
	sb.WriteByte('0' + byte(int(lat/squareLatDeg)))
	if length >= 6 {
		lon = math.Mod(lon, squareLonDeg)
		lat = math.Mod(lat, squareLatDeg)
		sb.WriteByte('A' + byte(int(lon/subLonDeg)))
		sb.WriteByte('A' + byte(int(lat/subLatDeg)))
	}
	if length == 8 {
		lon = math.Mod(lon, subLonDeg)
		lat = math.Mod(lat, subLatDeg)
		sb.WriteByte('0' + byte(int(lon/extLonDeg)))
		sb.WriteByte('0' + byte(int(lat/extLatDeg)))
	}
	return sb.String(), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
