package projection

import (
	"fmt"
	"math"

	"github.com/oh2fk/pskprop/internal/geo"
	"github.com/oh2fk/pskprop/internal/types"
)

// maxMercatorLat is the web-Mercator latitude clamp; beyond it the inverse
// Gudermannian grows without bound.
const maxMercatorLat = 85.05112878

const (
	degToRad = math.Pi / 180.0
)

// Project maps a point onto a w×h canvas under the given projection spec.
// X grows east/right, Y grows down, (0,0) is the canvas top-left. The seam
// of the cylindrical projections is rotated so spec.Center.Lon sits at the
// horizontal canvas center.
func Project(p types.GeoPoint, spec types.ProjectionSpec, w, h int) (float64, float64, error) {
	switch spec.Kind {
	case types.ProjectionMercator:
		x, y := mercator(p, spec.Center, float64(w), float64(h))
		return x, y, nil
	case types.ProjectionRobinson:
		x, y := robinson(p, spec.Center, float64(w), float64(h))
		return x, y, nil
	case types.ProjectionAzimuthal:
		x, y := azimuthalEquidistant(p, spec.Center, float64(w), float64(h))
		return x, y, nil
	default:
		return 0, 0, fmt.Errorf("unknown projection kind %q", spec.Kind)
	}
}

// wrapLon normalizes a longitude offset into [-180, 180).
func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func mercator(p, center types.GeoPoint, w, h float64) (float64, float64) {
	lon := wrapLon(p.Lon - center.Lon)
	lat := p.Lat
	if lat > maxMercatorLat {
		lat = maxMercatorLat
	}
	if lat < -maxMercatorLat {
		lat = -maxMercatorLat
	}

	x := (lon + 180) / 360 * w
	// Inverse Gudermannian; spans [-π, π] over the clamped latitude range.
	merc := math.Log(math.Tan(math.Pi/4 + lat*degToRad/2))
	y := (0.5 - merc/(2*math.Pi)) * h
	return x, y
}

// Robinson interpolation table (Robinson 1974), one entry per 5° of
// latitude from the equator to the pole. X is the parallel length as a
// fraction of the equator, Y the parallel's distance from the equator as a
// fraction of the pole distance.
var (
	robinsonX = [19]float64{
		1.0000, 0.9986, 0.9954, 0.9900, 0.9822, 0.9730, 0.9600,
		0.9427, 0.9216, 0.8962, 0.8679, 0.8350, 0.7986, 0.7597,
		0.7186, 0.6732, 0.6213, 0.5722, 0.5322,
	}
	robinsonY = [19]float64{
		0.0000, 0.0620, 0.1240, 0.1860, 0.2480, 0.3100, 0.3720,
		0.4340, 0.4958, 0.5571, 0.6176, 0.6769, 0.7346, 0.7903,
		0.8435, 0.8936, 0.9394, 0.9761, 1.0000,
	}
)

// robinsonFactors linearly interpolates the table for an absolute latitude.
func robinsonFactors(absLat float64) (xf, yf float64) {
	if absLat >= 90 {
		return robinsonX[18], robinsonY[18]
	}
	idx := int(absLat / 5)
	frac := (absLat - float64(idx)*5) / 5
	xf = robinsonX[idx] + (robinsonX[idx+1]-robinsonX[idx])*frac
	yf = robinsonY[idx] + (robinsonY[idx+1]-robinsonY[idx])*frac
	return xf, yf
}

func robinson(p, center types.GeoPoint, w, h float64) (float64, float64) {
	lon := wrapLon(p.Lon - center.Lon)
	absLat := math.Abs(p.Lat)
	if absLat > 90 {
		absLat = 90
	}
	xf, yf := robinsonFactors(absLat)

	x := w/2 + xf*(lon/180)*(w/2)
	y := h / 2
	if p.Lat >= 0 {
		y -= yf * (h / 2)
	} else {
		y += yf * (h / 2)
	}
	return x, y
}

func azimuthalEquidistant(p, center types.GeoPoint, w, h float64) (float64, float64) {
	c := geo.AngularDistance(center, p)
	if c == 0 {
		return w / 2, h / 2
	}
	// The antipode has no defined bearing; InitialBearing degenerates to 0
	// there, which pins it to the top of the bounding circle.
	theta := geo.InitialBearing(center, p) * degToRad

	// Angular distance maps linearly to canvas radius; the antipode (c = π)
	// lands on the inscribed circle.
	rCanvas := math.Min(w, h) / 2
	r := c / math.Pi * rCanvas

	x := w/2 + r*math.Sin(theta)
	y := h/2 - r*math.Cos(theta)
	return x, y
}
