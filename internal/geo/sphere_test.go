package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oh2fk/pskprop/internal/types"
)

func TestDistanceKm(t *testing.T) {
	quarter := math.Pi / 2 * EarthRadiusKm

	tests := []struct {
		name string
		a, b types.GeoPoint
		want float64
	}{
		{"same point", types.GeoPoint{Lat: 60.17, Lon: 24.94}, types.GeoPoint{Lat: 60.17, Lon: 24.94}, 0},
		{"quarter circumference along equator", types.GeoPoint{}, types.GeoPoint{Lon: 90}, quarter},
		{"equator to pole", types.GeoPoint{}, types.GeoPoint{Lat: 90}, quarter},
		{"antipodal", types.GeoPoint{}, types.GeoPoint{Lon: 180}, 2 * quarter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceKm(tt.a, tt.b), 1e-6)
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	points := []types.GeoPoint{
		{Lat: 60.17, Lon: 24.94},
		{Lat: 51.51, Lon: -0.13},
		{Lat: -33.87, Lon: 151.21},
		{Lat: 40.71, Lon: -74.01},
		{Lat: 0, Lon: 179.9},
		{Lat: -89.9, Lon: 13.3},
	}

	for _, a := range points {
		for _, b := range points {
			ab := DistanceKm(a, b)
			ba := DistanceKm(b, a)
			if ab == 0 {
				assert.Equal(t, 0.0, ba)
				continue
			}
			assert.InEpsilon(t, ab, ba, 1e-6, "distance(%v,%v) not symmetric", a, b)
		}
	}
}

func TestDistanceKm_HelsinkiLondon(t *testing.T) {
	helsinki := types.GeoPoint{Lat: 60.1708, Lon: 24.9375}
	london := types.GeoPoint{Lat: 51.5074, Lon: -0.1278}
	// Reference value from the haversine formula with R = 6371.0088.
	assert.InDelta(t, 1821, DistanceKm(helsinki, london), 10.0)
}

func TestDistanceKm_AntipodalNeverNaN(t *testing.T) {
	half := math.Pi * EarthRadiusKm

	// Exact antipodes across the latitude range.
	for lat := -90.0; lat <= 90.0; lat += 0.0625 {
		a := types.GeoPoint{Lat: lat, Lon: 0}
		b := types.GeoPoint{Lat: -lat, Lon: 180}
		got := DistanceKm(a, b)
		require.False(t, math.IsNaN(got), "NaN distance for antipodal pair lat=%v", lat)
		assert.InDelta(t, half, got, 1e-6, "lat=%v", lat)
	}

	// Near-antipodal neighborhood around a realistic station pair.
	a := types.GeoPoint{Lat: 60.0625, Lon: 24.0417}
	for dLat := -0.5; dLat <= 0.5; dLat += 0.0625 {
		for dLon := -0.5; dLon <= 0.5; dLon += 0.0625 {
			b := types.GeoPoint{Lat: -a.Lat + dLat, Lon: a.Lon - 180 + dLon}
			got := DistanceKm(a, b)
			require.False(t, math.IsNaN(got), "NaN distance near antipode at dLat=%v dLon=%v", dLat, dLon)
			assert.LessOrEqual(t, got, half+1e-6)
		}
	}
}

func TestInitialBearing(t *testing.T) {
	tests := []struct {
		name string
		a, b types.GeoPoint
		want float64
	}{
		{"due north", types.GeoPoint{}, types.GeoPoint{Lat: 45}, 0},
		{"due east", types.GeoPoint{}, types.GeoPoint{Lon: 45}, 90},
		{"due south", types.GeoPoint{Lat: 45}, types.GeoPoint{}, 180},
		{"due west", types.GeoPoint{}, types.GeoPoint{Lon: -45}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InitialBearing(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, 360.0)
		})
	}
}

func TestAngularDistance(t *testing.T) {
	got := AngularDistance(types.GeoPoint{}, types.GeoPoint{Lon: 180})
	require.InDelta(t, math.Pi, got, 1e-9)
}
