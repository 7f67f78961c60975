package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oh2fk/pskprop/internal/types"
)

var home = types.GeoPoint{Lat: 60.0625, Lon: 24.0417} // KP20ab

func TestProject_UnknownKind(t *testing.T) {
	_, _, err := Project(types.GeoPoint{}, types.ProjectionSpec{Kind: "globe"}, 800, 400)
	require.Error(t, err)
}

func TestMercator(t *testing.T) {
	spec := types.ProjectionSpec{Kind: types.ProjectionMercator, Center: home}

	t.Run("center longitude maps to horizontal center", func(t *testing.T) {
		x, y, err := Project(types.GeoPoint{Lat: 0, Lon: home.Lon}, spec, 800, 400)
		require.NoError(t, err)
		assert.InDelta(t, 400, x, 1e-9)
		assert.InDelta(t, 200, y, 1e-9)
	})

	t.Run("poles clamp inside canvas", func(t *testing.T) {
		_, yN, err := Project(types.GeoPoint{Lat: 90, Lon: 0}, spec, 800, 400)
		require.NoError(t, err)
		_, yS, err := Project(types.GeoPoint{Lat: -90, Lon: 0}, spec, 800, 400)
		require.NoError(t, err)
		assert.InDelta(t, 0, yN, 1e-6)
		assert.InDelta(t, 400, yS, 1e-6)
	})

	t.Run("seam wraps relative to center", func(t *testing.T) {
		// Just west of the seam lands near the left edge, just east near
		// the right edge.
		seam := home.Lon + 180
		xW, _, err := Project(types.GeoPoint{Lon: seam + 1}, spec, 800, 400)
		require.NoError(t, err)
		xE, _, err := Project(types.GeoPoint{Lon: seam - 1}, spec, 800, 400)
		require.NoError(t, err)
		assert.Less(t, xW, 10.0)
		assert.Greater(t, xE, 790.0)
	})

	t.Run("continuous under small center changes", func(t *testing.T) {
		p := types.GeoPoint{Lat: 40, Lon: -74}
		x1, y1, err := Project(p, spec, 800, 400)
		require.NoError(t, err)
		shifted := spec
		shifted.Center.Lon += 0.01
		x2, y2, err := Project(p, shifted, 800, 400)
		require.NoError(t, err)
		assert.InDelta(t, x1, x2, 0.1)
		assert.InDelta(t, y1, y2, 1e-9)
	})
}

func TestRobinson(t *testing.T) {
	spec := types.ProjectionSpec{Kind: types.ProjectionRobinson, Center: home}

	t.Run("center of projection is canvas center", func(t *testing.T) {
		x, y, err := Project(types.GeoPoint{Lat: 0, Lon: home.Lon}, spec, 1000, 500)
		require.NoError(t, err)
		assert.InDelta(t, 500, x, 1e-9)
		assert.InDelta(t, 250, y, 1e-9)
	})

	t.Run("poles use the last table row", func(t *testing.T) {
		x, y, err := Project(types.GeoPoint{Lat: 90, Lon: home.Lon + 180}, spec, 1000, 500)
		require.NoError(t, err)
		assert.InDelta(t, 0, y, 1e-9)
		// Parallel shrinks to 0.5322 of the equator length.
		assert.InDelta(t, 500-0.5322*500, x, 1e-6)
	})

	t.Run("interpolates between table rows", func(t *testing.T) {
		// 2.5° sits halfway between the 0° and 5° rows.
		x, _, err := Project(types.GeoPoint{Lat: 2.5, Lon: home.Lon + 90}, spec, 1000, 500)
		require.NoError(t, err)
		wantX := 500 + (1.0000+0.9986)/2*0.5*500
		assert.InDelta(t, wantX, x, 1e-6)
	})

	t.Run("south is mirrored", func(t *testing.T) {
		_, yN, err := Project(types.GeoPoint{Lat: 45, Lon: home.Lon}, spec, 1000, 500)
		require.NoError(t, err)
		_, yS, err := Project(types.GeoPoint{Lat: -45, Lon: home.Lon}, spec, 1000, 500)
		require.NoError(t, err)
		assert.InDelta(t, 250-yN, yS-250, 1e-9)
	})
}

func TestAzimuthalEquidistant(t *testing.T) {
	spec := types.ProjectionSpec{Kind: types.ProjectionAzimuthal, Center: home}

	t.Run("center maps to exact canvas center for any size", func(t *testing.T) {
		for _, size := range [][2]int{{800, 400}, {400, 800}, {333, 777}, {1, 1}} {
			x, y, err := Project(home, spec, size[0], size[1])
			require.NoError(t, err)
			assert.InDelta(t, float64(size[0])/2, x, 1e-9)
			assert.InDelta(t, float64(size[1])/2, y, 1e-9)
		}
	})

	t.Run("antipode lands on the inscribed circle without NaN", func(t *testing.T) {
		antipode := types.GeoPoint{Lat: -home.Lat, Lon: home.Lon - 180}
		x, y, err := Project(antipode, spec, 800, 600)
		require.NoError(t, err)
		require.False(t, math.IsNaN(x))
		require.False(t, math.IsNaN(y))
		r := math.Hypot(x-400, y-300)
		assert.InDelta(t, 300, r, 1.0)
	})

	t.Run("radius is linear in angular distance", func(t *testing.T) {
		spec := types.ProjectionSpec{Kind: types.ProjectionAzimuthal, Center: types.GeoPoint{}}
		x, y, err := Project(types.GeoPoint{Lon: 90}, spec, 1000, 1000)
		require.NoError(t, err)
		// 90° east at a quarter of the sphere: half the inscribed radius,
		// due east on the canvas.
		assert.InDelta(t, 500+250, x, 1e-6)
		assert.InDelta(t, 500, y, 1e-6)
	})

	t.Run("bearing sets the canvas angle", func(t *testing.T) {
		spec := types.ProjectionSpec{Kind: types.ProjectionAzimuthal, Center: types.GeoPoint{}}
		x, y, err := Project(types.GeoPoint{Lat: 45}, spec, 1000, 1000)
		require.NoError(t, err)
		assert.InDelta(t, 500, x, 1e-6)
		assert.Less(t, y, 500.0) // north is up
	})
}

func TestWrapLon(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{180, -180},
		{-180, -180},
		{190, -170},
		{-190, 170},
		{360, 0},
		{540, -180},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, wrapLon(tt.in), 1e-9, "wrapLon(%v)", tt.in)
	}
}
