package geodesy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kass/go-coldspot/pkg/models"
)

func TestDistance(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     models.Location
		expected float64
		delta    float64
	}{
		{
			name:     "Same point",
			a:        models.Location{Lat: 37.7749, Lon: -122.4194},
			b:        models.Location{Lat: 37.7749, Lon: -122.4194},
			expected: 0,
			delta:    0.01,
		},
		{
			name:     "SF to Oakland",
			a:        models.Location{Lat: 37.7749, Lon: -122.4194},
			b:        models.Location{Lat: 37.8044, Lon: -122.2712},
			expected: 13.0,
			delta:    1.0,
		},
		{
			name:     "SF to LA",
			a:        models.Location{Lat: 37.7749, Lon: -122.4194},
			b:        models.Location{Lat: 34.0522, Lon: -118.2437},
			expected: 559.0,
			delta:    5.0,
		},
		{
			name:     "Boulder to Denver",
			a:        models.Location{Lat: 40.0150, Lon: -105.2705},
			b:        models.Location{Lat: 39.7392, Lon: -104.9903},
			expected: 39.0,
			delta:    2.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Distance(tc.a, tc.b), tc.delta)
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := models.Location{Lat: 40.0150, Lon: -105.2705}
	b := models.Location{Lat: 34.0522, Lon: -118.2437}

	assert.Equal(t, Distance(a, b), Distance(b, a))
	assert.Equal(t, 0.0, Distance(a, a))
}

func TestDistanceCollinearAdditivity(t *testing.T) {
	// Three points on the same meridian: the middle one splits the arc.
	a := models.Location{Lat: 40.0, Lon: -105.0}
	b := models.Location{Lat: 40.1, Lon: -105.0}
	c := models.Location{Lat: 40.2, Lon: -105.0}

	assert.InDelta(t, Distance(a, c), Distance(a, b)+Distance(b, c), 1e-6)
}

func TestMetersToDegrees(t *testing.T) {
	origin := models.Location{Lat: 40.0, Lon: -105.0}
	dLat, dLon := MetersToDegrees(origin, 1000)

	// One km of latitude is about 0.009 degrees everywhere.
	assert.InDelta(t, 0.00898, dLat, 0.0005)
	// Longitude degrees stretch by 1/cos(40°) ≈ 1.305.
	assert.InDelta(t, dLat/0.766, dLon, 0.0005)
	assert.Greater(t, dLon, dLat)
}

func TestMetersToDegreesAtEquator(t *testing.T) {
	dLat, dLon := MetersToDegrees(models.Location{Lat: 0, Lon: 0}, 1000)
	assert.InDelta(t, dLat, dLon, 1e-9)
}

func TestMetersToDegreesNearPole(t *testing.T) {
	// cos(lat) is clamped, so the conversion stays finite at the pole.
	dLat, dLon := MetersToDegrees(models.Location{Lat: 90, Lon: 0}, 1000)
	assert.False(t, dLon != dLon, "dLon must not be NaN")
	assert.Less(t, dLon, 1.0)
	assert.Greater(t, dLon, dLat)
}

func BenchmarkDistance(b *testing.B) {
	p := models.Location{Lat: 40.0150, Lon: -105.2705}
	q := models.Location{Lat: 39.7392, Lon: -104.9903}
	for i := 0; i < b.N; i++ {
		_ = Distance(p, q)
	}
}
