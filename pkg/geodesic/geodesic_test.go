package geodesic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kass/go-geo-hatch/pkg/models"
)

var (
	sanFrancisco = models.GeoPoint{Lon: -122.4194, Lat: 37.7749}
	losAngeles   = models.GeoPoint{Lon: -118.2437, Lat: 34.0522}
	oakland      = models.GeoPoint{Lon: -122.2712, Lat: 37.8044}
)

func TestDistance(t *testing.T) {
	testCases := []struct {
		name     string
		p1, p2   models.GeoPoint
		expected float64
		delta    float64
	}{
		{
			name: "Same point",
			p1:   sanFrancisco, p2: sanFrancisco,
			expected: 0,
			delta:    1e-9,
		},
		{
			name: "SF to Oakland",
			p1:   sanFrancisco, p2: oakland,
			expected: 13000,
			delta:    1000,
		},
		{
			name: "SF to LA",
			p1:   sanFrancisco, p2: losAngeles,
			expected: 559000,
			delta:    3000,
		},
		{
			name: "One degree along the equator",
			p1:   models.GeoPoint{Lon: 0, Lat: 0}, p2: models.GeoPoint{Lon: 1, Lat: 0},
			expected: 111319.5,
			delta:    1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Distance(tc.p1, tc.p2), tc.delta)
			// Symmetric
			assert.InDelta(t, tc.expected, Distance(tc.p2, tc.p1), tc.delta)
		})
	}
}

func TestDistanceNearAntipodal(t *testing.T) {
	// Vincenty's inverse does not converge for near-antipodal pairs; the
	// spherical fallback must still return something close to half the
	// circumference.
	p1 := models.GeoPoint{Lon: 0, Lat: 0}
	p2 := models.GeoPoint{Lon: 179.5, Lat: 0.5}

	dist := Distance(p1, p2)
	assert.Greater(t, dist, 1.9e7)
	assert.Less(t, dist, 2.1e7)
}

func TestDestination(t *testing.T) {
	t.Run("Zero distance", func(t *testing.T) {
		assert.Equal(t, sanFrancisco, Destination(sanFrancisco, 123, 0))
	})

	t.Run("North from the equator", func(t *testing.T) {
		// Meridian arc of one degree at the equator is about 110574 m
		dest := Destination(models.GeoPoint{Lon: 0, Lat: 0}, 0, 110574.4)
		assert.InDelta(t, 1.0, dest.Lat, 1e-4)
		assert.InDelta(t, 0.0, dest.Lon, 1e-9)
	})

	t.Run("East along the equator", func(t *testing.T) {
		dest := Destination(models.GeoPoint{Lon: 0, Lat: 0}, 90, 111319.5)
		assert.InDelta(t, 1.0, dest.Lon, 1e-4)
		assert.InDelta(t, 0.0, dest.Lat, 1e-6)
	})
}

func TestDestinationDistanceRoundTrip(t *testing.T) {
	origins := []models.GeoPoint{
		{Lon: -96.8, Lat: 46.87},
		{Lon: 151.2093, Lat: -33.8688},
		{Lon: 24.9384, Lat: 60.1699},
	}
	bearings := []float64{0, 45, 73, 180, 291}
	distances := []float64{50, 1234.5, 98765}

	for _, origin := range origins {
		for _, bearing := range bearings {
			for _, dist := range distances {
				dest := Destination(origin, bearing, dist)
				assert.InDelta(t, dist, Distance(origin, dest), 0.01,
					"origin %v bearing %v distance %v", origin, bearing, dist)
			}
		}
	}
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 13000, Haversine(sanFrancisco, oakland), 1000)
	assert.InDelta(t, 559000, Haversine(sanFrancisco, losAngeles), 5000)
	assert.InDelta(t, 0, Haversine(sanFrancisco, sanFrancisco), 1e-9)
}

func BenchmarkDistance(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Distance(sanFrancisco, losAngeles)
	}
}

func BenchmarkDestination(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Destination(sanFrancisco, 45, 1000)
	}
}

func BenchmarkHaversine(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Haversine(sanFrancisco, losAngeles)
	}
}
