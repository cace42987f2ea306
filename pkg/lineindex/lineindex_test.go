package lineindex

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-geo-hatch/pkg/geodesic"
	"github.com/kass/go-geo-hatch/pkg/models"
)

// shortSegment makes a ~100m north-running segment starting at p.
func shortSegment(p models.GeoPoint) models.Segment {
	return models.Segment{
		Start: p,
		End:   models.GeoPoint{Lon: p.Lon, Lat: p.Lat + 0.001},
	}
}

var (
	sfCenter = models.GeoPoint{Lon: -122.4194, Lat: 37.7749}

	sfSegment         = shortSegment(models.GeoPoint{Lon: -122.4200, Lat: 37.7750})
	oaklandSegment    = shortSegment(models.GeoPoint{Lon: -122.2712, Lat: 37.8044})
	sanJoseSegment    = shortSegment(models.GeoPoint{Lon: -121.8863, Lat: 37.3382})
	sacramentoSegment = shortSegment(models.GeoPoint{Lon: -121.4944, Lat: 38.5816})
	nycSegment        = shortSegment(models.GeoPoint{Lon: -74.0060, Lat: 40.7128})
)

func bayAreaSegments() []models.Segment {
	return []models.Segment{sfSegment, oaklandSegment, sanJoseSegment, sacramentoSegment}
}

func TestIndexSegments(t *testing.T) {
	index := NewSegmentIndex()

	require.NoError(t, index.IndexSegments(bayAreaSegments()))
	assert.Equal(t, int64(4), index.Count())

	// Empty batch is a no-op
	require.NoError(t, index.IndexSegments(nil))
	assert.Equal(t, int64(4), index.Count())
}

func TestQueryBox(t *testing.T) {
	index := NewSegmentIndex()
	require.NoError(t, index.IndexSegments(append(bayAreaSegments(), nycSegment)))

	california := models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: -125, Lat: 32},
		TopRight:   models.GeoPoint{Lon: -114, Lat: 42},
	}
	results, err := index.QueryBox(california)
	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.NotContains(t, results, nycSegment)

	newYork := models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: -75, Lat: 40},
		TopRight:   models.GeoPoint{Lon: -73, Lat: 41},
	}
	results, err = index.QueryBox(newYork)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, nycSegment, results[0])

	pacific := models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: -160, Lat: 10},
		TopRight:   models.GeoPoint{Lon: -150, Lat: 30},
	}
	results, err = index.QueryBox(pacific)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryRadius(t *testing.T) {
	index := NewSegmentIndex()
	require.NoError(t, index.IndexSegments(bayAreaSegments()))

	// Oakland is ~13km, San Jose ~68km, Sacramento ~120km from downtown SF
	testCases := []struct {
		name     string
		radius   float64
		expected int
	}{
		{"City block", 500, 1},
		{"Across the bay", 20000, 2},
		{"South bay", 80000, 3},
		{"Central valley", 150000, 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := index.QueryRadius(sfCenter, tc.radius)
			require.NoError(t, err)
			assert.Len(t, results, tc.expected)
		})
	}
}

func TestNearest(t *testing.T) {
	index := NewSegmentIndex()
	require.NoError(t, index.IndexSegments(append(bayAreaSegments(), nycSegment)))

	nearest := index.Nearest(sfCenter, 2)
	require.Len(t, nearest, 2)
	assert.Equal(t, sfSegment, nearest[0])
	assert.Equal(t, oaklandSegment, nearest[1])

	// Asking for more than indexed returns everything, still ordered
	all := index.Nearest(sfCenter, 100)
	require.Len(t, all, 5)
	assert.Equal(t, sfSegment, all[0])
	assert.Equal(t, nycSegment, all[4])
}

func TestClear(t *testing.T) {
	index := NewSegmentIndex()
	require.NoError(t, index.IndexSegments(bayAreaSegments()))
	require.Equal(t, int64(4), index.Count())

	index.Clear()
	assert.Equal(t, int64(0), index.Count())

	world := models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: -180, Lat: -90},
		TopRight:   models.GeoPoint{Lon: 180, Lat: 90},
	}
	results, err := index.QueryBox(world)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDistanceToSegment(t *testing.T) {
	meridian := models.Segment{
		Start: models.GeoPoint{Lon: 0, Lat: 0},
		End:   models.GeoPoint{Lon: 0, Lat: 1},
	}

	t.Run("Perpendicular", func(t *testing.T) {
		d := DistanceToSegment(models.GeoPoint{Lon: 0.1, Lat: 0.5}, meridian)
		assert.InDelta(t, 11119, d, 5)
	})

	t.Run("Beyond the end clamps to the endpoint", func(t *testing.T) {
		d := DistanceToSegment(models.GeoPoint{Lon: 0, Lat: 1.5}, meridian)
		assert.InDelta(t, 55597, d, 10)
	})

	t.Run("On the segment", func(t *testing.T) {
		d := DistanceToSegment(models.GeoPoint{Lon: 0, Lat: 0.25}, meridian)
		assert.InDelta(t, 0, d, 1)
	})

	t.Run("Far away falls back to endpoint distance", func(t *testing.T) {
		losAngeles := models.GeoPoint{Lon: -118.2437, Lat: 34.0522}
		d := DistanceToSegment(losAngeles, sfSegment)
		assert.InDelta(t, geodesic.Haversine(losAngeles, sfSegment.Start), d, 200)
	})
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.gob")

	index := NewSegmentIndex()
	require.NoError(t, index.IndexSegments(bayAreaSegments()))
	require.NoError(t, index.SaveToFile(path))

	loaded := NewSegmentIndex()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, int64(4), loaded.Count())

	world := models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: -180, Lat: -90},
		TopRight:   models.GeoPoint{Lon: 180, Lat: 90},
	}
	results, err := loaded.QueryBox(world)
	require.NoError(t, err)
	assert.ElementsMatch(t, bayAreaSegments(), results)
}

func TestLoadMissingFile(t *testing.T) {
	index := NewSegmentIndex()
	assert.Error(t, index.LoadFromFile(filepath.Join(t.TempDir(), "missing.gob")))
}

func TestConcurrentQueries(t *testing.T) {
	index := NewSegmentIndex()
	require.NoError(t, index.IndexSegments(append(bayAreaSegments(), nycSegment)))

	box := models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: -125, Lat: 32},
		TopRight:   models.GeoPoint{Lon: -114, Lat: 42},
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			results, err := index.QueryBox(box)
			assert.NoError(t, err)
			assert.Len(t, results, 4)

			near, err := index.QueryRadius(sfCenter, 20000)
			assert.NoError(t, err)
			assert.Len(t, near, 2)

			nearest := index.Nearest(sfCenter, 1)
			assert.Len(t, nearest, 1)
		}()
	}
	wg.Wait()
}

func TestPartitionRouting(t *testing.T) {
	// A single partition must behave identically to many
	single := NewSegmentIndexWithPartitions(1)
	many := NewSegmentIndexWithPartitions(8)

	segments := append(bayAreaSegments(), nycSegment)
	require.NoError(t, single.IndexSegments(segments))
	require.NoError(t, many.IndexSegments(segments))

	world := models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: -180, Lat: -90},
		TopRight:   models.GeoPoint{Lon: 180, Lat: 90},
	}
	fromSingle, err := single.QueryBox(world)
	require.NoError(t, err)
	fromMany, err := many.QueryBox(world)
	require.NoError(t, err)
	assert.ElementsMatch(t, fromSingle, fromMany)
}

func BenchmarkIndexSegments(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, size := range sizes {
		segments := make([]models.Segment, size)
		for i := range segments {
			segments[i] = shortSegment(models.GeoPoint{
				Lon: -122.5 + float64(i%100)*0.001,
				Lat: 37.5 + float64(i/100)*0.001,
			})
		}
		b.Run(fmt.Sprintf("%d_segments", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				index := NewSegmentIndex()
				if err := index.IndexSegments(segments); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkQueryRadius(b *testing.B) {
	segments := make([]models.Segment, 10000)
	for i := range segments {
		segments[i] = shortSegment(models.GeoPoint{
			Lon: -122.5 + float64(i%100)*0.001,
			Lat: 37.5 + float64(i/100)*0.001,
		})
	}
	index := NewSegmentIndex()
	if err := index.IndexSegments(segments); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := index.QueryRadius(models.GeoPoint{Lon: -122.45, Lat: 37.55}, 1000); err != nil {
			b.Fatal(err)
		}
	}
}
