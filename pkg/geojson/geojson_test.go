package geojson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-geo-hatch/pkg/models"
)

const polygonGeometry = `{
	"type": "Polygon",
	"coordinates": [[[-96.81, 46.87], [-96.79, 46.87], [-96.79, 46.88], [-96.81, 46.88], [-96.81, 46.87]]]
}`

func expectedRing() models.Ring {
	return models.Ring{
		{Lon: -96.81, Lat: 46.87},
		{Lon: -96.79, Lat: 46.87},
		{Lon: -96.79, Lat: 46.88},
		{Lon: -96.81, Lat: 46.88},
		{Lon: -96.81, Lat: 46.87},
	}
}

func TestReadRing(t *testing.T) {
	t.Run("Bare geometry", func(t *testing.T) {
		ring, err := ReadRing([]byte(polygonGeometry))
		require.NoError(t, err)
		assert.Equal(t, expectedRing(), ring)
	})

	t.Run("Feature", func(t *testing.T) {
		feature := `{"type": "Feature", "properties": {"name": "field"}, "geometry": ` + polygonGeometry + `}`
		ring, err := ReadRing([]byte(feature))
		require.NoError(t, err)
		assert.Equal(t, expectedRing(), ring)
	})

	t.Run("FeatureCollection", func(t *testing.T) {
		fc := `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [0, 0]}},
			{"type": "Feature", "properties": {}, "geometry": ` + polygonGeometry + `}
		]}`
		ring, err := ReadRing([]byte(fc))
		require.NoError(t, err)
		assert.Equal(t, expectedRing(), ring, "skips non-polygon features")
	})

	t.Run("MultiPolygon takes the first outer ring", func(t *testing.T) {
		mp := `{
			"type": "MultiPolygon",
			"coordinates": [[[[0, 0], [1, 0], [1, 1], [0, 1], [0, 0]]]]
		}`
		ring, err := ReadRing([]byte(mp))
		require.NoError(t, err)
		require.Len(t, ring, 5)
		assert.Equal(t, models.GeoPoint{Lon: 0, Lat: 0}, ring[0])
		assert.Equal(t, models.GeoPoint{Lon: 1, Lat: 1}, ring[2])
	})

	t.Run("No polygon anywhere", func(t *testing.T) {
		_, err := ReadRing([]byte(`{"type": "Point", "coordinates": [0, 0]}`))
		assert.Error(t, err)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		_, err := ReadRing([]byte(`not geojson`))
		assert.Error(t, err)
	})
}

func TestWriteReadRoundTrip(t *testing.T) {
	segments := []models.Segment{
		{Start: models.GeoPoint{Lon: -96.81, Lat: 46.87}, End: models.GeoPoint{Lon: -96.81, Lat: 46.88}},
		{Start: models.GeoPoint{Lon: -96.80, Lat: 46.87}, End: models.GeoPoint{Lon: -96.80, Lat: 46.88}},
		{Start: models.GeoPoint{Lon: -96.79, Lat: 46.87}, End: models.GeoPoint{Lon: -96.79, Lat: 46.88}},
	}

	data, err := WriteSegments(segments)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"LineString"`)
	assert.Contains(t, string(data), `"seq"`)
	assert.Contains(t, string(data), `"length_m"`)

	decoded, err := ReadSegments(data)
	require.NoError(t, err)
	assert.Equal(t, segments, decoded)
}

func TestWriteSegmentsEmpty(t *testing.T) {
	data, err := WriteSegments(nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)

	decoded, err := ReadSegments(data)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestReadSegmentsSkipsOtherGeometries(t *testing.T) {
	fc := `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [0, 0]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[0, 0], [0.5, 0.5], [1, 1]]}}
	]}`

	segments, err := ReadSegments([]byte(fc))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, models.GeoPoint{Lon: 0, Lat: 0}, segments[0].Start)
	assert.Equal(t, models.GeoPoint{Lon: 1, Lat: 1}, segments[0].End)
}

func TestReadSegmentsInvalid(t *testing.T) {
	_, err := ReadSegments([]byte(`{"type": "Point", "coordinates": [0, 0]}`))
	assert.Error(t, err)
}
