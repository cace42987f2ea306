package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 100.0, p.Spacing)
	assert.Equal(t, 0.0, p.Bearing)
	assert.Equal(t, 50.0, p.Offset)
	assert.Equal(t, FidelityPlanar, p.Fidelity)
	assert.Equal(t, 0, p.MaxLines)
	assert.NoError(t, p.Validate())
}

func TestParamsValidate(t *testing.T) {
	testCases := []struct {
		name     string
		params   Params
		sentinel error
	}{
		{"Zero spacing", Params{Spacing: 0}, ErrNonPositiveSpacing},
		{"Negative spacing", Params{Spacing: -10}, ErrNonPositiveSpacing},
		{"Negative offset", Params{Spacing: 100, Offset: -1}, ErrNegativeOffset},
		{"Valid", Params{Spacing: 100, Offset: 0}, nil},
		{"Valid with offset", Params{Spacing: 1, Offset: 500}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.sentinel == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.sentinel))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.NotEmpty(t, ve.Field)
		})
	}
}

func TestParamsNormalized(t *testing.T) {
	testCases := []struct {
		bearing  float64
		expected float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{450, 90},
		{-90, 270},
		{-720, 0},
	}

	for _, tc := range testCases {
		p := Params{Spacing: 100, Bearing: tc.bearing}.Normalized()
		assert.InDelta(t, tc.expected, p.Bearing, 1e-9, "bearing %v", tc.bearing)
	}
}

func TestRingClosed(t *testing.T) {
	open := Ring{
		{Lon: 0, Lat: 0},
		{Lon: 1, Lat: 0},
		{Lon: 1, Lat: 1},
		{Lon: 0, Lat: 1},
	}

	closed := open.Closed()
	assert.Len(t, closed, 5)
	assert.Equal(t, closed[0], closed[4])
	// Original untouched
	assert.Len(t, open, 4)

	// Already closed rings come back unchanged
	assert.Len(t, closed.Closed(), 5)

	assert.Empty(t, Ring{}.Closed())
}

func TestRingValid(t *testing.T) {
	assert.False(t, Ring{}.Valid())
	assert.False(t, Ring{{0, 0}, {1, 0}, {1, 1}}.Valid())
	assert.True(t, Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}.Valid())
}

func TestGeoPointValid(t *testing.T) {
	assert.True(t, GeoPoint{Lon: 0, Lat: 0}.Valid())
	assert.True(t, GeoPoint{Lon: 180, Lat: 90}.Valid())
	assert.False(t, GeoPoint{Lon: -180, Lat: 0}.Valid())
	assert.False(t, GeoPoint{Lon: 181, Lat: 0}.Valid())
	assert.False(t, GeoPoint{Lon: 0, Lat: 91}.Valid())
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{
		BottomLeft: GeoPoint{Lon: -10, Lat: -5},
		TopRight:   GeoPoint{Lon: 10, Lat: 5},
	}

	assert.True(t, box.Contains(GeoPoint{Lon: 0, Lat: 0}))
	assert.True(t, box.Contains(GeoPoint{Lon: -10, Lat: 5}))
	assert.False(t, box.Contains(GeoPoint{Lon: 11, Lat: 0}))
	assert.False(t, box.Contains(GeoPoint{Lon: 0, Lat: -6}))
}

func TestFidelity(t *testing.T) {
	assert.Equal(t, "planar", FidelityPlanar.String())
	assert.Equal(t, "geodesic", FidelityGeodesic.String())

	f, err := ParseFidelity("geodesic")
	require.NoError(t, err)
	assert.Equal(t, FidelityGeodesic, f)

	f, err = ParseFidelity("planar")
	require.NoError(t, err)
	assert.Equal(t, FidelityPlanar, f)

	_, err = ParseFidelity("spherical")
	assert.Error(t, err)
}
