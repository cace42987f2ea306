// Package geojson decodes polygon boundaries from GeoJSON input and encodes
// generated hatching plans as GeoJSON LineString features.
package geojson

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/kass/go-geo-hatch/pkg/models"
)

// ReadRing extracts the first outer polygon ring from GeoJSON data. The
// input may be a FeatureCollection, a single Feature or a bare Geometry;
// interior rings and additional polygons are ignored.
func ReadRing(data []byte) (models.Ring, error) {
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		for _, f := range fc.Features {
			if ring, ok := firstRing(f.Geometry); ok {
				return ring, nil
			}
		}
		return nil, fmt.Errorf("no polygon found in feature collection")
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil {
		if ring, ok := firstRing(f.Geometry); ok {
			return ring, nil
		}
		return nil, fmt.Errorf("feature geometry is not a polygon")
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson: %w", err)
	}
	if ring, ok := firstRing(g.Geometry()); ok {
		return ring, nil
	}
	return nil, fmt.Errorf("geometry is not a polygon")
}

func firstRing(g orb.Geometry) (models.Ring, bool) {
	var outer orb.Ring
	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) == 0 {
			return nil, false
		}
		outer = geom[0]
	case orb.MultiPolygon:
		if len(geom) == 0 || len(geom[0]) == 0 {
			return nil, false
		}
		outer = geom[0][0]
	default:
		return nil, false
	}

	ring := make(models.Ring, len(outer))
	for i, p := range outer {
		ring[i] = models.GeoPoint{Lon: p.Lon(), Lat: p.Lat()}
	}
	return ring, true
}

// ReadSegments decodes a FeatureCollection of LineStrings, taking the first
// and last coordinate of each line.
func ReadSegments(data []byte) ([]models.Segment, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson: %w", err)
	}

	var segments []models.Segment
	for _, f := range fc.Features {
		ls, ok := f.Geometry.(orb.LineString)
		if !ok || len(ls) < 2 {
			continue
		}
		start := ls[0]
		end := ls[len(ls)-1]
		segments = append(segments, models.Segment{
			Start: models.GeoPoint{Lon: start.Lon(), Lat: start.Lat()},
			End:   models.GeoPoint{Lon: end.Lon(), Lat: end.Lat()},
		})
	}
	return segments, nil
}

// WriteSegments encodes a plan as a FeatureCollection of LineStrings in
// sweep order, annotated with the sequence number and ground length.
func WriteSegments(segments []models.Segment) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i, seg := range segments {
		start := orb.Point{seg.Start.Lon, seg.Start.Lat}
		end := orb.Point{seg.End.Lon, seg.End.Lat}

		f := geojson.NewFeature(orb.LineString{start, end})
		f.Properties["seq"] = i
		f.Properties["length_m"] = geo.DistanceHaversine(start, end)
		fc.Append(f)
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feature collection: %w", err)
	}
	return data, nil
}
