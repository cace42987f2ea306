// Package hatch generates parallel survey lines over a polygon boundary.
//
// Generate projects the ring into a rotated planar frame, sweeps evenly
// spaced scan lines across it, intersects each line with the polygon edges,
// pairs the hits into interior spans and emits the spans back in geographic
// coordinates, each end extended by the configured offset.
package hatch

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kass/go-geo-hatch/pkg/geodesic"
	"github.com/kass/go-geo-hatch/pkg/models"
	"github.com/kass/go-geo-hatch/pkg/planar"
	"github.com/kass/go-geo-hatch/pkg/projection"
)

// ErrTooManyLines is returned when Params.MaxLines is set and the sweep
// would need more scan lines than allowed.
var ErrTooManyLines = errors.New("too many scan lines")

// Generate computes the hatching for a ring. It is a pure function: the
// same ring and parameters always produce identical output. Rings with
// fewer than four points yield an empty result and no error.
//
// Segments are ordered by sweep position, then by position along each scan
// line. That ordering is part of the contract, not an artifact.
func Generate(ring models.Ring, params models.Params) ([]models.Segment, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !ring.Valid() {
		return nil, nil
	}
	p := params.Normalized()

	frame := projection.NewFrame(ring, p.Bearing)
	closed := ring.Closed()
	points := make([]planar.Point, len(closed))
	for i, gp := range closed {
		points[i] = frame.ToPlanar(gp)
	}

	lo, hi := sweepRange(frame, closed, points, p)
	count := lineCount(lo, hi, p.Spacing)
	if p.MaxLines > 0 && count > p.MaxLines {
		return nil, fmt.Errorf("%w: %d lines at %.0fm spacing, limit %d",
			ErrTooManyLines, count, p.Spacing, p.MaxLines)
	}

	// Scan lines span the polygon's full y-extent with room for the offset,
	// so every crossing edge is hit.
	minY, maxY := yExtent(points)
	yLo := minY - p.Offset - p.Spacing
	yHi := maxY + p.Offset + p.Spacing

	var segments []models.Segment
	for i := 0; i < count; i++ {
		x0 := lo + float64(i)*p.Spacing
		hits := collectHits(points, x0, yLo, yHi)
		if len(hits) < 2 {
			continue
		}
		if p.Fidelity == models.FidelityGeodesic {
			segments = emitGeodesic(segments, frame, hits, x0, minY, p.Offset)
		} else {
			segments = emitPlanar(segments, frame, hits, p.Offset)
		}
	}
	return segments, nil
}

// sweepRange returns the planar interval the sweep covers: the polygon's
// x-extent widened by the offset. With geodesic fidelity the widening steps
// the extreme vertices along the sweep axis on the ellipsoid and reprojects.
func sweepRange(frame projection.Frame, ring models.Ring, points []planar.Point, p models.Params) (float64, float64) {
	minIdx, maxIdx := 0, 0
	for i, pt := range points {
		if pt.X < points[minIdx].X {
			minIdx = i
		}
		if pt.X > points[maxIdx].X {
			maxIdx = i
		}
	}
	lo := points[minIdx].X
	hi := points[maxIdx].X
	if p.Offset == 0 {
		return lo, hi
	}
	if p.Fidelity == models.FidelityGeodesic {
		back := math.Mod(frame.SweepHeading()+180, 360)
		lo = frame.ToPlanar(geodesic.Destination(ring[minIdx], back, p.Offset)).X
		hi = frame.ToPlanar(geodesic.Destination(ring[maxIdx], frame.SweepHeading(), p.Offset)).X
		return lo, hi
	}
	return lo - p.Offset, hi + p.Offset
}

// lineCount returns how many scan lines cover [lo, hi] at the given spacing.
func lineCount(lo, hi, spacing float64) int {
	return int(math.Ceil((hi-lo)/spacing)) + 1
}

func yExtent(points []planar.Point) (float64, float64) {
	minY, maxY := points[0].Y, points[0].Y
	for _, pt := range points[1:] {
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}
	return minY, maxY
}

// collectHits intersects the scan line at x0 with every polygon edge.
// Edges parallel to the scan line (vertical in x) and edges entirely on one
// side fall out of the segment intersection test; they are skipped, not
// errors, since both are routine at real polygon vertices.
func collectHits(points []planar.Point, x0, yLo, yHi float64) []planar.Point {
	scanA := planar.Point{X: x0, Y: yLo}
	scanB := planar.Point{X: x0, Y: yHi}
	var hits []planar.Point
	for i := 0; i+1 < len(points); i++ {
		if pt, ok := planar.IntersectSegments(scanA, scanB, points[i], points[i+1]); ok {
			hits = append(hits, pt)
		}
	}
	return hits
}

// emitPlanar pairs hits sorted by frame y and emits each span with its ends
// pushed apart by offset meters in the frame. A trailing unpaired hit means
// degenerate input and is dropped.
func emitPlanar(segments []models.Segment, frame projection.Frame, hits []planar.Point, offset float64) []models.Segment {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Y < hits[j].Y })
	for k := 0; k+1 < len(hits); k += 2 {
		a := hits[k]
		b := hits[k+1]
		a.Y -= offset
		b.Y += offset
		segments = append(segments, models.Segment{
			Start: frame.ToGeographic(a),
			End:   frame.ToGeographic(b),
		})
	}
	return segments
}

// emitGeodesic orders hits by true ground distance from the low end of the
// scan line and applies the offset by stepping each span end along the line
// heading on the ellipsoid.
func emitGeodesic(segments []models.Segment, frame projection.Frame, hits []planar.Point, x0, minY, offset float64) []models.Segment {
	ref := frame.ToGeographic(planar.Point{X: x0, Y: minY})
	type geoHit struct {
		geo  models.GeoPoint
		dist float64
	}
	ordered := make([]geoHit, len(hits))
	for i, h := range hits {
		gp := frame.ToGeographic(h)
		ordered[i] = geoHit{geo: gp, dist: geodesic.Distance(ref, gp)}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].dist < ordered[j].dist })

	heading := frame.LineHeading()
	back := math.Mod(heading+180, 360)
	for k := 0; k+1 < len(ordered); k += 2 {
		start := ordered[k].geo
		end := ordered[k+1].geo
		if offset > 0 {
			start = geodesic.Destination(start, back, offset)
			end = geodesic.Destination(end, heading, offset)
		}
		segments = append(segments, models.Segment{Start: start, End: end})
	}
	return segments
}
