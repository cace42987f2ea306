// Package svg renders a hatching plan (boundary plus generated lines) to a
// simple equirectangular SVG picture.
package svg

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/kass/go-geo-hatch/pkg/models"
)

const (
	backgroundStyle = "fill:rgb(255,255,255)"
	polygonStyle    = "fill:rgb(235,245,235);stroke:rgb(60,120,60);stroke-width:2"
	lineStyle       = "stroke:rgb(40,80,200);stroke-width:1"
	endpointStyle   = "fill:rgb(200,40,40)"
)

// RenderPlan draws the ring outline and the hatching segments. Width is in
// pixels; height follows from the geographic aspect ratio.
func RenderPlan(w io.Writer, ring models.Ring, segments []models.Segment, width int, drawEndpoints bool) error {
	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	extend := func(p models.GeoPoint) {
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
	}
	for _, p := range ring {
		extend(p)
	}
	for _, s := range segments {
		extend(s.Start)
		extend(s.End)
	}
	if minLon > maxLon {
		return fmt.Errorf("nothing to render")
	}

	// 5% margin around the drawing
	lonSpan := maxLon - minLon
	latSpan := maxLat - minLat
	if lonSpan == 0 {
		lonSpan = 1e-6
	}
	if latSpan == 0 {
		latSpan = 1e-6
	}
	minLon -= lonSpan * 0.05
	maxLon += lonSpan * 0.05
	minLat -= latSpan * 0.05
	maxLat += latSpan * 0.05

	scale := float64(width) / (maxLon - minLon)
	height := int(math.Ceil((maxLat - minLat) * scale))

	toScreen := func(p models.GeoPoint) (int, int) {
		return int((p.Lon - minLon) * scale), int((maxLat - p.Lat) * scale)
	}

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, backgroundStyle)

	if len(ring) >= 3 {
		xs := make([]int, len(ring))
		ys := make([]int, len(ring))
		for i, p := range ring {
			xs[i], ys[i] = toScreen(p)
		}
		canvas.Polygon(xs, ys, polygonStyle)
	}

	for _, s := range segments {
		x1, y1 := toScreen(s.Start)
		x2, y2 := toScreen(s.End)
		canvas.Line(x1, y1, x2, y2, lineStyle)
		if drawEndpoints {
			canvas.Circle(x1, y1, 2, endpointStyle)
			canvas.Circle(x2, y2, 2, endpointStyle)
		}
	}

	canvas.End()
	return nil
}
