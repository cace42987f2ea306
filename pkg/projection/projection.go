// Package projection converts geographic rings into a local planar frame and
// back. The frame is an equirectangular approximation centered on the ring's
// mean latitude, rotated by the hatching bearing so scan lines run parallel
// to the frame's y-axis and the sweep steps along x.
package projection

import (
	"math"

	"github.com/kass/go-geo-hatch/pkg/models"
	"github.com/kass/go-geo-hatch/pkg/planar"
)

// earthRadius is the mean Earth radius in meters used by the equirectangular
// approximation.
const earthRadius = 6371000.0

// Frame holds the projection reference and the rotation terms for one
// engine invocation. Computing sin/cos exactly once guarantees the forward
// and inverse transforms are exact algebraic inverses.
type Frame struct {
	originLat  float64 // degrees, arithmetic mean of the ring latitudes
	cosOrigin  float64
	bearing    float64 // degrees, clockwise from north
	sinBearing float64
	cosBearing float64
}

// NewFrame builds the working frame for a ring and bearing. The origin
// latitude is the arithmetic mean of the ring's latitudes; sharing a single
// reference bounds the approximation error to the ring's latitudinal extent.
func NewFrame(ring models.Ring, bearingDeg float64) Frame {
	var sum float64
	for _, p := range ring {
		sum += p.Lat
	}
	originLat := 0.0
	if len(ring) > 0 {
		originLat = sum / float64(len(ring))
	}
	rad := bearingDeg * math.Pi / 180
	return Frame{
		originLat:  originLat,
		cosOrigin:  math.Cos(originLat * math.Pi / 180),
		bearing:    bearingDeg,
		sinBearing: math.Sin(rad),
		cosBearing: math.Cos(rad),
	}
}

// OriginLat returns the frame's reference latitude in degrees.
func (f Frame) OriginLat() float64 {
	return f.originLat
}

// ToPlanar projects a geographic point into the rotated frame, in meters.
func (f Frame) ToPlanar(p models.GeoPoint) planar.Point {
	x := earthRadius * (p.Lon * math.Pi / 180) * f.cosOrigin
	y := earthRadius * (p.Lat * math.Pi / 180)
	return planar.Point{
		X: f.cosBearing*x + f.sinBearing*y,
		Y: -f.sinBearing*x + f.cosBearing*y,
	}
}

// ToGeographic is the exact inverse of ToPlanar.
func (f Frame) ToGeographic(p planar.Point) models.GeoPoint {
	x := f.cosBearing*p.X - f.sinBearing*p.Y
	y := f.sinBearing*p.X + f.cosBearing*p.Y
	return models.GeoPoint{
		Lon: x / (earthRadius * f.cosOrigin) * 180 / math.Pi,
		Lat: y / earthRadius * 180 / math.Pi,
	}
}

// LineHeading returns the compass bearing of the frame's +y axis, the
// direction of increasing position along a scan line.
func (f Frame) LineHeading() float64 {
	return normalizeHeading(-f.bearing)
}

// SweepHeading returns the compass bearing of the frame's +x axis, the
// direction the sweep advances between scan lines.
func (f Frame) SweepHeading() float64 {
	return normalizeHeading(90 - f.bearing)
}

func normalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return h
}
