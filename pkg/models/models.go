// Package models defines the geographic value types and parameters shared
// across the hatching engine, the line index and the exporters.
package models

import (
	"errors"
	"fmt"
	"math"
)

// GeoPoint represents a geographic position. Longitude is in (-180, 180],
// latitude in [-90, 90].
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether the point lies within the usable lon/lat ranges.
func (p GeoPoint) Valid() bool {
	return p.Lon > -180 && p.Lon <= 180 && p.Lat >= -90 && p.Lat <= 90
}

// Ring is the ordered boundary of a simple polygon. If the first and last
// points differ, the ring is implicitly closed by an edge back to the first.
type Ring []GeoPoint

// Valid reports whether the ring has enough points to enclose any area.
// Shorter rings mean "nothing to hatch", not an error.
func (r Ring) Valid() bool {
	return len(r) >= 4
}

// Closed returns the ring with an explicit closing point appended when the
// first and last points differ. The original ring is never modified.
func (r Ring) Closed() Ring {
	if len(r) == 0 {
		return r
	}
	if r[0] == r[len(r)-1] {
		return r
	}
	closed := make(Ring, len(r)+1)
	copy(closed, r)
	closed[len(r)] = r[0]
	return closed
}

// Segment is one hatching line piece between two geographic endpoints.
type Segment struct {
	Start GeoPoint `json:"start"`
	End   GeoPoint `json:"end"`
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft GeoPoint
	TopRight   GeoPoint
}

// Contains reports whether the point lies within the box, borders included.
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lon >= b.BottomLeft.Lon && p.Lon <= b.TopRight.Lon &&
		p.Lat >= b.BottomLeft.Lat && p.Lat <= b.TopRight.Lat
}

// Fidelity selects the coordinate math used for offsets and hit ordering.
type Fidelity int

const (
	// FidelityPlanar measures everything in the rotated equirectangular frame.
	FidelityPlanar Fidelity = iota
	// FidelityGeodesic measures offsets and hit order on the WGS-84 ellipsoid.
	FidelityGeodesic
)

func (f Fidelity) String() string {
	switch f {
	case FidelityPlanar:
		return "planar"
	case FidelityGeodesic:
		return "geodesic"
	default:
		return fmt.Sprintf("fidelity(%d)", int(f))
	}
}

// ParseFidelity converts a flag value into a Fidelity.
func ParseFidelity(s string) (Fidelity, error) {
	switch s {
	case "planar":
		return FidelityPlanar, nil
	case "geodesic":
		return FidelityGeodesic, nil
	default:
		return FidelityPlanar, fmt.Errorf("unknown fidelity %q (want planar or geodesic)", s)
	}
}

// Params configures one hatching run. Spacing and Offset are meters, Bearing
// is degrees clockwise from geographic north. MaxLines caps the number of
// scan lines; zero means unlimited.
type Params struct {
	Spacing  float64
	Bearing  float64
	Offset   float64
	Fidelity Fidelity
	MaxLines int
}

// DefaultParams returns the documented defaults: 100 m spacing, bearing 0,
// 50 m offset, planar fidelity, no line cap.
func DefaultParams() Params {
	return Params{
		Spacing:  100,
		Bearing:  0,
		Offset:   50,
		Fidelity: FidelityPlanar,
	}
}

var (
	// ErrNonPositiveSpacing is returned when spacing would make the sweep
	// infinite or empty.
	ErrNonPositiveSpacing = errors.New("spacing must be positive")
	// ErrNegativeOffset is returned for offsets below zero.
	ErrNegativeOffset = errors.New("offset must not be negative")
)

// ValidationError describes a parameter that failed validation.
type ValidationError struct {
	Field      string
	Value      float64
	Constraint error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Constraint)
}

func (e *ValidationError) Unwrap() error {
	return e.Constraint
}

// Validate checks the parameter ranges. Bearing is not range-checked here;
// Normalized wraps it into [0, 360).
func (p Params) Validate() error {
	if p.Spacing <= 0 {
		return &ValidationError{Field: "spacing", Value: p.Spacing, Constraint: ErrNonPositiveSpacing}
	}
	if p.Offset < 0 {
		return &ValidationError{Field: "offset", Value: p.Offset, Constraint: ErrNegativeOffset}
	}
	return nil
}

// Normalized returns a copy with the bearing wrapped into [0, 360).
func (p Params) Normalized() Params {
	b := math.Mod(p.Bearing, 360)
	if b < 0 {
		b += 360
	}
	p.Bearing = b
	return p
}
