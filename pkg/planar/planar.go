// Package planar provides the 2-D vector primitives used by the hatching
// sweep. Coordinates are meters in the rotated working frame; nothing here
// knows about geography.
package planar

import "math"

// intersectTolerance is the determinant threshold below which two lines are
// treated as parallel and reported as non-intersecting.
const intersectTolerance = 1e-10

// Point is a 2-D point or vector in meters.
type Point struct {
	X float64
	Y float64
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Mul returns p scaled by s.
func (p Point) Mul(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the z-component of the cross product of p and q.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Length returns the euclidean length of p as a vector.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// LengthSquared returns the squared length of p as a vector.
func (p Point) LengthSquared() float64 {
	return p.X*p.X + p.Y*p.Y
}

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Length()
}

// Lerp linearly interpolates from p to q at parameter t.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + t*(q.X-p.X), p.Y + t*(q.Y-p.Y)}
}

// IntersectSegments computes the intersection of segments p1p2 and p3p4 by
// solving the two lines in general form. It reports false when the segments
// are parallel within tolerance or when the line intersection falls outside
// either segment.
func IntersectSegments(p1, p2, p3, p4 Point) (Point, bool) {
	a1 := p2.Y - p1.Y
	b1 := p1.X - p2.X
	c1 := a1*p1.X + b1*p1.Y

	a2 := p4.Y - p3.Y
	b2 := p3.X - p4.X
	c2 := a2*p3.X + b2*p3.Y

	det := a1*b2 - a2*b1
	if math.Abs(det) < intersectTolerance {
		return Point{}, false
	}

	pt := Point{
		X: (b2*c1 - b1*c2) / det,
		Y: (a1*c2 - a2*c1) / det,
	}

	// The point is on both infinite lines; bound it to the segments. The
	// collinearity tolerance scales with the segment so long scan lines in
	// meter units do not reject valid hits over rounding noise.
	if !OnSegment(pt, p1, p2, 1e-9*p2.Sub(p1).LengthSquared()) {
		return Point{}, false
	}
	if !OnSegment(pt, p3, p4, 1e-9*p4.Sub(p3).LengthSquared()) {
		return Point{}, false
	}
	return pt, true
}

// OnSegment reports whether p lies on segment ab: the cross product must be
// near zero and the scalar projection of p onto ab must fall in
// [0, |ab| squared].
func OnSegment(p, a, b Point, tolerance float64) bool {
	ab := b.Sub(a)
	ap := p.Sub(a)
	if math.Abs(ab.Cross(ap)) > tolerance {
		return false
	}
	d := ab.Dot(ap)
	return d >= 0 && d <= ab.LengthSquared()
}

// DistanceToSegment returns the distance from p to the closest point of
// segment ab.
func DistanceToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.LengthSquared()
	if l2 == 0 {
		return p.Distance(a)
	}
	t := ab.Dot(p.Sub(a)) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Distance(a.Lerp(b, t))
}
