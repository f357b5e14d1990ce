// pkg/math/geom.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"errors"
	gomath "math"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrNoIntersection = errors.New("No intersection")
	ErrParallelLines  = errors.New("Lines are parallel or coincident")
)

///////////////////////////////////////////////////////////////////////////
// Extent2D

// Extent2D represents a 2D bounding box with the two vertices at its
// opposite minimum and maximum corners.
type Extent2D struct {
	P0, P1 Point2
}

// EmptyExtent2D returns an Extent2D representing an empty bounding box.
func EmptyExtent2D() Extent2D {
	// Degenerate bounds
	return Extent2D{P0: Point2{gomath.Inf(1), gomath.Inf(1)}, P1: Point2{gomath.Inf(-1), gomath.Inf(-1)}}
}

func (e Extent2D) IsEmpty() bool {
	return e.P0[0] > e.P1[0] || e.P0[1] > e.P1[1]
}

func (e Extent2D) Center() Point2 {
	return Point2{(e.P0[0] + e.P1[0]) / 2, (e.P0[1] + e.P1[1]) / 2}
}

func Union(e Extent2D, p Point2) Extent2D {
	e.P0[0] = min(e.P0[0], p[0])
	e.P0[1] = min(e.P0[1], p[1])
	e.P1[0] = max(e.P1[0], p[0])
	e.P1[1] = max(e.P1[1], p[1])
	return e
}

///////////////////////////////////////////////////////////////////////////
// Intersections

// LineLineIntersect returns the intersection point of the two lines
// specified by the vertices (p1, p2) and (p3, p4).  An additional
// returned Boolean value indicates whether a valid intersection was found.
// (There's no intersection for parallel lines.)
func LineLineIntersect(p1, p2, p3, p4 Point2) (Point2, bool) {
	// Work relative to p1: projected coordinates can be in the millions,
	// and products of absolute coordinates lose too many digits.
	r := Sub2(p2, p1)
	s := Sub2(p4, p3)
	denom := Cross2(r, s)

	// Scale the threshold by the segment lengths so that the test is
	// independent of the coordinate magnitudes.
	if denom == 0 || Abs(denom) <= 1e-12*Length2(r)*Length2(s) {
		return Point2{}, false
	}
	t := Cross2(Sub2(p3, p1), s) / denom

	return Add2(p1, Scale2(r, t)), true
}

// SegmentIntersect returns the point where the lines through the two
// segments (p1, p2) and (p3, p4) cross. The segments are treated as
// infinite lines; callers construct them long enough that the crossing
// lies on both. ErrParallelLines is returned if there is no unique
// crossing.
func SegmentIntersect(p1, p2, p3, p4 Point2) (Point2, error) {
	if p, ok := LineLineIntersect(p1, p2, p3, p4); ok {
		return p, nil
	}
	return Point2{}, ErrParallelLines
}

// LineCircleIntersect intersects the infinite line through a and b with
// the circle of the given radius around center. Of the (up to) two
// intersections, the one closer to hint is returned. ErrNoIntersection is
// returned if the line misses the circle or a and b coincide.
func LineCircleIntersect(center Point2, radius float64, a, b Point2, hint Point2) (Point2, error) {
	d := Sub2(b, a)
	f := Sub2(a, center)

	qa := Dot2(d, d)
	if qa == 0 {
		return Point2{}, ErrNoIntersection
	}
	qb := 2 * Dot2(f, d)
	qc := Dot2(f, f) - radius*radius

	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		// Allow for tangency lost to round-off.
		if disc < -1e-12*qb*qb {
			return Point2{}, ErrNoIntersection
		}
		disc = 0
	}

	sq := Sqrt(disc)
	p0 := Add2(a, Scale2(d, (-qb-sq)/(2*qa)))
	p1 := Add2(a, Scale2(d, (-qb+sq)/(2*qa)))
	if Distance2(p1, hint) < Distance2(p0, hint) {
		return p1, nil
	}
	return p0, nil
}

///////////////////////////////////////////////////////////////////////////
// Polygons

// SignedArea2 returns the signed area of the planar ring; positive for
// counter-clockwise winding.
func SignedArea2(pts []Point2) float64 {
	var a float64
	for i := range pts {
		p0, p1 := pts[i], pts[(i+1)%len(pts)]
		a += Cross2(p0, p1)
	}
	return a / 2
}

// NewellNormal returns the (unnormalized) normal of the 3D ring using
// Newell's method; its length is twice the ring's area.
func NewellNormal(ring []Point3) Point3 {
	var n Point3
	for i := range ring {
		c, nx := ring[i], ring[(i+1)%len(ring)]
		n[0] += (c[1] - nx[1]) * (c[2] + nx[2])
		n[1] += (c[2] - nx[2]) * (c[0] + nx[0])
		n[2] += (c[0] - nx[0]) * (c[1] + nx[1])
	}
	return n
}

///////////////////////////////////////////////////////////////////////////
// Circles

// circlePoints caches vertex positions of a unit circle at the origin for
// the tessellation rates we've seen; builds may run concurrently, so the
// cache is a locked LRU rather than a bare map.
var circlePoints *lru.Cache[int, []Point2]

func init() {
	var err error
	if circlePoints, err = lru.New[int, []Point2](16); err != nil {
		panic(err)
	}
}

// CirclePoints returns the vertices for a unit circle at the origin
// with the given number of segments. Vertex i is at angle 2*pi*i/nsegs,
// measured counter-clockwise from +x. The returned slice is shared and
// must not be modified.
func CirclePoints(nsegs int) []Point2 {
	if pts, ok := circlePoints.Get(nsegs); ok {
		return pts
	}

	pts := make([]Point2, nsegs)
	for i := range nsegs {
		angle := 2 * gomath.Pi * float64(i) / float64(nsegs)
		pts[i] = Point2{Cos(angle), Sin(angle)}
	}
	circlePoints.Add(nsegs, pts)
	return pts
}

// TessellateCircle returns a closed ring of nsegs+1 vertices approximating
// the circle of the given radius around center, all at elevation z. The
// last vertex repeats the first.
func TessellateCircle(center Point2, radius float64, z float64, nsegs int) []Point3 {
	unit := CirclePoints(nsegs)
	ring := make([]Point3, 0, nsegs+1)
	for _, u := range unit {
		ring = append(ring, Point3{center[0] + radius*u[0], center[1] + radius*u[1], z})
	}
	return append(ring, ring[0])
}

// ReverseRing returns a reversed copy of the ring.
func ReverseRing[P Point2 | Point3](ring []P) []P {
	r := make([]P, len(ring))
	for i, p := range ring {
		r[len(ring)-1-i] = p
	}
	return r
}
