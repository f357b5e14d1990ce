// pkg/math/arc.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
)

// Arc is a circular arc in the horizontal plane at a constant elevation.
// It runs from the bearing Start around Center by Sweep degrees; positive
// sweeps are clockwise (increasing bearing).
type Arc struct {
	Center Point2
	Radius float64
	Start  float64 // bearing of the first endpoint
	Sweep  float64 // signed, in (-180,180]
	Z      float64
}

// ArcFromTwoPointsAndCenter returns the arc from p1 to p2 around center
// that takes the shorter way around. Both endpoints must be at the same
// distance from center; it is a programming error if they are not.
func ArcFromTwoPointsAndCenter(p1, p2 Point3, center Point2) Arc {
	r1 := Distance2(center, p1.XY())
	r2 := Distance2(center, p2.XY())
	if !ApproxEqual(r1, r2, 1e-6*max(1, r1)) {
		panic(fmt.Sprintf("arc endpoints at different radii: %f vs %f", r1, r2))
	}

	start := Azimuth(center, p1.XY())
	end := Azimuth(center, p2.XY())
	return Arc{
		Center: center,
		Radius: r1,
		Start:  start,
		Sweep:  HeadingSignedTurn(start, end),
		Z:      p1.Z(),
	}
}

// PointAt returns the point at fraction t in [0,1] along the arc.
func (a Arc) PointAt(t float64) Point3 {
	return ProjectPoint(a.Center, a.Radius, a.Start+t*a.Sweep).WithZ(a.Z)
}

// Mid returns the arc's midpoint; together with the endpoints it fully
// determines the arc.
func (a Arc) Mid() Point3 {
	return a.PointAt(0.5)
}

// Points returns nsegs+1 points evenly spaced along the arc, including
// both endpoints.
func (a Arc) Points(nsegs int) []Point3 {
	nsegs = max(1, nsegs)
	pts := make([]Point3, nsegs+1)
	for i := range pts {
		pts[i] = a.PointAt(float64(i) / float64(nsegs))
	}
	return pts
}

// SegmentsFor returns the number of segments needed to keep the chordal
// deviation of the arc under tol.
func (a Arc) SegmentsFor(tol float64) int {
	if a.Radius <= tol || a.Sweep == 0 {
		return 1
	}
	// Max half-angle per segment such that r*(1-cos(theta)) <= tol.
	theta := gomath.Acos(1 - tol/a.Radius)
	return max(1, int(gomath.Ceil(Radians(Abs(a.Sweep))/(2*theta))))
}
