// pkg/math/vecmat.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

///////////////////////////////////////////////////////////////////////////
// Point2 / Point3

// Point2 is a planar point in the (projected) map coordinate system:
// 0 (x) is easting, 1 (y) is northing.
type Point2 [2]float64

// Point3 is a Point2 with an elevation.
type Point3 [3]float64

// WithZ lifts p to 3D at elevation z.
func (p Point2) WithZ(z float64) Point3 {
	return Point3{p[0], p[1], z}
}

func (p Point3) XY() Point2 { return Point2{p[0], p[1]} }
func (p Point3) Z() float64 { return p[2] }

// Various useful functions for arithmetic with 2D points/vectors.
// Names are brief in order to avoid clutter when they're used.

// a+b
func Add2(a, b Point2) Point2 {
	return Point2{a[0] + b[0], a[1] + b[1]}
}

// a-b
func Sub2(a, b Point2) Point2 {
	return Point2{a[0] - b[0], a[1] - b[1]}
}

// a*s
func Scale2(a Point2, s float64) Point2 {
	return Point2{s * a[0], s * a[1]}
}

func Dot2(a, b Point2) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

// Cross2 returns the z component of the cross product of a and b.
func Cross2(a, b Point2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// Length of v
func Length2(v Point2) float64 {
	return Sqrt(v[0]*v[0] + v[1]*v[1])
}

// Distance between two points
func Distance2(a, b Point2) float64 {
	return Length2(Sub2(a, b))
}

func Sub3(a, b Point3) Point3 {
	return Point3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func Cross3(a, b Point3) Point3 {
	return Point3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func Length3(v Point3) float64 {
	return Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Equal2 reports whether two points coincide within eps in each
// coordinate.
func Equal2(a, b Point2, eps float64) bool {
	return Abs(a[0]-b[0]) <= eps && Abs(a[1]-b[1]) <= eps
}

func Equal3(a, b Point3, eps float64) bool {
	return Abs(a[0]-b[0]) <= eps && Abs(a[1]-b[1]) <= eps && Abs(a[2]-b[2]) <= eps
}
