// pkg/math/core.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

// Degrees converts an angle expressed in radians to degrees.
func Degrees(r float64) float64 {
	return r * 180 / gomath.Pi
}

// Radians converts an angle expressed in degrees to radians.
func Radians(d float64) float64 {
	return d / 180 * gomath.Pi
}

// A handful of thin wrappers so that callers in this module don't have to
// import both this package and the standard math package.

func Sin(a float64) float64  { return gomath.Sin(a) }
func Cos(a float64) float64  { return gomath.Cos(a) }
func Tan(a float64) float64  { return gomath.Tan(a) }
func Sqrt(a float64) float64 { return gomath.Sqrt(a) }

func Atan2(y, x float64) float64 {
	return gomath.Atan2(y, x)
}

func Mod(a, b float64) float64 {
	return gomath.Mod(a, b)
}

func Round(v float64, digits int) float64 {
	s := gomath.Pow(10, float64(digits))
	return gomath.Round(v*s) / s
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !gomath.IsNaN(v) && !gomath.IsInf(v, 0)
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

// ApproxEqual reports whether a and b differ by no more than eps.
func ApproxEqual(a, b, eps float64) bool {
	return Abs(a-b) <= eps
}
