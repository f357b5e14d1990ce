// pkg/math/heading.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

///////////////////////////////////////////////////////////////////////////
// headings, bearings and azimuths

// All bearings in this package are in degrees, measured clockwise from
// grid north (+y).

// ProjectPoint returns the point that is distance units from origin along
// the given bearing. The projection is planar; all distances we deal with
// are local to a single facility.
func ProjectPoint(origin Point2, distance float64, bearing float64) Point2 {
	r := Radians(bearing)
	return Point2{origin[0] + distance*Sin(r), origin[1] + distance*Cos(r)}
}

// Azimuth returns the bearing from the point from to the point to,
// normalized to [0,360).
func Azimuth(from, to Point2) float64 {
	v := Sub2(to, from)

	// Note that atan2() normally measures w.r.t. the +x axis and angles
	// are positive for counter-clockwise. We want to measure w.r.t. +y and
	// to have positive angles be clockwise. Happily, swapping the order of
	// values passed to atan2()--passing (x,y), gives what we want.
	return NormalizeHeading(Degrees(Atan2(v[0], v[1])))
}

// HeadingSignedTurn returns the signed turn in (-180,180] that takes the
// heading cur to target; positive values are clockwise.
func HeadingSignedTurn(cur, target float64) float64 {
	rot := NormalizeHeading(180 - target)
	return 180 - NormalizeHeading(cur+rot) // w.r.t. 180 target
}

// Reduces it to [0,360).
func NormalizeHeading(h float64) float64 {
	h = Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		// -tiny + 360 can round to 360.
		h = 0
	}
	return h
}

func OppositeHeading(h float64) float64 {
	return NormalizeHeading(h + 180)
}
