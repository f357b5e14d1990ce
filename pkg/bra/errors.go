// pkg/bra/errors.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bra

import (
	"errors"
	"fmt"
)

var (
	ErrCannotDeriveA      = errors.New("Unable to derive parameter a from the route")
	ErrDegenerateGeometry = errors.New("Degenerate surface geometry")
	ErrInvalidDirection   = errors.New("Invalid direction")
	ErrInvalidInput       = errors.New("Invalid input parameters")
	ErrNoAzimuth          = errors.New("Neither an azimuth nor a route was provided")
	ErrNoRoute            = errors.New("Route has fewer than two vertices")
	ErrUnknownFacility    = errors.New("Unknown facility")
)

// ValidationError reports a parameter that violates the invariants of a
// surface build; it is returned before any geometry is computed.
// errors.Is(err, ErrInvalidInput) holds for all of them.
type ValidationError struct {
	Stage  string // e.g. "omni", "turbine", "directional"
	Param  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s parameter %s invalid (%g): %s", e.Stage, e.Param, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// GeometryError reports a failed intersection while constructing a
// surface. It matches both ErrDegenerateGeometry and the underlying
// primitive error (math.ErrNoIntersection or math.ErrParallelLines).
type GeometryError struct {
	Stage string // the construction step, e.g. "left slope boundary"
	Point string // the point being solved for, e.g. "Rl"
	Err   error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: unable to construct %s: %v", e.Stage, e.Point, e.Err)
}

func (e *GeometryError) Unwrap() []error {
	return []error{ErrDegenerateGeometry, e.Err}
}
