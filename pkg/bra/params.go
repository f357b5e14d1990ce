// pkg/bra/params.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bra

import (
	"github.com/qbra/qbra/pkg/math"
)

// DirectionalParams are the geometric parameters of a directional
// facility's surfaces; all lengths are in meters and Phi is in degrees.
type DirectionalParams struct {
	A      float64 `json:"a" msgpack:"a"`     // forward distance from the navaid to the front edge
	B      float64 `json:"b" msgpack:"b"`     // backward distance to the back edge
	SlopeH float64 `json:"h" msgpack:"h"`     // height of the slope surface at radius R
	R      float64 `json:"r" msgpack:"r"`     // radius of the slope arc
	D      float64 `json:"D" msgpack:"D"`     // lateral half-width of the base
	LevelH float64 `json:"H" msgpack:"H"`     // height of the side level surfaces
	L      float64 `json:"L" msgpack:"L"`     // lateral extent of the side levels from the back edge
	Phi    float64 `json:"phi" msgpack:"phi"` // divergence of the slope boundaries
}

// Validate checks that the values are finite and that the distances are
// non-negative. Neither r nor phi is range-checked; values that don't
// yield the slope or level corners surface as a GeometryError from the
// builder.
func (p DirectionalParams) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{{"a", p.A}, {"b", p.B}, {"h", p.SlopeH}, {"r", p.R}, {"D", p.D}, {"H", p.LevelH}, {"L", p.L}, {"phi", p.Phi}} {
		if !math.IsFinite(v.value) {
			return &ValidationError{Stage: "directional", Param: v.name, Value: v.value, Reason: "must be finite"}
		}
	}

	for _, v := range []struct {
		name  string
		value float64
	}{{"a", p.A}, {"b", p.B}, {"D", p.D}, {"H", p.LevelH}, {"L", p.L}} {
		if v.value < 0 {
			return &ValidationError{Stage: "directional", Param: v.name, Value: v.value, Reason: "must be >= 0"}
		}
	}
	return nil
}

// OmniParams are the parameters of an omnidirectional facility's
// surfaces. J and H describe the optional turbine-monitoring cylinder.
type OmniParams struct {
	R      float64 `json:"r" msgpack:"r"`         // radius of the inner disc
	Alpha  float64 `json:"alpha" msgpack:"alpha"` // elevation angle of the cone, degrees
	OuterR float64 `json:"R" msgpack:"R"`         // outer radius of the cone
	J      float64 `json:"j" msgpack:"j"`         // turbine cylinder radius
	H      float64 `json:"h" msgpack:"h"`         // turbine cylinder height
}

// Validate checks the parameters in a fixed order and reports the first
// violation. J and H are only checked when turbine is set.
func (p OmniParams) Validate(turbine bool) error {
	for _, v := range []struct {
		name  string
		value float64
	}{{"r", p.R}, {"R", p.OuterR}, {"alpha", p.Alpha}} {
		if !math.IsFinite(v.value) {
			return &ValidationError{Stage: "omni", Param: v.name, Value: v.value, Reason: "must be finite"}
		}
	}

	if p.R <= 0 {
		return &ValidationError{Stage: "omni", Param: "r", Value: p.R, Reason: "r and R must be > 0"}
	}
	if p.OuterR <= 0 {
		return &ValidationError{Stage: "omni", Param: "R", Value: p.OuterR, Reason: "r and R must be > 0"}
	}
	if p.OuterR < p.R {
		return &ValidationError{Stage: "omni", Param: "R", Value: p.OuterR, Reason: "R must be >= r"}
	}
	if p.Alpha <= 0 || p.Alpha > 90 {
		return &ValidationError{Stage: "omni", Param: "alpha", Value: p.Alpha, Reason: "alpha must be in (0, 90]"}
	}

	if turbine {
		if !math.IsFinite(p.J) || p.J <= 0 {
			return &ValidationError{Stage: "turbine", Param: "j", Value: p.J, Reason: "j and h must be > 0"}
		}
		if !math.IsFinite(p.H) || p.H <= 0 {
			return &ValidationError{Stage: "turbine", Param: "h", Value: p.H, Reason: "j and h must be > 0"}
		}
		if p.J < p.R {
			return &ValidationError{Stage: "turbine", Param: "j", Value: p.J, Reason: "j must be >= r"}
		}
	}
	return nil
}

// InnerHeight returns the height of the inner disc above the site, r*tan(alpha).
func (p OmniParams) InnerHeight() float64 {
	return p.R * math.Tan(math.Radians(p.Alpha))
}

// OuterHeight returns the height of the cone's outer rim above the site,
// R*tan(alpha).
func (p OmniParams) OuterHeight() float64 {
	return p.OuterR * math.Tan(math.Radians(p.Alpha))
}
