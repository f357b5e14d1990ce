// pkg/bra/omni.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bra

import (
	"slices"

	"github.com/qbra/qbra/pkg/math"
)

// BuildOmniSurfaces constructs the surfaces of an omnidirectional
// facility centered at ref: the top of the inner cylinder (a disc of
// radius r at r*tan(alpha)), the cone mantle (radius R at R*tan(alpha),
// with the inner disc cut out) and, if turbine is set, the top of the
// turbine-monitoring cylinder (radius j at height h). Elevations are
// relative to siteElev. Circles are tessellated with CircleSegments
// segments.
//
// The parameters are validated first and the first violation is returned
// as a *ValidationError. j and h are ignored, and reported as zero in the
// attributes, when turbine is not set.
func BuildOmniSurfaces(ref math.Point2, p OmniParams, siteElev float64, turbine bool,
	label LabelInfo) ([]SurfacePolygon, error) {
	if !turbine {
		p.J, p.H = 0, 0
	}
	if err := p.Validate(turbine); err != nil {
		return nil, err
	}
	if !math.IsFinite(siteElev) {
		return nil, &ValidationError{Stage: "omni", Param: "site_elev", Value: siteElev, Reason: "must be finite"}
	}

	innerZ := siteElev + p.InnerHeight()
	outerZ := siteElev + p.OuterHeight()

	displayName := OmniDisplayName(label)
	echo := []Field{
		{Name: "r", Value: FormatValue(p.R)},
		{Name: "alpha", Value: FormatValue(p.Alpha)},
		{Name: "R", Value: FormatValue(p.OuterR)},
		{Name: "j", Value: FormatValue(p.J)},
		{Name: "h", Value: FormatValue(p.H)},
	}
	attrs := func(id int, role Role, maxElev float64) Attributes {
		return Attributes{
			ID:       id,
			Area:     role,
			MaxElev:  FormatValue(maxElev),
			AreaName: displayName,
			Params:   slices.Clone(echo),
			Type:     label.TypeTag(),
		}
	}

	surfaces := []SurfacePolygon{
		{
			Exterior:   Ring{Vertices: math.TessellateCircle(ref, p.R, innerZ, CircleSegments)},
			Attributes: attrs(1, RoleInnerCylinderTop, innerZ),
		},
		{
			Exterior: Ring{Vertices: math.TessellateCircle(ref, p.OuterR, outerZ, CircleSegments)},
			Holes: []Ring{
				{Vertices: math.ReverseRing(math.TessellateCircle(ref, p.R, innerZ, CircleSegments))},
			},
			Attributes: attrs(2, RoleConeMantle, outerZ),
		},
	}

	if turbine {
		turbineZ := siteElev + p.H
		surfaces = append(surfaces, SurfacePolygon{
			Exterior:   Ring{Vertices: math.TessellateCircle(ref, p.J, turbineZ, CircleSegments)},
			Attributes: attrs(3, RoleTurbineCylinderTop, turbineZ),
		})
	}

	return surfaces, nil
}

// OmniDisplayName returns the name used for omnidirectional layers and
// attributes: the display name, else the remark, else "BRA".
func OmniDisplayName(label LabelInfo) string {
	if label.DisplayName != "" {
		return label.DisplayName
	}
	if label.Remark != "" {
		return label.Remark
	}
	return "BRA"
}
