// pkg/bra/directional.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bra

import (
	"slices"

	"github.com/qbra/qbra/pkg/math"
)

// Length of the auxiliary rays used to find where the slope boundaries
// meet the slope arc and the outer edges of the side levels.
const auxRayLength = 10000

// BuildDirectionalSurfaces constructs the seven surface polygons of a
// directional facility's protection volume around the navaid at ref,
// facing azimuth (degrees clockwise from north). Elevations are absolute:
// the base is at siteElev, the side levels and walls reach siteElev+H and
// the slope rises to siteElev+h at radius r. The polygons are returned in
// the order base, left level, right level, slope, then the three walls.
//
// Invalid parameters give a *ValidationError; if the slope boundaries
// miss the arc or the side-level boundaries, a *GeometryError is returned.
// No partial output is ever returned.
func BuildDirectionalSurfaces(ref math.Point2, azimuth float64, p DirectionalParams, siteElev float64,
	label LabelInfo) ([]SurfacePolygon, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !math.IsFinite(azimuth) {
		return nil, &ValidationError{Stage: "directional", Param: "azimuth", Value: azimuth, Reason: "must be finite"}
	}
	if !math.IsFinite(siteElev) {
		return nil, &ValidationError{Stage: "directional", Param: "site_elev", Value: siteElev, Reason: "must be finite"}
	}

	// The front and back edge centers, then the four base corners.
	f := math.ProjectPoint(ref, p.A, azimuth)
	b := math.ProjectPoint(ref, p.B, math.OppositeHeading(azimuth))
	fl := math.ProjectPoint(f, p.D, azimuth-90)
	fr := math.ProjectPoint(f, p.D, azimuth+90)
	bl := math.ProjectPoint(b, p.D, azimuth-90)
	br := math.ProjectPoint(b, p.D, azimuth+90)

	// Outer corners of the side levels.
	ll := math.ProjectPoint(b, p.L, azimuth-90)
	lr := math.ProjectPoint(b, p.L, azimuth+90)

	// Auxiliary rays: forward from the outer side-level corners and
	// diverging by phi from the front corners.
	llRay := math.ProjectPoint(ll, auxRayLength, azimuth)
	lrRay := math.ProjectPoint(lr, auxRayLength, azimuth)
	flRay := math.ProjectPoint(fl, auxRayLength, azimuth-p.Phi)
	frRay := math.ProjectPoint(fr, auxRayLength, azimuth+p.Phi)

	// Where the slope boundaries meet the arc; of the two intersections,
	// take the one nearer the arc's center line.
	rc := math.ProjectPoint(ref, p.R, azimuth)
	rl, err := math.LineCircleIntersect(ref, p.R, fl, flRay, rc)
	if err != nil {
		return nil, &GeometryError{Stage: "left slope boundary", Point: "Rl", Err: err}
	}
	rr, err := math.LineCircleIntersect(ref, p.R, fr, frRay, rc)
	if err != nil {
		return nil, &GeometryError{Stage: "right slope boundary", Point: "Rr", Err: err}
	}

	// Where the slope boundaries meet the outer edges of the side levels.
	drl, err := math.SegmentIntersect(fl, flRay, ll, llRay)
	if err != nil {
		return nil, &GeometryError{Stage: "left level", Point: "Drl", Err: err}
	}
	drr, err := math.SegmentIntersect(fr, frRay, lr, lrRay)
	if err != nil {
		return nil, &GeometryError{Stage: "right level", Point: "Drr", Err: err}
	}

	sideElev := siteElev + p.LevelH
	slopeElev := siteElev + p.SlopeH

	ring := func(z float64, pts ...math.Point2) Ring {
		r := Ring{Vertices: make([]math.Point3, 0, len(pts)+1)}
		for _, pt := range pts {
			r.Vertices = append(r.Vertices, pt.WithZ(z))
		}
		r.Vertices = append(r.Vertices, r.Vertices[0])
		return r
	}
	wall := func(from, to math.Point2) Ring {
		return Ring{Vertices: []math.Point3{
			from.WithZ(siteElev), from.WithZ(sideElev), to.WithZ(sideElev), to.WithZ(siteElev), from.WithZ(siteElev),
		}}
	}

	slopeRL, slopeRR := rl.WithZ(slopeElev), rr.WithZ(slopeElev)
	arc := math.ArcFromTwoPointsAndCenter(slopeRL, slopeRR, ref)
	slope := Ring{
		Vertices: []math.Point3{slopeRR, fr.WithZ(siteElev), fl.WithZ(siteElev), slopeRL},
		Arc:      &arc,
	}

	displayName := label.DisplayName
	if displayName == "" {
		displayName = label.Remark
	}
	echo := directionalEcho(p)
	attrs := func(id int, role Role, maxElev float64, name string) Attributes {
		return Attributes{
			ID:       id,
			Area:     role,
			MaxElev:  FormatValue(maxElev),
			AreaName: name,
			Params:   slices.Clone(echo),
			Type:     label.TypeTag(),
		}
	}

	return []SurfacePolygon{
		{Exterior: ring(siteElev, bl, br, fr, fl), Attributes: attrs(1, RoleBase, siteElev, displayName)},
		{Exterior: ring(sideElev, ll, bl, fl, drl), Attributes: attrs(2, RoleLeftLevel, sideElev, displayName)},
		{Exterior: ring(sideElev, br, lr, drr, fr), Attributes: attrs(3, RoleRightLevel, sideElev, displayName)},
		{Exterior: slope, Attributes: attrs(4, RoleSlope, slopeElev, displayName)},
		{Exterior: wall(bl, br), Attributes: attrs(5, RoleWall, sideElev, displayName)},
		{Exterior: wall(fl, bl), Attributes: attrs(6, RoleWall, sideElev, displayName)},
		// The right wall is named by the remark, not the display name.
		{Exterior: wall(fr, br), Attributes: attrs(7, RoleWall, sideElev, label.Remark)},
	}, nil
}

func directionalEcho(p DirectionalParams) []Field {
	return []Field{
		{Name: "a", Value: FormatValue(math.Round(p.A, 2))},
		{Name: "b", Value: FormatValue(p.B)},
		{Name: "h", Value: FormatValue(p.SlopeH)},
		{Name: "r", Value: FormatValue(math.Round(p.R, 2))},
		{Name: "D", Value: FormatValue(p.D)},
		{Name: "H", Value: FormatValue(p.LevelH)},
		{Name: "L", Value: FormatValue(p.L)},
		{Name: "phi", Value: FormatValue(p.Phi)},
	}
}
