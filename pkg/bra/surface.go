// pkg/bra/surface.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bra

import (
	gomath "math"
	"strconv"
	"strings"

	"github.com/qbra/qbra/pkg/math"

	"github.com/iancoleman/orderedmap"
)

// Role identifies the part of the protection volume a surface polygon
// represents; its string value is what ends up in the "area" attribute.
type Role string

const (
	RoleBase               Role = "base"
	RoleLeftLevel          Role = "left level"
	RoleRightLevel         Role = "right level"
	RoleSlope              Role = "slope"
	RoleWall               Role = "wall"
	RoleInnerCylinderTop   Role = "inner cylinder top"
	RoleConeMantle         Role = "cone mantle"
	RoleTurbineCylinderTop Role = "turbine cylinder top"
)

// CircleSegments is the tessellation rate used for all full circles.
const CircleSegments = 128

// closureEpsilon bounds how far apart the first and last vertex of a ring
// may be and still count as closed.
const closureEpsilon = 1e-6

///////////////////////////////////////////////////////////////////////////
// Ring

// Ring is a closed boundary of a surface polygon. Linear rings repeat
// their first vertex at the end. A ring with an Arc instead runs through
// Vertices and is then closed by the arc, which goes from the last vertex
// back to the first; Vertices does not repeat the first vertex in that
// case.
type Ring struct {
	Vertices []math.Point3 `json:"vertices" msgpack:"v"`
	Arc      *math.Arc     `json:"arc,omitempty" msgpack:"a,omitempty"`
}

// Closed reports whether the ring forms a closed boundary.
func (r Ring) Closed() bool {
	n := len(r.Vertices)
	if r.Arc == nil {
		return n >= 4 && math.Equal3(r.Vertices[0], r.Vertices[n-1], closureEpsilon)
	}
	return n >= 2 &&
		math.Equal3(r.Arc.PointAt(0), r.Vertices[n-1], closureEpsilon*max(1, r.Arc.Radius)) &&
		math.Equal3(r.Arc.PointAt(1), r.Vertices[0], closureEpsilon*max(1, r.Arc.Radius))
}

// Linearize returns the ring as a closed vertex chain, with the closing
// arc (if any) densified so that no chord deviates from it by more than
// tol. The arc's endpoints are taken from Vertices so that the chain
// closes exactly.
func (r Ring) Linearize(tol float64) []math.Point3 {
	if r.Arc == nil {
		return append([]math.Point3(nil), r.Vertices...)
	}

	pts := r.Arc.Points(r.Arc.SegmentsFor(tol))
	ring := make([]math.Point3, 0, len(r.Vertices)+len(pts)-1)
	ring = append(ring, r.Vertices...)
	ring = append(ring, pts[1:len(pts)-1]...)
	return append(ring, r.Vertices[0])
}

// Extent returns the horizontal bounding box of the ring, including the
// bulge of the arc.
func (r Ring) Extent(tol float64) math.Extent2D {
	e := math.EmptyExtent2D()
	for _, p := range r.Linearize(tol) {
		e = math.Union(e, p.XY())
	}
	return e
}

///////////////////////////////////////////////////////////////////////////
// Attributes

// Field is a named attribute value.
type Field struct {
	Name  string `json:"name" msgpack:"n"`
	Value string `json:"value" msgpack:"v"`
}

// Attributes is the attribute record carried by every surface polygon.
// The column order is fixed: id, area, max_elev, area_name, then the
// echoed parameters, then type.
type Attributes struct {
	ID       int     `json:"id" msgpack:"id"`
	Area     Role    `json:"area" msgpack:"area"`
	MaxElev  string  `json:"max_elev" msgpack:"max_elev"`
	AreaName string  `json:"area_name" msgpack:"area_name"`
	Params   []Field `json:"params" msgpack:"params"`
	Type     string  `json:"type" msgpack:"type"`
}

// Fields returns all columns, in order, as strings.
func (a Attributes) Fields() []Field {
	f := []Field{
		{Name: "id", Value: strconv.Itoa(a.ID)},
		{Name: "area", Value: string(a.Area)},
		{Name: "max_elev", Value: a.MaxElev},
		{Name: "area_name", Value: a.AreaName},
	}
	f = append(f, a.Params...)
	return append(f, Field{Name: "type", Value: a.Type})
}

// Get returns the value of the named column.
func (a Attributes) Get(name string) (string, bool) {
	for _, f := range a.Fields() {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// OrderedMap returns the attributes as a JSON object that preserves the
// column order; id stays numeric.
func (a Attributes) OrderedMap() *orderedmap.OrderedMap {
	m := orderedmap.New()
	for _, f := range a.Fields() {
		if f.Name == "id" {
			m.Set("id", a.ID)
		} else {
			m.Set(f.Name, f.Value)
		}
	}
	return m
}

// FormatValue formats v the way the attribute columns expect: the
// shortest representation that round-trips, always with a fractional
// part ("500.0", "0.25"). Magnitudes below 1e-4 or from 1e16 up use an
// exponent ("1e-05", "1.5e+16"); non-finite values are "nan", "inf" and
// "-inf".
func FormatValue(v float64) string {
	switch {
	case gomath.IsNaN(v):
		return "nan"
	case gomath.IsInf(v, 1):
		return "inf"
	case gomath.IsInf(v, -1):
		return "-inf"
	}

	if a := math.Abs(v); a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

///////////////////////////////////////////////////////////////////////////
// SurfacePolygon

// SurfacePolygon is one 3D polygon of a protection volume.
type SurfacePolygon struct {
	Exterior   Ring       `json:"exterior" msgpack:"exterior"`
	Holes      []Ring     `json:"holes,omitempty" msgpack:"holes,omitempty"`
	Attributes Attributes `json:"attributes" msgpack:"attributes"`
}

// Rings returns the exterior ring followed by the holes.
func (s SurfacePolygon) Rings() []Ring {
	return append([]Ring{s.Exterior}, s.Holes...)
}

// MaxZ returns the highest vertex elevation of the polygon.
func (s SurfacePolygon) MaxZ() float64 {
	z := s.Exterior.Vertices[0].Z()
	for _, r := range s.Rings() {
		for _, p := range r.Vertices {
			z = max(z, p.Z())
		}
		if r.Arc != nil {
			z = max(z, r.Arc.Z)
		}
	}
	return z
}

///////////////////////////////////////////////////////////////////////////
// LabelInfo

// LabelInfo carries the naming context of a build; it only affects
// attributes and layer names, never geometry.
type LabelInfo struct {
	DisplayName   string `json:"display_name,omitempty" msgpack:"display_name,omitempty"`
	Remark        string `json:"remark,omitempty" msgpack:"remark,omitempty"`
	FacilityLabel string `json:"facility_label,omitempty" msgpack:"facility_label,omitempty"`
	FacilityKey   string `json:"facility_key,omitempty" msgpack:"facility_key,omitempty"`
}

// TypeTag returns the value of the "type" attribute: the facility label,
// else the key, else empty.
func (l LabelInfo) TypeTag() string {
	if l.FacilityLabel != "" {
		return l.FacilityLabel
	}
	return l.FacilityKey
}

///////////////////////////////////////////////////////////////////////////
// Layer

// Layer is the output of a single build: the named, ordered collection of
// surface polygons for one facility.
type Layer struct {
	Name     string           `json:"name" msgpack:"name"`
	CRS      string           `json:"crs,omitempty" msgpack:"crs,omitempty"`
	Family   Family           `json:"family" msgpack:"family"`
	Surfaces []SurfacePolygon `json:"surfaces" msgpack:"surfaces"`
}

// Extent returns the horizontal bounding box of all surfaces in the layer.
func (l *Layer) Extent() math.Extent2D {
	e := math.EmptyExtent2D()
	for _, s := range l.Surfaces {
		ext := s.Exterior.Extent(0.01)
		if !ext.IsEmpty() {
			e = math.Union(math.Union(e, ext.P0), ext.P1)
		}
	}
	return e
}
