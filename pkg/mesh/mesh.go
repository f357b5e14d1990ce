// pkg/mesh/mesh.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package mesh converts surface polygons into triangle meshes, for area
// computations, height queries and STL output.
package mesh

import (
	"errors"
	"fmt"

	"github.com/qbra/qbra/pkg/bra"
	"github.com/qbra/qbra/pkg/math"

	"github.com/mmp/earcut-go"
)

var (
	ErrDegeneratePolygon = errors.New("Polygon has no area")
	ErrAmbiguousVertex   = errors.New("Distinct vertices project to the same point")
)

// DefaultArcTolerance is the maximum chordal deviation, in meters, used
// when arcs are linearized for triangulation.
const DefaultArcTolerance = 0.05

type Triangle [3]math.Point3

// Normal returns the triangle's unit normal, following the right-hand
// rule with respect to its vertex order.
func (t Triangle) Normal() math.Point3 {
	n := math.Cross3(math.Sub3(t[1], t[0]), math.Sub3(t[2], t[0]))
	if l := math.Length3(n); l > 0 {
		return math.Point3{n[0] / l, n[1] / l, n[2] / l}
	}
	return n
}

// Area returns the triangle's area in 3D.
func (t Triangle) Area() float64 {
	return math.Length3(math.Cross3(math.Sub3(t[1], t[0]), math.Sub3(t[2], t[0]))) / 2
}

// HeightAt returns the elevation of the triangle's plane at p if p is
// inside the triangle's horizontal projection. Vertical triangles never
// contain a point.
func (t Triangle) HeightAt(p math.Point2) (float64, bool) {
	a, b, c := t[0].XY(), t[1].XY(), t[2].XY()
	den := math.Cross2(math.Sub2(b, a), math.Sub2(c, a))
	if math.Abs(den) < 1e-9 {
		return 0, false
	}

	// Barycentric coordinates of p.
	u := math.Cross2(math.Sub2(c, b), math.Sub2(p, b)) / den
	v := math.Cross2(math.Sub2(a, c), math.Sub2(p, c)) / den
	w := 1 - u - v
	const eps = 1e-9
	if u < -eps || v < -eps || w < -eps {
		return 0, false
	}
	return u*t[0].Z() + v*t[1].Z() + w*t[2].Z(), true
}

// Mesh is the triangulation of a single surface polygon.
type Mesh struct {
	ID        int
	Role      bra.Role
	Triangles []Triangle
}

// Area returns the total 3D surface area of the mesh.
func (m Mesh) Area() float64 {
	var a float64
	for _, t := range m.Triangles {
		a += t.Area()
	}
	return a
}

// Bounds returns the minimum and maximum corners of the mesh's bounding
// box.
func (m Mesh) Bounds() (lo, hi math.Point3) {
	if len(m.Triangles) == 0 {
		return
	}
	lo, hi = m.Triangles[0][0], m.Triangles[0][0]
	for _, t := range m.Triangles {
		for _, v := range t {
			for i := range 3 {
				lo[i] = min(lo[i], v[i])
				hi[i] = max(hi[i], v[i])
			}
		}
	}
	return
}

// HeightAt returns the highest elevation of the mesh above p, if the mesh
// covers p.
func (m Mesh) HeightAt(p math.Point2) (float64, bool) {
	var z float64
	found := false
	for _, t := range m.Triangles {
		if h, ok := t.HeightAt(p); ok && (!found || h > z) {
			z, found = h, true
		}
	}
	return z, found
}

// Triangulate triangulates the surface polygon, including its holes. Arcs
// are linearized with the given chordal tolerance (DefaultArcTolerance if
// tol <= 0). Since surfaces may be vertical or not quite planar (the slope
// and the cone mantle), the rings are projected onto the coordinate plane
// most closely aligned with the exterior ring, triangulated there, and the
// triangles are then lifted back to the original vertices.
func Triangulate(s bra.SurfacePolygon, tol float64) (Mesh, error) {
	if tol <= 0 {
		tol = DefaultArcTolerance
	}
	m := Mesh{ID: s.Attributes.ID, Role: s.Attributes.Area}

	var rings [][]math.Point3
	for _, r := range s.Rings() {
		pts := r.Linearize(tol)
		// earcut expects open rings
		if n := len(pts); n > 1 && pts[0] == pts[n-1] {
			pts = pts[:n-1]
		}
		if len(pts) < 3 {
			return m, fmt.Errorf("%s %d: ring with %d vertices: %w", m.Role, m.ID, len(pts), ErrDegeneratePolygon)
		}
		rings = append(rings, pts)
	}

	if len(rings) == 2 && len(rings[0]) == len(rings[1]) {
		// An annulus between two rings with matching vertices, like the
		// cone mantle: connect corresponding vertices so that heights
		// interpolate between the rings.
		outer, inner := rings[0], rings[1]
		if (windingXY(outer) > 0) != (windingXY(inner) > 0) {
			inner = math.ReverseRing(inner)
		}
		m.Triangles = stripTriangulate(outer, inner)
		return m, nil
	}

	normal := math.NewellNormal(rings[0])
	if math.Length3(normal) < 1e-9 {
		return m, fmt.Errorf("%s %d: %w", m.Role, m.ID, ErrDegeneratePolygon)
	}
	// Drop the coordinate along which the normal is largest.
	u, v := 0, 1
	if ax, ay, az := math.Abs(normal[0]), math.Abs(normal[1]), math.Abs(normal[2]); ax >= ay && ax >= az {
		u, v = 1, 2
	} else if ay >= ax && ay >= az {
		u, v = 0, 2
	}

	// Work relative to the first vertex to keep projected coordinates
	// small.
	origin := rings[0][0]
	lift := make(map[[2]float64]math.Point3)
	poly := earcut.Polygon{Rings: make([][]earcut.Vertex, len(rings))}
	for i, r := range rings {
		poly.Rings[i] = make([]earcut.Vertex, len(r))
		for j, p := range r {
			q := [2]float64{p[u] - origin[u], p[v] - origin[v]}
			if prev, ok := lift[q]; ok && prev != p {
				return m, fmt.Errorf("%s %d: %v and %v: %w", m.Role, m.ID, prev, p, ErrAmbiguousVertex)
			}
			lift[q] = p
			poly.Rings[i][j].P = q
		}
	}

	for _, tri := range earcut.Triangulate(poly) {
		var t Triangle
		for i, vtx := range tri.Vertices {
			t[i] = lift[vtx.P]
		}
		m.Triangles = append(m.Triangles, t)
	}
	if len(m.Triangles) == 0 {
		return m, fmt.Errorf("%s %d: %w", m.Role, m.ID, ErrDegeneratePolygon)
	}
	return m, nil
}

// TriangulateLayer triangulates all of the layer's surfaces. Surfaces
// without area (walls when H is zero, for example) are skipped.
func TriangulateLayer(l *bra.Layer, tol float64) ([]Mesh, error) {
	meshes := make([]Mesh, 0, len(l.Surfaces))
	for _, s := range l.Surfaces {
		m, err := Triangulate(s, tol)
		if errors.Is(err, ErrDegeneratePolygon) {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("%s: %w", l.Name, err)
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// stripTriangulate triangulates the band between the outer and inner
// rings, which must have the same number of vertices and run in the same
// direction. Inner vertices are paired with outer ones starting from the
// inner vertex nearest to outer[0].
func stripTriangulate(outer, inner []math.Point3) []Triangle {
	n := len(outer)
	start := 0
	for i := range inner {
		if math.Distance2(inner[i].XY(), outer[0].XY()) < math.Distance2(inner[start].XY(), outer[0].XY()) {
			start = i
		}
	}

	tris := make([]Triangle, 0, 2*n)
	for i := range n {
		o0, o1 := outer[i], outer[(i+1)%n]
		i0, i1 := inner[(start+i)%n], inner[(start+i+1)%n]
		tris = append(tris, Triangle{o0, o1, i0}, Triangle{i0, o1, i1})
	}
	return tris
}

// windingXY returns the signed area of the ring's horizontal projection.
func windingXY(ring []math.Point3) float64 {
	xy := make([]math.Point2, len(ring))
	for i, p := range ring {
		xy[i] = p.XY()
	}
	return math.SignedArea2(xy)
}
