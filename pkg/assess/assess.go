// pkg/assess/assess.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package assess checks obstacles against built protection surfaces.
package assess

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/qbra/qbra/pkg/bra"
	"github.com/qbra/qbra/pkg/export"
	"github.com/qbra/qbra/pkg/math"
	"github.com/qbra/qbra/pkg/mesh"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// minFootprintArea is the horizontal area, in square meters, below which a
// surface is considered vertical and can't be penetrated from above.
const minFootprintArea = 1e-6

// minExtent keeps rtreego rectangles from having zero width.
const minExtent = 1e-6

// surface is a single non-vertical surface in the index.
type surface struct {
	layer     string
	attrs     bra.Attributes
	footprint orb.Polygon
	bound     orb.Bound
	mesh      mesh.Mesh
}

// Bounds implements the rtreego.Spatial interface.
func (s *surface) Bounds() rtreego.Rect {
	minX, minY := s.bound.Min[0], s.bound.Min[1]
	maxX, maxY := s.bound.Max[0], s.bound.Max[1]

	rect, _ := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{max(maxX-minX, minExtent), max(maxY-minY, minExtent)},
	)
	return rect
}

// Index is a spatial index over the surfaces of one or more layers.
type Index struct {
	tree *rtreego.Rtree
	n    int
}

// NewIndex triangulates the surfaces of the given layers and indexes those
// with a horizontal extent.
func NewIndex(layers ...*bra.Layer) (*Index, error) {
	idx := &Index{tree: rtreego.NewTree(2, 4, 16)}

	for _, l := range layers {
		for _, s := range l.Surfaces {
			if export.FootprintArea(s) < minFootprintArea {
				continue
			}

			// Footprint and mesh must linearize arcs identically so that
			// contained points fall inside a triangle.
			fp := export.OrbPolygon(s)
			m, err := mesh.Triangulate(s, export.ArcTolerance)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", l.Name, err)
			}
			idx.tree.Insert(&surface{
				layer:     l.Name,
				attrs:     s.Attributes,
				footprint: fp,
				bound:     fp.Bound(),
				mesh:      m,
			})
			idx.n++
		}
	}
	return idx, nil
}

// Len returns the number of indexed surfaces.
func (idx *Index) Len() int {
	return idx.n
}

// Result describes an obstacle's relation to one surface above or below
// it.
type Result struct {
	Layer    string   `json:"layer"`
	ID       int      `json:"id"`
	Area     bra.Role `json:"area"`
	AreaName string   `json:"area_name"`

	// SurfaceZ is the elevation of the surface at the obstacle's
	// position.
	SurfaceZ float64 `json:"surface_z"`

	// Penetration is the obstacle's elevation less SurfaceZ; positive
	// values mean the obstacle pierces the surface.
	Penetration float64 `json:"penetration"`
}

func (r Result) Penetrates() bool {
	return r.Penetration > 0
}

// Assess returns a result for every indexed surface whose footprint
// contains the obstacle's horizontal position, ordered by decreasing
// penetration.
func (idx *Index) Assess(p math.Point3) []Result {
	var results []Result
	query := rtreego.Point{p[0], p[1]}.ToRect(0.001)
	for _, sp := range idx.tree.SearchIntersect(query) {
		s := sp.(*surface)
		if !planar.PolygonContains(s.footprint, orb.Point{p[0], p[1]}) {
			continue
		}
		z, ok := s.mesh.HeightAt(p.XY())
		if !ok {
			// On the footprint boundary, outside every triangle.
			continue
		}
		results = append(results, Result{
			Layer:       s.layer,
			ID:          s.attrs.ID,
			Area:        s.attrs.Area,
			AreaName:    s.attrs.AreaName,
			SurfaceZ:    z,
			Penetration: p[2] - z,
		})
	}

	slices.SortFunc(results, func(a, b Result) int {
		if c := cmp.Compare(b.Penetration, a.Penetration); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Layer, b.Layer); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return results
}

// Obstacle is a named point obstacle, e.g. a mast or a building's highest
// point.
type Obstacle struct {
	Name     string      `json:"name"`
	Position math.Point3 `json:"position"`
}

// Violation is an obstacle that penetrates at least one surface, along
// with all of the surfaces it penetrates.
type Violation struct {
	Obstacle Obstacle `json:"obstacle"`
	Results  []Result `json:"results"`
}

// Violations assesses each obstacle and returns those penetrating any
// surface, in the order given.
func (idx *Index) Violations(obstacles []Obstacle) []Violation {
	var v []Violation
	for _, o := range obstacles {
		var pen []Result
		for _, r := range idx.Assess(o.Position) {
			if r.Penetrates() {
				pen = append(pen, r)
			}
		}
		if len(pen) > 0 {
			v = append(v, Violation{Obstacle: o, Results: pen})
		}
	}
	return v
}
