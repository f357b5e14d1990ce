// pkg/assess/assess_test.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package assess

import (
	gomath "math"
	"testing"

	"github.com/qbra/qbra/pkg/bra"
	"github.com/qbra/qbra/pkg/math"
)

func testIndex(t *testing.T) *Index {
	t.Helper()

	dp := bra.DirectionalParams{A: 500, B: 500, SlopeH: 70, R: 6500, D: 500, LevelH: 10, L: 2300, Phi: 30}
	ds, err := bra.BuildDirectionalSurfaces(math.Point2{0, 0}, 0, dp, 100, bra.LabelInfo{Remark: "RWY36"})
	if err != nil {
		t.Fatalf("BuildDirectionalSurfaces: %v", err)
	}
	op := bra.OmniParams{R: 300, Alpha: 1, OuterR: 3000}
	omniSurfaces, err := bra.BuildOmniSurfaces(math.Point2{20000, 0}, op, 0, false, bra.LabelInfo{Remark: "RWY1"})
	if err != nil {
		t.Fatalf("BuildOmniSurfaces: %v", err)
	}

	idx, err := NewIndex(&bra.Layer{Name: "loc", Surfaces: ds}, &bra.Layer{Name: "dme", Surfaces: omniSurfaces})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

func TestAssess(t *testing.T) {
	idx := testIndex(t)
	if idx.Len() != 6 {
		t.Errorf("expected walls to be left out of the index, got %d surfaces", idx.Len())
	}

	tan := gomath.Tan(gomath.Pi / 180)
	for _, c := range []struct {
		name        string
		p           math.Point3
		layer       string
		area        bra.Role
		z           float64
		penetrates  bool
		approximate bool
	}{
		{"mast on the base", math.Point3{0, 0, 150}, "loc", bra.RoleBase, 100, true, false},
		{"tree on the left level", math.Point3{-1500, 0, 105}, "loc", bra.RoleLeftLevel, 110, false, false},
		{"building on the right level", math.Point3{1500, 1000, 111}, "loc", bra.RoleRightLevel, 110, true, false},
		{"tower under the slope", math.Point3{0, 3000, 500}, "loc", bra.RoleSlope, 0, true, true},
		{"antenna in the cone", math.Point3{21000, 0, 20}, "dme", bra.RoleConeMantle, 1000 * tan, true, false},
		{"on the inner disc", math.Point3{20100, 50, 1}, "dme", bra.RoleInnerCylinderTop, 300 * tan, false, false},
	} {
		t.Run(c.name, func(t *testing.T) {
			res := idx.Assess(c.p)
			if len(res) != 1 {
				t.Fatalf("expected a single result, got %+v", res)
			}
			r := res[0]
			if r.Layer != c.layer || r.Area != c.area {
				t.Errorf("got %s/%s, expected %s/%s", r.Layer, r.Area, c.layer, c.area)
			}
			if c.approximate {
				if r.SurfaceZ <= 100 || r.SurfaceZ >= 170 {
					t.Errorf("slope elevation %f outside its range", r.SurfaceZ)
				}
			} else if gomath.Abs(r.SurfaceZ-c.z) > 1e-6 {
				t.Errorf("surface elevation %f, expected %f", r.SurfaceZ, c.z)
			}
			if gomath.Abs(r.Penetration-(c.p[2]-r.SurfaceZ)) > 1e-9 || r.Penetrates() != c.penetrates {
				t.Errorf("unexpected penetration %f", r.Penetration)
			}
		})
	}

	if res := idx.Assess(math.Point3{0, -2000, 1000}); len(res) != 0 {
		t.Errorf("expected no surfaces behind the facility, got %+v", res)
	}
	if res := idx.Assess(math.Point3{20000, 5000, 1000}); len(res) != 0 {
		t.Errorf("expected no surfaces beyond the cone, got %+v", res)
	}
}

func TestAssessAlongSlopeArc(t *testing.T) {
	idx := testIndex(t)

	// Just inside the slope's rear arc, every footprint hit must also land
	// in a mesh triangle.
	for _, bearing := range []float64{-25, -12.5, -3, 0, 4, 17, 29} {
		p := math.ProjectPoint(math.Point2{0, 0}, 6499.9, bearing)
		res := idx.Assess(p.WithZ(1000))
		if len(res) != 1 || res[0].Area != bra.RoleSlope {
			t.Errorf("bearing %.1f: expected the slope, got %+v", bearing, res)
			continue
		}
		if z := res[0].SurfaceZ; z < 169 || z > 170+1e-6 {
			t.Errorf("bearing %.1f: slope elevation %f near the arc, expected ~170", bearing, z)
		}
	}
}

func TestViolations(t *testing.T) {
	idx := testIndex(t)

	obstacles := []Obstacle{
		{Name: "mast", Position: math.Point3{0, 0, 150}},
		{Name: "tree", Position: math.Point3{-1500, 0, 105}},
		{Name: "field", Position: math.Point3{0, -2000, 1000}},
		{Name: "antenna", Position: math.Point3{21000, 0, 20}},
	}
	v := idx.Violations(obstacles)
	if len(v) != 2 {
		t.Fatalf("expected 2 violations, got %+v", v)
	}
	if v[0].Obstacle.Name != "mast" || v[1].Obstacle.Name != "antenna" {
		t.Errorf("unexpected violations %s, %s", v[0].Obstacle.Name, v[1].Obstacle.Name)
	}
	if len(v[0].Results) != 1 || v[0].Results[0].ID != 1 || gomath.Abs(v[0].Results[0].Penetration-50) > 1e-9 {
		t.Errorf("unexpected mast result %+v", v[0].Results)
	}
}
