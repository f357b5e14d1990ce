// pkg/mesh/stl.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mesh

import (
	"fmt"

	"github.com/qbra/qbra/pkg/math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ToSDFX converts the meshes to sdfx triangles, translated so that origin
// maps to (0,0,0). STL stores single-precision coordinates, so projected
// coordinates should be brought near the origin before writing.
func ToSDFX(meshes []Mesh, origin math.Point3) []*sdf.Triangle3 {
	var tris []*sdf.Triangle3
	for _, m := range meshes {
		for _, t := range m.Triangles {
			var st sdf.Triangle3
			for i, p := range t {
				st[i] = v3.Vec{X: p[0] - origin[0], Y: p[1] - origin[1], Z: p[2] - origin[2]}
			}
			tris = append(tris, &st)
		}
	}
	return tris
}

// WriteSTL writes the meshes to a binary STL file at path; see ToSDFX for
// the role of origin.
func WriteSTL(path string, meshes []Mesh, origin math.Point3) error {
	tris := ToSDFX(meshes, origin)
	if len(tris) == 0 {
		return fmt.Errorf("%s: no triangles to write", path)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("failed to write STL: %w", err)
	}
	return nil
}
