// pkg/export/geojson.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package export writes built layers in formats that other tools can
// consume: GeoJSON footprints for GIS packages and compressed archives
// that preserve the full 3D geometry.
package export

import (
	"fmt"
	"io"
	gomath "math"

	"github.com/qbra/qbra/pkg/bra"
	"github.com/qbra/qbra/pkg/math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ArcTolerance is the chordal tolerance, in meters, used when arcs are
// densified for 2D output.
const ArcTolerance = 0.05

// OrbRing returns the horizontal projection of the ring as a closed orb
// ring.
func OrbRing(r bra.Ring) orb.Ring {
	pts := r.Linearize(ArcTolerance)
	ring := make(orb.Ring, len(pts))
	for i, p := range pts {
		ring[i] = orb.Point{p[0], p[1]}
	}
	return ring
}

// OrbPolygon returns the footprint of the surface polygon, holes included.
func OrbPolygon(s bra.SurfacePolygon) orb.Polygon {
	poly := make(orb.Polygon, 0, 1+len(s.Holes))
	for _, r := range s.Rings() {
		poly = append(poly, OrbRing(r))
	}
	return poly
}

// FootprintArea returns the horizontal area of the surface polygon. It is
// zero for vertical surfaces.
func FootprintArea(s bra.SurfacePolygon) float64 {
	return gomath.Abs(planar.Area(OrbPolygon(s)))
}

// Footprints returns one feature per surface of the layer. Feature
// properties are the surface's attribute columns plus footprint_area; the
// layer name and CRS are stored as foreign members of the collection.
func Footprints(l *bra.Layer) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{"name": l.Name}
	if l.CRS != "" {
		fc.ExtraMembers["crs_name"] = l.CRS
	}

	for _, s := range l.Surfaces {
		fc.Append(footprint(l, s))
	}
	return fc
}

func footprint(l *bra.Layer, s bra.SurfacePolygon) *geojson.Feature {
	f := geojson.NewFeature(OrbPolygon(s))
	f.ID = s.Attributes.ID
	for _, fld := range s.Attributes.Fields() {
		f.Properties[fld.Name] = fld.Value
	}
	f.Properties["id"] = s.Attributes.ID
	f.Properties["layer"] = l.Name
	f.Properties["footprint_area"] = math.Round(FootprintArea(s), 2)
	return f
}

// WriteGeoJSON writes the footprints of all layers as a single feature
// collection; each feature's "layer" property names the layer it came
// from.
func WriteGeoJSON(w io.Writer, layers []*bra.Layer) error {
	fc := geojson.NewFeatureCollection()
	for _, l := range layers {
		for _, s := range l.Surfaces {
			fc.Append(footprint(l, s))
		}
	}
	if len(layers) == 1 {
		fc.ExtraMembers = Footprints(layers[0]).ExtraMembers
	}

	b, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	return nil
}
