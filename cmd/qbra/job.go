// cmd/qbra/job.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/qbra/qbra/pkg/assess"
	"github.com/qbra/qbra/pkg/bra"
	"github.com/qbra/qbra/pkg/export"
	"github.com/qbra/qbra/pkg/log"
	"github.com/qbra/qbra/pkg/math"
	"github.com/qbra/qbra/pkg/mesh"
	"github.com/qbra/qbra/pkg/server"
	"github.com/qbra/qbra/pkg/util"

	"github.com/goforj/godump"
)

var ErrUnknownFormat = errors.New("Unknown output format")

// loadRequests reads and resolves the job in filename, reporting problems
// to e.
func loadRequests(filename string, lg *log.Logger, e *util.ErrorLogger) []bra.Request {
	e.Push(filename)
	defer e.Pop()

	contents, err := os.ReadFile(filename)
	if err != nil {
		e.Error(err)
		return nil
	}
	job, err := bra.LoadJob(contents)
	if err != nil {
		e.Error(err)
		return nil
	}
	if len(job.Requests) == 0 {
		e.ErrorString("no requests")
		return nil
	}
	return job.Resolve(lg, e)
}

func runJob(ctx context.Context, lg *log.Logger) error {
	var e util.ErrorLogger
	reqs := loadRequests(*jobFilename, lg, &e)
	if e.HaveErrors() {
		e.PrintErrors(os.Stderr, lg)
		return fmt.Errorf("%s: invalid job", *jobFilename)
	}
	if *dump {
		godump.Dump(reqs)
	}

	start := time.Now()
	layers, err := bra.BuildAll(ctx, reqs, *parallelism)
	if err != nil {
		return err
	}
	lg.Infof("built %d layers in %s", len(layers), time.Since(start))

	if *obstaclesFilename != "" {
		return checkObstacles(os.Stdout, *obstaclesFilename, layers)
	}
	return writeOutput(*outputFormat, outputFilename(*outputFormat, *outFilename, *jobFilename), layers)
}

// outputFilename returns out if it is set; archives, which can't go to
// stdout, are otherwise named after the job file.
func outputFilename(format, out, job string) string {
	if out != "" || strings.ToLower(format) != "archive" {
		return out
	}
	return strings.TrimSuffix(job, filepath.Ext(job)) + export.ArchiveExtension
}

// writeOutput writes the layers to filename (or stdout) in the given
// format.
func writeOutput(format, filename string, layers []*bra.Layer) (err error) {
	format = strings.ToLower(format)
	switch format {
	case "geojson", "archive", "json", "stl":
	default:
		return fmt.Errorf("%s: %w", format, ErrUnknownFormat)
	}

	if format == "stl" {
		if filename == "" {
			return fmt.Errorf("stl: an output filename is required")
		}
		var meshes []mesh.Mesh
		ext := math.EmptyExtent2D()
		for _, l := range layers {
			m, err := mesh.TriangulateLayer(l, 0)
			if err != nil {
				return err
			}
			meshes = append(meshes, m...)
			if le := l.Extent(); !le.IsEmpty() {
				ext = math.Union(math.Union(ext, le.P0), le.P1)
			}
		}
		return mesh.WriteSTL(filename, meshes, ext.Center().WithZ(0))
	}

	var w io.Writer = os.Stdout
	if filename != "" {
		f, ferr := os.Create(filename)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	} else if format == "archive" {
		return fmt.Errorf("archive: an output filename is required")
	}

	switch format {
	case "geojson":
		return export.WriteGeoJSON(w, layers)
	case "archive":
		return export.SaveArchive(w, layers)
	default: // json
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(server.SurfacesResponse{Layers: util.MapSlice(layers, server.MakeLayerJSON)})
	}
}

func checkObstacles(w io.Writer, filename string, layers []*bra.Layer) error {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	var e util.ErrorLogger
	e.Push(filename)
	util.CheckJSON[[]assess.Obstacle](contents, &e)
	e.Pop()
	if e.HaveErrors() {
		return e.Err()
	}
	var obstacles []assess.Obstacle
	if err := util.UnmarshalJSON(contents, &obstacles); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	idx, err := assess.NewIndex(layers...)
	if err != nil {
		return err
	}
	violations := idx.Violations(obstacles)
	if len(violations) == 0 {
		fmt.Fprintf(w, "%d obstacles, no penetrations\n", len(obstacles))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OBSTACLE\tLAYER\tID\tAREA\tSURFACE Z\tPENETRATION")
	for _, v := range violations {
		for _, r := range v.Results {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\t%.2f\n", v.Obstacle.Name, r.Layer, r.ID, r.Area, r.SurfaceZ, r.Penetration)
		}
	}
	return tw.Flush()
}

func printFacilities(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tFAMILY\tLABEL\tDEFAULTS")
	for _, f := range bra.Facilities() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Key, f.Family, f.Label, describeDefaults(f))
	}
	tw.Flush()
}

func describeDefaults(f bra.FacilityEntry) string {
	if d := f.Directional; d != nil {
		a := bra.FormatValue(d.A)
		r := bra.FormatValue(d.R)
		if d.AIsDerived {
			a = "from route"
			r = fmt.Sprintf("a+%s", bra.FormatValue(d.ROffset))
		}
		return fmt.Sprintf("a=%s b=%s h=%s r=%s D=%s H=%s L=%s phi=%s", a, bra.FormatValue(d.B),
			bra.FormatValue(d.SlopeH), r, bra.FormatValue(d.D), bra.FormatValue(d.LevelH),
			bra.FormatValue(d.L), bra.FormatValue(d.Phi))
	}
	if o := f.Omni; o != nil {
		s := fmt.Sprintf("r=%s alpha=%s R=%s", bra.FormatValue(o.R), bra.FormatValue(o.Alpha), bra.FormatValue(o.OuterR))
		if o.Turbine {
			s += fmt.Sprintf(" j=%s h=%s", bra.FormatValue(o.J), bra.FormatValue(o.H))
		}
		return s
	}
	return ""
}
