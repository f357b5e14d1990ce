// pkg/server/server.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package server provides an HTTP interface to the surface builders.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	gomath "math"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/qbra/qbra/pkg/assess"
	"github.com/qbra/qbra/pkg/bra"
	"github.com/qbra/qbra/pkg/log"
	"github.com/qbra/qbra/pkg/util"

	"github.com/iancoleman/orderedmap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
)

const DefaultPort = 8089

// maxRequestBytes bounds the size of request bodies.
const maxRequestBytes = 4 << 20

// Server serves surface builds and obstacle assessments over HTTP.
type Server struct {
	// Parallelism bounds the number of concurrent builds for a single
	// request; see bra.BuildAll.
	Parallelism int

	lg         *log.Logger
	metrics    *Metrics
	mux        *http.ServeMux
	launchTime time.Time
	requests   atomic.Int64
}

// New returns a server that registers its metrics with reg (the default
// Prometheus registry if nil).
func New(lg *log.Logger, reg prometheus.Registerer) (*Server, error) {
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		lg:         lg,
		metrics:    m,
		mux:        http.NewServeMux(),
		launchTime: time.Now(),
	}
	s.mux.HandleFunc("/v1/surfaces", s.handleSurfaces)
	s.mux.HandleFunc("/v1/assess", s.handleAssess)
	s.mux.HandleFunc("/v1/facilities", s.handleFacilities)
	s.mux.Handle("/metrics", m.Handler())
	s.mux.HandleFunc("/sup", s.handleStats)
	return s, nil
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on the given port until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.lg.Infof("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

///////////////////////////////////////////////////////////////////////////
// Surfaces

// SurfaceJSON is the wire form of a bra.SurfacePolygon; its attributes
// keep their column order.
type SurfaceJSON struct {
	Attributes *orderedmap.OrderedMap `json:"attributes"`
	Exterior   bra.Ring               `json:"exterior"`
	Holes      []bra.Ring             `json:"holes,omitempty"`
}

type LayerJSON struct {
	Name     string        `json:"name"`
	CRS      string        `json:"crs,omitempty"`
	Family   bra.Family    `json:"family"`
	Surfaces []SurfaceJSON `json:"surfaces"`
}

type SurfacesResponse struct {
	Layers []LayerJSON `json:"layers"`
}

func MakeLayerJSON(l *bra.Layer) LayerJSON {
	lj := LayerJSON{Name: l.Name, CRS: l.CRS, Family: l.Family, Surfaces: make([]SurfaceJSON, len(l.Surfaces))}
	for i, sp := range l.Surfaces {
		lj.Surfaces[i] = SurfaceJSON{
			Attributes: sp.Attributes.OrderedMap(),
			Exterior:   sp.Exterior,
			Holes:      sp.Holes,
		}
	}
	return lj
}

// POST /v1/surfaces: the body is a job (see bra.Job); the response holds
// one layer per request, in order.
func (s *Server) handleSurfaces(w http.ResponseWriter, r *http.Request) {
	job, err := s.readJob(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	layers, err := s.build(r.Context(), job)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, SurfacesResponse{Layers: util.MapSlice(layers, MakeLayerJSON)})
}

func (s *Server) readJob(w http.ResponseWriter, r *http.Request) (*bra.Job, error) {
	if r.Method != http.MethodPost {
		return nil, ErrMethodNotAllowed
	}
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		return nil, err
	}
	job, err := bra.LoadJob(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bra.ErrInvalidInput, err)
	}
	return job, nil
}

func (s *Server) build(ctx context.Context, job *bra.Job) ([]*bra.Layer, error) {
	if len(job.Requests) == 0 {
		return nil, ErrEmptyJob
	}

	reqs := make([]bra.Request, len(job.Requests))
	for i, spec := range job.Requests {
		req, err := spec.Resolve(job.CRS, s.lg)
		if err != nil {
			return nil, fmt.Errorf("requests[%d]: %w", i, err)
		}
		reqs[i] = req
	}

	return bra.BuildAllObserved(ctx, reqs, s.Parallelism, s.metrics.ObserveBuild)
}

///////////////////////////////////////////////////////////////////////////
// Assessment

type AssessRequest struct {
	bra.Job
	Obstacles []assess.Obstacle `json:"obstacles"`
}

type AssessResponse struct {
	Violations []assess.Violation `json:"violations"`
}

// POST /v1/assess: builds the job's surfaces and returns the obstacles
// that penetrate them.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, ErrMethodNotAllowed)
		return
	}
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var e util.ErrorLogger
	util.CheckJSON[AssessRequest](b, &e)
	if e.HaveErrors() {
		s.writeError(w, r, fmt.Errorf("%w: %w", bra.ErrInvalidInput, e.Err()))
		return
	}
	var ar AssessRequest
	if err := util.UnmarshalJSON(b, &ar); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", bra.ErrInvalidInput, err))
		return
	}

	layers, err := s.build(r.Context(), &ar.Job)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	idx, err := assess.NewIndex(layers...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := AssessResponse{Violations: idx.Violations(ar.Obstacles)}
	if resp.Violations == nil {
		resp.Violations = []assess.Violation{}
	}
	s.writeJSON(w, r, resp)
}

///////////////////////////////////////////////////////////////////////////
// Facilities

// GET /v1/facilities[?family=directional|omni]
func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, ErrMethodNotAllowed)
		return
	}

	var families []bra.Family
	if f := r.URL.Query().Get("family"); f != "" {
		var fam bra.Family
		if err := fam.UnmarshalText([]byte(f)); err != nil {
			s.writeError(w, r, fmt.Errorf("%q: %w", f, ErrUnknownFamily))
			return
		}
		families = append(families, fam)
	}
	s.writeJSON(w, r, bra.Facilities(families...))
}

///////////////////////////////////////////////////////////////////////////

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	status := httpStatus(err)
	if errors.As(err, &mbe) {
		status = http.StatusRequestEntityTooLarge
	}

	if status >= 500 {
		s.lg.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	} else {
		s.lg.Info("request rejected", slog.String("path", r.URL.Path), slog.Int("status", status),
			slog.Any("error", err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.lg.Warnf("%s: unable to encode response: %v", r.URL.Path, err)
	}
}

///////////////////////////////////////////////////////////////////////////
// Status

type serverStats struct {
	Uptime           time.Duration
	AllocMemory      uint64
	TotalAllocMemory uint64
	SysMemory        uint64
	NumGC            uint32
	NumGoRoutines    int
	CPUUsage         int
	Requests         int64
}

var statsTemplate = template.Must(template.New("").Parse(`
<!DOCTYPE html>
<html>
<head>
<title>qbra</title>
</head>
<body>
<h1>Server Status</h1>
<ul>
  <li>Uptime: {{.Uptime}}</li>
  <li>CPU usage: {{.CPUUsage}}%</li>
  <li>Requests served: {{.Requests}}</li>
  <li>Allocated memory: {{.AllocMemory}} MB</li>
  <li>Total allocated memory: {{.TotalAllocMemory}} MB</li>
  <li>System memory: {{.SysMemory}} MB</li>
  <li>Garbage collection passes: {{.NumGC}}</li>
  <li>Running goroutines: {{.NumGoRoutines}}</li>
</ul>
</body>
</html>
`))

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := serverStats{
		Uptime:           time.Since(s.launchTime).Round(time.Second),
		AllocMemory:      m.Alloc / (1024 * 1024),
		TotalAllocMemory: m.TotalAlloc / (1024 * 1024),
		SysMemory:        m.Sys / (1024 * 1024),
		NumGC:            m.NumGC,
		NumGoRoutines:    runtime.NumGoroutine(),
		Requests:         s.requests.Load(),
	}
	// Usage since the previous call; this doesn't block.
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		stats.CPUUsage = int(gomath.Round(usage[0]))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statsTemplate.Execute(w, stats); err != nil {
		s.lg.Warnf("unable to render stats: %v", err)
	}
}
