// pkg/server/metrics.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/qbra/qbra/pkg/bra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Build outcomes, as recorded in the outcome label of qbra_builds_total.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeGeometry = "geometry"
	OutcomeError    = "error"
)

// Metrics bundles the Prometheus metrics of the surface service.
type Metrics struct {
	gatherer prometheus.Gatherer

	Builds          *prometheus.CounterVec
	BuildDurations  *prometheus.HistogramVec
	SurfacesEmitted *prometheus.CounterVec
}

// NewMetrics registers the service's metrics with reg, defaulting to the
// global Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	builds, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qbra_builds_total",
		Help: "Total number of surface builds, labeled by facility family and outcome.",
	}, []string{"family", "outcome"}), "qbra_builds_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qbra_build_duration_seconds",
		Help:    "Surface build latency in seconds.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}, []string{"family"}), "qbra_build_duration_seconds")
	if err != nil {
		return nil, err
	}

	surfaces, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qbra_surfaces_emitted_total",
		Help: "Total number of surface polygons produced, labeled by facility family.",
	}, []string{"family"}), "qbra_surfaces_emitted_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:        gatherer,
		Builds:          builds,
		BuildDurations:  durations,
		SurfacesEmitted: surfaces,
	}, nil
}

// ObserveBuild records the result of a single build; it has the signature
// of a bra.BuildObserver.
func (m *Metrics) ObserveBuild(req bra.Request, layer *bra.Layer, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	family := req.Family().String()
	m.Builds.WithLabelValues(family, outcome(err)).Inc()
	m.BuildDurations.WithLabelValues(family).Observe(elapsed.Seconds())
	if layer != nil {
		m.SurfacesEmitted.WithLabelValues(family).Add(float64(len(layer.Surfaces)))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := m.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
