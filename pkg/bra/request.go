// pkg/bra/request.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bra

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/qbra/qbra/pkg/log"
	"github.com/qbra/qbra/pkg/math"
	"github.com/qbra/qbra/pkg/util"
)

///////////////////////////////////////////////////////////////////////////
// Direction

// Direction selects which end of the route is its start.
type Direction int

const (
	Forward  Direction = iota // first vertex to last
	Backward                  // last vertex to first
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ParseDirection accepts "forward"/"start-to-end" and
// "backward"/"end-to-start"; the empty string means Forward.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forward", "start-to-end":
		return Forward, nil
	case "backward", "end-to-start":
		return Backward, nil
	default:
		return Forward, fmt.Errorf("%q: %w", s, ErrInvalidDirection)
	}
}

func (d Direction) endpoints(route []math.Point2) (start, end math.Point2) {
	if d == Backward {
		return route[len(route)-1], route[0]
	}
	return route[0], route[len(route)-1]
}

// RouteAzimuth returns the bearing from the start of the route to its end,
// with the ends chosen according to dir. Intermediate vertices don't
// matter.
func RouteAzimuth(route []math.Point2, dir Direction) (float64, error) {
	if len(route) < 2 {
		return 0, ErrNoRoute
	}
	start, end := dir.endpoints(route)
	if start == end {
		return 0, fmt.Errorf("route start and end coincide: %w", ErrNoRoute)
	}
	return math.Azimuth(start, end), nil
}

// EstimateA estimates the forward distance a for facilities whose a
// depends on the threshold: it is the distance from the navaid to the
// start of the route.
func EstimateA(navaid math.Point2, route []math.Point2, dir Direction) (float64, error) {
	if len(route) < 2 {
		return 0, fmt.Errorf("%w: %w", ErrCannotDeriveA, ErrNoRoute)
	}
	start, _ := dir.endpoints(route)
	return math.Distance2(navaid, start), nil
}

///////////////////////////////////////////////////////////////////////////
// Labels

// Navaid attributes consulted, in order, for the runway designator.
var runwayAttributes = []string{"runway", "rwy", "thr_rwy"}

// Remark returns the runway remark for a navaid: "RWY" followed by the
// first runway attribute present, or by the feature id if there is none.
func Remark(attrs map[string]string, featureID int64) string {
	for _, name := range runwayAttributes {
		if v, ok := attrs[name]; ok {
			return "RWY" + v
		}
	}
	return "RWY" + strconv.FormatInt(featureID, 10)
}

// ComposeDisplayName returns the name for a facility instance: the custom
// output name (or the remark if there is none), followed by the facility
// label when there is one.
func ComposeDisplayName(custom, remark, facilityLabel string) string {
	base := strings.TrimSpace(custom)
	if base == "" {
		base = remark
	}
	if facilityLabel == "" {
		return base
	}
	return base + " - " + facilityLabel
}

///////////////////////////////////////////////////////////////////////////
// RequestSpec

// Navaid is the facility's position along with the attributes of the
// feature it came from.
type Navaid struct {
	Position   math.Point2       `json:"position"`
	FeatureID  int64             `json:"feature_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// DirectionalOverrides replace individual catalog defaults.
type DirectionalOverrides struct {
	A      *float64 `json:"a,omitempty"`
	B      *float64 `json:"b,omitempty"`
	SlopeH *float64 `json:"h,omitempty"`
	R      *float64 `json:"r,omitempty"`
	D      *float64 `json:"D,omitempty"`
	LevelH *float64 `json:"H,omitempty"`
	L      *float64 `json:"L,omitempty"`
	Phi    *float64 `json:"phi,omitempty"`
}

// OmniOverrides replace individual catalog defaults.
type OmniOverrides struct {
	R       *float64 `json:"r,omitempty"`
	Alpha   *float64 `json:"alpha,omitempty"`
	OuterR  *float64 `json:"R,omitempty"`
	Turbine *bool    `json:"turbine,omitempty"`
	J       *float64 `json:"j,omitempty"`
	H       *float64 `json:"h,omitempty"`
}

// RequestSpec is a single entry of a job file: everything needed to build
// the surfaces of one facility instance, with the parameters defaulted
// from the catalog.
type RequestSpec struct {
	Facility      string                `json:"facility"`
	Navaid        Navaid                `json:"navaid"`
	Route         []math.Point2         `json:"route,omitempty"`
	Direction     string                `json:"direction,omitempty"`
	Azimuth       *float64              `json:"azimuth,omitempty"`
	SiteElevation float64               `json:"site_elevation"`
	OutputName    string                `json:"output_name,omitempty"`
	Directional   *DirectionalOverrides `json:"directional,omitempty"`
	Omni          *OmniOverrides        `json:"omni,omitempty"`
}

// Job is the contents of a job file.
type Job struct {
	CRS      string        `json:"crs"`
	Requests []RequestSpec `json:"requests"`
}

// LoadJob typechecks and decodes a job file.
func LoadJob(contents []byte) (*Job, error) {
	var e util.ErrorLogger
	util.CheckJSON[Job](contents, &e)
	if e.HaveErrors() {
		return nil, e.Err()
	}

	var job Job
	if err := util.UnmarshalJSON(contents, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Resolve resolves all of the job's requests, reporting every failure to
// e. Requests that fail to resolve are omitted from the result.
func (j *Job) Resolve(lg *log.Logger, e *util.ErrorLogger) []Request {
	defer e.CheckDepth(e.CurrentDepth())

	var reqs []Request
	for i, spec := range j.Requests {
		e.Push(fmt.Sprintf("requests[%d]", i))
		if r, err := spec.Resolve(j.CRS, lg); err != nil {
			e.Error(err)
		} else {
			reqs = append(reqs, r)
		}
		e.Pop()
	}
	return reqs
}

func override(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

// Resolve applies the catalog defaults for the requested facility and
// the request's overrides, giving a Request that is ready to build.
// Unknown facility keys are an error here, as is a directional request
// that has neither an azimuth nor a usable route.
func (s RequestSpec) Resolve(crs string, lg *log.Logger) (Request, error) {
	entry, err := LookupFacility(s.Facility)
	if err != nil {
		return nil, err
	}

	remark := Remark(s.Navaid.Attributes, s.Navaid.FeatureID)
	label := LabelInfo{
		DisplayName:   ComposeDisplayName(s.OutputName, remark, entry.Label),
		Remark:        remark,
		FacilityLabel: entry.Label,
		FacilityKey:   entry.Key,
	}

	switch entry.Family {
	case Directional:
		if s.Omni != nil {
			return nil, fmt.Errorf("%s: omni parameters given for a directional facility: %w", entry.Key, ErrInvalidInput)
		}
		dir, err := ParseDirection(s.Direction)
		if err != nil {
			return nil, err
		}

		var azimuth float64
		if s.Azimuth != nil {
			azimuth = math.NormalizeHeading(*s.Azimuth)
		} else if len(s.Route) == 0 {
			return nil, ErrNoAzimuth
		} else if azimuth, err = RouteAzimuth(s.Route, dir); err != nil {
			return nil, err
		}

		o := s.Directional
		if o == nil {
			o = &DirectionalOverrides{}
		}
		d := *entry.Directional

		var a float64
		switch {
		case o.A != nil:
			a = *o.A
		case !d.AIsDerived:
			a = d.A
		default:
			if a, err = EstimateA(s.Navaid.Position, s.Route, dir); err != nil {
				return nil, err
			}
			lg.Debug("estimated a from route", slog.String("facility", entry.Key), slog.Float64("a", a))
		}

		p := d.Params(a)
		p.B = override(o.B, p.B)
		p.SlopeH = override(o.SlopeH, p.SlopeH)
		p.R = override(o.R, p.R)
		p.D = override(o.D, p.D)
		p.LevelH = override(o.LevelH, p.LevelH)
		p.L = override(o.L, p.L)
		p.Phi = override(o.Phi, p.Phi)

		return &DirectionalRequest{
			CRS:           crs,
			Reference:     s.Navaid.Position,
			Azimuth:       azimuth,
			Direction:     dir,
			Params:        p,
			SiteElevation: s.SiteElevation,
			Label:         label,
			lg:            lg,
		}, nil

	case Omnidirectional:
		if s.Directional != nil {
			return nil, fmt.Errorf("%s: directional parameters given for an omni facility: %w", entry.Key, ErrInvalidInput)
		}
		o := s.Omni
		if o == nil {
			o = &OmniOverrides{}
		}
		d := *entry.Omni

		turbine := d.Turbine
		if o.Turbine != nil {
			turbine = *o.Turbine
		}
		p := d.Params()
		p.R = override(o.R, p.R)
		p.Alpha = override(o.Alpha, p.Alpha)
		p.OuterR = override(o.OuterR, p.OuterR)
		p.J = override(o.J, p.J)
		p.H = override(o.H, p.H)

		return &OmniRequest{
			CRS:           crs,
			Reference:     s.Navaid.Position,
			Params:        p,
			Turbine:       turbine,
			SiteElevation: s.SiteElevation,
			Label:         label,
			lg:            lg,
		}, nil

	default:
		return nil, fmt.Errorf("%s: unknown family %d", entry.Key, entry.Family)
	}
}

///////////////////////////////////////////////////////////////////////////
// Request

// Request is a fully resolved build request; it is either a
// *DirectionalRequest or an *OmniRequest.
type Request interface {
	Family() Family
	// LayerName returns the name of the layer Build produces.
	LayerName() string
	Build() (*Layer, error)
}

type DirectionalRequest struct {
	CRS           string
	Reference     math.Point2
	Azimuth       float64
	Direction     Direction
	Params        DirectionalParams
	SiteElevation float64
	Label         LabelInfo

	lg *log.Logger
}

func (r *DirectionalRequest) Family() Family { return Directional }

func (r *DirectionalRequest) LayerName() string {
	name := r.Label.DisplayName
	if name == "" {
		name = r.Label.Remark
	}
	return name + " BRA_areas"
}

func (r *DirectionalRequest) Build() (*Layer, error) {
	start := time.Now()
	surfaces, err := BuildDirectionalSurfaces(r.Reference, r.Azimuth, r.Params, r.SiteElevation, r.Label)
	if err != nil {
		r.lg.Warn("directional build failed", slog.String("layer", r.LayerName()), slog.Any("error", err))
		return nil, err
	}
	r.lg.Debug("built directional surfaces", slog.String("layer", r.LayerName()),
		slog.Float64("azimuth", r.Azimuth), slog.Duration("elapsed", time.Since(start)))

	return &Layer{Name: r.LayerName(), CRS: r.CRS, Family: Directional, Surfaces: surfaces}, nil
}

type OmniRequest struct {
	CRS           string
	Reference     math.Point2
	Params        OmniParams
	Turbine       bool
	SiteElevation float64
	Label         LabelInfo

	lg *log.Logger
}

func (r *OmniRequest) Family() Family { return Omnidirectional }

func (r *OmniRequest) LayerName() string {
	return OmniDisplayName(r.Label) + " BRA_omni"
}

func (r *OmniRequest) Build() (*Layer, error) {
	start := time.Now()
	surfaces, err := BuildOmniSurfaces(r.Reference, r.Params, r.SiteElevation, r.Turbine, r.Label)
	if err != nil {
		r.lg.Warn("omni build failed", slog.String("layer", r.LayerName()), slog.Any("error", err))
		return nil, err
	}
	r.lg.Debug("built omni surfaces", slog.String("layer", r.LayerName()), slog.Bool("turbine", r.Turbine),
		slog.Duration("elapsed", time.Since(start)))

	return &Layer{Name: r.LayerName(), CRS: r.CRS, Family: Omnidirectional, Surfaces: surfaces}, nil
}
