// pkg/bra/facility.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bra

import (
	"fmt"
	"slices"
	"strings"

	"github.com/qbra/qbra/pkg/util"

	"github.com/brunoga/deep"
)

///////////////////////////////////////////////////////////////////////////
// Family

// Family distinguishes the two kinds of facilities, which have entirely
// different surface constructions and parameter sets.
type Family int

const (
	Directional Family = iota
	Omnidirectional
)

func (f Family) String() string {
	switch f {
	case Directional:
		return "directional"
	case Omnidirectional:
		return "omni"
	default:
		return "unknown"
	}
}

func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Family) UnmarshalText(b []byte) error {
	switch string(b) {
	case "directional":
		*f = Directional
	case "omni":
		*f = Omnidirectional
	default:
		return fmt.Errorf("%q: unknown facility family", string(b))
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////
// Defaults

// RRule says how the default radius r of a directional facility is
// obtained.
type RRule int

const (
	// RExplicit: r is the catalog value.
	RExplicit RRule = iota
	// RFromA: r is a + ROffset, so that r follows a when a is estimated
	// from the route.
	RFromA
)

// DirectionalDefaults holds the default geometry for a directional
// facility. When AIsDerived is set, A is not meaningful: a has to be
// estimated from the route geometry (see EstimateA).
type DirectionalDefaults struct {
	AIsDerived bool
	A          float64
	B          float64
	SlopeH     float64 // h
	D          float64
	LevelH     float64 // H
	L          float64
	Phi        float64
	R          float64
	RRule      RRule
	ROffset    float64
}

// RFor returns the default r given the (possibly estimated) value of a.
func (d DirectionalDefaults) RFor(a float64) float64 {
	if d.RRule == RFromA {
		return a + d.ROffset
	}
	return d.R
}

// Params returns the full parameter set given the value to use for a.
func (d DirectionalDefaults) Params(a float64) DirectionalParams {
	return DirectionalParams{
		A:      a,
		B:      d.B,
		SlopeH: d.SlopeH,
		R:      d.RFor(a),
		D:      d.D,
		LevelH: d.LevelH,
		L:      d.L,
		Phi:    d.Phi,
	}
}

// OmniDefaults holds the default geometry for an omnidirectional facility.
// Turbine is set for facilities that come with a preset turbine-monitoring
// cylinder (J, H).
type OmniDefaults struct {
	R       float64 // r
	Alpha   float64
	OuterR  float64 // R
	Turbine bool
	J       float64
	H       float64
}

func (d OmniDefaults) Params() OmniParams {
	return OmniParams{R: d.R, Alpha: d.Alpha, OuterR: d.OuterR, J: d.J, H: d.H}
}

///////////////////////////////////////////////////////////////////////////
// Catalog

// FacilityEntry is one row of the facility catalog. Exactly one of
// Directional and Omni is set, according to Family.
type FacilityEntry struct {
	Key         string               `json:"key"`
	Label       string               `json:"label"`
	Family      Family               `json:"family"`
	Directional *DirectionalDefaults `json:"directional,omitempty"`
	Omni        *OmniDefaults        `json:"omni,omitempty"`
}

const legacyROffset = 6000

func derivedA(b, h, d, lh, l, phi float64) *DirectionalDefaults {
	return &DirectionalDefaults{AIsDerived: true, B: b, SlopeH: h, D: d, LevelH: lh, L: l, Phi: phi,
		RRule: RFromA, ROffset: legacyROffset}
}

func omni(r, alpha, outer float64) *OmniDefaults {
	return &OmniDefaults{R: r, Alpha: alpha, OuterR: outer}
}

func omniTurbine(r, alpha, outer, j, h float64) *OmniDefaults {
	return &OmniDefaults{R: r, Alpha: alpha, OuterR: outer, Turbine: true, J: j, H: h}
}

// The catalog is never modified after initialization; everything handed
// out is a copy, so it can be shared freely between concurrent builds.
var (
	catalog = []FacilityEntry{
		{Key: "LOC", Label: "ILS LLZ – single frequency", Family: Directional,
			Directional: derivedA(500, 70, 500, 10, 2300, 30)},
		{Key: "LOCII", Label: "ILS LLZ – dual frequency", Family: Directional,
			Directional: derivedA(500, 70, 500, 20, 1500, 20)},
		{Key: "GP", Label: "ILS GP M-Type (dual)", Family: Directional,
			Directional: &DirectionalDefaults{A: 800, B: 50, SlopeH: 70, D: 250, LevelH: 5, L: 325, Phi: 10,
				R: 6000, RRule: RExplicit}},
		{Key: "DME", Label: "DME (directional)", Family: Directional,
			Directional: derivedA(20, 70, 600, 20, 1500, 40)},

		{Key: "OMNI_DME_N", Label: "DME N (omnidirectional)", Family: Omnidirectional, Omni: omni(300, 1.0, 3000)},
		{Key: "OMNI_CVOR", Label: "CVOR (omnidirectional)", Family: Omnidirectional, Omni: omniTurbine(600, 1.0, 3000, 15000, 52)},
		{Key: "OMNI_DVOR", Label: "DVOR (omnidirectional)", Family: Omnidirectional, Omni: omniTurbine(600, 1.0, 3000, 10000, 52)},
		{Key: "OMNI_DF", Label: "Direction Finder (omnidirectional)", Family: Omnidirectional, Omni: omniTurbine(500, 1.0, 3000, 10000, 52)},
		{Key: "OMNI_MARKERS", Label: "Markers (omnidirectional)", Family: Omnidirectional, Omni: omni(50, 20.0, 200)},
		{Key: "OMNI_NDB", Label: "NDB (omnidirectional)", Family: Omnidirectional, Omni: omni(200, 5.0, 1000)},
		{Key: "OMNI_GBAS_REF", Label: "GBAS ground Reference receiver", Family: Omnidirectional, Omni: omni(400, 3.0, 3000)},
		{Key: "OMNI_GBAS_VDB", Label: "GBAS VDB station", Family: Omnidirectional, Omni: omni(300, 0.9, 3000)},
		{Key: "OMNI_VDB_MON", Label: "VDB station monitoring station", Family: Omnidirectional, Omni: omni(400, 3.0, 3000)},
		{Key: "OMNI_VHF_TX", Label: "VHF Communication Tx", Family: Omnidirectional, Omni: omni(300, 1.0, 2000)},
		{Key: "OMNI_VHF_RX", Label: "VHF Communication Rx", Family: Omnidirectional, Omni: omni(300, 1.0, 2000)},
		{Key: "OMNI_PSR", Label: "PSR (surveillance)", Family: Omnidirectional, Omni: omni(500, 0.25, 15000)},
		{Key: "OMNI_SSR", Label: "SSR (surveillance)", Family: Omnidirectional, Omni: omni(500, 0.25, 15000)},
	}

	catalogIndex = func() map[string]int {
		m := make(map[string]int, len(catalog))
		for i, e := range catalog {
			m[e.Key] = i
		}
		return m
	}()
)

// ResolveDirectionalDefaults returns the label, the a-is-derived flag and
// the default parameters for the given directional facility key. Unknown
// keys (including omnidirectional ones) give an empty label and zero
// defaults rather than an error.
func ResolveDirectionalDefaults(key string) (label string, aIsDerived bool, defaults DirectionalDefaults) {
	if i, ok := catalogIndex[key]; ok && catalog[i].Directional != nil {
		d := *catalog[i].Directional
		return catalog[i].Label, d.AIsDerived, d
	}
	return "", false, DirectionalDefaults{}
}

// ResolveOmniDefaults is the omnidirectional counterpart of
// ResolveDirectionalDefaults.
func ResolveOmniDefaults(key string) (label string, defaults OmniDefaults) {
	if i, ok := catalogIndex[key]; ok && catalog[i].Omni != nil {
		return catalog[i].Label, *catalog[i].Omni
	}
	return "", OmniDefaults{}
}

// LookupFacility returns a copy of the catalog entry for key; unlike the
// Resolve functions, unknown keys are an error.
func LookupFacility(key string) (FacilityEntry, error) {
	i, ok := catalogIndex[key]
	if !ok {
		return FacilityEntry{}, fmt.Errorf("%s: %w", key, ErrUnknownFacility)
	}
	return deep.MustCopy(catalog[i]), nil
}

// Facilities returns a copy of the catalog in its canonical order,
// optionally restricted to the given families.
func Facilities(family ...Family) []FacilityEntry {
	entries := util.FilterSlice(catalog, func(e FacilityEntry) bool {
		return len(family) == 0 || slices.Contains(family, e.Family)
	})
	return deep.MustCopy(entries)
}

// CheckCatalog validates the built-in catalog, reporting every problem to
// e. It is run by the lint command and the tests.
func CheckCatalog(e *util.ErrorLogger) {
	checkCatalog(catalog, e)
}

func checkCatalog(entries []FacilityEntry, e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	seen := make(map[string]bool)
	for _, f := range entries {
		e.Push(f.Key)

		if f.Key == "" || strings.TrimSpace(f.Key) != f.Key {
			e.ErrorString("invalid key %q", f.Key)
		}
		if seen[f.Key] {
			e.ErrorString("duplicate key")
		}
		seen[f.Key] = true
		if f.Label == "" {
			e.ErrorString("missing label")
		}

		switch f.Family {
		case Directional:
			if f.Directional == nil || f.Omni != nil {
				e.ErrorString("directional entry must carry only directional defaults")
				break
			}
			d := f.Directional
			if d.AIsDerived == (d.RRule == RExplicit) {
				e.ErrorString("r must be derived from a exactly when a is derived")
			}
			if d.RRule == RFromA && d.ROffset <= 0 {
				e.ErrorString("r offset must be > 0")
			}
			if !d.AIsDerived {
				if err := d.Params(d.A).Validate(); err != nil {
					e.Error(err)
				}
			}

		case Omnidirectional:
			if f.Omni == nil || f.Directional != nil {
				e.ErrorString("omni entry must carry only omni defaults")
				break
			}
			if err := f.Omni.Params().Validate(f.Omni.Turbine); err != nil {
				e.Error(err)
			}

		default:
			e.ErrorString("unknown family %d", f.Family)
		}

		e.Pop()
	}
}
