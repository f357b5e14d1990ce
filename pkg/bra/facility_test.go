// pkg/bra/facility_test.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bra

import (
	"errors"
	"strings"
	"testing"

	"github.com/qbra/qbra/pkg/util"
)

func TestCatalogIsValid(t *testing.T) {
	var e util.ErrorLogger
	CheckCatalog(&e)
	if e.HaveErrors() {
		t.Errorf("catalog errors:\n%s", e.String())
	}
}

func TestCheckCatalogFindsErrors(t *testing.T) {
	entries := []FacilityEntry{
		{Key: "X", Label: "x", Family: Omnidirectional, Omni: omni(300, 1, 3000)},
		{Key: "X", Label: "dup", Family: Omnidirectional, Omni: omni(300, 1, 200)},
		{Key: "Y", Family: Directional, Directional: &DirectionalDefaults{AIsDerived: true, RRule: RExplicit}},
		{Key: "Z", Label: "z", Family: Directional, Omni: omni(1, 1, 1)},
		{Key: "W", Label: "w", Family: Omnidirectional, Omni: omniTurbine(600, 1, 3000, 100, 52)},
	}

	var e util.ErrorLogger
	checkCatalog(entries, &e)
	s := e.String()
	for _, expected := range []string{
		"X: duplicate key",
		"X: omni parameter R invalid",
		"Y: missing label",
		"Y: r must be derived from a exactly when a is derived",
		"Z: directional entry must carry only directional defaults",
		"W: turbine parameter j invalid",
	} {
		if !strings.Contains(s, expected) {
			t.Errorf("expected %q in errors:\n%s", expected, s)
		}
	}
}

func TestResolveDirectionalDefaults(t *testing.T) {
	for _, c := range []struct {
		key        string
		label      string
		aIsDerived bool
		b, phi     float64
	}{
		{"LOC", "ILS LLZ – single frequency", true, 500, 30},
		{"LOCII", "ILS LLZ – dual frequency", true, 500, 20},
		{"GP", "ILS GP M-Type (dual)", false, 50, 10},
		{"DME", "DME (directional)", true, 20, 40},
		{"OMNI_NDB", "", false, 0, 0},
		{"nonesuch", "", false, 0, 0},
	} {
		label, aIsDerived, d := ResolveDirectionalDefaults(c.key)
		if label != c.label || aIsDerived != c.aIsDerived || d.B != c.b || d.Phi != c.phi {
			t.Errorf("%s: got (%q, %v, %+v)", c.key, label, aIsDerived, d)
		}
	}

	_, _, loc := ResolveDirectionalDefaults("LOC")
	if r := loc.RFor(1234); r != 7234 {
		t.Errorf("LOC r for a=1234: %f", r)
	}
	if p := loc.Params(800); p.A != 800 || p.R != 6800 || p.L != 2300 || p.LevelH != 10 || p.SlopeH != 70 || p.D != 500 {
		t.Errorf("LOC params: %+v", p)
	}

	_, _, gp := ResolveDirectionalDefaults("GP")
	if gp.A != 800 || gp.RFor(123) != 6000 {
		t.Errorf("GP defaults: %+v", gp)
	}
}

func TestResolveOmniDefaults(t *testing.T) {
	for _, c := range []struct {
		key   string
		label string
		d     OmniDefaults
	}{
		{"OMNI_DME_N", "DME N (omnidirectional)", OmniDefaults{R: 300, Alpha: 1, OuterR: 3000}},
		{"OMNI_CVOR", "CVOR (omnidirectional)", OmniDefaults{R: 600, Alpha: 1, OuterR: 3000, Turbine: true, J: 15000, H: 52}},
		{"OMNI_DVOR", "DVOR (omnidirectional)", OmniDefaults{R: 600, Alpha: 1, OuterR: 3000, Turbine: true, J: 10000, H: 52}},
		{"OMNI_DF", "Direction Finder (omnidirectional)", OmniDefaults{R: 500, Alpha: 1, OuterR: 3000, Turbine: true, J: 10000, H: 52}},
		{"OMNI_MARKERS", "Markers (omnidirectional)", OmniDefaults{R: 50, Alpha: 20, OuterR: 200}},
		{"OMNI_NDB", "NDB (omnidirectional)", OmniDefaults{R: 200, Alpha: 5, OuterR: 1000}},
		{"OMNI_GBAS_VDB", "GBAS VDB station", OmniDefaults{R: 300, Alpha: 0.9, OuterR: 3000}},
		{"OMNI_PSR", "PSR (surveillance)", OmniDefaults{R: 500, Alpha: 0.25, OuterR: 15000}},
		{"LOC", "", OmniDefaults{}},
		{"", "", OmniDefaults{}},
	} {
		label, d := ResolveOmniDefaults(c.key)
		if label != c.label || d != c.d {
			t.Errorf("%q: got (%q, %+v), expected (%q, %+v)", c.key, label, d, c.label, c.d)
		}
	}
}

func TestLookupFacility(t *testing.T) {
	if _, err := LookupFacility("VOR"); !errors.Is(err, ErrUnknownFacility) {
		t.Errorf("expected ErrUnknownFacility, got %v", err)
	}

	e, err := LookupFacility("GP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Family != Directional || e.Directional == nil || e.Omni != nil {
		t.Errorf("unexpected entry %+v", e)
	}

	// Entries handed out are copies.
	e.Directional.A = 1
	if _, _, d := ResolveDirectionalDefaults("GP"); d.A != 800 {
		t.Errorf("catalog was modified through a returned entry")
	}
}

func TestFacilities(t *testing.T) {
	all := Facilities()
	if len(all) != 17 {
		t.Errorf("expected 17 facilities, got %d", len(all))
	}
	if all[0].Key != "LOC" || all[len(all)-1].Key != "OMNI_SSR" {
		t.Errorf("unexpected order: %s ... %s", all[0].Key, all[len(all)-1].Key)
	}

	dir := Facilities(Directional)
	if len(dir) != 4 {
		t.Errorf("expected 4 directional facilities, got %d", len(dir))
	}
	for _, f := range Facilities(Omnidirectional) {
		if f.Family != Omnidirectional || !strings.HasPrefix(f.Key, "OMNI_") {
			t.Errorf("unexpected omni entry %s", f.Key)
		}
	}

	all[4].Omni.R = 1
	if _, d := ResolveOmniDefaults(all[4].Key); d.R == 1 {
		t.Errorf("catalog was modified through Facilities()")
	}
}
