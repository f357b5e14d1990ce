// pkg/server/server_test.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(nil, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

const gpJob = `{
  "crs": "EPSG:3794",
  "requests": [
    {
      "facility": "GP",
      "navaid": {"position": [0, 0], "feature_id": 1, "attributes": {"rwy": "09"}},
      "azimuth": 0,
      "site_elevation": 300
    },
    {
      "facility": "OMNI_NDB",
      "navaid": {"position": [5000, 0], "feature_id": 2},
      "site_elevation": 300
    }
  ]
}`

func TestSurfaces(t *testing.T) {
	s := newTestServer(t)

	rr := do(s, http.MethodPost, "/v1/surfaces", gpJob)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type %q", ct)
	}

	var resp SurfacesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unable to decode response: %v", err)
	}
	if len(resp.Layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(resp.Layers))
	}
	gp := resp.Layers[0]
	if gp.Name != "RWY09 - ILS GP M-Type (dual) BRA_areas" || gp.CRS != "EPSG:3794" || len(gp.Surfaces) != 7 {
		t.Errorf("unexpected layer %s/%s with %d surfaces", gp.Name, gp.CRS, len(gp.Surfaces))
	}
	if gp.Surfaces[3].Exterior.Arc == nil {
		t.Errorf("slope arc missing from the response")
	}
	if ndb := resp.Layers[1]; ndb.Name != "RWY2 BRA_omni" || len(ndb.Surfaces) != 2 || len(ndb.Surfaces[1].Holes) != 1 {
		t.Errorf("unexpected omni layer %s with %d surfaces", ndb.Name, len(ndb.Surfaces))
	}

	// Attribute columns keep their order.
	body := rr.Body.String()
	if !strings.Contains(body, `"attributes":{"id":1,"area":"base","max_elev":"300.0","area_name":"RWY09 - ILS GP M-Type (dual)","a":"800.0","b":"50.0"`) {
		t.Errorf("attributes out of order:\n%s", body[:min(len(body), 400)])
	}

	if n := testutil.ToFloat64(s.Metrics().Builds.WithLabelValues("directional", OutcomeOK)); n != 1 {
		t.Errorf("directional builds = %v, want 1", n)
	}
	if n := testutil.ToFloat64(s.Metrics().Builds.WithLabelValues("omni", OutcomeOK)); n != 1 {
		t.Errorf("omni builds = %v, want 1", n)
	}
	if n := testutil.ToFloat64(s.Metrics().SurfacesEmitted.WithLabelValues("directional")); n != 7 {
		t.Errorf("directional surfaces = %v, want 7", n)
	}
	if n := testutil.ToFloat64(s.Metrics().SurfacesEmitted.WithLabelValues("omni")); n != 2 {
		t.Errorf("omni surfaces = %v, want 2", n)
	}
}

func TestSurfacesErrors(t *testing.T) {
	s := newTestServer(t)

	for _, c := range []struct {
		name, method, body string
		status             int
		message            string
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed, "not allowed"},
		{"syntax", http.MethodPost, `{"requests": [`, http.StatusBadRequest, "line 1"},
		{"misspelled", http.MethodPost, `{"requests": [{"facilty": "GP"}]}`, http.StatusBadRequest, "facilty"},
		{"empty", http.MethodPost, `{"crs": "x", "requests": []}`, http.StatusBadRequest, "no requests"},
		{"unknown facility", http.MethodPost, `{"requests": [{"facility": "TACAN"}]}`, http.StatusBadRequest, "requests[0]"},
		{"no azimuth", http.MethodPost, `{"requests": [{"facility": "GP"}]}`, http.StatusBadRequest, "requests[0]"},
		{"invalid parameter", http.MethodPost,
			`{"requests": [{"facility": "GP", "azimuth": 0, "directional": {"D": -1}}]}`, http.StatusBadRequest, "parameter D"},
		{"no geometry", http.MethodPost,
			`{"requests": [{"facility": "GP", "azimuth": 0, "directional": {"a": 500, "b": 500, "D": 500, "r": 100, "L": 2300, "phi": 30}}]}`,
			http.StatusUnprocessableEntity, "Rl"},
	} {
		t.Run(c.name, func(t *testing.T) {
			rr := do(s, c.method, "/v1/surfaces", c.body)
			if rr.Code != c.status {
				t.Errorf("status %d, expected %d: %s", rr.Code, c.status, rr.Body.String())
			}
			var e errorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
				t.Fatalf("unable to decode error: %v", err)
			}
			if !strings.Contains(e.Error, c.message) {
				t.Errorf("expected error mentioning %q, got %q", c.message, e.Error)
			}
		})
	}

	if n := testutil.ToFloat64(s.Metrics().Builds.WithLabelValues("directional", OutcomeGeometry)); n != 1 {
		t.Errorf("geometry failures = %v, want 1", n)
	}
	if n := testutil.ToFloat64(s.Metrics().Builds.WithLabelValues("directional", OutcomeInvalid)); n != 1 {
		t.Errorf("validation failures = %v, want 1", n)
	}
}

func TestAssess(t *testing.T) {
	s := newTestServer(t)

	body := `{
  "requests": [{"facility": "GP", "navaid": {"position": [0, 0], "feature_id": 1}, "azimuth": 0, "site_elevation": 0}],
  "obstacles": [
    {"name": "mast", "position": [0, 100, 50]},
    {"name": "shed", "position": [0, 100, -1]},
    {"name": "barn", "position": [0, -1000, 50]}
  ]
}`
	rr := do(s, http.MethodPost, "/v1/assess", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var resp AssessResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unable to decode response: %v", err)
	}
	if len(resp.Violations) != 1 {
		t.Fatalf("expected one violation, got %+v", resp.Violations)
	}
	v := resp.Violations[0]
	if v.Obstacle.Name != "mast" || len(v.Results) != 1 || v.Results[0].Area != "base" || v.Results[0].Penetration != 50 {
		t.Errorf("unexpected violation %+v", v)
	}

	if rr := do(s, http.MethodPost, "/v1/assess", `{"requests": [{"facility": "GP"}]}`); rr.Code != http.StatusBadRequest {
		t.Errorf("status %d for a request without azimuth", rr.Code)
	}
}

func TestAssessMisspelled(t *testing.T) {
	s := newTestServer(t)

	for _, c := range []struct {
		name, body, key string
	}{
		{"request key",
			`{"requests": [{"facility": "GP", "navaid": {"position": [0, 0]}, "azimuth": 0, "site_elevaton": 1000}],
			  "obstacles": [{"name": "mast", "position": [0, 100, 50]}]}`,
			"site_elevaton"},
		{"obstacle key",
			`{"requests": [{"facility": "GP", "navaid": {"position": [0, 0]}, "azimuth": 0, "site_elevation": 0}],
			  "obstacles": [{"name": "mast", "postion": [0, 100, 50]}]}`,
			"postion"},
		{"top-level key",
			`{"requests": [{"facility": "GP", "navaid": {"position": [0, 0]}, "azimuth": 0}], "obstacle": []}`,
			"obstacle"},
	} {
		t.Run(c.name, func(t *testing.T) {
			rr := do(s, http.MethodPost, "/v1/assess", c.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status %d, expected 400: %s", rr.Code, rr.Body.String())
			}
			var e errorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
				t.Fatalf("unable to decode error: %v", err)
			}
			if !strings.Contains(e.Error, `"`+c.key+`"`) || !strings.Contains(e.Error, "misspelled") {
				t.Errorf("expected error naming %q, got %q", c.key, e.Error)
			}
		})
	}
}

func TestFacilities(t *testing.T) {
	s := newTestServer(t)

	for _, c := range []struct {
		query  string
		status int
		n      int
	}{
		{"", http.StatusOK, 17},
		{"?family=directional", http.StatusOK, 4},
		{"?family=omni", http.StatusOK, 13},
		{"?family=sideways", http.StatusBadRequest, 0},
	} {
		rr := do(s, http.MethodGet, "/v1/facilities"+c.query, "")
		if rr.Code != c.status {
			t.Errorf("%q: status %d, expected %d", c.query, rr.Code, c.status)
			continue
		}
		if c.status != http.StatusOK {
			continue
		}
		var entries []map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
			t.Fatalf("%q: %v", c.query, err)
		}
		if len(entries) != c.n {
			t.Errorf("%q: %d entries, expected %d", c.query, len(entries), c.n)
		}
		if c.query == "?family=omni" && entries[0]["family"] != "omni" {
			t.Errorf("unexpected family %v", entries[0]["family"])
		}
	}
}

func TestMetricsAndStats(t *testing.T) {
	s := newTestServer(t)
	do(s, http.MethodPost, "/v1/surfaces", gpJob)

	rr := do(s, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rr.Code)
	}
	for _, m := range []string{
		`qbra_builds_total{family="directional",outcome="ok"} 1`,
		`qbra_surfaces_emitted_total{family="omni"} 2`,
		`qbra_build_duration_seconds_count{family="directional"} 1`,
	} {
		if !strings.Contains(rr.Body.String(), m) {
			t.Errorf("expected %q in metrics output", m)
		}
	}

	rr = do(s, http.MethodGet, "/sup", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Requests served: 3") {
		t.Errorf("unexpected status page (%d):\n%s", rr.Code, rr.Body.String())
	}
}
