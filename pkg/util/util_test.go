// pkg/util/util_test.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestErrorLogger(t *testing.T) {
	var e ErrorLogger
	if e.HaveErrors() || e.Err() != nil {
		t.Fatalf("fresh ErrorLogger shouldn't have errors")
	}

	e.Push("requests[0]")
	e.Push("omni")
	e.ErrorString("%s must be > 0", "r")
	e.Pop()
	if e.CurrentDepth() != 1 {
		t.Errorf("expected depth 1, got %d", e.CurrentDepth())
	}
	e.Pop()
	e.ErrorString("top level")

	if !e.HaveErrors() {
		t.Fatalf("expected errors")
	}
	expected := "requests[0] / omni: r must be > 0\ntop level"
	if e.String() != expected {
		t.Errorf("got %q, expected %q", e.String(), expected)
	}
	if err := e.Err(); err == nil || err.Error() != expected {
		t.Errorf("Err() = %v", err)
	}

	var buf bytes.Buffer
	e.PrintErrors(&buf, nil)
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("expected two printed lines, got %q", buf.String())
	}
}

func TestCheckDepthPanics(t *testing.T) {
	var e ErrorLogger
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for unbalanced Push")
		}
	}()
	func() {
		defer e.CheckDepth(e.CurrentDepth())
		e.Push("leaked")
	}()
}

func TestUnmarshalJSONErrorPosition(t *testing.T) {
	type job struct {
		CRS string `json:"crs"`
	}
	var j job
	err := UnmarshalJSON([]byte("{\n  \"crs\": 12\n}"), &j)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line number in error, got %v", err)
	}

	err = UnmarshalJSON([]byte("{\n\n  \"crs\": \"EPSG:3794\",,\n}"), &j)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected syntax error on line 3, got %v", err)
	}
}

func TestCheckJSON(t *testing.T) {
	type params struct {
		A      *float64 `json:"a,omitempty"`
		SlopeH *float64 `json:"h,omitempty"`
		LevelH *float64 `json:"H,omitempty"`
	}
	type request struct {
		Facility string       `json:"facility"`
		Route    [][2]float64 `json:"route"`
		Params   params       `json:"params"`
		Turbine  bool         `json:"turbine"`
	}

	for _, c := range []struct {
		name   string
		json   string
		errors int
	}{
		{"valid", `{"facility": "LOC", "route": [[0,0],[0,1]], "params": {"a": 1, "h": 2, "H": 3}, "turbine": false}`, 0},
		{"misspelled", `{"facilty": "LOC"}`, 1},
		{"bad param", `{"params": {"phi": 30}}`, 1},
		{"wrong type", `{"facility": 12, "turbine": "yes"}`, 2},
		{"short point", `{"route": [[0,0],[1]]}`, 1},
		{"null is fine", `{"params": null}`, 0},
	} {
		t.Run(c.name, func(t *testing.T) {
			var e ErrorLogger
			CheckJSON[request]([]byte(c.json), &e)
			n := 0
			if e.HaveErrors() {
				n = len(strings.Split(e.String(), "\n"))
			}
			if n != c.errors {
				t.Errorf("expected %d errors, got %d: %s", c.errors, n, e.String())
			}
		})
	}
}

func TestProfilerHeap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mem.prof")
	p, err := CreateProfiler("", path)
	if err != nil {
		t.Fatalf("CreateProfiler: %v", err)
	}
	if !p.Active() {
		t.Errorf("profiler should be active")
	}
	p.Cleanup()
	p.Cleanup()

	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("heap profile not written: %v, %v", fi, err)
	}

	if _, err := CreateProfiler("", filepath.Join(t.TempDir(), "missing", "mem.prof")); err == nil {
		t.Errorf("expected an error creating a profile in a missing directory")
	}
}
