// pkg/log/log_test.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, c := range []struct {
		s   string
		lvl slog.Level
		ok  bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"WARN", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"chatty", slog.LevelInfo, false},
	} {
		lvl, err := ParseLevel(c.s)
		if (err == nil) != c.ok {
			t.Errorf("%q: unexpected error result %v", c.s, err)
		}
		if lvl != c.lvl {
			t.Errorf("%q: got level %v, expected %v", c.s, lvl, c.lvl)
		}
	}
}

func TestLoggerLevelsAndCallstack(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("info", &buf)

	lg.Debug("dropped")
	lg.Infof("built %d surfaces", 7)
	lg.With(slog.String("facility", "LOC")).Warn("slow build")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("%v", err)
	}
	if rec["msg"] != "built 7 surfaces" {
		t.Errorf("unexpected message %v", rec["msg"])
	}
	if cs, ok := rec["callstack"].([]any); !ok || len(cs) == 0 {
		t.Errorf("expected callstack attribute, got %v", rec["callstack"])
	} else if top, _ := cs[0].(string); !strings.HasPrefix(top, "log/log_test.go:") ||
		!strings.HasSuffix(top, " log.TestLoggerLevelsAndCallstack") {
		t.Errorf("callstack should start at the logging call, got %q", top)
	}

	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("%v", err)
	}
	if rec["facility"] != "LOC" || rec["level"] != "WARN" {
		t.Errorf("unexpected warning record %v", rec)
	}
}

func TestNilLogger(t *testing.T) {
	var lg *Logger
	// None of these should crash.
	lg.Debug("x")
	lg.Debugf("x %d", 1)
	lg.Info("x")
	lg.Infof("x %d", 1)
	if lg.With("k", "v") != nil {
		t.Errorf("With on a nil logger should return nil")
	}
}

//go:noinline
func stackOf(skip int) Stack { return Callers(skip) }

func TestCallers(t *testing.T) {
	st := stackOf(0)
	if len(st) != 2 {
		t.Fatalf("expected 2 frames, got %v", st)
	}
	if st[0].Function != "log.stackOf" || st[1].Function != "log.TestCallers" {
		t.Errorf("unexpected functions %q, %q", st[0].Function, st[1].Function)
	}
	for _, f := range st {
		if f.File != "log/log_test.go" || f.Line == 0 {
			t.Errorf("unexpected frame %+v", f)
		}
	}

	if st := stackOf(1); len(st) != 1 || st[0].Function != "log.TestCallers" {
		t.Errorf("skip 1: got %v", st)
	}
}

func TestShortFunction(t *testing.T) {
	for _, c := range []struct{ fn, expected string }{
		{"github.com/qbra/qbra/pkg/bra.BuildOmniSurfaces", "bra.BuildOmniSurfaces"},
		{"github.com/qbra/qbra/pkg/server.(*Server).handleAssess", "server.(*Server).handleAssess"},
		{"main.runJob", "main.runJob"},
		{"net/http.HandlerFunc.ServeHTTP", "net/http.HandlerFunc.ServeHTTP"},
	} {
		if s := shortFunction(c.fn); s != c.expected {
			t.Errorf("shortFunction(%q) = %q, expected %q", c.fn, s, c.expected)
		}
	}
}
