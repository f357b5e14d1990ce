// pkg/log/stack.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"iter"
	"log/slog"
	"path"
	"runtime"
	"strconv"
	"strings"
)

const (
	modulePath = "github.com/qbra/qbra/"
	maxFrames  = 16
)

// Frame is one caller recorded in a Stack.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f Frame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line) + " " + f.Function
}

// Stack is a call stack, innermost caller first. Frames of the Go runtime
// and the testing package are not recorded.
type Stack []Frame

// Callers returns the stack of the function calling it; skip drops that
// many additional frames from the top.
func Callers(skip int) Stack {
	var pc [maxFrames]uintptr
	n := runtime.Callers(skip+2, pc[:])

	st := make(Stack, 0, n)
	for f := range frames(pc[:n]) {
		if strings.HasPrefix(f.Function, "runtime.") || strings.HasPrefix(f.Function, "testing.") {
			break
		}
		st = append(st, Frame{
			File:     path.Join(path.Base(path.Dir(f.File)), path.Base(f.File)),
			Line:     f.Line,
			Function: shortFunction(f.Function),
		})
		if f.Function == "main.main" {
			break
		}
	}
	return st
}

// LogValue renders the stack as a list of "dir/file.go:line function"
// strings.
func (st Stack) LogValue() slog.Value {
	s := make([]string, len(st))
	for i, f := range st {
		s[i] = f.String()
	}
	return slog.AnyValue(s)
}

func frames(pc []uintptr) iter.Seq[runtime.Frame] {
	return func(yield func(runtime.Frame) bool) {
		if len(pc) == 0 {
			return
		}
		fr := runtime.CallersFrames(pc)
		for {
			f, more := fr.Next()
			if !yield(f) || !more {
				return
			}
		}
	}
}

// shortFunction turns "github.com/qbra/qbra/pkg/bra.BuildOmniSurfaces"
// into "bra.BuildOmniSurfaces".
func shortFunction(fn string) string {
	if rest, ok := strings.CutPrefix(fn, modulePath); ok {
		fn = strings.TrimPrefix(rest, "pkg/")
	}
	return fn
}

// stackAttr is the callstack attribute added by the Logger methods; it
// must be called directly from them.
func stackAttr() slog.Attr {
	return slog.Any("callstack", Callers(2))
}
