// pkg/util/generic_test.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"slices"
	"strconv"
	"testing"
)

func TestMapSlice(t *testing.T) {
	s := MapSlice([]int{1, 2, 3}, func(i int) string { return strconv.Itoa(i * 10) })
	if !slices.Equal(s, []string{"10", "20", "30"}) {
		t.Errorf("got %v", s)
	}
	if s := MapSlice([]int(nil), strconv.Itoa); s == nil || len(s) != 0 {
		t.Errorf("expected an empty non-nil slice, got %#v", s)
	}
}

func TestFilterSlice(t *testing.T) {
	even := FilterSlice([]int{1, 2, 3, 4, 6, 7}, func(i int) bool { return i%2 == 0 })
	if !slices.Equal(even, []int{2, 4, 6}) {
		t.Errorf("got %v", even)
	}
	if none := FilterSlice([]int{1, 3}, func(i int) bool { return i%2 == 0 }); len(none) != 0 {
		t.Errorf("got %v", none)
	}
}
