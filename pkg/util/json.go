// pkg/util/json.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

///////////////////////////////////////////////////////////////////////////
// JSON

// UnmarshalJSON unmarshals the bytes into the given type but goes through
// some efforts to return useful error messages when the JSON is invalid:
// the line and character of the problem are reported.
func UnmarshalJSON[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	switch jerr := err.(type) {
	case *json.SyntaxError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %v", line, char, jerr)

	case *json.UnmarshalTypeError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, jerr.Value, jerr.Struct, jerr.Field, jerr.Type.String())

	default:
		return err
	}
}

///////////////////////////////////////////////////////////////////////////

// CheckJSON checks whether the provided JSON is syntactically valid and
// then typechecks it with respect to the provided type T. Unlike
// json.Unmarshal, it reports object keys that don't correspond to a field
// of T, which catches misspelled parameter names in job files (json's
// case-insensitive matching would otherwise map "H" and "h" onto
// whichever field it finds first).
func CheckJSON[T any](contents []byte, e *ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	var items any
	if err := UnmarshalJSON(contents, &items); err != nil {
		e.Error(err)
		return
	}

	ty := reflect.TypeOf((*T)(nil)).Elem()
	typeCheckJSON(items, ty, e)
}

func typeCheckJSON(v any, ty reflect.Type, e *ErrorLogger) {
	for ty.Kind() == reflect.Pointer {
		ty = ty.Elem()
	}
	if v == nil {
		// null is fine for anything we'd decode into
		return
	}

	mismatch := func() {
		e.ErrorString("unexpected data format provided for object: %s", reflect.TypeOf(v))
	}

	switch ty.Kind() {
	case reflect.Array, reflect.Slice:
		array, ok := v.([]any)
		if !ok {
			mismatch()
			return
		}
		if ty.Kind() == reflect.Array && len(array) != ty.Len() {
			e.ErrorString("expected %d values, got %d", ty.Len(), len(array))
		}
		for _, item := range array {
			typeCheckJSON(item, ty.Elem(), e)
		}

	case reflect.Map:
		if m, ok := v.(map[string]any); ok {
			for k, val := range m {
				e.Push(k)
				typeCheckJSON(val, ty.Elem(), e)
				e.Pop()
			}
		} else {
			mismatch()
		}

	case reflect.Struct:
		items, ok := v.(map[string]any)
		if !ok {
			mismatch()
			return
		}
		for item, values := range items {
			found := false
			for _, field := range reflect.VisibleFields(ty) {
				j, ok := field.Tag.Lookup("json")
				if !ok {
					continue
				}
				if name, _, _ := strings.Cut(j, ","); name == item {
					found = true
					e.Push(item)
					typeCheckJSON(values, field.Type, e)
					e.Pop()
					break
				}
			}
			if !found {
				e.ErrorString("The entry \"%s\" is not an expected JSON object. Is it misspelled?", item)
			}
		}

	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64:
		if _, ok := v.(float64); !ok {
			mismatch()
		}

	case reflect.Bool:
		if _, ok := v.(bool); !ok {
			mismatch()
		}

	case reflect.String:
		if _, ok := v.(string); !ok {
			mismatch()
		}
	}
}
