// Package normalize folds text for locale-insensitive comparison.
package normalize

import (
	"fmt"
	"reflect"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text lowercases v, decomposes it (NFD) and strips every nonspacing mark,
// so "João" and "JOAO" both become "joao".
// nil, typed-nil pointers and empty values yield "". Text never fails.
func Text(v any) string {
	s := stringify(v)
	if s == "" {
		return ""
	}

	// Casers and transformer chains keep state, so both are built per call.
	lowered := cases.Lower(language.Und).String(s)
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), lowered)
	if err != nil {
		return lowered
	}
	return stripped
}

// Query normalizes a user-typed query and reports whether it is blank.
func Query(q string) (string, bool) {
	n := Text(q)
	for _, r := range n {
		if !unicode.IsSpace(r) {
			return n, false
		}
	}
	return n, true
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case []byte:
		return string(val)
	case fmt.Stringer:
		if isNil(val) {
			return ""
		}
		return val.String()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	return fmt.Sprint(rv.Interface())
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}
