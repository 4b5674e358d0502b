package cautela

import (
	"reflect"
	"strings"
	"sync"
)

// Key extracts comparable text from a record.
// Keys are fixed when a matcher is built.
type Key[T any] struct {
	// Name identifies the key, usually the field path it reads.
	Name string

	// Weight is the relative importance of the key for ranked strategies.
	// Zero is treated as 1.
	Weight float64

	get func(T) any
}

// Value returns the raw field value of record, or nil when the key
// resolves to nothing.
func (k Key[T]) Value(record T) any {
	if k.get == nil {
		return nil
	}
	return k.get(record)
}

// WithWeight returns a copy of the key with the given weight.
func (k Key[T]) WithWeight(weight float64) Key[T] {
	k.Weight = weight
	return k
}

// KeyFunc creates a key backed by an accessor function.
func KeyFunc[T any](name string, fn func(T) any) Key[T] {
	return Key[T]{Name: name, get: fn}
}

// Field creates a key that reads a dotted field path such as "catalogo.nome".
// Each segment matches a struct field by its json tag, then by a
// case-insensitive field name, or a string-keyed map entry.
// A slice along the path fans out: the rest of the path is read from every
// element and the non-nil results are returned as []any.
// Nil pointers and missing segments resolve to nil.
func Field[T any](path string) Key[T] {
	parts := strings.Split(path, ".")
	return Key[T]{
		Name: path,
		get: func(record T) any {
			return lookup(record, parts)
		},
	}
}

// Fields creates one Field key per path, preserving order.
func Fields[T any](paths ...string) []Key[T] {
	keys := make([]Key[T], 0, len(paths))
	for _, p := range paths {
		keys = append(keys, Field[T](p))
	}
	return keys
}

func lookup(v any, parts []string) any {
	for i, part := range parts {
		if v == nil {
			return nil
		}

		if m, ok := v.(map[string]any); ok {
			v = m[part]
			continue
		}

		rv := reflect.ValueOf(v)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil
			}
			rv = rv.Elem()
		}

		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if rv.Type().Elem().Kind() == reflect.Uint8 {
				return nil
			}
			return fanOut(rv, parts[i:])
		case reflect.Struct:
			index, ok := fieldIndex(rv.Type(), part)
			if !ok {
				return nil
			}
			field, err := rv.FieldByIndexErr(index)
			if err != nil {
				return nil
			}
			rv = field
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return nil
			}
			entry := rv.MapIndex(reflect.ValueOf(part).Convert(rv.Type().Key()))
			if !entry.IsValid() {
				return nil
			}
			rv = entry
		default:
			return nil
		}

		if !rv.CanInterface() {
			return nil
		}
		if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
			return nil
		}
		v = rv.Interface()
	}
	return v
}

func fanOut(rv reflect.Value, parts []string) any {
	out := make([]any, 0, rv.Len())
	for j := 0; j < rv.Len(); j++ {
		elem := rv.Index(j)
		if !elem.CanInterface() {
			continue
		}
		if got := lookup(elem.Interface(), parts); got != nil {
			out = append(out, got)
		}
	}
	return out
}

type fieldCacheKey struct {
	typ  reflect.Type
	name string
}

// fieldCache maps (struct type, segment) to a resolved field index.
var fieldCache sync.Map

func fieldIndex(t reflect.Type, name string) ([]int, bool) {
	ck := fieldCacheKey{typ: t, name: name}
	if cached, ok := fieldCache.Load(ck); ok {
		index := cached.([]int)
		return index, index != nil
	}

	index := resolveField(t, name)
	fieldCache.Store(ck, index)
	return index, index != nil
}

func resolveField(t reflect.Type, name string) []int {
	var byName []int
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}

		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		if tagName, _, _ := strings.Cut(tag, ","); tagName == name {
			return f.Index
		}
		if byName == nil && strings.EqualFold(f.Name, name) {
			byName = f.Index
		}
	}
	return byName
}
