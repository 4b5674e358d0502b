// Package substring implements accent-insensitive substring filtering over
// in-memory records.
package substring

import (
	"strings"

	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/normalize"
)

// Matcher implements cautela.Matcher with a linear scan.
// A record matches when the normalized query occurs in ANY of its keys.
type Matcher[T any] struct {
	keys []cautela.Key[T]
}

// New creates a substring matcher over the given keys.
func New[T any](keys ...cautela.Key[T]) *Matcher[T] {
	return &Matcher[T]{keys: keys}
}

// Match implements the cautela.Matcher interface.
// Results keep source order. A blank query returns records unchanged.
func (m *Matcher[T]) Match(records []T, query string) []T {
	term, blank := normalize.Query(query)
	if blank {
		return records
	}

	matches := make([]T, 0, len(records))
	for _, record := range records {
		if m.matchesRecord(record, term) {
			matches = append(matches, record)
		}
	}
	return matches
}

// matchesRecord reports whether any key of record contains term.
func (m *Matcher[T]) matchesRecord(record T, term string) bool {
	for _, key := range m.keys {
		if valueContainsTerm(key.Value(record), term) {
			return true
		}
	}
	return false
}

// valueContainsTerm checks if a value contains the normalized search term.
// Slices and maps match when any element does.
func valueContainsTerm(value any, term string) bool {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if valueContainsTerm(item, term) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if strings.Contains(normalize.Text(item), term) {
				return true
			}
		}
		return false
	case map[string]any:
		for _, item := range v {
			if valueContainsTerm(item, term) {
				return true
			}
		}
		return false
	default:
		return strings.Contains(normalize.Text(v), term)
	}
}
