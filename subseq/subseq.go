// Package subseq implements fuzzy-finder style matching: every query
// character must appear, in order, in one of the record's keys.
package subseq

import (
	"cmp"
	"slices"
	"strings"

	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/normalize"
	"github.com/sahilm/fuzzy"
)

// column implements fuzzy.Source over one key's normalized values.
type column []string

func (c column) String(i int) string { return c[i] }

func (c column) Len() int { return len(c) }

// Matcher implements cautela.Matcher on top of github.com/sahilm/fuzzy.
type Matcher[T any] struct {
	keys []cautela.Key[T]
}

// New creates a subsequence matcher over keys.
func New[T any](keys ...cautela.Key[T]) *Matcher[T] {
	return &Matcher[T]{keys: keys}
}

// Match implements the cautela.Matcher interface.
// Records are ranked by their best score across keys, best first;
// ties keep source order.
func (m *Matcher[T]) Match(records []T, query string) []T {
	pattern, blank := normalize.Query(query)
	if blank {
		return records
	}

	best := make(map[int]int)
	for _, key := range m.keys {
		col := make(column, len(records))
		for i, r := range records {
			col[i] = flatten(key.Value(r))
		}
		for _, match := range fuzzy.FindFrom(pattern, col) {
			if score, seen := best[match.Index]; !seen || match.Score > score {
				best[match.Index] = match.Score
			}
		}
	}

	indexes := make([]int, 0, len(best))
	for i := range best {
		indexes = append(indexes, i)
	}
	slices.SortFunc(indexes, func(a, b int) int {
		if c := cmp.Compare(best[b], best[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	out := make([]T, len(indexes))
	for i, idx := range indexes {
		out[i] = records[idx]
	}
	return out
}

// flatten renders a field value as one normalized string; slice and map
// elements are joined with spaces.
func flatten(value any) string {
	switch v := value.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, flatten(item))
		}
		return strings.Join(parts, " ")
	case []string:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, normalize.Text(item))
		}
		return strings.Join(parts, " ")
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, flatten(item))
		}
		slices.Sort(parts)
		return strings.Join(parts, " ")
	default:
		return normalize.Text(v)
	}
}
