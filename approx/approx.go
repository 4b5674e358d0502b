// Package approx implements typo-tolerant, ranked matching over in-memory
// records.
//
// A field matches when the query can be turned into some substring of the
// field with at most threshold*len(query) edits, so matches are found
// anywhere in the field regardless of location. Records are ranked by a
// combined score where lower is better: 0 for an exact field match, the
// edit ratio otherwise, multiplied across matching fields with each key's
// normalized weight and a field-length norm as exponent.
package approx

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/normalize"
)

// DefaultThreshold is the similarity threshold used when none is given.
// 0.0 requires an exact substring, 1.0 matches almost anything.
const DefaultThreshold = 0.4

const (
	// minScore is the floor for a non-identical field match.
	minScore = 0.001

	// epsilon stands in for a perfect field score so products stay ordered.
	epsilon = 0x1p-52
)

// Option configures a Matcher.
type Option func(*config)

type config struct {
	threshold       float64
	ignoreFieldNorm bool
}

// WithThreshold sets the similarity threshold in [0, 1].
func WithThreshold(threshold float64) Option {
	return func(cfg *config) {
		cfg.threshold = threshold
	}
}

// WithIgnoreFieldNorm disables the field-length norm, so a match in a long
// field ranks the same as a match in a short one.
func WithIgnoreFieldNorm() Option {
	return func(cfg *config) {
		cfg.ignoreFieldNorm = true
	}
}

// Result is a ranked match with its metadata.
type Result[T any] struct {
	// Item is the matched record.
	Item T
	// Index is the record's position in the searched collection.
	Index int
	// Score is the combined relevance score; lower is better.
	Score float64
}

type weightedKey[T any] struct {
	key    cautela.Key[T]
	weight float64
}

// Matcher implements cautela.Matcher with approximate matching.
type Matcher[T any] struct {
	keys            []weightedKey[T]
	threshold       float64
	ignoreFieldNorm bool
}

// New creates an approximate matcher over keys.
// Key weights of zero count as 1 and are normalized to sum to 1.
func New[T any](keys []cautela.Key[T], opts ...Option) (*Matcher[T], error) {
	cfg := &config{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(cfg)
	}

	if math.IsNaN(cfg.threshold) || cfg.threshold < 0 || cfg.threshold > 1 {
		return nil, errors.Wrapf(cautela.ErrInvalidOption, "threshold %v outside [0, 1]", cfg.threshold)
	}

	total := 0.0
	weighted := make([]weightedKey[T], 0, len(keys))
	for _, k := range keys {
		w := k.Weight
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errors.Wrapf(cautela.ErrInvalidOption, "key %q has invalid weight %v", k.Name, w)
		}
		if w == 0 {
			w = 1
		}
		total += w
		weighted = append(weighted, weightedKey[T]{key: k, weight: w})
	}
	for i := range weighted {
		weighted[i].weight /= total
	}

	return &Matcher[T]{
		keys:            weighted,
		threshold:       cfg.threshold,
		ignoreFieldNorm: cfg.ignoreFieldNorm,
	}, nil
}

// Match implements the cautela.Matcher interface.
// It returns matched records by descending relevance, without metadata.
func (m *Matcher[T]) Match(records []T, query string) []T {
	if _, blank := normalize.Query(query); blank {
		return records
	}

	results := m.Search(records, query)
	items := make([]T, len(results))
	for i, r := range results {
		items[i] = r.Item
	}
	return items
}

// Search returns ranked matches with their scores.
// A blank query returns every record with score 0 in source order.
func (m *Matcher[T]) Search(records []T, query string) []Result[T] {
	pattern, blank := normalize.Query(query)
	if blank {
		all := make([]Result[T], len(records))
		for i, r := range records {
			all[i] = Result[T]{Item: r, Index: i}
		}
		return all
	}

	idx := m.buildIndex(records)
	p := []rune(pattern)

	var results []Result[T]
	for i, entry := range idx {
		score, ok := m.scoreEntry(entry, p, pattern)
		if !ok {
			continue
		}
		results = append(results, Result[T]{Item: records[i], Index: i, Score: score})
	}

	// Stable sort keeps source order between equal scores.
	slices.SortStableFunc(results, func(a, b Result[T]) int {
		return cmp.Compare(a.Score, b.Score)
	})
	return results
}

// field is one normalized searchable value of a record.
type field struct {
	text string
	norm float64
}

// entry holds the fields of one record, grouped by key position.
type entry [][]field

func (m *Matcher[T]) buildIndex(records []T) []entry {
	idx := make([]entry, len(records))
	for i, r := range records {
		e := make(entry, len(m.keys))
		for k, wk := range m.keys {
			for _, text := range texts(wk.key.Value(r)) {
				e[k] = append(e[k], field{text: text, norm: fieldNorm(text)})
			}
		}
		idx[i] = e
	}
	return idx
}

func (m *Matcher[T]) scoreEntry(e entry, pattern []rune, patternText string) (float64, bool) {
	total := 1.0
	matched := false
	for k, fields := range e {
		weight := m.keys[k].weight
		for _, f := range fields {
			score, ok := m.scoreField(pattern, patternText, f.text)
			if !ok {
				continue
			}
			matched = true

			exp := weight
			if !m.ignoreFieldNorm {
				exp *= f.norm
			}
			if score == 0 {
				score = epsilon
			}
			total *= math.Pow(score, exp)
		}
	}
	return total, matched
}

func (m *Matcher[T]) scoreField(pattern []rune, patternText, text string) (float64, bool) {
	if text == patternText {
		return 0, true
	}

	score := float64(substringDistance(pattern, []rune(text))) / float64(len(pattern))
	if score > m.threshold {
		return 0, false
	}
	return math.Max(minScore, score), true
}

// texts flattens a field value into normalized, non-blank strings.
func texts(value any) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case []any:
			for _, item := range val {
				walk(item)
			}
		case []string:
			for _, item := range val {
				walk(item)
			}
		case map[string]any:
			for _, item := range val {
				walk(item)
			}
		default:
			if t := normalize.Text(val); strings.TrimSpace(t) != "" {
				out = append(out, t)
			}
		}
	}
	walk(value)
	return out
}

// fieldNorm is 1/sqrt(tokens) rounded to three decimals; tokens are runs
// of non-space characters.
func fieldNorm(text string) float64 {
	tokens := len(strings.FieldsFunc(text, func(r rune) bool { return r == ' ' }))
	if tokens == 0 {
		return 1
	}
	return math.Round(1000/math.Sqrt(float64(tokens))) / 1000
}
