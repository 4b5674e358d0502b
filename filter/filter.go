package filter

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
)

// Apply returns the records matching every expression, in source order.
func Apply[T any](records []T, exprs ...Expression) []T {
	if len(exprs) == 0 {
		return records
	}
	expr := And(exprs...)

	out := make([]T, 0, len(records))
	for _, r := range records {
		if expr.Eval(r) {
			out = append(out, r)
		}
	}
	return out
}

// Where wraps matcher so records are filtered before matching.
func Where[T any](matcher cautela.Matcher[T], exprs ...Expression) cautela.Matcher[T] {
	if len(exprs) == 0 {
		return matcher
	}
	return cautela.MatcherFunc[T](func(records []T, query string) []T {
		return matcher.Match(Apply(records, exprs...), query)
	})
}

// operators is ordered so two-character operators are tried first.
var operators = []struct {
	token string
	build func(field string, value any) Expression
}{
	{"!=", Ne},
	{">=", Gte},
	{"<=", Lte},
	{"=", Eq},
	{">", Gt},
	{"<", Lt},
}

// Parse reads a single "field<op>value" expression, where op is one of
// = != > >= < <=. A value of "a|b" after = matches either value. Values
// stay strings; numeric ones compare as numbers against numeric fields.
func Parse(s string) (Expression, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.Wrap(cautela.ErrInvalidOption, "filter cannot be empty")
	}

	for _, o := range operators {
		i := strings.Index(s, o.token)
		if i < 0 {
			continue
		}
		field := strings.TrimSpace(s[:i])
		raw := strings.TrimSpace(s[i+len(o.token):])
		if field == "" || raw == "" {
			return nil, errors.Wrapf(cautela.ErrInvalidOption, "filter field and value must be non-empty: %q", s)
		}

		if o.token == "=" && strings.Contains(raw, "|") {
			var values []any
			for _, part := range strings.Split(raw, "|") {
				values = append(values, strings.TrimSpace(part))
			}
			return In(field, values...), nil
		}
		return o.build(field, raw), nil
	}

	return nil, errors.Wrapf(cautela.ErrInvalidOption, "filter must be in field<op>value format: %q", s)
}

// ParseAll parses every expression in raw.
func ParseAll(raw []string) ([]Expression, error) {
	exprs := make([]Expression, 0, len(raw))
	for _, item := range raw {
		e, err := Parse(item)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}
