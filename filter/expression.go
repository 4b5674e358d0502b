// Package filter narrows record collections with composable field
// predicates, such as only available materials or open checkouts.
package filter

import (
	"strconv"
	"strings"

	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/normalize"
)

// Expression is a predicate over a record. Field paths follow
// cautela.Field: json tags, dotted nesting, slices fan out.
type Expression interface {
	Eval(record any) bool
}

type andExpr []Expression

func (a andExpr) Eval(record any) bool {
	for _, e := range a {
		if !e.Eval(record) {
			return false
		}
	}
	return true
}

// And matches when every expression matches. An empty And matches all.
func And(exprs ...Expression) Expression {
	return andExpr(exprs)
}

type orExpr []Expression

func (o orExpr) Eval(record any) bool {
	for _, e := range o {
		if e.Eval(record) {
			return true
		}
	}
	return false
}

// Or matches when any expression matches.
func Or(exprs ...Expression) Expression {
	return orExpr(exprs)
}

type notExpr struct {
	inner Expression
}

func (n notExpr) Eval(record any) bool {
	return !n.inner.Eval(record)
}

// Not negates expr.
func Not(expr Expression) Expression {
	return notExpr{inner: expr}
}

// op compares a field value with an operand.
type op int

const (
	opEq op = iota
	opNe
	opGt
	opGte
	opLt
	opLte
)

type compareExpr struct {
	field cautela.Key[any]
	op    op
	value any
}

func (c compareExpr) Eval(record any) bool {
	v := c.field.Value(record)
	if items, ok := v.([]any); ok {
		// Slice fields match when any element does; Ne when none equals.
		if c.op == opNe {
			return !anyMatch(items, compareExpr{field: c.field, op: opEq, value: c.value})
		}
		return anyMatch(items, c)
	}
	return c.test(v)
}

func anyMatch(items []any, c compareExpr) bool {
	for _, item := range items {
		if c.test(item) {
			return true
		}
	}
	return false
}

func (c compareExpr) test(v any) bool {
	switch c.op {
	case opEq:
		return equal(v, c.value)
	case opNe:
		return !equal(v, c.value)
	}

	if v == nil {
		return false
	}
	cmp := compare(v, c.value)
	switch c.op {
	case opGt:
		return cmp > 0
	case opGte:
		return cmp >= 0
	case opLt:
		return cmp < 0
	case opLte:
		return cmp <= 0
	default:
		return false
	}
}

func newCompare(field string, o op, value any) Expression {
	return compareExpr{field: cautela.Field[any](field), op: o, value: value}
}

// Eq matches records whose field equals value. Two strings compare as
// text without regard to case or accents; otherwise numeric strings equal
// their numbers. A nil value matches missing fields.
func Eq(field string, value any) Expression { return newCompare(field, opEq, value) }

// Ne is the negation of Eq.
func Ne(field string, value any) Expression { return newCompare(field, opNe, value) }

// Gt matches records whose field is greater than value.
func Gt(field string, value any) Expression { return newCompare(field, opGt, value) }

// Gte matches records whose field is greater than or equal to value.
func Gte(field string, value any) Expression { return newCompare(field, opGte, value) }

// Lt matches records whose field is less than value.
func Lt(field string, value any) Expression { return newCompare(field, opLt, value) }

// Lte matches records whose field is less than or equal to value.
func Lte(field string, value any) Expression { return newCompare(field, opLte, value) }

// Range matches records whose field lies within [min, max]. A nil bound
// is open.
func Range(field string, min, max any) Expression {
	var exprs []Expression
	if min != nil {
		exprs = append(exprs, Gte(field, min))
	}
	if max != nil {
		exprs = append(exprs, Lte(field, max))
	}
	if len(exprs) == 0 {
		return Exists(field)
	}
	return And(exprs...)
}

type existsExpr struct {
	field cautela.Key[any]
}

func (e existsExpr) Eval(record any) bool {
	return e.field.Value(record) != nil
}

// Exists matches records where field resolves to a non-nil value.
func Exists(field string) Expression {
	return existsExpr{field: cautela.Field[any](field)}
}

// In matches records whose field equals any of values.
func In(field string, values ...any) Expression {
	exprs := make([]Expression, 0, len(values))
	for _, v := range values {
		exprs = append(exprs, Eq(field, v))
	}
	return Or(exprs...)
}

func equal(v1, v2 any) bool {
	if v1 == nil || v2 == nil {
		return v1 == nil && v2 == nil
	}

	_, s1 := v1.(string)
	_, s2 := v2.(string)
	if !s1 || !s2 {
		if f1, ok1 := toFloat64(v1); ok1 {
			if f2, ok2 := toFloat64(v2); ok2 {
				return f1 == f2
			}
		}
	}

	return normalize.Text(v1) == normalize.Text(v2)
}

// compare orders numbers, and strings that parse as numbers, numerically.
// Everything else compares by normalized text, which keeps RFC 3339
// timestamps chronological.
func compare(v1, v2 any) int {
	if f1, ok1 := toFloat64(v1); ok1 {
		if f2, ok2 := toFloat64(v2); ok2 {
			switch {
			case f1 < f2:
				return -1
			case f1 > f2:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(normalize.Text(v1), normalize.Text(v2))
}

func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
