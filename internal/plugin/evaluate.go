package plugin

import (
	"slices"

	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/index"
	"github.com/roach88/tabq/internal/ir"
)

// Condition is a single-row predicate, normally Plugin.EvaluateCondition.
type Condition func(cell ir.Value, op string, cmp ir.Value) bool

// Evaluate applies sel to candidates using the cheaper of the two
// strategies. When the column is indexed and has no more distinct buckets
// than there are candidates, buckets are tested once each; otherwise every
// candidate row is tested. Both strategies return identical sets.
func Evaluate(cond Condition, sel clause.Select, column index.Column, rows []ir.Row, candidates *index.Set) *index.Set {
	if column != nil && column.Len() <= candidates.Len() {
		return EvaluateIndexed(cond, sel, column, candidates)
	}
	return EvaluateScan(cond, sel, rows, candidates)
}

// EvaluateIndexed tests each bucket key once and subtracts the ids of the
// failing buckets from a copy of candidates.
func EvaluateIndexed(cond Condition, sel clause.Select, column index.Column, candidates *index.Set) *index.Set {
	out := candidates.Clone()
	for value, bucket := range column {
		if cond(value, sel.Operator, sel.Value) {
			continue
		}
		for id := range bucket {
			out.Remove(id)
		}
	}
	return out
}

// EvaluateScan tests every candidate row's cell and keeps the passing ids.
func EvaluateScan(cond Condition, sel clause.Select, rows []ir.Row, candidates *index.Set) *index.Set {
	out := index.Empty(candidates.Cap())
	for _, id := range candidates.IDs() {
		if cond(rows[id].Get(sel.Field), sel.Operator, sel.Value) {
			out.Add(id)
		}
	}
	return out
}

// Comparator orders two non-null values of one column type.
type Comparator func(a, b ir.Value) int

// SortRows stably sorts a copy of rows by field. Null sorts before every
// value in ascending order and after every value in descending order.
func SortRows(rows []ir.Row, field string, dir clause.Direction, cmp Comparator) []ir.Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b ir.Row) int {
		c := compareNullsFirst(a.Get(field), b.Get(field), cmp)
		if dir == clause.Desc {
			return -c
		}
		return c
	})
	return out
}

func compareNullsFirst(a, b ir.Value, cmp Comparator) int {
	aNull, bNull := ir.IsNull(a), ir.IsNull(b)
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return -1
	case bNull:
		return 1
	}
	return cmp(a, b)
}

// baseCondition evaluates ==, != and in. handled is false for any other
// operator.
func baseCondition(cell ir.Value, op string, cmp ir.Value) (result, handled bool) {
	switch op {
	case OpEqual:
		return ir.Equal(cell, cmp), true
	case OpNotEqual:
		return !ir.Equal(cell, cmp), true
	case OpIn:
		list, ok := cmp.(ir.List)
		if !ok {
			return ir.Equal(cell, cmp), true
		}
		for _, v := range list {
			if ir.Equal(cell, v) {
				return true, true
			}
		}
		return false, true
	}
	return false, false
}

// orderedCondition evaluates the ordered operators over a numeric key.
// Null cells and non-numeric literals never satisfy an ordered comparison.
func orderedCondition(cell ir.Value, op string, cmp ir.Value, key func(ir.Value) (float64, bool)) bool {
	v, ok := key(cell)
	if !ok {
		return false
	}

	if op == OpBetween {
		bounds, ok := cmp.(ir.List)
		if !ok || len(bounds) != 2 {
			return false
		}
		lo, okLo := key(bounds[0])
		hi, okHi := key(bounds[1])
		if !okLo || !okHi {
			return false
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return v >= lo && v <= hi
	}

	c, ok := key(cmp)
	if !ok {
		return false
	}
	switch op {
	case OpGreater:
		return v > c
	case OpLess:
		return v < c
	case OpGreaterEqual:
		return v >= c
	case OpLessEqual:
		return v <= c
	}
	return false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
