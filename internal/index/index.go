// Package index maintains per-column inverted indexes over a dataset.
//
// An Index maps column → value → bucket of row ids. The invariant, for every
// row r and indexed column c:
//
//	r.ID ∈ index[c][r.Get(c)]  and  r.ID appears in exactly one bucket of index[c]
//
// Build establishes the invariant once; Repair keeps it across cell edits.
package index

import (
	"log/slog"
	"sort"

	"github.com/roach88/tabq/internal/ir"
)

// Bucket is the set of row ids holding one value.
type Bucket map[int]struct{}

// IDs returns the bucket's ids in ascending order.
func (b Bucket) IDs() []int {
	ids := make([]int, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Column maps each distinct value of one column to its bucket.
type Column map[ir.Value]Bucket

// Len returns the number of distinct value buckets.
func (c Column) Len() int {
	return len(c)
}

// Lookup returns the bucket for v (nil when no row holds v).
func (c Column) Lookup(v ir.Value) Bucket {
	if ir.IsNull(v) {
		v = ir.Null{}
	}
	return c[v]
}

// Index is the inverted index of a dataset.
type Index struct {
	columns map[string]Column
}

// Build indexes every row under every named column. Rows lacking a column
// are filed under Null so the one-bucket-per-row invariant holds.
func Build(rows []ir.Row, columns []string) *Index {
	ix := &Index{columns: make(map[string]Column, len(columns))}

	for _, col := range columns {
		c := make(Column)
		for _, row := range rows {
			insert(c, row.Get(col), row.ID)
		}
		ix.columns[col] = c

		slog.Debug("index built",
			slog.String("column", col),
			slog.Int("distinct_values", len(c)),
			slog.Int("rows", len(rows)))
	}

	return ix
}

// Column returns the index of one column.
func (ix *Index) Column(name string) (Column, bool) {
	if ix == nil {
		return nil, false
	}
	c, ok := ix.columns[name]
	return c, ok
}

// Columns returns the indexed column names, sorted.
func (ix *Index) Columns() []string {
	names := make([]string, 0, len(ix.columns))
	for name := range ix.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Repair moves rowID from the bucket of oldValue to the bucket of newValue
// in column, creating the new bucket if absent and dropping the old one
// once empty. It must run for every accepted cell edit.
func (ix *Index) Repair(rowID int, column string, oldValue, newValue ir.Value) {
	c, ok := ix.columns[column]
	if !ok {
		c = make(Column)
		ix.columns[column] = c
	}

	oldKey := key(oldValue)
	if b, ok := c[oldKey]; ok {
		delete(b, rowID)
		if len(b) == 0 {
			delete(c, oldKey)
		}
	}
	insert(c, newValue, rowID)
}

// Equal reports whether two indexes hold identical buckets.
func (ix *Index) Equal(other *Index) bool {
	if len(ix.columns) != len(other.columns) {
		return false
	}
	for name, c := range ix.columns {
		oc, ok := other.columns[name]
		if !ok || len(c) != len(oc) {
			return false
		}
		for v, b := range c {
			ob, ok := oc[v]
			if !ok || len(b) != len(ob) {
				return false
			}
			for id := range b {
				if _, ok := ob[id]; !ok {
					return false
				}
			}
		}
	}
	return true
}

func insert(c Column, v ir.Value, id int) {
	k := key(v)
	b, ok := c[k]
	if !ok {
		b = make(Bucket)
		c[k] = b
	}
	b[id] = struct{}{}
}

// key normalises nil to Null so both land in one bucket.
func key(v ir.Value) ir.Value {
	if ir.IsNull(v) {
		return ir.Null{}
	}
	return v
}
