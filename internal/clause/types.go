package clause

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tabq/internal/ir"
)

// Clause is one parsed unit of the query language.
//
// This is a sealed interface - only types in this package implement it.
type Clause interface {
	clauseNode() // Marker method - seals interface to this package

	// String renders the clause in canonical query syntax.
	String() string
}

// Select filters rows by a single column predicate.
//
// Value holds the plugin-parsed literal (a List for "in" and "><"); Raw keeps
// the literal exactly as written so the canonical query round-trips.
type Select struct {
	Field    string   // Resolved header name
	Operator string   // Operator symbol, e.g. "==" or "%="
	Value    ir.Value // Parsed by the owning plugin
	Raw      string   // Literal as written
}

func (Select) clauseNode() {}

func (s Select) String() string {
	raw := s.Raw
	if raw == "" {
		raw = ir.Format(s.Value)
	}
	return fmt.Sprintf("%s %s %s", quoteIfNeeded(s.Field), s.Operator, quoteIfNeeded(raw))
}

// Direction is a sort order.
type Direction string

const (
	// Asc sorts smallest first.
	Asc Direction = "asc"
	// Desc sorts largest first.
	Desc Direction = "desc"
)

// ParseDirection maps "asc"/"desc" (any case) to a Direction.
// An empty string defaults to Asc.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, true
	case "desc":
		return Desc, true
	default:
		return "", false
	}
}

// Sort orders the filtered rows by one column.
type Sort struct {
	Field     string
	Direction Direction
}

func (Sort) clauseNode() {}

func (s Sort) String() string {
	dir := s.Direction
	if dir == "" {
		dir = Asc
	}
	return fmt.Sprintf("sort %s %s", quoteIfNeeded(s.Field), dir)
}

// Range selects a positional window of the candidate rows.
//
// Bounds are inclusive positions in candidate order. Negative bounds count
// from the end (-1 is the last row). When HasUpper is false the window runs
// to the end.
type Range struct {
	Lower    int
	Upper    int
	HasUpper bool
}

func (Range) clauseNode() {}

func (r Range) String() string {
	if !r.HasUpper {
		return fmt.Sprintf("range %d-", r.Lower)
	}
	return fmt.Sprintf("range %d-%d", r.Lower, r.Upper)
}

// Window resolves the range against n candidates. It returns the half-open
// interval [start, end); start == end means the window is empty.
func (r Range) Window(n int) (start, end int) {
	if n == 0 {
		return 0, 0
	}
	lo := r.Lower
	if lo < 0 {
		lo += n
	}
	hi := n - 1
	if r.HasUpper {
		hi = r.Upper
		if hi < 0 {
			hi += n
		}
	}
	if lo > hi || lo >= n || hi < 0 {
		return 0, 0
	}
	lo = clamp(lo, 0, n-1)
	hi = clamp(hi, 0, n-1)
	return lo, hi + 1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Group partitions the filtered rows by one column's value.
type Group struct {
	Field string
}

func (Group) clauseNode() {}

func (g Group) String() string {
	return fmt.Sprintf("group %s", quoteIfNeeded(g.Field))
}

// Fuzzy keeps rows where any visible column contains Text, ignoring case.
type Fuzzy struct {
	Text string
}

func (Fuzzy) clauseNode() {}

func (f Fuzzy) String() string {
	return "search " + strconv.Quote(f.Text)
}

// quoteIfNeeded wraps s in double quotes when it would not survive
// re-parsing as a bare token (whitespace or an embedded connective).
func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\"") || strings.Contains(s, "&&") {
		return strconv.Quote(s)
	}
	return s
}
