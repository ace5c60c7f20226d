// Package clause provides the typed query representation produced by the
// parser and consumed by the engine.
//
// A query is an ordered list of clauses. Clause is a sealed interface using
// the marker method pattern; only the five kinds in this package implement
// it, so the executor can switch over them exhaustively:
//
//	switch c := cl.(type) {
//	case Select:  // <field> <operator> <value>
//	case Sort:    // sort <field> <asc|desc>
//	case Range:   // range <lower>-<upper>
//	case Group:   // group <field>
//	case Fuzzy:   // search "text"
//	}
//
// CANONICAL FORM:
//
// Every clause renders itself back to query text. Query.String joins the
// clauses in canonical order (selects, sort, range, group, search) with
// " and ". The engine keeps the typed list as its current query and only
// derives the string for display, so the mutation helpers (WithSelect,
// WithoutSort, ...) operate on clauses rather than on text.
package clause
