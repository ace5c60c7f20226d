// Package engine implements the tabq query executor.
//
// An Engine owns one dataset: its rows, headers, inverted index, plugin
// registry, current query and edit log. The lifecycle is
//
//	New -> Import (once) -> CreateIndex (once) -> Query / mutations / AlterData
//
// Query execution runs a fixed pipeline over a candidate set initialised to
// every row id:
//
//  1. Select clauses narrow the candidates, each through its column's
//     plugin. A plugin picks bucket iteration or row scanning by cost; both
//     give the same ids.
//  2. Range cuts a positional window out of the candidates in ascending id
//     order.
//  3. Group partitions the survivors and returns. Sort and search are not
//     applied to grouped results.
//  4. Sort orders the survivors through the column's plugin.
//  5. Search keeps rows where any visible column contains the text.
//
// Parse and execution anomalies never fail a query; they come back as
// warnings in the Result. Configuration problems (unknown plugin, unknown
// operator, re-import) are errors.
//
// The engine is single-writer and synchronous. It is not safe for
// concurrent use; callers serialise access.
package engine
