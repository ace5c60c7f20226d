// Package harness runs YAML query scenarios against the engine.
//
// # Scenario Format
//
//	name: filter_and_edit
//	description: "What this scenario validates"
//	data: people.json          # relative to the scenario file
//	headers:
//	  email: {type: string, isUnique: true}
//	steps:
//	  - query: "age > 26 and sort age desc"
//	    expect:
//	      rows: [2, 1]
//	  - alter: {row: 1, column: age, value: 31}
//	  - mutate: {op: add_select, field: age, operator: ">", value: "30"}
//	    expect:
//	      query: "age > 26 and age > 30"
//	assertions:
//	  - type: edit_count
//	    count: 1
//
// Data may be given inline instead of by path. The import type follows the
// data file extension unless set with type.
//
// # Assertion Types
//
//   - edit_count: the tracked edit log has exactly count entries
//   - edit_contains: an edit for row/column ends at value
//   - cell: the final cell at row/column formats as value
//   - current_query: the canonical current query equals query
//
// # Deterministic Testing
//
// Every run uses a fresh engine with a fixed edit id generator and a logical
// clock starting at zero, so traces are stable for golden comparison.
package harness
