package plugin

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/index"
	"github.com/roach88/tabq/internal/ir"
)

func randomRows(rng *rand.Rand, n int) []ir.Row {
	words := []string{"Ann", "Bob", "anna", "Cyril", "bobby", ""}
	rows := make([]ir.Row, n)
	for i := range rows {
		cells := map[string]ir.Value{}
		if w := words[rng.Intn(len(words))]; w != "" {
			cells["name"] = ir.String(w)
		}
		if rng.Intn(5) > 0 {
			cells["age"] = ir.Number(rng.Intn(10) * 5)
		}
		cells["active"] = ir.Bool(rng.Intn(2) == 0)
		rows[i] = ir.Row{ID: i, Cells: cells}
	}
	return rows
}

func randomCandidates(rng *rand.Rand, n int) *index.Set {
	s := index.Empty(n)
	for id := 0; id < n; id++ {
		if rng.Intn(3) > 0 {
			s.Add(id)
		}
	}
	return s
}

// TestEvaluate_IndexScanEquivalence checks that bucket iteration and row
// scanning agree for every operator of every built-in plugin.
func TestEvaluate_IndexScanEquivalence(t *testing.T) {
	cases := []struct {
		plugin Plugin
		field  string
		values []ir.Value
	}{
		{NewStringPlugin(language.Und), "name", []ir.Value{
			ir.String("Ann"), ir.String("b"), ir.String("NN"), ir.Null{},
			ir.List{ir.String("Bob"), ir.String("anna")},
		}},
		{NumberPlugin{}, "age", []ir.Value{
			ir.Number(20), ir.Number(0), ir.Null{},
			ir.List{ir.Number(10), ir.Number(30)},
			ir.List{ir.Number(45), ir.Number(5)},
		}},
		{BooleanPlugin{}, "active", []ir.Value{ir.Bool(true), ir.Bool(false), ir.List{ir.Bool(true)}}},
	}

	for seed := int64(1); seed <= 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		rows := randomRows(rng, 40)
		ix := index.Build(rows, []string{"name", "age", "active"})

		for _, tc := range cases {
			column, _ := ix.Column(tc.field)
			for _, op := range tc.plugin.Operators() {
				for _, v := range tc.values {
					name := fmt.Sprintf("seed%d/%s/%s/%s", seed, tc.plugin.Name(), op, ir.Format(v))
					sel := clause.Select{Field: tc.field, Operator: op, Value: v}
					candidates := randomCandidates(rng, len(rows))

					indexed := EvaluateIndexed(tc.plugin.EvaluateCondition, sel, column, candidates)
					scanned := EvaluateScan(tc.plugin.EvaluateCondition, sel, rows, candidates)
					assert.Equal(t, scanned.IDs(), indexed.IDs(), name)

					viaPlugin := tc.plugin.Evaluate(sel, column, rows, candidates)
					assert.Equal(t, scanned.IDs(), viaPlugin.IDs(), name)
				}
			}
		}
	}
}

func TestEvaluate_DoesNotMutateCandidates(t *testing.T) {
	rows := []ir.Row{
		{ID: 0, Cells: map[string]ir.Value{"age": ir.Number(30)}},
		{ID: 1, Cells: map[string]ir.Value{"age": ir.Number(25)}},
	}
	ix := index.Build(rows, []string{"age"})
	column, _ := ix.Column("age")
	candidates := index.Full(2)

	sel := clause.Select{Field: "age", Operator: OpGreater, Value: ir.Number(26)}
	got := NumberPlugin{}.Evaluate(sel, column, rows, candidates)

	assert.Equal(t, []int{0}, got.IDs())
	assert.Equal(t, []int{0, 1}, candidates.IDs())
}

func TestEvaluate_WithoutIndexScans(t *testing.T) {
	rows := []ir.Row{
		{ID: 0, Cells: map[string]ir.Value{"name": ir.String("Bob")}},
		{ID: 1, Cells: map[string]ir.Value{"name": ir.String("Ann")}},
	}
	sel := clause.Select{Field: "name", Operator: OpPrefix, Value: ir.String("a")}

	got := Evaluate(NewStringPlugin(language.Und).EvaluateCondition, sel, nil, rows, index.Full(2))
	assert.Equal(t, []int{1}, got.IDs())
}

func TestEvaluate_ExcludesNonCandidates(t *testing.T) {
	rows := []ir.Row{
		{ID: 0, Cells: map[string]ir.Value{"age": ir.Number(30)}},
		{ID: 1, Cells: map[string]ir.Value{"age": ir.Number(30)}},
		{ID: 2, Cells: map[string]ir.Value{"age": ir.Number(30)}},
	}
	ix := index.Build(rows, []string{"age"})
	column, _ := ix.Column("age")
	sel := clause.Select{Field: "age", Operator: OpEqual, Value: ir.Number(30)}

	got := NumberPlugin{}.Evaluate(sel, column, rows, index.Of(3, 0, 2))
	assert.Equal(t, []int{0, 2}, got.IDs())
}
