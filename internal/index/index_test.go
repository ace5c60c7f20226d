package index

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabq/internal/ir"
)

func people() []ir.Row {
	return []ir.Row{
		{ID: 0, Cells: map[string]ir.Value{"name": ir.String("Bob"), "age": ir.Number(30)}},
		{ID: 1, Cells: map[string]ir.Value{"name": ir.String("Ann"), "age": ir.Number(25)}},
		{ID: 2, Cells: map[string]ir.Value{"name": ir.String("Bob"), "age": ir.Null{}}},
		{ID: 3, Cells: map[string]ir.Value{"name": ir.String("Cy")}},
	}
}

func TestBuild(t *testing.T) {
	ix := Build(people(), []string{"name", "age"})

	names, ok := ix.Column("name")
	require.True(t, ok)
	assert.Equal(t, 3, names.Len())
	assert.Equal(t, []int{0, 2}, names.Lookup(ir.String("Bob")).IDs())
	assert.Equal(t, []int{1}, names.Lookup(ir.String("Ann")).IDs())

	ages, ok := ix.Column("age")
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, ages.Lookup(ir.Null{}).IDs(), "missing and null cells share a bucket")
	assert.Equal(t, []int{2, 3}, ages.Lookup(nil).IDs())
	assert.Nil(t, ages.Lookup(ir.Number(99)))

	assert.Equal(t, []string{"age", "name"}, ix.Columns())
}

func TestBuild_EveryRowInExactlyOneBucket(t *testing.T) {
	rows := people()
	ix := Build(rows, []string{"name", "age"})

	for _, col := range ix.Columns() {
		c, _ := ix.Column(col)
		seen := map[int]int{}
		for _, b := range c {
			for id := range b {
				seen[id]++
			}
		}
		for _, row := range rows {
			assert.Equal(t, 1, seen[row.ID], "row %d in column %s", row.ID, col)
		}
	}
}

func TestRepair(t *testing.T) {
	ix := Build(people(), []string{"name", "age"})

	ix.Repair(1, "age", ir.Number(25), ir.Number(30))

	ages, _ := ix.Column("age")
	assert.Equal(t, []int{0, 1}, ages.Lookup(ir.Number(30)).IDs())
	assert.Nil(t, ages.Lookup(ir.Number(25)), "emptied bucket is dropped")

	ix.Repair(0, "age", ir.Number(30), ir.Number(41))
	assert.Equal(t, []int{0}, ages.Lookup(ir.Number(41)).IDs(), "new bucket created lazily")
	assert.Equal(t, []int{1}, ages.Lookup(ir.Number(30)).IDs())
}

func TestRepair_NilIndexColumn(t *testing.T) {
	var ix *Index
	_, ok := ix.Column("age")
	assert.False(t, ok)
}

// TestRepairMatchesRebuild applies random edit sequences and checks that the
// incrementally repaired index equals a fresh build over the edited rows.
func TestRepairMatchesRebuild(t *testing.T) {
	columns := []string{"name", "age"}
	values := map[string][]ir.Value{
		"name": {ir.String("Bob"), ir.String("Ann"), ir.String("Cy"), ir.Null{}},
		"age":  {ir.Number(25), ir.Number(30), ir.Number(41), ir.Null{}},
	}

	for seed := int64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			rows := people()
			ix := Build(rows, columns)

			for step := 0; step < 50; step++ {
				id := rng.Intn(len(rows))
				col := columns[rng.Intn(len(columns))]
				next := values[col][rng.Intn(len(values[col]))]

				prev := rows[id].Get(col)
				rows[id].Cells[col] = next
				ix.Repair(id, col, prev, next)
			}

			assert.True(t, ix.Equal(Build(rows, columns)))
		})
	}
}

func TestEqual_DetectsDifferences(t *testing.T) {
	a := Build(people(), []string{"name"})
	b := Build(people(), []string{"name"})
	assert.True(t, a.Equal(b))

	b.Repair(3, "name", ir.String("Cy"), ir.String("Ann"))
	assert.False(t, a.Equal(b))

	c := Build(people(), []string{"name", "age"})
	assert.False(t, a.Equal(c))
}
