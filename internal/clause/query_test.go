package clause

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabq/internal/ir"
)

func sel(field, op string, v ir.Value, raw string) Select {
	return Select{Field: field, Operator: op, Value: v, Raw: raw}
}

func TestQueryString_CanonicalOrder(t *testing.T) {
	q := Query{
		Fuzzy{Text: "bo"},
		Group{Field: "name"},
		sel("age", ">", ir.Number(20), "20"),
		Range{Lower: 0, Upper: 4, HasUpper: true},
		Sort{Field: "age", Direction: Asc},
		sel("name", "%=", ir.String("B"), "B"),
	}

	assert.Equal(t,
		`age > 20 and name %= B and sort age asc and range 0-4 and group name and search "bo"`,
		q.String())
}

func TestQuery_EmptyString(t *testing.T) {
	assert.Equal(t, "", Query{}.String())
	assert.Equal(t, "", Query(nil).String())
}

func TestQuery_Accessors(t *testing.T) {
	q := Query{
		Sort{Field: "a", Direction: Asc},
		Sort{Field: "b", Direction: Desc},
		sel("x", "==", ir.Number(1), "1"),
	}

	s, ok := q.Sort()
	require.True(t, ok)
	assert.Equal(t, "a", s.Field, "first sort wins")

	_, ok = q.Group()
	assert.False(t, ok)
	assert.Len(t, q.Selects(), 1)
}

func TestQuery_WithoutSelects(t *testing.T) {
	q := Query{
		sel("age", ">", ir.Number(20), "20"),
		sel("age", "<", ir.Number(60), "60"),
		sel("ages", ">", ir.Number(1), "1"),
		sel("name", "==", ir.String("Bob"), "Bob"),
	}

	t.Run("by field", func(t *testing.T) {
		out := q.WithoutSelects(SelectMatch{Field: "age"})
		require.Len(t, out, 2)
		assert.Equal(t, "ages > 1 and name == Bob", out.String(), "field sharing a prefix survives")
	})

	t.Run("by field and operator", func(t *testing.T) {
		out := q.WithoutSelects(SelectMatch{Field: "age", Operator: "<"})
		assert.Equal(t, "age > 20 and ages > 1 and name == Bob", out.String())
	})

	t.Run("exact clause", func(t *testing.T) {
		out := q.WithoutSelects(SelectMatch{Field: "age", Operator: ">", Value: "20"})
		assert.Equal(t, "age < 60 and ages > 1 and name == Bob", out.String())

		none := q.WithoutSelects(SelectMatch{Field: "age", Operator: ">", Value: "21"})
		assert.Len(t, none, 4)
	})

	t.Run("receiver untouched", func(t *testing.T) {
		_ = q.WithoutSelects(SelectMatch{Field: "name"})
		assert.Len(t, q, 4)
	})
}

func TestQuery_ReplaceSelects(t *testing.T) {
	q := Query{
		sel("age", ">", ir.Number(20), "20"),
		sel("age", "<", ir.Number(60), "60"),
		sel("name", "==", ir.String("Bob"), "Bob"),
	}

	out := q.ReplaceSelects(sel("age", "==", ir.Number(30), "30"))
	assert.Equal(t, "name == Bob and age == 30", out.String())
}

func TestQuery_SingletonReplacement(t *testing.T) {
	q := Query{}.
		WithSort(Sort{Field: "a", Direction: Asc}).
		WithSort(Sort{Field: "b", Direction: Desc}).
		WithRange(Range{Lower: 1}).
		WithGroup(Group{Field: "g"}).
		WithFuzzy(Fuzzy{Text: "x"})

	assert.Equal(t, `sort b desc and range 1- and group g and search "x"`, q.String())

	q = q.WithoutSort().WithoutRange().WithoutGroup().WithoutFuzzy()
	assert.Empty(t, q)
}

func TestValidate(t *testing.T) {
	t.Run("clean query", func(t *testing.T) {
		res := Validate(Query{sel("a", "==", ir.Number(1), "1"), Sort{Field: "a"}})
		assert.True(t, res.OK())
	})

	t.Run("group with sort and search", func(t *testing.T) {
		res := Validate(Query{Group{Field: "a"}, Sort{Field: "a"}, Fuzzy{Text: "x"}})
		require.Len(t, res.Warnings, 2)
		assert.Contains(t, res.Warnings[0], "sorting inside groups is unsupported")
		assert.Contains(t, res.Warnings[1], "search is not applied to grouped results")
	})

	t.Run("duplicates", func(t *testing.T) {
		res := Validate(Query{Range{Lower: 1}, Range{Lower: 2}})
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, "2 range clauses given; only the first is applied", res.Warnings[0])
	})
}
