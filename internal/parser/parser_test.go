package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/ir"
	"github.com/roach88/tabq/internal/plugin"
)

func testHeaders() []ir.Header {
	return []ir.Header{
		{Name: "name", Type: "string", IsGroupable: true, IsEditable: true, Position: 0},
		{Name: "age", Type: "number", IsGroupable: true, IsEditable: true, Position: 1},
		{Name: "First Name", Type: "string", IsGroupable: true, Position: 2},
		{Name: "active", Type: "boolean", IsGroupable: true, Position: 3},
		{Name: "joined", Type: "date", IsGroupable: true, Position: 4},
		{Name: "notes", Type: "string", IsGroupable: false, Position: 5},
		{Name: "price", Type: "currency", IsGroupable: true, Position: 6},
	}
}

func newTestParser() *Parser {
	return New(plugin.Default(), testHeaders(), DefaultOptions())
}

func TestParse_Scenarios(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		query string
		want  clause.Query
	}{
		{"age > 26", clause.Query{clause.Select{Field: "age", Operator: ">", Value: ir.Number(26), Raw: "26"}}},
		{"name %= A", clause.Query{clause.Select{Field: "name", Operator: "%=", Value: ir.String("A"), Raw: "A"}}},
		{"sort age asc", clause.Query{clause.Sort{Field: "age", Direction: clause.Asc}}},
		{"sort age", clause.Query{clause.Sort{Field: "age", Direction: clause.Asc}}},
		{"SORT age DESC", clause.Query{clause.Sort{Field: "age", Direction: clause.Desc}}},
		{"group name", clause.Query{clause.Group{Field: "name"}}},
		{"range 1", clause.Query{clause.Range{Lower: 0, Upper: 0, HasUpper: true}}},
		{"range 2-4", clause.Query{clause.Range{Lower: 2, Upper: 4, HasUpper: true}}},
		{"range 3-", clause.Query{clause.Range{Lower: 3}}},
		{"range -2", clause.Query{clause.Range{Lower: -2}}},
		{"range 0--1", clause.Query{clause.Range{Lower: 0, Upper: -1, HasUpper: true}}},
		{`search "bob smith"`, clause.Query{clause.Fuzzy{Text: "bob smith"}}},
		{"search bob", clause.Query{clause.Fuzzy{Text: "bob"}}},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			got, err := p.Parse(tc.query)
			require.NoError(t, err)
			assert.Empty(t, got.Warnings)
			assert.Equal(t, tc.want, got.Query)
		})
	}
}

func TestParse_Connectives(t *testing.T) {
	p := newTestParser()

	for _, q := range []string{
		"age > 26 and name == Bob",
		"age > 26 AND name == Bob",
		"age > 26 && name == Bob",
		"age > 26   And   name == Bob",
	} {
		t.Run(q, func(t *testing.T) {
			got, err := p.Parse(q)
			require.NoError(t, err)
			require.Len(t, got.Query, 2)
			assert.Equal(t, "age", got.Query[0].(clause.Select).Field)
			assert.Equal(t, ir.String("Bob"), got.Query[1].(clause.Select).Value)
		})
	}
}

func TestParse_MultiWordValues(t *testing.T) {
	p := newTestParser()

	got, err := p.Parse(`name == Mary Ann Smith and search "salt and pepper"`)
	require.NoError(t, err)
	require.Len(t, got.Query, 2)
	assert.Equal(t, ir.String("Mary Ann Smith"), got.Query[0].(clause.Select).Value)
	assert.Equal(t, clause.Fuzzy{Text: "salt and pepper"}, got.Query[1])

	got, err = p.Parse(`name == "Brand and Sons"`)
	require.NoError(t, err)
	assert.Equal(t, ir.String("Brand and Sons"), got.Query[0].(clause.Select).Value)
}

func TestParse_ListOperators(t *testing.T) {
	p := newTestParser()

	got, err := p.Parse(`name in Bob, "Ann, Jr", Cy`)
	require.NoError(t, err)
	require.Len(t, got.Query, 1)
	assert.Equal(t, ir.List{ir.String("Bob"), ir.String("Ann, Jr"), ir.String("Cy")}, got.Query[0].(clause.Select).Value)

	got, err = p.Parse("age >< 20,30")
	require.NoError(t, err)
	assert.Equal(t, ir.List{ir.Number(20), ir.Number(30)}, got.Query[0].(clause.Select).Value)

	got, err = p.Parse("age >< 20,30,40")
	require.NoError(t, err)
	assert.Empty(t, got.Query)
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "exactly two values")

	got, err = p.Parse("age in 1,two")
	require.NoError(t, err)
	assert.Empty(t, got.Query)
	assert.Len(t, got.Warnings, 1)
}

func TestParse_TypedValues(t *testing.T) {
	p := newTestParser()

	got, err := p.Parse("active == yes and joined >= 2024-01-15 and age == null")
	require.NoError(t, err)
	require.Len(t, got.Query, 3)
	assert.Equal(t, ir.Bool(true), got.Query[0].(clause.Select).Value)
	assert.Equal(t, ir.NewDate(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), got.Query[1].(clause.Select).Value)
	assert.Equal(t, ir.Null{}, got.Query[2].(clause.Select).Value)
}

func TestParse_HeaderMatching(t *testing.T) {
	p := newTestParser()

	for _, field := range []string{"first_name", `"First Name"`, "firstname", "FIRST-NAME", "FirstName"} {
		t.Run(field, func(t *testing.T) {
			got, err := p.Parse(field + " == Ann")
			require.NoError(t, err)
			require.Len(t, got.Query, 1, "warnings: %v", got.Warnings)
			assert.Equal(t, "First Name", got.Query[0].(clause.Select).Field)
		})
	}
}

func TestParse_StrictCase(t *testing.T) {
	p := New(plugin.Default(), testHeaders(), Options{StrictCase: true, IgnoreSymbols: DefaultIgnoreSymbols})

	got, err := p.Parse("first_name == Ann")
	require.NoError(t, err)
	assert.Empty(t, got.Query)
	assert.Len(t, got.Warnings, 1)

	got, err = p.Parse("First_Name == Ann")
	require.NoError(t, err)
	assert.Len(t, got.Query, 1)
}

func TestParse_DropsWithWarnings(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name    string
		query   string
		warning string
	}{
		{"unknown field", "height > 3", `unknown field "height"`},
		{"invalid value", "age > old", `invalid number value "old"`},
		{"unmatched", "gibberish", "unrecognised clause"},
		{"group unknown", "group height", `unknown field "height"`},
		{"group not groupable", "group notes", `not groupable`},
		{"sort unknown", "sort height desc", `unknown field "height"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.Parse(tc.query + " and age > 1")
			require.NoError(t, err)
			require.Len(t, got.Warnings, 1)
			assert.Contains(t, got.Warnings[0], tc.warning)
			assert.Equal(t, clause.Query{clause.Select{Field: "age", Operator: ">", Value: ir.Number(1), Raw: "1"}}, got.Query,
				"the rest of the query survives")
		})
	}
}

func TestParse_ConfigurationErrors(t *testing.T) {
	p := newTestParser()

	_, err := p.Parse("age %= 3")
	require.Error(t, err)
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownOperator))
	assert.Contains(t, err.Error(), "== != in > < >= <= ><")

	_, err = p.Parse("price > 3")
	require.Error(t, err)
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownPlugin))
	var ierr *ir.Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "price", ierr.Field)

	_, err = p.Parse("sort price")
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownPlugin))
}

func TestParse_Empty(t *testing.T) {
	got, err := newTestParser().Parse("   ")
	require.NoError(t, err)
	assert.Empty(t, got.Query)
	assert.Empty(t, got.Warnings)
}

func TestParse_CanonicalRoundTrip(t *testing.T) {
	p := newTestParser()

	for _, q := range []string{
		`name == "Mary Ann" and age >< 20,30 and sort age desc and range 2-4 and search "x y"`,
		`"First Name" in "a b",c and group name`,
		"range 5-",
	} {
		t.Run(q, func(t *testing.T) {
			first, err := p.Parse(q)
			require.NoError(t, err)
			require.Empty(t, first.Warnings)

			second, err := p.Parse(first.Query.String())
			require.NoError(t, err)
			assert.Equal(t, first.Query, second.Query)
		})
	}
}

func TestParseSelect(t *testing.T) {
	p := newTestParser()

	got, err := p.ParseSelect("first_name", "%=", "An")
	require.NoError(t, err)
	assert.Equal(t, clause.Query{clause.Select{Field: "First Name", Operator: "%=", Value: ir.String("An"), Raw: "An"}}, got.Query)

	got, err = p.ParseSelect("age", "==", "abc")
	require.NoError(t, err)
	assert.Empty(t, got.Query)
	assert.Len(t, got.Warnings, 1)

	_, err = p.ParseSelect("active", ">", "true")
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownOperator))
}

func TestResolve(t *testing.T) {
	p := newTestParser()

	h, ok := p.Resolve("First_name")
	require.True(t, ok)
	assert.Equal(t, "First Name", h.Name)

	_, ok = p.Resolve("nope")
	assert.False(t, ok)
}
