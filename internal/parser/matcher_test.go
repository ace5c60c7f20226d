package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabq/internal/ir"
)

func TestMatcher_Normalize(t *testing.T) {
	m := NewMatcher(nil, DefaultOptions())

	assert.Equal(t, "firstname", m.Normalize("First_Name"))
	assert.Equal(t, "firstname", m.Normalize("first-name"))
	assert.Equal(t, "firstname", m.Normalize("FIRST NAME"))
	assert.Equal(t, "strasse", m.Normalize("Straße"))
	// Decomposed e + combining acute composes before comparison.
	assert.Equal(t, m.Normalize("caf\u00e9"), m.Normalize("cafe\u0301"))
}

func TestMatcher_CustomSymbols(t *testing.T) {
	m := NewMatcher(nil, Options{IgnoreSymbols: "."})
	assert.Equal(t, "first_name", m.Normalize("First_.Name"))
	assert.Equal(t, "a b", m.Normalize("A. B"))
}

func TestMatcher_ExactWinsOverNormalized(t *testing.T) {
	headers := []ir.Header{
		{Name: "first_name", Type: "string", Position: 0},
		{Name: "FirstName", Type: "string", Position: 1},
	}
	m := NewMatcher(headers, DefaultOptions())

	h, ok := m.Match("FirstName")
	require.True(t, ok)
	assert.Equal(t, "FirstName", h.Name)

	h, ok = m.Match("first name")
	require.True(t, ok)
	assert.Equal(t, "first_name", h.Name, "lowest position wins a normalised collision")
}

func TestMatcher_NoMatch(t *testing.T) {
	m := NewMatcher([]ir.Header{{Name: "age"}}, DefaultOptions())

	_, ok := m.Match("height")
	assert.False(t, ok)
	_, ok = m.Match("__")
	assert.False(t, ok, "a token of only ignorable symbols matches nothing")
}
