package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabq/internal/importer"
)

func TestLoadScenario_ResolvesDataPath(t *testing.T) {
	s := loadTestScenario(t, "people_queries")

	assert.Equal(t, filepath.Join("testdata", "scenarios", "people.json"), s.Data)
	typ, err := s.importType()
	require.NoError(t, err)
	assert.Equal(t, importer.JSON, typ)

	s = loadTestScenario(t, "account_edits")
	typ, err = s.importType()
	require.NoError(t, err)
	assert.Equal(t, importer.CSV, typ)
	assert.Equal(t, "string", s.Headers["email"].Type)
}

func TestLoadScenario_MissingDataFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: "d"
data: nowhere.json
steps: [{query: "a == 1"}]
`), 0o644))

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "data file not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	assert.Error(t, err)
}

func TestParseScenario_Validation(t *testing.T) {
	base := "name: s\ndescription: d\ninline: '[]'\n"

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing name", "description: d\ninline: '[]'\nsteps: [{query: x}]\n", "name is required"},
		{"missing description", "name: s\ninline: '[]'\nsteps: [{query: x}]\n", "description is required"},
		{"no data", "name: s\ndescription: d\nsteps: [{query: x}]\n", "data or inline is required"},
		{"both data and inline", base + "data: x.json\nsteps: [{query: x}]\n", "mutually exclusive"},
		{"unknown type", base + "type: xml\nsteps: [{query: x}]\n", "unknown import type"},
		{"no steps", base, "steps list is required"},
		{"empty step", base + "steps: [{}]\n", "exactly one of"},
		{"two actions in a step", base + "steps: [{query: x, flush: true}]\n", "exactly one of"},
		{"unknown mutation", base + "steps: [{mutate: {op: explode}}]\n", "unknown op"},
		{"alter without column", base + "steps: [{alter: {row: 1}}]\n", "column is required"},
		{"values without column", base + "steps: [{query: x, expect: {values: [a]}}]\n", "column is required with values"},
		{"unknown assertion", base + "steps: [{query: x}]\nassertions: [{type: nope}]\n", "unknown assertion type"},
		{"cell without column", base + "steps: [{query: x}]\nassertions: [{type: cell, row: 1}]\n", "column is required for cell"},
		{"typo field", base + "stepz: []\n", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_EmptyQueryStep(t *testing.T) {
	s, err := ParseScenario([]byte("name: s\ndescription: d\ninline: '[{\"a\":1}]'\nsteps: [{query: \"\"}]\n"))
	require.NoError(t, err)
	require.NotNil(t, s.Steps[0].Query, "an empty query is still a query step")

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, result.Trace[0].Rows)
	assert.Contains(t, result.Trace[0].Warnings, "empty query; returning the full dataset")
}
