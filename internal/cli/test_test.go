package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: adults
description: people over 26, youngest first
data: people.json
steps:
  - query: "age > 26 and sort age asc"
    expect:
      rows: [0, 2, 3]
`

const failingScenario = `name: wrong
description: expects the wrong rows
data: people.json
steps:
  - query: "age > 26"
    expect:
      rows: [1]
`

// scenarioDir writes people.json plus the given scenario files.
func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "people.json", peopleJSON)
	for name, body := range scenarios {
		writeFile(t, dir, name, body)
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(NewTestCommand(newTestRootOptions("text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(NewTestCommand(newTestRootOptions("text")), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(NewTestCommand(newTestRootOptions("text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(NewTestCommand(newTestRootOptions("json")), t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandPassAndFail(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"adults.yaml": passingScenario,
		"wrong.yaml":  failingScenario,
	})

	out, err := execute(NewTestCommand(newTestRootOptions("text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✓ adults")
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommandFilterJSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"adults.yaml": passingScenario,
		"wrong.yaml":  failingScenario,
	})

	out, err := execute(NewTestCommand(newTestRootOptions("json")), dir, "--filter", "adu*")
	require.NoError(t, err)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, 1, response.Data.Total)
	assert.Equal(t, 1, response.Data.Passed)
	assert.Equal(t, "adults", response.Data.Scenarios[0].Name)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"broken.yaml": "name: broken\nbogus_field: 1\n",
	})

	out, err := execute(NewTestCommand(newTestRootOptions("text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"adults.yaml": passingScenario})
	goldenPath := filepath.Join(dir, "golden", "adults.golden")

	_, err := execute(NewTestCommand(newTestRootOptions("text")), dir, "--update")
	require.NoError(t, err)
	require.FileExists(t, goldenPath)

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario": "adults"`)
	assert.Contains(t, string(golden), `"query": "age > 26 and sort age asc"`)

	// Unchanged run matches.
	_, err = execute(NewTestCommand(newTestRootOptions("text")), dir)
	require.NoError(t, err)

	// A drifted golden file fails the scenario.
	require.NoError(t, os.WriteFile(goldenPath, bytes.ReplaceAll(golden, []byte(`"adults"`), []byte(`"other"`)), 0644))
	out, err := execute(NewTestCommand(newTestRootOptions("text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(NewTestCommand(newTestRootOptions("text")),
		"../harness/testdata/scenarios", "--golden", "../harness/testdata/golden")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ people_queries")
	assert.Contains(t, out, "✓ account_edits")
	assert.Contains(t, out, "All scenarios passed")
}

func TestTestHelpText(t *testing.T) {
	out, err := execute(NewTestCommand(newTestRootOptions("text")), "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "scenario")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "--golden")
	assert.Contains(t, out, "scenarios-dir")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test1.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test2.yml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ignore.json"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindScenarioFilesSubdirectories(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "sub.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		goldenDir string
		file      string
		name      string
		expected  string
	}{
		{"", "/path/to/scenario.yaml", "people", "/path/to/golden/people.golden"},
		{"", "scenarios/test.yml", "test", "scenarios/golden/test.golden"},
		{"fixtures", "scenarios/test.yaml", "renamed", "fixtures/renamed.golden"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, goldenFilePath(tc.goldenDir, tc.file, tc.name))
	}
}
