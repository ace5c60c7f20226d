package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryResponse struct {
	Status   string   `json:"status"`
	Warnings []string `json:"warnings"`
	Data     struct {
		Count  int              `json:"count"`
		Query  string           `json:"query"`
		Rows   []map[string]any `json:"rows"`
		Groups []struct {
			Key  string           `json:"key"`
			Rows []map[string]any `json:"rows"`
		} `json:"groups"`
	} `json:"data"`
	Error *CLIError `json:"error"`
}

func names(rows []map[string]any) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["name"].(string)
	}
	return out
}

func TestQueryCommand_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(NewQueryCommand(newTestRootOptions("text")), path, "age > 26")
	require.NoError(t, err)

	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "Cyd")
	assert.Contains(t, out, "Dee")
	assert.NotContains(t, out, "Ann")
	assert.Contains(t, out, "(3 rows)")
}

func TestQueryCommand_JoinsArguments(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(NewQueryCommand(newTestRootOptions("json")),
		path, "age", ">", "26", "and", "sort", "age", "desc")
	require.NoError(t, err)

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Count)
	assert.Equal(t, []string{"Dee", "Cyd", "Bob"}, names(resp.Data.Rows))
	assert.Equal(t, "age > 26 and sort age desc", resp.Data.Query)
}

func TestQueryCommand_JSONIncludesInternalIDs(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(NewQueryCommand(newTestRootOptions("json")), path, "name == Cyd")
	require.NoError(t, err)

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Rows, 1)
	assert.Equal(t, float64(2), resp.Data.Rows[0]["internal_id"])
}

func TestQueryCommand_Grouped(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(NewQueryCommand(newTestRootOptions("json")), path, "group city")
	require.NoError(t, err)

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Groups, 3)
	assert.Equal(t, "Oslo", resp.Data.Groups[0].Key)
	assert.Equal(t, []string{"Bob", "Cyd"}, names(resp.Data.Groups[0].Rows))
	assert.Equal(t, 4, resp.Data.Count)
}

func TestQueryCommand_WarningsDoNotFail(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(NewQueryCommand(newTestRootOptions("json")), path, "salary > 3")
	require.NoError(t, err)

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 4, resp.Data.Count)
	require.NotEmpty(t, resp.Warnings)
	assert.Contains(t, resp.Warnings[0], "unknown field")
}

func TestQueryCommand_CSVWithHeaders(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "accounts.csv", accountsCSV)
	headers := writeFile(t, dir, "accounts.yaml", accountsHeaders)

	out, err := execute(NewQueryCommand(newTestRootOptions("text")),
		path, "--headers", headers, "--with-ids", "created > 2024-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "bob@x.io")
	assert.Contains(t, out, "cyd@x.io")
	assert.NotContains(t, out, "ann@x.io")
	assert.Contains(t, out, idColumn)
}

func TestQueryCommand_ConfigurationError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(NewQueryCommand(newTestRootOptions("json")), path, "age %= 3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNKNOWN_OPERATOR", resp.Error.Code)
}

func TestQueryCommand_CommandErrors(t *testing.T) {
	dir := t.TempDir()
	noExt := writeFile(t, dir, "people", peopleJSON)
	bad := writeFile(t, dir, "bad.json", `{"not": "an array"`)

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"missing file", []string{dir + "/missing.json"}, "data file not found"},
		{"unknown type flag", []string{noExt, "--type", "xlsx"}, "unknown payload type"},
		{"no extension", []string{noExt}, "cannot guess payload type"},
		{"malformed payload", []string{bad}, "failed to import"},
		{"missing headers file", []string{noExt, "--type", "json", "--headers", dir + "/nope.yaml"}, "failed to load headers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(NewQueryCommand(newTestRootOptions("text")), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestQueryCommand_MissingArgs(t *testing.T) {
	_, err := execute(NewQueryCommand(newTestRootOptions("text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
