package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabq/internal/ir"
	"github.com/roach88/tabq/internal/store"
)

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in      string
		want    Assignment
		wantErr string
	}{
		{in: "3:age=41", want: Assignment{RowID: 3, Column: "age", Value: "41"}},
		{in: "0:first name=Ann Lee", want: Assignment{RowID: 0, Column: "first name", Value: "Ann Lee"}},
		{in: "2:city=", want: Assignment{RowID: 2, Column: "city", Value: ""}},
		{in: "1:note=a=b", want: Assignment{RowID: 1, Column: "note", Value: "a=b"}},
		{in: "age=41", wantErr: "want <id>:<column>=<value>"},
		{in: "x:age=41", wantErr: "not an integer"},
		{in: "3:age", wantErr: "want <id>:<column>=<value>"},
		{in: "3:=41", wantErr: "empty column"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAssignment(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type editResponse struct {
	Status string `json:"status"`
	Data   struct {
		Edits []struct {
			ID       string `json:"id"`
			Seq      int64  `json:"seq"`
			RowID    int    `json:"row_id"`
			Column   string `json:"column"`
			Previous any    `json:"previous"`
			New      any    `json:"new"`
		} `json:"edits"`
		Written int `json:"written"`
		Result  *struct {
			Count int              `json:"count"`
			Rows  []map[string]any `json:"rows"`
		} `json:"result"`
	} `json:"data"`
	Error *CLIError `json:"error"`
}

func TestEditCommand_CollapsesEdits(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(NewEditCommand(newTestRootOptions("json")), path,
		"--set", "1:age=26",
		"--set", "1:age=27",
		"--set", "3:city=Rome",
		"--query", "age > 26 and sort age asc")
	require.NoError(t, err)

	var resp editResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	require.Len(t, resp.Data.Edits, 2, "edits to the same cell collapse to the latest")
	assert.Equal(t, 1, resp.Data.Edits[0].RowID)
	assert.Equal(t, "age", resp.Data.Edits[0].Column)
	assert.Equal(t, float64(26), resp.Data.Edits[0].Previous)
	assert.Equal(t, float64(27), resp.Data.Edits[0].New)
	assert.Equal(t, int64(2), resp.Data.Edits[0].Seq)
	assert.Equal(t, "Rome", resp.Data.Edits[1].New)
	assert.Equal(t, 0, resp.Data.Written)

	require.NotNil(t, resp.Data.Result)
	assert.Equal(t, []string{"Ann", "Bob", "Cyd", "Dee"}, names(resp.Data.Result.Rows))
}

func TestEditCommand_Rejected(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "accounts.csv", accountsCSV)
	headers := writeFile(t, dir, "accounts.yaml", accountsHeaders)

	tests := []struct {
		name     string
		set      string
		wantCode ir.ErrorCode
	}{
		{"unique", "1:email=ann@x.io", ir.ErrCodeUniqueViolation},
		{"not editable", "0:created=2025-01-01", ir.ErrCodeNotEditable},
		{"unknown row", "9:age=1", ir.ErrCodeUnknownRow},
		{"unknown column", "0:salary=1", ir.ErrCodeUnknownColumn},
		{"invalid value", "0:age=abc", ir.ErrCodeInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewEditCommand(newTestRootOptions("json")),
				path, "--headers", headers, "--set", tt.set)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.True(t, ir.IsCode(err, tt.wantCode))

			var resp editResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.wantCode), resp.Error.Code)
		})
	}
}

func TestEditCommand_BadAssignment(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	_, err := execute(NewEditCommand(newTestRootOptions("text")), path, "--set", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEditCommand_RequiresSet(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	_, err := execute(NewEditCommand(newTestRootOptions("text")), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set")
}

func TestEditCommand_Outbox(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "people.json", peopleJSON)
	db := filepath.Join(dir, "edits.db")

	out, err := execute(NewEditCommand(newTestRootOptions("text")), path,
		"--outbox", db, "--set", "0:age=31", "--set", "2:name=Cy")
	require.NoError(t, err)
	assert.Contains(t, out, "2 edits written to "+db)

	// A second run continues the sequence after what the outbox holds.
	_, err = execute(NewEditCommand(newTestRootOptions("text")), path,
		"--outbox", db, "--set", "1:city=Rome")
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	pending, err := st.PendingEdits(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 3)

	seqs := make([]int64, len(pending))
	for i, p := range pending {
		seqs[i] = p.Edit.Seq
		assert.Equal(t, path, p.Dataset)
	}
	assert.Equal(t, []int64{1, 2, 3}, seqs)
	assert.Equal(t, "Rome", ir.Format(pending[2].Edit.New))
	assert.Equal(t, ir.Number(31), pending[0].Edit.New)
}

func TestEditCommand_OutboxFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "people.json", peopleJSON)

	opts := newTestRootOptions("text")
	opts.Config.Outbox = filepath.Join(dir, "configured.db")

	_, err := execute(NewEditCommand(opts), path, "--set", "0:age=31")
	require.NoError(t, err)

	st, err := store.Open(opts.Config.Outbox)
	require.NoError(t, err)
	defer st.Close()

	maxSeq, err := st.MaxSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), maxSeq)
}
