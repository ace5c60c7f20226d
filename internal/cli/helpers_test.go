package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabq/internal/config"
)

const peopleJSON = `[
  {"name": "Bob", "age": 30, "city": "Oslo"},
  {"name": "Ann", "age": 25, "city": "Lima"},
  {"name": "Cyd", "age": 35, "city": "Oslo"},
  {"name": "Dee", "age": 40, "city": "Kyiv"}
]`

const accountsCSV = `email,age,team,created
ann@x.io,25,core,2024-01-05
bob@x.io,30,web,2024-02-11
cyd@x.io,35,core,2024-03-20
`

const accountsHeaders = `
email: {type: string, isUnique: true}
created: {type: date, isEditable: false}
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestRootOptions(format string) *RootOptions {
	return &RootOptions{Format: format, Config: config.Default()}
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
