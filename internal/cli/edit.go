package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tabq/internal/edits"
	"github.com/roach88/tabq/internal/engine"
	"github.com/roach88/tabq/internal/ir"
	"github.com/roach88/tabq/internal/store"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Dataset DatasetOptions
	Sets    []string // "<id>:<column>=<value>" assignments, applied in order
	Query   string   // query to show after the edits
	Outbox  string   // SQLite outbox the collapsed edits are written to
}

// Assignment is one parsed --set argument.
type Assignment struct {
	RowID  int
	Column string
	Value  string
}

// ParseAssignment parses "<id>:<column>=<value>". An empty value clears
// the cell.
func ParseAssignment(s string) (Assignment, error) {
	idPart, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Assignment{}, fmt.Errorf("invalid assignment %q: want <id>:<column>=<value>", s)
	}
	id, err := strconv.Atoi(strings.TrimSpace(idPart))
	if err != nil {
		return Assignment{}, fmt.Errorf("invalid assignment %q: row id %q is not an integer", s, idPart)
	}
	column, value, ok := strings.Cut(rest, "=")
	if !ok {
		return Assignment{}, fmt.Errorf("invalid assignment %q: want <id>:<column>=<value>", s)
	}
	column = strings.TrimSpace(column)
	if column == "" {
		return Assignment{}, fmt.Errorf("invalid assignment %q: empty column", s)
	}
	return Assignment{RowID: id, Column: column, Value: value}, nil
}

// editData is the JSON payload of the edit command.
type editData struct {
	Edits   []ir.Edit   `json:"edits"`
	Written int         `json:"written"`
	Result  *resultData `json:"result,omitempty"`
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <data-file> --set <id>:<column>=<value>...",
		Short: "Edit cells and record the changes",
		Long: `Apply cell edits to a loaded data file and print the collapsed edit log.

Rows are addressed by internal id (see "tabq query --with-ids"). Each
--set is validated by the column's type plugin and checked against the
column's editable and unique flags. Edits stop at the first rejected
assignment.

With --outbox the edit log is appended to a SQLite outbox for a sync
process to pick up. Edit sequence numbers continue from the highest one
already in the outbox.

Exit codes:
  0 - All edits applied
  1 - An edit was rejected
  2 - Command error (missing file, bad --set syntax, etc.)

Examples:
  tabq edit people.json --set 3:age=41
  tabq edit people.csv --set 0:email=ann@example.com --set 2:city= --query "sort city asc"
  tabq edit people.json --set 1:active=true --outbox edits.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), opts, args[0], cmd)
		},
	}

	bindDatasetFlags(cmd, &opts.Dataset)
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "assignment <id>:<column>=<value> (repeatable)")
	cmd.Flags().StringVar(&opts.Query, "query", "", "query to show after editing")
	cmd.Flags().StringVar(&opts.Outbox, "outbox", "", "SQLite outbox database for the edit log")
	_ = cmd.MarkFlagRequired("set")

	return cmd
}

func runEdit(ctx context.Context, opts *EditOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	assignments := make([]Assignment, 0, len(opts.Sets))
	for _, s := range opts.Sets {
		a, err := ParseAssignment(s)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --set", err)
		}
		assignments = append(assignments, a)
	}

	outboxPath := opts.Outbox
	if outboxPath == "" {
		outboxPath = opts.Config.Outbox
	}

	var outbox *store.Store
	clock := edits.NewClock()
	if outboxPath != "" {
		var err error
		outbox, clock, err = openOutbox(ctx, outboxPath)
		if err != nil {
			return err
		}
		defer outbox.Close()
	}

	eng, err := loadDataset(path, opts.Dataset, opts.Config, engine.WithClock(clock))
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	for _, a := range assignments {
		if _, err := eng.AlterData(a.RowID, a.Column, a.Value); err != nil {
			if outErr := formatter.ErrorFrom("E_EDIT_FAILED", err); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitFailure, fmt.Sprintf("edit %d:%s rejected", a.RowID, a.Column), err)
		}
	}

	data := editData{Edits: eng.Edits()}

	if outbox != nil {
		data.Written, err = flushToOutbox(ctx, eng, outbox, path)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to write outbox", err)
		}
		formatter.VerboseLog("wrote %d edits to %s", data.Written, outboxPath)
	}

	var res engine.Result
	if opts.Query != "" {
		res, err = eng.Query(opts.Query)
		if err != nil {
			if outErr := formatter.ErrorFrom("E_QUERY_FAILED", err); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitFailure, "query failed", err)
		}
		rd := newResultData(res, eng.CurrentQuery())
		data.Result = &rd
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: data, Warnings: res.Warnings})
	}

	w := cmd.OutOrStdout()
	renderEdits(w, data.Edits)
	if outbox != nil {
		fmt.Fprintf(w, "%d edits written to %s\n", data.Written, outboxPath)
	}
	if data.Result != nil {
		fmt.Fprintln(w)
		renderResult(w, eng.Headers(), res, true)
	}
	return nil
}

// openOutbox opens the SQLite outbox and returns a clock resuming after its
// highest recorded seq.
func openOutbox(ctx context.Context, path string) (*store.Store, *edits.Clock, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open outbox", err)
	}
	maxSeq, err := st.MaxSeq(ctx)
	if err != nil {
		st.Close()
		return nil, nil, WrapExitError(ExitCommandError, "failed to read outbox", err)
	}
	return st, edits.NewClockAt(maxSeq), nil
}

// flushToOutbox moves the engine's edit log into the outbox. The log is
// only flushed once the write has committed.
func flushToOutbox(ctx context.Context, eng *engine.Engine, outbox *store.Store, dataset string) (int, error) {
	log := eng.Edits()
	if len(log) == 0 {
		return 0, nil
	}
	n, err := outbox.WriteEdits(ctx, dataset, log)
	if err != nil {
		return 0, err
	}
	eng.FlushEdits()
	slog.Info("edits written to outbox",
		slog.String("dataset", dataset),
		slog.Int("edits", len(log)),
		slog.Int("inserted", n))
	return n, nil
}
