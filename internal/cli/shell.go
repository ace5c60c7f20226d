package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/roach88/tabq/internal/edits"
	"github.com/roach88/tabq/internal/engine"
	"github.com/roach88/tabq/internal/store"
)

const shellPrompt = "tabq> "

// ShellOptions holds flags for the shell command.
type ShellOptions struct {
	*RootOptions
	Dataset DatasetOptions
	Outbox  string
	History string
}

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shell <data-file>",
		Short: "Query a data file interactively",
		Long: `Load a data file and start an interactive session.

Plain lines run as queries and become the current query. Dot-commands
edit the current query clause by clause, alter cells and flush the edit
log. Type .help for the list.

Examples:
  tabq shell people.json
  tabq shell people.csv --outbox edits.db --history ~/.tabq_history`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), opts, args[0], cmd)
		},
	}

	bindDatasetFlags(cmd, &opts.Dataset)
	cmd.Flags().StringVar(&opts.Outbox, "outbox", "", "SQLite outbox database .flush writes to")
	cmd.Flags().StringVar(&opts.History, "history", "", "file to load and save line history")

	return cmd
}

func runShell(ctx context.Context, opts *ShellOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
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

	sh := NewShell(eng, cmd.OutOrStdout(), opts.Format)
	sh.Outbox = outbox
	sh.Dataset = path

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(sh.Complete)

	if opts.History != "" {
		if f, err := os.Open(opts.History); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(opts.History); err == nil {
				line.WriteHistory(f)
				f.Close()
			}
		}()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d rows loaded from %s. Type .help for commands.\n", eng.Len(), path)

	for {
		input, err := line.Prompt(shellPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}
			return WrapExitError(ExitFailure, "failed to read input", err)
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if sh.Exec(ctx, input) {
			return nil
		}
	}
}

// Shell evaluates interactive input against one engine. It is driven from
// a single goroutine.
type Shell struct {
	Outbox  *store.Store // .flush target; nil flushes to the screen
	Dataset string       // outbox dataset label
	WithIDs bool

	eng       *engine.Engine
	out       io.Writer
	formatter *OutputFormatter
}

// NewShell returns a shell writing to out in format ("text" or "json").
func NewShell(eng *engine.Engine, out io.Writer, format string) *Shell {
	return &Shell{
		eng:       eng,
		out:       out,
		formatter: &OutputFormatter{Format: format, Writer: out},
		WithIDs:   true,
	}
}

// shellCommand is one dot-command.
type shellCommand struct {
	usage string
	help  string
	run   func(s *Shell, ctx context.Context, args string) (engine.Result, bool, error)
}

var shellCommands map[string]shellCommand

func init() {
	// Assigned here because .help refers back to the table.
	shellCommands = map[string]shellCommand{
		".help": {"", "list commands", func(s *Shell, _ context.Context, _ string) (engine.Result, bool, error) {
			s.printHelp()
			return engine.Result{}, false, nil
		}},
		".headers": {"", "show column headers", func(s *Shell, _ context.Context, _ string) (engine.Result, bool, error) {
			renderHeaders(s.out, s.eng.Headers())
			return engine.Result{}, false, nil
		}},
		".query": {"", "print the current query", func(s *Shell, _ context.Context, _ string) (engine.Result, bool, error) {
			fmt.Fprintln(s.out, s.eng.CurrentQuery())
			return engine.Result{}, false, nil
		}},
		".run": {"", "re-run the current query", func(s *Shell, _ context.Context, _ string) (engine.Result, bool, error) {
			res, err := s.eng.RunCurrentQuery()
			return res, true, err
		}},
		".add": {"<field> <op> <value>", "add a filter", func(s *Shell, _ context.Context, args string) (engine.Result, bool, error) {
			field, op, value, err := splitSelect(args, true)
			if err != nil {
				return engine.Result{}, false, err
			}
			res, err := s.eng.AddSelect(field, op, value)
			return res, true, err
		}},
		".set": {"<field> <op> <value>", "replace every filter on field", func(s *Shell, _ context.Context, args string) (engine.Result, bool, error) {
			field, op, value, err := splitSelect(args, true)
			if err != nil {
				return engine.Result{}, false, err
			}
			res, err := s.eng.SetSelect(field, op, value)
			return res, true, err
		}},
		".remove": {"<field> [op [value]]", "remove matching filters", func(s *Shell, _ context.Context, args string) (engine.Result, bool, error) {
			field, op, value, err := splitSelect(args, false)
			if err != nil {
				return engine.Result{}, false, err
			}
			res, err := s.eng.RemoveSelect(field, op, value)
			return res, true, err
		}},
		".sort": {"<field> [asc|desc]", "set the sort", func(s *Shell, _ context.Context, args string) (engine.Result, bool, error) {
			fields := strings.Fields(args)
			if len(fields) == 0 || len(fields) > 2 {
				return engine.Result{}, false, errors.New("usage: .sort <field> [asc|desc]")
			}
			dir := ""
			if len(fields) == 2 {
				dir = fields[1]
			}
			res, err := s.eng.SetSort(fields[0], dir)
			return res, true, err
		}},
		".unsort": {"", "remove the sort", func(s *Shell, _ context.Context, _ string) (engine.Result, bool, error) {
			res, err := s.eng.RemoveSort()
			return res, true, err
		}},
		".range": {"<n> | <a-b> | <a->", "set the row window", func(s *Shell, _ context.Context, args string) (engine.Result, bool, error) {
			r, err := s.eng.ParseRange(strings.TrimSpace(args))
			if err != nil {
				return engine.Result{}, false, err
			}
			res, err := s.eng.SetRange(r)
			return res, true, err
		}},
		".unrange": {"", "remove the row window", func(s *Shell, _ context.Context, _ string) (engine.Result, bool, error) {
			res, err := s.eng.RemoveRange()
			return res, true, err
		}},
		".group": {"<field>", "group by field", func(s *Shell, _ context.Context, args string) (engine.Result, bool, error) {
			res, err := s.eng.SetGroup(strings.TrimSpace(args))
			return res, true, err
		}},
		".ungroup": {"", "remove the grouping", func(s *Shell, _ context.Context, _ string) (engine.Result, bool, error) {
			res, err := s.eng.RemoveGroup()
			return res, true, err
		}},
		".search": {"<text>", "set the free-text search", func(s *Shell, _ context.Context, args string) (engine.Result, bool, error) {
			res, err := s.eng.SetSearch(strings.TrimSpace(args))
			return res, true, err
		}},
		".unsearch": {"", "remove the free-text search", func(s *Shell, _ context.Context, _ string) (engine.Result, bool, error) {
			res, err := s.eng.RemoveSearch()
			return res, true, err
		}},
		".alter": {"<id>:<column>=<value>", "edit a cell", func(s *Shell, _ context.Context, args string) (engine.Result, bool, error) {
			a, err := ParseAssignment(strings.TrimSpace(args))
			if err != nil {
				return engine.Result{}, false, err
			}
			edit, err := s.eng.AlterData(a.RowID, a.Column, a.Value)
			if err != nil {
				return engine.Result{}, false, err
			}
			if edit.ID == "" {
				fmt.Fprintf(s.out, "%d:%s unchanged\n", edit.RowID, edit.Column)
				return engine.Result{}, false, nil
			}
			fmt.Fprintf(s.out, "edit %s (seq %d) recorded\n", edit.ID, edit.Seq)
			return engine.Result{}, false, nil
		}},
		".edits": {"", "show the edit log", func(s *Shell, _ context.Context, _ string) (engine.Result, bool, error) {
			renderEdits(s.out, s.eng.Edits())
			return engine.Result{}, false, nil
		}},
		".flush": {"", "write the edit log to the outbox and clear it", func(s *Shell, ctx context.Context, _ string) (engine.Result, bool, error) {
			return engine.Result{}, false, s.flush(ctx)
		}},
		".ids": {"on|off", "toggle the row id column", func(s *Shell, _ context.Context, args string) (engine.Result, bool, error) {
			switch strings.TrimSpace(args) {
			case "on":
				s.WithIDs = true
			case "off":
				s.WithIDs = false
			default:
				return engine.Result{}, false, errors.New("usage: .ids on|off")
			}
			return engine.Result{}, false, nil
		}},
	}
}

// Exec evaluates one input line and reports whether the session should
// end. Errors are printed, never returned, so a bad line does not end the
// session.
func (s *Shell) Exec(ctx context.Context, input string) (quit bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	var (
		res  engine.Result
		show bool
		err  error
	)
	if strings.HasPrefix(input, ".") {
		name, args, _ := strings.Cut(input, " ")
		if name == ".quit" || name == ".exit" {
			return true
		}
		c, ok := shellCommands[name]
		if !ok {
			s.formatter.Error("E_UNKNOWN_COMMAND", fmt.Sprintf("unknown command %s; type .help", name), nil)
			return false
		}
		res, show, err = c.run(s, ctx, args)
	} else {
		res, err = s.eng.Query(input)
		show = true
	}

	if err != nil {
		s.formatter.ErrorFrom("E_SHELL", err)
		return false
	}
	if show {
		s.show(res)
	}
	return false
}

func (s *Shell) show(res engine.Result) {
	if s.formatter.Format == "json" {
		writeJSON(s.out, CLIResponse{
			Status:   "ok",
			Data:     newResultData(res, s.eng.CurrentQuery()),
			Warnings: res.Warnings,
		})
		return
	}
	renderResult(s.out, s.eng.Headers(), res, s.WithIDs)
}

func (s *Shell) flush(ctx context.Context) error {
	if s.Outbox == nil {
		flushed := s.eng.FlushEdits()
		renderEdits(s.out, flushed)
		fmt.Fprintf(s.out, "%d edits flushed (no outbox)\n", len(flushed))
		return nil
	}
	n, err := flushToOutbox(ctx, s.eng, s.Outbox, s.Dataset)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%d edits written to outbox\n", n)
	return nil
}

func (s *Shell) printHelp() {
	names := make([]string, 0, len(shellCommands))
	for name := range shellCommands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(s.out, "Any other line runs as a query, e.g. age > 30 and sort name desc")
	for _, name := range names {
		c := shellCommands[name]
		fmt.Fprintf(s.out, "  %-10s %-24s %s\n", name, c.usage, c.help)
	}
	fmt.Fprintf(s.out, "  %-10s %-24s %s\n", ".quit", "", "leave the shell")
}

// Complete offers dot-command names at the start of a line and column
// names after it.
func (s *Shell) Complete(line string) []string {
	var out []string
	if !strings.Contains(line, " ") {
		for name := range shellCommands {
			if strings.HasPrefix(name, line) {
				out = append(out, name)
			}
		}
		sort.Strings(out)
		if strings.HasPrefix(line, ".") {
			return out
		}
	}

	i := strings.LastIndexByte(line, ' ')
	prefix, word := line[:i+1], line[i+1:]
	for _, h := range s.eng.Headers() {
		if strings.HasPrefix(strings.ToLower(h.Name), strings.ToLower(word)) {
			out = append(out, prefix+h.Name)
		}
	}
	return out
}

// splitSelect splits "<field> <op> <value>". With full unset, the operator
// and value may be omitted and act as wildcards.
func splitSelect(args string, full bool) (field, op, value string, err error) {
	fields := strings.Fields(args)
	if len(fields) == 0 || (full && len(fields) < 3) {
		return "", "", "", errors.New("usage: <field> <op> <value>")
	}
	field = fields[0]
	if len(fields) > 1 {
		op = fields[1]
	}
	if len(fields) > 2 {
		value = strings.Join(fields[2:], " ")
	}
	return field, op, value, nil
}
