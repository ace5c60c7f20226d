package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Dataset DatasetOptions
	WithIDs bool // include internal row ids in text output
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <data-file> [query...]",
		Short: "Run a query against a data file",
		Long: `Load a data file and run one query against it.

The remaining arguments are joined with spaces into the query, so it
usually needs no quoting. An empty query returns every row.

Exit codes:
  0 - Query ran (warnings do not fail it)
  1 - Query failed
  2 - Command error (missing file, bad headers, etc.)

Examples:
  tabq query people.json "age > 30 and sort name desc"
  tabq query people.csv city in Paris,Rome and group city
  tabq query data.parquet "name %= an" --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], strings.Join(args[1:], " "), cmd)
		},
	}

	bindDatasetFlags(cmd, &opts.Dataset)
	cmd.Flags().BoolVar(&opts.WithIDs, "with-ids", false, "show internal row ids")

	return cmd
}

func runQuery(opts *QueryOptions, path, query string, cmd *cobra.Command) error {
	eng, err := loadDataset(path, opts.Dataset, opts.Config)
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	res, err := eng.Query(query)
	if err != nil {
		if outErr := formatter.ErrorFrom("E_QUERY_FAILED", err); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "query failed", err)
	}

	formatter.VerboseLog("query %q matched %d of %d rows", eng.CurrentQuery(), len(res.Rows), eng.Len())

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{
			Status:   "ok",
			Data:     newResultData(res, eng.CurrentQuery()),
			Warnings: res.Warnings,
		})
	}

	renderResult(cmd.OutOrStdout(), eng.Headers(), res, opts.WithIDs)
	return nil
}
