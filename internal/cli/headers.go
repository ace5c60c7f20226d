package cli

import (
	"github.com/spf13/cobra"
)

// HeadersOptions holds flags for the headers command.
type HeadersOptions struct {
	*RootOptions
	Dataset DatasetOptions
}

// NewHeadersCommand creates the headers command.
func NewHeadersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HeadersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "headers <data-file>",
		Short: "Show the column headers of a data file",
		Long: `Load a data file and print every column with its plugin type and
flags, in position order. Types come from the header declaration file
when one is given and are detected from the data otherwise.

Examples:
  tabq headers people.json
  tabq headers people.csv --headers people.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Dataset.NoIndex = true
			eng, err := loadDataset(args[0], opts.Dataset, opts.Config)
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: eng.Headers()})
			}
			renderHeaders(cmd.OutOrStdout(), eng.Headers())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Dataset.Type, "type", "", "payload type (json|csv|parquet); default from file extension")
	cmd.Flags().StringVar(&opts.Dataset.Headers, "headers", "", "header declaration file (.yaml, .json or .cue)")

	return cmd
}
