package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tabq/internal/config"
	"github.com/roach88/tabq/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	ConfigPath    string
	StrictCase    bool
	IgnoreSymbols string
	CacheSize     int
	Language      string
	LogLevel      string
	SeqURL        string

	// Config is the resolved configuration. PersistentPreRunE fills it from
	// defaults, config file, environment and flags.
	Config config.Config

	closeLog func()
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Execute runs the CLI against os.Args and returns the process exit code.
func Execute() int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	err := cmd.Execute()
	opts.Close()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// NewRootCommand creates the root command for the tabq CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	def := config.Default()
	opts.Config = def

	cmd := &cobra.Command{
		Use:           "tabq",
		SilenceUsage:  true,
		SilenceErrors: true,
		Short:         "tabq - query tabular data in memory",
		Long: `Load a JSON, CSV or Parquet dataset into memory and query it with a
compact filter language:

  age > 30 and sort name desc and range 0-9
  city in Paris,Rome and group city
  name %= an and search "engineer"`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.Close()
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", def.Format, "output format (json|text)")
	pf.StringVar(&opts.ConfigPath, "config", "", "config file (default ./tabq.{yaml,json,toml})")
	pf.BoolVar(&opts.StrictCase, "strict-case", def.StrictCase, "match field names case-sensitively")
	pf.StringVar(&opts.IgnoreSymbols, "ignore-symbols", def.IgnoreSymbols, "characters ignored when matching field names")
	pf.IntVar(&opts.CacheSize, "cache-size", def.CacheSize, "parsed query cache size (0 disables)")
	pf.StringVar(&opts.Language, "language", def.Language, "BCP 47 language used to sort text")
	pf.StringVar(&opts.LogLevel, "log-level", def.LogLevel, "log level (debug|info|warn|error)")
	pf.StringVar(&opts.SeqURL, "seq-url", "", "also ship logs to this Seq endpoint")

	// Add subcommands
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewHeadersCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// load resolves the layered configuration and installs the logger.
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	level, err := cfg.Level()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	o.Config = cfg
	o.Format = cfg.Format
	o.Verbose = cfg.Verbose
	o.closeLog = logging.Setup(logging.Options{
		Level:  level,
		Writer: cmd.ErrOrStderr(),
		SeqURL: cfg.SeqURL,
	})
	return nil
}

// Close flushes the log sinks installed by the root command. It is safe to
// call more than once.
func (o *RootOptions) Close() {
	if o.closeLog != nil {
		o.closeLog()
		o.closeLog = nil
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
