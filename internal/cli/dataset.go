package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tabq/internal/config"
	"github.com/roach88/tabq/internal/engine"
	"github.com/roach88/tabq/internal/importer"
	"github.com/roach88/tabq/internal/ir"
	"github.com/roach88/tabq/internal/plugin"
)

// DatasetOptions holds the flags that control how a data file is loaded.
type DatasetOptions struct {
	Type    string // payload type; guessed from the extension when empty
	Headers string // header declaration file; falls back to config
	NoIndex bool   // skip CreateIndex and answer queries by scanning
}

// bindDatasetFlags registers the dataset flags on cmd.
func bindDatasetFlags(cmd *cobra.Command, ds *DatasetOptions) {
	cmd.Flags().StringVar(&ds.Type, "type", "", "payload type (json|csv|parquet); default from file extension")
	cmd.Flags().StringVar(&ds.Headers, "headers", "", "header declaration file (.yaml, .json or .cue)")
	cmd.Flags().BoolVar(&ds.NoIndex, "no-index", false, "do not build the inverted index")
}

// resolveType picks the payload type from the flag or the file extension.
func resolveType(path, flag string) (importer.Type, error) {
	if flag != "" {
		t, ok := importer.ParseType(flag)
		if !ok {
			return "", NewExitError(ExitCommandError,
				fmt.Sprintf("unknown payload type %q: must be one of %v", flag, importer.Types))
		}
		return t, nil
	}
	t, ok := importer.TypeFromPath(path)
	if !ok {
		return "", NewExitError(ExitCommandError,
			fmt.Sprintf("cannot guess payload type of %s; pass --type", path))
	}
	return t, nil
}

// newRegistry returns the built-in plugins with string collation for the
// configured language.
func newRegistry(cfg config.Config) (*plugin.Registry, error) {
	tag, err := cfg.Tag()
	if err != nil {
		return nil, err
	}
	reg := plugin.Default()
	if err := reg.Register(plugin.NewStringPlugin(tag), false); err != nil {
		return nil, err
	}
	return reg, nil
}

// loadDataset reads path and returns an engine holding its rows. Failures
// before the engine exists are command errors.
func loadDataset(path string, ds DatasetOptions, cfg config.Config, extra ...engine.Option) (*engine.Engine, error) {
	typ, err := resolveType(path, ds.Type)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("data file not found: %s", path))
		}
		return nil, WrapExitError(ExitCommandError, "failed to read data file", err)
	}

	var decls ir.HeaderDecls
	headersPath := ds.Headers
	if headersPath == "" {
		headersPath = cfg.Headers
	}
	if headersPath != "" {
		decls, err = config.LoadHeaders(headersPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load headers", err)
		}
	}

	reg, err := newRegistry(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	opts := []engine.Option{
		engine.WithRegistry(reg),
		engine.WithStrictCase(cfg.StrictCase),
		engine.WithIgnoreSymbols(cfg.IgnoreSymbols),
		engine.WithCacheSize(cfg.CacheSize),
	}
	eng := engine.New(append(opts, extra...)...)

	if err := eng.Import(raw, engine.ImportOptions{Type: typ, Headers: decls}); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to import %s", path), err)
	}
	if !ds.NoIndex {
		eng.CreateIndex()
	}

	slog.Debug("dataset loaded",
		slog.String("path", path),
		slog.Int("rows", eng.Len()),
		slog.Bool("indexed", eng.Indexed()))
	return eng, nil
}
