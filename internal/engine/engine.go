package engine

import (
	"log/slog"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/edits"
	"github.com/roach88/tabq/internal/importer"
	"github.com/roach88/tabq/internal/index"
	"github.com/roach88/tabq/internal/ir"
	"github.com/roach88/tabq/internal/parser"
	"github.com/roach88/tabq/internal/plugin"
)

// DefaultCacheSize is the default number of parsed queries kept.
const DefaultCacheSize = 128

// Engine is the query executor for one dataset.
type Engine struct {
	registry *plugin.Registry
	matching parser.Options

	rows    []ir.Row
	headers []ir.Header
	columns map[string]int // header name -> position
	index   *index.Index

	parser    *parser.Parser
	cache     *lru.Cache[string, parser.Compiled]
	cacheSize int

	current clause.Query
	tracker *edits.Tracker

	editIDs edits.IDGenerator
	clock   *edits.Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the default plugin registry.
func WithRegistry(r *plugin.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithStrictCase disables case folding in field name matching.
func WithStrictCase(strict bool) Option {
	return func(e *Engine) {
		e.matching.StrictCase = strict
	}
}

// WithIgnoreSymbols sets the runes stripped from field names before
// matching. The default is parser.DefaultIgnoreSymbols.
func WithIgnoreSymbols(symbols string) Option {
	return func(e *Engine) {
		e.matching.IgnoreSymbols = symbols
	}
}

// WithCacheSize sets the parsed-query cache size. Zero or less disables
// the cache.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithEditIDs sets the edit id generator (UUIDv7 by default).
func WithEditIDs(g edits.IDGenerator) Option {
	return func(e *Engine) {
		e.editIDs = g
	}
}

// WithClock sets the logical clock stamping edits.
func WithClock(c *edits.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an empty engine. Queries against it succeed with an
// empty-dataset warning until Import is called.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry:  plugin.Default(),
		matching:  parser.DefaultOptions(),
		columns:   make(map[string]int),
		cacheSize: DefaultCacheSize,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		e.cache, _ = lru.New[string, parser.Compiled](e.cacheSize)
	}
	e.tracker = edits.NewTracker(e.editIDs, e.clock)
	e.parser = parser.New(e.registry, nil, e.matching)

	return e
}

// ImportOptions describes an import payload.
type ImportOptions struct {
	// Type is the payload encoding; empty means JSON.
	Type importer.Type

	// Headers declares column types and flags. Undeclared columns are
	// detected from the data.
	Headers ir.HeaderDecls
}

// Import populates the dataset. It is one-shot: importing into a populated
// engine fails with ALREADY_IMPORTED. Every header type must have a
// registered plugin.
func (e *Engine) Import(raw []byte, opts ImportOptions) error {
	if len(e.rows) > 0 || len(e.headers) > 0 {
		return ir.NewError(ir.ErrCodeAlreadyImported,
			"dataset already holds %d rows; re-import is not supported", len(e.rows))
	}

	typ := opts.Type
	if typ == "" {
		typ = importer.JSON
	}

	payload, err := importer.Decode(raw, typ)
	if err != nil {
		return err
	}

	headers := payload.Headers(opts.Headers)
	plugins := make([]plugin.Plugin, len(headers))
	for i, h := range headers {
		p, err := e.registry.Get(h.Type)
		if err != nil {
			return ir.NewError(ir.ErrCodeUnknownPlugin,
				"column %q declares type %q with no registered plugin", h.Name, h.Type).WithField(h.Name)
		}
		plugins[i] = p
	}

	rows := make([]ir.Row, len(payload.Records))
	for id, rec := range payload.Records {
		cells := make(map[string]ir.Value, len(headers))
		for i, h := range headers {
			cells[h.Name] = plugins[i].ParseValue(rec[h.Name])
		}
		rows[id] = ir.Row{ID: id, Cells: cells}
	}

	e.rows = rows
	e.headers = headers
	for _, h := range headers {
		e.columns[h.Name] = h.Position
	}
	e.resetParser()

	slog.Info("data imported",
		slog.String("type", string(typ)),
		slog.Int("rows", len(rows)),
		slog.Int("columns", len(headers)))
	return nil
}

// CreateIndex builds the inverted index over every column. It runs once
// per dataset; later calls are no-ops. Queries work without an index by
// scanning rows.
func (e *Engine) CreateIndex() {
	if e.index != nil {
		slog.Debug("index already built; CreateIndex ignored")
		return
	}
	names := make([]string, len(e.headers))
	for i, h := range e.headers {
		names[i] = h.Name
	}
	e.index = index.Build(e.rows, names)
}

// Indexed reports whether CreateIndex has run.
func (e *Engine) Indexed() bool {
	return e.index != nil
}

// Index returns the inverted index, or nil before CreateIndex.
func (e *Engine) Index() *index.Index {
	return e.index
}

// AddPlugin registers p (see plugin.Registry.Register) and drops cached
// parses, which may have bound the previous plugin's operator set.
func (e *Engine) AddPlugin(p plugin.Plugin, dontOverride bool) error {
	if err := e.registry.Register(p, dontOverride); err != nil {
		return err
	}
	e.purgeCache()
	return nil
}

// Plugin returns the plugin registered under name. name may also be a
// column name, in which case the column's plugin is returned.
func (e *Engine) Plugin(name string) (plugin.Plugin, error) {
	if p, ok := e.registry.Lookup(name); ok {
		return p, nil
	}
	if h, ok := e.parser.Resolve(name); ok {
		return e.registry.Get(h.Type)
	}
	return e.registry.Get(name)
}

// Registry returns the plugin registry.
func (e *Engine) Registry() *plugin.Registry {
	return e.registry
}

// Headers returns a copy of the headers in position order.
func (e *Engine) Headers() []ir.Header {
	return slices.Clone(e.headers)
}

// Header returns the header for column, resolved like a query field.
func (e *Engine) Header(column string) (ir.Header, bool) {
	if pos, ok := e.columns[column]; ok {
		return e.headers[pos], true
	}
	return e.parser.Resolve(column)
}

// Rows returns copies of every row in id order.
func (e *Engine) Rows() []ir.Row {
	return cloneRows(e.rows)
}

// Len returns the number of rows.
func (e *Engine) Len() int {
	return len(e.rows)
}

// Compile parses q against the current headers, consulting the cache.
func (e *Engine) Compile(q string) (parser.Compiled, error) {
	if e.cache != nil {
		if c, ok := e.cache.Get(q); ok {
			return c, nil
		}
	}
	c, err := e.parser.Parse(q)
	if err != nil {
		return parser.Compiled{}, err
	}
	if e.cache != nil {
		e.cache.Add(q, c)
	}
	return c, nil
}

func (e *Engine) resetParser() {
	e.parser = parser.New(e.registry, e.headers, e.matching)
	e.purgeCache()
}

func (e *Engine) purgeCache() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

func cloneRows(rows []ir.Row) []ir.Row {
	out := make([]ir.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
