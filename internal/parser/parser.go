// Package parser compiles query strings into typed clause lists.
//
// A query is split on the connectives "and" / "&&" and every sub-clause is
// matched against an ordered grammar: search, group, range, sort, select.
// Field names resolve through a Matcher, and select values are validated
// and parsed by the plugin owning the column.
//
// Parsing is best effort. A sub-clause that matches nothing, names an
// unknown field or carries a value its plugin rejects is dropped with a
// warning. Only configuration problems (a header type with no plugin, an
// operator the plugin lacks) are errors.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/tabq/internal/clause"
	"github.com/roach88/tabq/internal/ir"
	"github.com/roach88/tabq/internal/plugin"
)

// Compiled is the result of parsing one query string.
type Compiled struct {
	Query    clause.Query
	Warnings []string
}

// Parser compiles queries against one dataset's headers.
type Parser struct {
	registry *plugin.Registry
	matcher  *Matcher
}

// New returns a parser for headers. The registry is consulted on every
// parse, so later plugin registrations take effect immediately.
func New(registry *plugin.Registry, headers []ir.Header, opts Options) *Parser {
	return &Parser{
		registry: registry,
		matcher:  NewMatcher(headers, opts),
	}
}

// Parse compiles query. An empty query yields an empty clause list.
func (p *Parser) Parse(query string) (Compiled, error) {
	c := &compiler{parser: p}
	for _, part := range Split(query) {
		cl, err := c.compile(part)
		if err != nil {
			return Compiled{}, err
		}
		if cl != nil {
			c.query = append(c.query, cl)
		}
	}
	return Compiled{Query: c.query, Warnings: c.warnings}, nil
}

// ParseSelect binds a single select clause from its parts. The result holds
// at most one clause; a dropped clause is reported in Warnings.
func (p *Parser) ParseSelect(field, operator, value string) (Compiled, error) {
	c := &compiler{parser: p}
	text := fmt.Sprintf("%s %s %s", field, operator, value)
	cl, err := c.bindSelect(text, unquote(field), operator, value)
	if err != nil {
		return Compiled{}, err
	}
	if cl != nil {
		c.query = append(c.query, cl)
	}
	return Compiled{Query: c.query, Warnings: c.warnings}, nil
}

// Resolve matches a field token to its header.
func (p *Parser) Resolve(field string) (ir.Header, bool) {
	return p.matcher.Match(unquote(field))
}

// pluginFor returns the plugin owning h, tagging a lookup failure with the
// column name.
func (p *Parser) pluginFor(h ir.Header) (plugin.Plugin, error) {
	pl, err := p.registry.Get(h.Type)
	var ierr *ir.Error
	if errors.As(err, &ierr) {
		return nil, ierr.WithField(h.Name)
	}
	return pl, err
}

// compiler carries the state of one Parse call.
type compiler struct {
	parser   *Parser
	query    clause.Query
	warnings []string
}

func (c *compiler) compile(text string) (clause.Clause, error) {
	for _, r := range grammar {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return r.build(c, m)
	}
	c.warn(text, "unrecognised clause")
	return nil, nil
}

func (c *compiler) warn(text, format string, args ...any) {
	reason := fmt.Sprintf(format, args...)
	slog.Warn("query clause dropped", slog.String("clause", text), slog.String("reason", reason))
	c.warnings = append(c.warnings, fmt.Sprintf("%s; clause %q dropped", reason, text))
}

// bindSelect resolves field to a header and its plugin, checks the
// operator, then validates and parses value.
func (c *compiler) bindSelect(text, field, operator, value string) (clause.Clause, error) {
	h, ok := c.parser.matcher.Match(field)
	if !ok {
		c.warn(text, "unknown field %q", field)
		return nil, nil
	}

	pl, err := c.parser.pluginFor(h)
	if err != nil {
		return nil, err
	}
	if !pl.CheckOperator(operator) {
		return nil, plugin.UnknownOperatorError(pl, h.Name, operator)
	}

	raw := strings.TrimSpace(value)
	if isQuoted(raw) {
		raw = unquote(raw)
	}

	if !plugin.ListOperator(operator) {
		if !pl.Validate(raw) {
			c.warn(text, "invalid %s value %q for field %q", pl.Name(), raw, h.Name)
			return nil, nil
		}
		return clause.Select{Field: h.Name, Operator: operator, Value: pl.ParseValue(raw), Raw: raw}, nil
	}

	items := splitList(raw)
	if operator == plugin.OpBetween && len(items) != 2 {
		c.warn(text, "operator %s needs exactly two values, got %d", operator, len(items))
		return nil, nil
	}
	list := make(ir.List, len(items))
	for i, item := range items {
		if !pl.Validate(item) {
			c.warn(text, "invalid %s value %q for field %q", pl.Name(), item, h.Name)
			return nil, nil
		}
		list[i] = pl.ParseValue(item)
	}
	return clause.Select{Field: h.Name, Operator: operator, Value: list, Raw: raw}, nil
}
