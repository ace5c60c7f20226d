package parser

import (
	"regexp"
	"strconv"

	"github.com/roach88/tabq/internal/clause"
)

// fieldPattern matches a bare field token or a double-quoted field name.
const fieldPattern = `("(?:[^"\\]|\\.)*"|[^\s"]+)`

// rule pairs a sub-clause pattern with the constructor for its clause.
// build returns a nil clause when the sub-clause is dropped with a warning.
type rule struct {
	kind    string
	pattern *regexp.Regexp
	build   func(c *compiler, m []string) (clause.Clause, error)
}

// grammar is tried in order; the first matching rule owns the sub-clause.
// SELECT accepts almost anything and must stay last.
var grammar = []rule{
	{
		kind:    "search",
		pattern: regexp.MustCompile(`(?is)^search\s+(.+)$`),
		build:   (*compiler).fuzzy,
	},
	{
		kind:    "group",
		pattern: regexp.MustCompile(`(?i)^group\s+` + fieldPattern + `$`),
		build:   (*compiler).group,
	},
	{
		kind:    "range",
		pattern: regexp.MustCompile(`(?i)^range\s+(-?\d+)(?:\s*(-)\s*(-?\d+)?)?$`),
		build:   (*compiler).rangeClause,
	},
	{
		kind:    "sort",
		pattern: regexp.MustCompile(`(?i)^sort\s+` + fieldPattern + `(?:\s+(asc|desc))?$`),
		build:   (*compiler).sort,
	},
	{
		kind:    "select",
		pattern: regexp.MustCompile(`(?s)^` + fieldPattern + `\s+(\S+)\s+(.+)$`),
		build:   (*compiler).selectClause,
	},
}

// Kind returns the grammar rule name that claims text, or "" when no rule
// matches. Exposed so the priority order can be tested directly.
func Kind(text string) string {
	for _, r := range grammar {
		if r.pattern.MatchString(text) {
			return r.kind
		}
	}
	return ""
}

func (c *compiler) fuzzy(m []string) (clause.Clause, error) {
	text := unquote(m[1])
	if text == "" {
		c.warn(m[0], "empty search text")
		return nil, nil
	}
	return clause.Fuzzy{Text: text}, nil
}

func (c *compiler) group(m []string) (clause.Clause, error) {
	h, ok := c.parser.matcher.Match(unquote(m[1]))
	if !ok {
		c.warn(m[0], "unknown field %q", unquote(m[1]))
		return nil, nil
	}
	if !h.IsGroupable {
		c.warn(m[0], "field %q is not groupable", h.Name)
		return nil, nil
	}
	return clause.Group{Field: h.Name}, nil
}

func (c *compiler) rangeClause(m []string) (clause.Clause, error) {
	lower, err := strconv.Atoi(m[1])
	if err != nil {
		c.warn(m[0], "range bound %q out of range", m[1])
		return nil, nil
	}

	// "range n" selects the first n rows (the last n when negative).
	if m[2] == "" {
		switch {
		case lower > 0:
			return clause.Range{Lower: 0, Upper: lower - 1, HasUpper: true}, nil
		case lower < 0:
			return clause.Range{Lower: lower}, nil
		default:
			return clause.Range{Lower: 1, Upper: 0, HasUpper: true}, nil
		}
	}

	if m[3] == "" {
		return clause.Range{Lower: lower}, nil
	}
	upper, err := strconv.Atoi(m[3])
	if err != nil {
		c.warn(m[0], "range bound %q out of range", m[3])
		return nil, nil
	}
	return clause.Range{Lower: lower, Upper: upper, HasUpper: true}, nil
}

func (c *compiler) sort(m []string) (clause.Clause, error) {
	h, ok := c.parser.matcher.Match(unquote(m[1]))
	if !ok {
		c.warn(m[0], "unknown field %q", unquote(m[1]))
		return nil, nil
	}
	if _, err := c.parser.pluginFor(h); err != nil {
		return nil, err
	}
	dir, _ := clause.ParseDirection(m[2])
	return clause.Sort{Field: h.Name, Direction: dir}, nil
}

func (c *compiler) selectClause(m []string) (clause.Clause, error) {
	return c.bindSelect(m[0], unquote(m[1]), m[2], m[3])
}
