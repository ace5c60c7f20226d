package parser

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tabq/internal/ir"
)

// DefaultIgnoreSymbols are stripped from field names before matching.
const DefaultIgnoreSymbols = "_- "

// Options configures header matching.
type Options struct {
	// StrictCase disables case folding.
	StrictCase bool

	// IgnoreSymbols lists the runes removed before comparison.
	IgnoreSymbols string
}

// DefaultOptions folds case and ignores DefaultIgnoreSymbols.
func DefaultOptions() Options {
	return Options{IgnoreSymbols: DefaultIgnoreSymbols}
}

// Matcher resolves query field tokens to headers.
//
// Both sides are normalised (NFC, case folding unless strict, ignorable
// symbols removed) so first_name, "First Name" and firstname resolve to the
// same header. An exact name match always wins; among normalised
// collisions the header with the lowest position wins.
type Matcher struct {
	opts    Options
	exact   map[string]ir.Header
	byKey   map[string]ir.Header
	headers []ir.Header
}

// NewMatcher indexes headers for matching.
func NewMatcher(headers []ir.Header, opts Options) *Matcher {
	m := &Matcher{
		opts:    opts,
		exact:   make(map[string]ir.Header, len(headers)),
		byKey:   make(map[string]ir.Header, len(headers)),
		headers: headers,
	}
	for _, h := range headers {
		m.exact[h.Name] = h
		key := m.Normalize(h.Name)
		if prev, ok := m.byKey[key]; ok && prev.Position <= h.Position {
			continue
		}
		m.byKey[key] = h
	}
	return m
}

// Normalize returns the comparison key for name.
func (m *Matcher) Normalize(name string) string {
	s := norm.NFC.String(name)
	if !m.opts.StrictCase {
		s = cases.Fold().String(s)
	}
	if m.opts.IgnoreSymbols == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(m.opts.IgnoreSymbols, r) {
			return -1
		}
		return r
	}, s)
}

// Match returns the header token names.
func (m *Matcher) Match(token string) (ir.Header, bool) {
	if h, ok := m.exact[token]; ok {
		return h, true
	}
	key := m.Normalize(token)
	if key == "" {
		return ir.Header{}, false
	}
	h, ok := m.byKey[key]
	return h, ok
}

// Headers returns the headers the matcher was built from.
func (m *Matcher) Headers() []ir.Header {
	return m.headers
}
