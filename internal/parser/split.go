package parser

import (
	"strconv"
	"strings"
)

// Split breaks a query into sub-clause texts on the connectives "and"
// (any case) and "&&". A connective must be surrounded by whitespace and
// is ignored inside double quotes. Empty sub-clauses are dropped.
func Split(query string) []string {
	var parts []string
	start := 0
	inQuote := false

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case inQuote && c == '\\':
			i++ // skip escaped character
		case c == '"':
			inQuote = !inQuote
		case !inQuote && isSpace(c):
			if n := connectiveAt(query, i); n > 0 {
				parts = appendPart(parts, query[start:i])
				start = i + n
				i = start - 1
			}
		}
	}

	return appendPart(parts, query[start:])
}

// connectiveAt returns the length of the leading whitespace plus the
// connective word starting at i, or 0 when there is none. The trailing
// whitespace is left in place so back-to-back connectives are all found.
func connectiveAt(s string, i int) int {
	j := i
	for j < len(s) && isSpace(s[j]) {
		j++
	}
	k := j
	for k < len(s) && !isSpace(s[k]) {
		k++
	}

	word := s[j:k]
	if word != "&&" && !strings.EqualFold(word, "and") {
		return 0
	}
	if k == len(s) {
		return 0
	}
	return k - i
}

func appendPart(parts []string, part string) []string {
	part = strings.TrimSpace(part)
	if part == "" {
		return parts
	}
	return append(parts, part)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isQuoted reports whether s is exactly one double-quoted string.
func isQuoted(s string) bool {
	if len(s) < 2 || s[0] != '"' {
		return false
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i == len(s)-1
		}
	}
	return false
}

// unquote strips one level of double quotes, decoding escapes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if !isQuoted(s) {
		return s
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s[1 : len(s)-1]
}

// splitList splits a list literal on commas outside double quotes and
// unquotes each element.
func splitList(s string) []string {
	var items []string
	start := 0
	inQuote := false

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				items = append(items, unquote(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(items, unquote(s[start:]))
}
