package clause

import "fmt"

// ValidationResult lists clause combinations the executor will not honour
// in full. Warnings never abort a query.
type ValidationResult struct {
	Warnings []string
}

// OK reports whether the query runs exactly as written.
func (r ValidationResult) OK() bool {
	return len(r.Warnings) == 0
}

// Validate checks a query for clauses the executor will skip:
//  1. Sort alongside Group (sorting inside groups is unsupported)
//  2. Fuzzy alongside Group (grouping returns before the search stage)
//  3. More than one Sort, Range, Group or Fuzzy clause (only the first applies)
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{}

	counts := map[string]int{}
	for _, c := range q {
		switch c.(type) {
		case Sort:
			counts["sort"]++
		case Range:
			counts["range"]++
		case Group:
			counts["group"]++
		case Fuzzy:
			counts["search"]++
		}
	}

	if counts["group"] > 0 && counts["sort"] > 0 {
		v.addWarning("sorting inside groups is unsupported; sort clause skipped")
	}
	if counts["group"] > 0 && counts["search"] > 0 {
		v.addWarning("search is not applied to grouped results; search clause skipped")
	}
	for _, kind := range []string{"sort", "range", "group", "search"} {
		if counts[kind] > 1 {
			v.addWarning("%d %s clauses given; only the first is applied", counts[kind], kind)
		}
	}

	return ValidationResult{Warnings: v.warnings}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}
