package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tabq/internal/importer"
	"github.com/roach88/tabq/internal/ir"
)

// Scenario defines a query scenario: a dataset, a sequence of steps run
// against one engine, and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Data is the dataset file path, resolved relative to the scenario file.
	Data string `yaml:"data,omitempty"`

	// Inline is the dataset itself, used when Data is empty.
	Inline string `yaml:"inline,omitempty"`

	// Type is the import type. Defaults to the Data extension, then json.
	Type string `yaml:"type,omitempty"`

	// Headers declares column types and flags.
	Headers ir.HeaderDecls `yaml:"headers,omitempty"`

	// Options configure the engine.
	Options Options `yaml:"options,omitempty"`

	// Steps run in order against the same engine.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final engine state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Options configure the engine a scenario runs against.
type Options struct {
	StrictCase    bool    `yaml:"strict_case,omitempty"`
	IgnoreSymbols *string `yaml:"ignore_symbols,omitempty"`
	NoIndex       bool    `yaml:"no_index,omitempty"`
}

// Step is one scenario action. Exactly one of Query, Alter, Mutate or Flush
// is set.
type Step struct {
	Query  *string     `yaml:"query,omitempty"`
	Alter  *AlterStep  `yaml:"alter,omitempty"`
	Mutate *MutateStep `yaml:"mutate,omitempty"`
	Flush  bool        `yaml:"flush,omitempty"`

	// Expect validates the step outcome. If nil, only the trace is recorded.
	Expect *Expect `yaml:"expect,omitempty"`
}

// AlterStep edits one cell.
type AlterStep struct {
	Row    int    `yaml:"row"`
	Column string `yaml:"column"`
	Value  any    `yaml:"value"`
}

// MutateStep calls one mutation API operation.
type MutateStep struct {
	Op        string `yaml:"op"`
	Field     string `yaml:"field,omitempty"`
	Operator  string `yaml:"operator,omitempty"`
	Value     string `yaml:"value,omitempty"`
	Direction string `yaml:"direction,omitempty"`
	Range     string `yaml:"range,omitempty"`
	Text      string `yaml:"text,omitempty"`
}

// Mutation operations.
const (
	OpAddSelect    = "add_select"
	OpSetSelect    = "set_select"
	OpRemoveSelect = "remove_select"
	OpSetSort      = "set_sort"
	OpRemoveSort   = "remove_sort"
	OpSetRange     = "set_range"
	OpRemoveRange  = "remove_range"
	OpSetGroup     = "set_group"
	OpRemoveGroup  = "remove_group"
	OpSetSearch    = "set_search"
	OpRemoveSearch = "remove_search"
	OpRun          = "run"
)

var mutateOps = map[string]bool{
	OpAddSelect: true, OpSetSelect: true, OpRemoveSelect: true,
	OpSetSort: true, OpRemoveSort: true,
	OpSetRange: true, OpRemoveRange: true,
	OpSetGroup: true, OpRemoveGroup: true,
	OpSetSearch: true, OpRemoveSearch: true,
	OpRun: true,
}

// Expect validates one step.
type Expect struct {
	// Rows are the expected internal ids in result order.
	Rows *[]int `yaml:"rows,omitempty"`

	// Column and Values check the formatted cells of Column in result order.
	Column string   `yaml:"column,omitempty"`
	Values []string `yaml:"values,omitempty"`

	// Groups are the expected group keys in order.
	Groups []string `yaml:"groups,omitempty"`

	// Warnings is the expected number of warnings.
	Warnings *int `yaml:"warnings,omitempty"`

	// Warning must appear as a substring of some warning.
	Warning string `yaml:"warning,omitempty"`

	// Error is the expected error code. Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Query is the expected canonical current query after the step.
	Query *string `yaml:"query,omitempty"`
}

// Assertion validates final engine state.
type Assertion struct {
	// Type selects the assertion; see the package documentation.
	Type string `yaml:"type"`

	Row    int    `yaml:"row,omitempty"`
	Column string `yaml:"column,omitempty"`
	Value  string `yaml:"value,omitempty"`
	Count  int    `yaml:"count,omitempty"`
	Query  string `yaml:"query,omitempty"`
}

// Assertion type constants.
const (
	AssertEditCount    = "edit_count"
	AssertEditContains = "edit_contains"
	AssertCell         = "cell"
	AssertCurrentQuery = "current_query"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Data != "" && !filepath.IsAbs(scenario.Data) {
		scenario.Data = filepath.Join(filepath.Dir(path), scenario.Data)
	}
	if scenario.Data != "" {
		if _, err := os.Stat(scenario.Data); err != nil {
			return nil, fmt.Errorf("invalid scenario: data file not found: %s", scenario.Data)
		}
	}

	return scenario, nil
}

// ParseScenario decodes a scenario with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// importType resolves the scenario's import type.
func (s *Scenario) importType() (importer.Type, error) {
	if s.Type != "" {
		t, ok := importer.ParseType(s.Type)
		if !ok {
			return "", fmt.Errorf("unknown import type %q", s.Type)
		}
		return t, nil
	}
	if t, ok := importer.TypeFromPath(s.Data); ok && s.Data != "" {
		return t, nil
	}
	return importer.JSON, nil
}

// payload returns the raw dataset bytes.
func (s *Scenario) payload() ([]byte, error) {
	if s.Data == "" {
		return []byte(s.Inline), nil
	}
	data, err := os.ReadFile(s.Data)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return data, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Data == "" && s.Inline == "" {
		return fmt.Errorf("data or inline is required")
	}
	if s.Data != "" && s.Inline != "" {
		return fmt.Errorf("data and inline are mutually exclusive")
	}

	if _, err := s.importType(); err != nil {
		return err
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	set := 0
	if step.Query != nil {
		set++
	}
	if step.Alter != nil {
		set++
		if step.Alter.Column == "" {
			return fmt.Errorf("steps[%d].alter: column is required", index)
		}
	}
	if step.Mutate != nil {
		set++
		if !mutateOps[step.Mutate.Op] {
			return fmt.Errorf("steps[%d].mutate: unknown op %q", index, step.Mutate.Op)
		}
	}
	if step.Flush {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of query, alter, mutate or flush is required", index)
	}
	if e := step.Expect; e != nil && len(e.Values) > 0 && e.Column == "" {
		return fmt.Errorf("steps[%d].expect: column is required with values", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEditCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for edit_count", index)
		}
	case AssertEditContains, AssertCell:
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for %s", index, a.Type)
		}
	case AssertCurrentQuery:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
