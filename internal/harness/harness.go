package harness

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tabq/internal/edits"
	"github.com/roach88/tabq/internal/engine"
	"github.com/roach88/tabq/internal/ir"
)

// Harness is the scenario execution engine.
// It runs steps against one engine with deterministic edit ids and clock.
type Harness struct {
	engine *engine.Engine
	result *Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh engine for isolation. A returned error
// means the scenario could not be set up (bad dataset, unknown type); step
// and assertion mismatches are reported in Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	eng, err := newEngine(scenario)
	if err != nil {
		return nil, err
	}

	h := &Harness{engine: eng, result: NewResult()}
	for i, step := range scenario.Steps {
		h.runStep(i, step)
	}

	h.result.Edits = append(h.result.Edits, eng.Edits()...)
	for _, msg := range EvaluateAssertions(eng, scenario.Assertions) {
		h.result.AddError(msg)
	}

	slog.Debug("scenario finished",
		slog.String("scenario", scenario.Name),
		slog.Bool("pass", h.result.Pass),
		slog.Int("errors", len(h.result.Errors)))
	return h.result, nil
}

func newEngine(s *Scenario) (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithEditIDs(edits.NewFixedGenerator("edit")),
		engine.WithClock(edits.NewClock()),
		engine.WithStrictCase(s.Options.StrictCase),
	}
	if s.Options.IgnoreSymbols != nil {
		opts = append(opts, engine.WithIgnoreSymbols(*s.Options.IgnoreSymbols))
	}
	eng := engine.New(opts...)

	t, err := s.importType()
	if err != nil {
		return nil, err
	}
	raw, err := s.payload()
	if err != nil {
		return nil, err
	}
	if err := eng.Import(raw, engine.ImportOptions{Type: t, Headers: s.Headers}); err != nil {
		return nil, fmt.Errorf("import dataset: %w", err)
	}
	if !s.Options.NoIndex {
		eng.CreateIndex()
	}
	return eng, nil
}

// runStep executes one step, records its trace and checks its expectation.
func (h *Harness) runStep(i int, step Step) {
	st := StepTrace{Step: i}

	var (
		res    engine.Result
		hasRes bool
		err    error
	)
	switch {
	case step.Query != nil:
		st.Kind, st.Input = "query", *step.Query
		res, err = h.engine.Query(*step.Query)
		hasRes = err == nil
	case step.Alter != nil:
		a := step.Alter
		st.Kind = "alter"
		st.Input = fmt.Sprintf("%d:%s=%v", a.Row, a.Column, a.Value)
		_, err = h.engine.AlterData(a.Row, a.Column, a.Value)
	case step.Mutate != nil:
		st.Kind, st.Input = "mutate", describeMutation(*step.Mutate)
		res, err = h.mutate(*step.Mutate)
		hasRes = err == nil
	case step.Flush:
		st.Kind, st.Input = "flush", "edits"
		flushed := h.engine.FlushEdits()
		h.result.Edits = append(h.result.Edits, flushed...)
	}

	if err != nil {
		st.Error = errorCode(err)
	}
	if hasRes {
		traceResult(&st, res)
	}
	if step.Query != nil || step.Mutate != nil {
		st.Query = h.engine.CurrentQuery()
	}
	h.result.Trace = append(h.result.Trace, st)

	if step.Expect != nil {
		for _, msg := range checkExpect(i, *step.Expect, st, res, err) {
			h.result.AddError(msg)
		}
	}
}

func (h *Harness) mutate(m MutateStep) (engine.Result, error) {
	e := h.engine
	switch m.Op {
	case OpAddSelect:
		return e.AddSelect(m.Field, m.Operator, m.Value)
	case OpSetSelect:
		return e.SetSelect(m.Field, m.Operator, m.Value)
	case OpRemoveSelect:
		return e.RemoveSelect(m.Field, m.Operator, m.Value)
	case OpSetSort:
		return e.SetSort(m.Field, m.Direction)
	case OpRemoveSort:
		return e.RemoveSort()
	case OpSetRange:
		r, err := e.ParseRange(m.Range)
		if err != nil {
			return engine.Result{}, err
		}
		return e.SetRange(r)
	case OpRemoveRange:
		return e.RemoveRange()
	case OpSetGroup:
		return e.SetGroup(m.Field)
	case OpRemoveGroup:
		return e.RemoveGroup()
	case OpSetSearch:
		return e.SetSearch(m.Text)
	case OpRemoveSearch:
		return e.RemoveSearch()
	case OpRun:
		return e.RunCurrentQuery()
	}
	return engine.Result{}, fmt.Errorf("unknown mutation %q", m.Op)
}

func describeMutation(m MutateStep) string {
	switch m.Op {
	case OpAddSelect, OpSetSelect, OpRemoveSelect:
		return fmt.Sprintf("%s %s %s %s", m.Op, m.Field, m.Operator, m.Value)
	case OpSetSort:
		return fmt.Sprintf("%s %s %s", m.Op, m.Field, m.Direction)
	case OpSetRange:
		return fmt.Sprintf("%s %s", m.Op, m.Range)
	case OpSetGroup:
		return fmt.Sprintf("%s %s", m.Op, m.Field)
	case OpSetSearch:
		return fmt.Sprintf("%s %s", m.Op, m.Text)
	}
	return m.Op
}

// errorCode returns the ir.Error code of err, or its message.
func errorCode(err error) string {
	var ierr *ir.Error
	if errors.As(err, &ierr) {
		return string(ierr.Code)
	}
	return err.Error()
}
