package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/aquaplan/internal/engine"
	"github.com/roach88/aquaplan/internal/process"
	"github.com/roach88/aquaplan/internal/quantity"
	"github.com/roach88/aquaplan/internal/registry"
	"github.com/roach88/aquaplan/internal/store"
	"github.com/roach88/aquaplan/internal/testutil"
)

// Harness executes one scenario against a real engine and SQLite store.
type Harness struct {
	store     *store.Store
	engine    *engine.Engine
	clock     *testutil.StepClock
	logger    *slog.Logger
	projectID string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with the embedded
// registry, a fixed run id and a step clock, so the trace is reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Create the project from the scenario base
// 3. Execute setup steps (must succeed, untraced, not numbered)
// 4. Execute flow steps, tracing and checking expect clauses
// 5. Evaluate assertions against the final project state
func Run(scenario *Scenario) (*Result, error) {
	return RunWithModel(scenario, nil)
}

// RunWithModel is Run against a specific registry model. A nil model uses
// the embedded default.
func RunWithModel(scenario *Scenario, model *registry.Model) (*Result, error) {
	if model == nil {
		var err error
		if model, err = registry.Default(); err != nil {
			return nil, fmt.Errorf("failed to load registry: %w", err)
		}
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	policy, err := scenarioPolicy(scenario.Policy)
	if err != nil {
		return nil, err
	}

	logger := testutil.DiscardLogger()
	eng, err := engine.New(model, st,
		engine.WithLogger(logger),
		engine.WithPolicy(policy),
		engine.WithRunIDs(testutil.NewFixedRunID(scenario.RunID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	h := &Harness{
		store:  st,
		engine: eng,
		clock:  testutil.NewStepClock(),
		logger: logger,
	}
	ctx := context.Background()

	base, err := toValues(scenario.Base)
	if err != nil {
		return nil, fmt.Errorf("base: %w", err)
	}
	if base, err = eng.ValidateBase(base); err != nil {
		return nil, fmt.Errorf("base: %w", err)
	}
	project, err := st.CreateProject(ctx, scenario.Name, base)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	h.projectID = project.ID

	for i, step := range scenario.Setup {
		if _, err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("setup step %d: %w", i, err)
		}
	}
	h.clock.Reset()

	result := NewResult()
	result.ProjectID = project.ID
	for i, step := range scenario.Flow {
		event, err := h.execute(ctx, step)
		if err != nil && engine.ErrorCode(err) == "" {
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}
		result.AddTrace(event)
		for _, msg := range checkExpect(i, step, event) {
			result.AddError(msg)
		}
		h.logger.Info("flow step completed", "step", event.Step, "op", event.Op, "module", event.Module, "error", event.Error)
	}

	actx := &AssertionContext{
		Engine:    eng,
		ProjectID: project.ID,
		Ctx:       ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step and records it as a trace event. Errors that carry a
// code are caller errors: they are reported in the event and returned.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	event := TraceEvent{Step: h.clock.Next(), Op: step.Op()}

	switch event.Op {
	case OpRun:
		event.Module = step.Run
		params, err := toValues(step.Params)
		if err != nil {
			return event, fmt.Errorf("params: %w", err)
		}
		res, err := h.engine.Run(ctx, h.projectID, step.Run, params)
		if err != nil {
			event.Error = engine.ErrorCode(err)
			return event, err
		}
		event.Status = string(res.Status)
		event.Changed = res.Changed
		event.Stale = res.Stale

	case OpRerun:
		res, err := h.engine.Rerun(ctx, h.projectID)
		if err != nil {
			event.Error = engine.ErrorCode(err)
			return event, err
		}
		for _, r := range res.Runs {
			event.Ran = append(event.Ran, r.Module)
		}
		event.StoppedAt = res.StoppedAt

	case OpUpdateBase:
		values, err := toValues(step.UpdateBase)
		if err != nil {
			return event, fmt.Errorf("update_base: %w", err)
		}
		event.Inputs = values.SortedNames()
		stale, err := h.engine.UpdateBase(ctx, h.projectID, values)
		if err != nil {
			event.Error = engine.ErrorCode(err)
			return event, err
		}
		event.Stale = stale

	default:
		return event, fmt.Errorf("step has no operation")
	}
	return event, nil
}

// checkExpect compares a traced step with its expect clause. A step without
// one must not fail.
func checkExpect(index int, step Step, got TraceEvent) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("flow[%d] %s: ", index, got.Op)+fmt.Sprintf(format, args...))
	}

	want := step.Expect
	if want == nil {
		if got.Error != "" {
			fail("unexpected error %s", got.Error)
		}
		return errs
	}
	if want.Error != got.Error {
		if want.Error == "" {
			fail("unexpected error %s", got.Error)
		} else {
			fail("expected error %s, got %q", want.Error, got.Error)
		}
		return errs
	}
	if want.Error != "" {
		return errs
	}

	if want.Status != "" && want.Status != got.Status {
		fail("expected status %s, got %s", want.Status, got.Status)
	}
	if want.Changed != nil && *want.Changed != got.Changed {
		fail("expected changed=%t, got %t", *want.Changed, got.Changed)
	}
	if want.Stale != nil && !slices.Equal(want.Stale, got.Stale) {
		fail("expected stale %v, got %v", want.Stale, got.Stale)
	}
	if want.Ran != nil && !slices.Equal(want.Ran, got.Ran) {
		fail("expected ran %v, got %v", want.Ran, got.Ran)
	}
	if step.Rerun && want.StoppedAt != got.StoppedAt {
		fail("expected stopped_at %q, got %q", want.StoppedAt, got.StoppedAt)
	}
	return errs
}

func scenarioPolicy(levels map[string]string) (process.Policy, error) {
	p := process.Policy{Default: process.Advisory, Criteria: map[string]process.Level{}}
	for criterion, raw := range levels {
		level, err := process.ParseLevel(raw)
		if err != nil {
			return process.Policy{}, fmt.Errorf("policy %s: %w", criterion, err)
		}
		p.Criteria[criterion] = level
	}
	return p, nil
}

// toValues converts YAML-parsed values. Nulls are rejected; they have no
// quantity kind.
func toValues(raw map[string]any) (quantity.Values, error) {
	out := make(quantity.Values, len(raw))
	for name, v := range raw {
		if v == nil {
			return nil, fmt.Errorf("%s: null values are not allowed", name)
		}
		q, err := quantity.FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = q
	}
	return out, nil
}
