package harness

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/aquaplan/internal/engine"
	"github.com/roach88/aquaplan/internal/quantity"
)

// defaultTolerance applies to quantity assertions that do not set one.
const defaultTolerance = 1e-9

// AssertionContext gives assertions access to the finished project.
type AssertionContext struct {
	Engine    *engine.Engine
	ProjectID string
	Ctx       context.Context
}

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", event)
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	var snap *quantity.Store
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertModuleStatus, AssertFlag, AssertQuantity:
			if snap == nil {
				if snap, err = actx.Engine.Snapshot(actx.Ctx, actx.ProjectID); err != nil {
					break
				}
			}
			switch a.Type {
			case AssertModuleStatus:
				err = assertModuleStatus(snap, a)
			case AssertFlag:
				err = assertFlag(snap, a)
			default:
				err = assertQuantity(snap, a)
			}
		case AssertBalance:
			err = assertBalance(actx, a)
		case AssertViability:
			err = assertViability(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Trace = result.Trace
			}
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertTraceCount checks how many traced steps match Op (and Module when
// set).
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, e := range trace {
		if e.Op == a.Op && (a.Module == "" || e.Module == a.Module) {
			n++
		}
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s %s appears %d time(s)", a.Op, a.Module, *a.Count),
			Actual:   fmt.Sprintf("appears %d time(s)", n),
		}
	}
	return nil
}

func assertModuleStatus(snap *quantity.Store, a Assertion) error {
	got := snap.State(a.Module).Status
	if string(got) != a.Status {
		return &AssertionError{
			Type:     AssertModuleStatus,
			Expected: fmt.Sprintf("%s is %s", a.Module, a.Status),
			Actual:   string(got),
		}
	}
	return nil
}

func assertFlag(snap *quantity.Store, a Assertion) error {
	f, ok := snap.Flag(a.Criterion)
	if !ok {
		return &AssertionError{
			Type:     AssertFlag,
			Expected: fmt.Sprintf("flag %s with pass=%t", a.Criterion, *a.Pass),
			Actual:   "no such flag recorded",
		}
	}
	if f.Pass != *a.Pass {
		return &AssertionError{
			Type:     AssertFlag,
			Expected: fmt.Sprintf("%s pass=%t", a.Criterion, *a.Pass),
			Actual:   fmt.Sprintf("pass=%t (value %g, range %s)", f.Pass, f.Value, f.Range),
		}
	}
	return nil
}

func assertQuantity(snap *quantity.Store, a Assertion) error {
	v, ok := snap.Get(a.Name)
	if !ok {
		return &AssertionError{Type: AssertQuantity, Expected: fmt.Sprintf("%s = %g", a.Name, *a.Value), Actual: "absent"}
	}
	f, ok := quantity.AsFloat(v)
	if !ok {
		return &AssertionError{Type: AssertQuantity, Expected: fmt.Sprintf("%s = %g", a.Name, *a.Value), Actual: fmt.Sprintf("non-numeric %v", v)}
	}
	tol := a.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	if math.Abs(f-*a.Value) > tol {
		return &AssertionError{
			Type:     AssertQuantity,
			Expected: fmt.Sprintf("%s = %g ± %g", a.Name, *a.Value, tol),
			Actual:   fmt.Sprintf("%g", f),
		}
	}
	return nil
}

func assertBalance(actx *AssertionContext, a Assertion) error {
	rep, err := actx.Engine.Balance(actx.Ctx, actx.ProjectID)
	if err != nil {
		return err
	}
	var kinds []string
	for _, v := range rep.Violations {
		if !slices.Contains(kinds, v.Kind) {
			kinds = append(kinds, v.Kind)
		}
	}
	if len(rep.Violations) != *a.Count {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("%d violation(s)", *a.Count),
			Actual:   fmt.Sprintf("%d violation(s) %v", len(rep.Violations), kinds),
		}
	}
	slices.Sort(kinds)
	want := slices.Clone(a.Kinds)
	slices.Sort(want)
	if a.Kinds != nil && !slices.Equal(want, kinds) {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("violation kinds %v", want),
			Actual:   fmt.Sprintf("%v", kinds),
		}
	}
	return nil
}

func assertViability(actx *AssertionContext, a Assertion) error {
	res, err := actx.Engine.Viability(actx.Ctx, actx.ProjectID)
	if err != nil {
		return err
	}
	if res.Tier != a.Tier {
		return &AssertionError{
			Type:     AssertViability,
			Expected: fmt.Sprintf("tier %q", a.Tier),
			Actual:   fmt.Sprintf("tier %q (total %.2f, missing %v)", res.Tier, res.Total, res.Missing),
		}
	}
	return nil
}
