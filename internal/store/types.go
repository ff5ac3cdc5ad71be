package store

import (
	"fmt"

	"github.com/roach88/aquaplan/internal/quantity"
)

// Project is the persisted identity and base inputs of a design project.
type Project struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Seq  int64           `json:"seq"`
	Base quantity.Values `json:"base"`
}

// ModuleResult is everything one module run writes.
type ModuleResult struct {
	Module string
	// Values replaces every quantity the module owns: outputs and parameters.
	Values quantity.Values
	// Flags must all belong to Module.
	Flags []quantity.Flag
	State quantity.ModuleState
	// Stale are downstream states changed by this run.
	Stale []quantity.ModuleState
}

// check rejects results neither backend can persist faithfully.
func (r ModuleResult) check() error {
	for _, f := range r.Flags {
		if f.Module != r.Module {
			return fmt.Errorf("flag %s does not belong to %s", f.Qualified(), r.Module)
		}
	}
	for _, n := range r.Values.SortedNames() {
		if _, _, err := marshalValue(n, r.Values[n]); err != nil {
			return err
		}
	}
	return checkStates(append([]quantity.ModuleState{r.State}, r.Stale...))
}

func checkStates(states []quantity.ModuleState) error {
	for _, st := range states {
		switch st.Status {
		case quantity.StatusPending, quantity.StatusComplete, quantity.StatusConditional, quantity.StatusStale:
		default:
			return fmt.Errorf("module %s: invalid status %q", st.Module, st.Status)
		}
	}
	return nil
}
