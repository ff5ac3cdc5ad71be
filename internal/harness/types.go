package harness

import (
	"fmt"
	"strings"
)

// TraceEvent records one flow step's outcome.
type TraceEvent struct {
	Step      int64    `json:"step"`
	Op        string   `json:"op"`
	Module    string   `json:"module,omitempty"`
	Status    string   `json:"status,omitempty"`
	Changed   bool     `json:"changed,omitempty"`
	Inputs    []string `json:"inputs,omitempty"`
	Stale     []string `json:"stale,omitempty"`
	Ran       []string `json:"ran,omitempty"`
	StoppedAt string   `json:"stopped_at,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// String renders the event as one trace line.
func (e TraceEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", e.Step, e.Op)
	if e.Module != "" {
		fmt.Fprintf(&b, " %s", e.Module)
	}
	if e.Error != "" {
		fmt.Fprintf(&b, " error=%s", e.Error)
		return b.String()
	}
	switch e.Op {
	case OpRun:
		fmt.Fprintf(&b, " status=%s changed=%t stale=%s", e.Status, e.Changed, list(e.Stale))
	case OpRerun:
		fmt.Fprintf(&b, " ran=%s", list(e.Ran))
		if e.StoppedAt != "" {
			fmt.Fprintf(&b, " stopped_at=%s", e.StoppedAt)
		}
	case OpUpdateBase:
		fmt.Fprintf(&b, " inputs=%s stale=%s", list(e.Inputs), list(e.Stale))
	}
	return b.String()
}

func list(items []string) string {
	return "[" + strings.Join(items, " ") + "]"
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// ProjectID is the project the scenario created.
	ProjectID string `json:"project_id"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
