package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/aquaplan/internal/quantity"
)

// Scenario drives one project through a sequence of module runs and checks
// the outcome: run status, stale signals, error codes, and the final balance
// and viability.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Base holds the project's base inputs.
	Base map[string]any `yaml:"base"`

	// Policy maps qualified criteria to "advisory" or "reject". Criteria not
	// listed are advisory.
	Policy map[string]string `yaml:"policy,omitempty"`

	// Setup steps run before the flow and must succeed. They are not traced.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow steps are traced and checked against their expect clauses.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final project state.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is a fixed run id for deterministic traces.
	// Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Step is one operation on the project. Exactly one of Run, Rerun and
// UpdateBase is set.
type Step struct {
	// Run is the module to run.
	Run string `yaml:"run,omitempty"`

	// Params are form values for Run.
	Params map[string]any `yaml:"params,omitempty"`

	// Rerun recomputes every stale module.
	Rerun bool `yaml:"rerun,omitempty"`

	// UpdateBase edits base inputs.
	UpdateBase map[string]any `yaml:"update_base,omitempty"`

	// Expect checks the step's outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Op names the step's operation.
func (s Step) Op() string {
	switch {
	case s.Run != "":
		return OpRun
	case s.Rerun:
		return OpRerun
	case s.UpdateBase != nil:
		return OpUpdateBase
	}
	return ""
}

// Expect is a subset match on a step's outcome. Unset fields are not checked.
type Expect struct {
	// Error is the expected error code ("E211"). When set the step must fail.
	Error string `yaml:"error,omitempty"`

	// Status is the module status after a run.
	Status string `yaml:"status,omitempty"`

	// Changed is whether the run's outputs differ from the previous run.
	Changed *bool `yaml:"changed,omitempty"`

	// Stale is the exact list of modules the step made stale. An empty list
	// asserts that nothing went stale.
	Stale []string `yaml:"stale,omitempty"`

	// Ran is the exact list of modules a rerun recomputed.
	Ran []string `yaml:"ran,omitempty"`

	// StoppedAt is the module a rerun stopped at.
	StoppedAt string `yaml:"stopped_at,omitempty"`
}

// Assertion validates final project state.
type Assertion struct {
	// Type selects the check:
	// - "module_status": Module has Status
	// - "flag": Criterion passed or failed (Pass)
	// - "quantity": Name equals Value within Tolerance
	// - "balance": the audit reports Count violations, optionally of Kinds
	// - "viability": the score lands in Tier
	// - "trace_count": Op on Module appears Count times in the trace
	Type string `yaml:"type"`

	Module    string   `yaml:"module,omitempty"`
	Status    string   `yaml:"status,omitempty"`
	Criterion string   `yaml:"criterion,omitempty"`
	Pass      *bool    `yaml:"pass,omitempty"`
	Name      string   `yaml:"name,omitempty"`
	Value     *float64 `yaml:"value,omitempty"`
	Tolerance float64  `yaml:"tolerance,omitempty"`
	Count     *int     `yaml:"count,omitempty"`
	Kinds     []string `yaml:"kinds,omitempty"`
	Tier      string   `yaml:"tier,omitempty"`
	Op        string   `yaml:"op,omitempty"`
}

// Assertion type constants.
const (
	AssertModuleStatus = "module_status"
	AssertFlag         = "flag"
	AssertQuantity     = "quantity"
	AssertBalance      = "balance"
	AssertViability    = "viability"
	AssertTraceCount   = "trace_count"
)

// Step operations, as they appear in traces.
const (
	OpRun        = "run"
	OpRerun      = "rerun"
	OpUpdateBase = "update_base"
)

var moduleStatuses = []string{
	string(quantity.StatusPending),
	string(quantity.StatusComplete),
	string(quantity.StatusConditional),
	string(quantity.StatusStale),
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos ("assertion:") fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Base) == 0 {
		return fmt.Errorf("base is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for criterion, v := range s.Policy {
		if v != "advisory" && v != "reject" {
			return fmt.Errorf("policy[%s]: level must be advisory or reject, got %q", criterion, v)
		}
	}
	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps cannot have expect", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step) error {
	set := 0
	if step.Run != "" {
		set++
	}
	if step.Rerun {
		set++
	}
	if step.UpdateBase != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("exactly one of run, rerun, update_base is required")
	}
	if step.Params != nil && step.Run == "" {
		return fmt.Errorf("params only apply to run")
	}
	if e := step.Expect; e != nil {
		if e.Status != "" && !slices.Contains(moduleStatuses, e.Status) {
			return fmt.Errorf("expect: unknown status %q", e.Status)
		}
		if (e.Ran != nil || e.StoppedAt != "") && !step.Rerun {
			return fmt.Errorf("expect: ran and stopped_at only apply to rerun")
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertModuleStatus:
		if a.Module == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: module and status are required for module_status", index)
		}
		if !slices.Contains(moduleStatuses, a.Status) {
			return fmt.Errorf("assertions[%d]: unknown status %q", index, a.Status)
		}
	case AssertFlag:
		if a.Criterion == "" || a.Pass == nil {
			return fmt.Errorf("assertions[%d]: criterion and pass are required for flag", index)
		}
	case AssertQuantity:
		if a.Name == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: name and value are required for quantity", index)
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
	case AssertBalance:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for balance", index)
		}
	case AssertViability:
		if a.Tier == "" {
			return fmt.Errorf("assertions[%d]: tier is required for viability", index)
		}
	case AssertTraceCount:
		if a.Op == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: op and count are required for trace_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
