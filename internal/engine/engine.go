package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/im7mortal/kmutex"

	"github.com/roach88/aquaplan/internal/balance"
	"github.com/roach88/aquaplan/internal/process"
	"github.com/roach88/aquaplan/internal/quantity"
	"github.com/roach88/aquaplan/internal/registry"
	"github.com/roach88/aquaplan/internal/resolver"
	"github.com/roach88/aquaplan/internal/store"
	"github.com/roach88/aquaplan/internal/viability"
)

// Persistence is the storage boundary. The engine never touches storage
// except through it.
type Persistence interface {
	LoadProjectBase(ctx context.Context, projectID string) (store.Project, error)
	LoadQuantities(ctx context.Context, projectID string) (*quantity.Store, error)
	SaveModuleResult(ctx context.Context, projectID string, r store.ModuleResult) error
	// UpdateBase writes base inputs and the stale states they cause atomically.
	UpdateBase(ctx context.Context, projectID string, values quantity.Values, stale []quantity.ModuleState) error
}

// Engine runs design modules for projects.
//
// Work on different projects proceeds concurrently. Within one project every
// operation holds the project's exclusive section for its whole
// load -> compute -> save -> mark-stale sequence, so a module never reads a
// half-written store and stale signals are atomic with the write that caused
// them.
type Engine struct {
	reg       *registry.Registry
	resolver  *resolver.Resolver
	matrix    *viability.Matrix
	validator *balance.Validator
	policy    process.Policy
	persist   Persistence
	locks     *kmutex.Kmutex
	ids       RunIDGenerator
	logger    *slog.Logger

	tiers       *viability.Tiers
	tolerance   float64
	balanceOpts balance.Options
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPolicy sets the advisory/reject policy for failed flags.
func WithPolicy(p process.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithTiers sets the viability tier thresholds.
func WithTiers(t viability.Tiers) Option {
	return func(e *Engine) { e.tiers = &t }
}

// WithWeightTolerance sets the viability weight-sum tolerance.
func WithWeightTolerance(tol float64) Option {
	return func(e *Engine) { e.tolerance = tol }
}

// WithBalanceOptions tunes the balance audit.
func WithBalanceOptions(o balance.Options) Option {
	return func(e *Engine) { e.balanceOpts = o }
}

// WithRunIDs sets the run id generator. Default: UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// New builds an engine over a loaded model. It fails when a registered
// module has no calculation or the viability matrix is invalid; both are
// startup configuration errors.
func New(model *registry.Model, persist Persistence, opts ...Option) (*Engine, error) {
	e := &Engine{
		reg:       model.Registry,
		persist:   persist,
		locks:     kmutex.New(),
		ids:       UUIDv7Generator{},
		logger:    slog.Default(),
		policy:    process.Policy{Default: process.Advisory},
		tolerance: viability.DefaultTolerance,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	for _, d := range e.reg.Modules() {
		if !process.Known(d.ID) {
			return nil, fmt.Errorf("module %q: %w", d.ID, process.NewUnknownProcess(d.ID))
		}
	}

	criteria, err := viability.FromSpecs(model.Criteria)
	if err != nil {
		return nil, err
	}
	mopts := []viability.Option{viability.WithTolerance(e.tolerance)}
	if e.tiers != nil {
		mopts = append(mopts, viability.WithTiers(*e.tiers))
	}
	if e.matrix, err = viability.New(criteria, mopts...); err != nil {
		return nil, err
	}

	e.resolver = resolver.New(e.reg, e.logger)
	e.validator = balance.NewValidator(e.reg.Train(), e.balanceOpts)
	e.logger.Info("engine ready",
		"modules", len(e.reg.Order()),
		"train", e.reg.Train(),
		"criteria", len(criteria))
	return e, nil
}

// Registry returns the module registry.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// lock enters the project's exclusive section.
func (e *Engine) lock(projectID string) func() {
	e.locks.Lock(projectID)
	return func() { e.locks.Unlock(projectID) }
}

// load reads the project snapshot: module quantities, flags and states with
// the current base inputs laid over them.
func (e *Engine) load(ctx context.Context, projectID string) (*quantity.Store, error) {
	project, err := e.persist.LoadProjectBase(ctx, projectID)
	if err != nil {
		return nil, err
	}
	qs, err := e.persist.LoadQuantities(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, name := range project.Base.SortedNames() {
		qs.Restore(name, project.Base[name], quantity.ProducerProject)
	}
	return qs, nil
}

// RunResult is what a module run returns to the form layer.
type RunResult struct {
	RunID   string          `json:"run_id"`
	Project string          `json:"project"`
	Module  string          `json:"module"`
	Status  quantity.Status `json:"status"`
	Outputs quantity.Values `json:"outputs"`
	Params  quantity.Values `json:"params"`
	Flags   []quantity.Flag `json:"flags"`
	// Changed is true when the outputs differ from the previous run.
	Changed bool `json:"changed"`
	// Stale lists downstream modules this run made stale.
	Stale []string `json:"stale"`
}

// Run executes one module for a project with the given form values and
// persists the result. Caller errors (missing inputs, blocked, out of range,
// rejected criteria) are returned as *process.InputError and nothing is
// written.
func (e *Engine) Run(ctx context.Context, projectID, moduleID string, form quantity.Values) (*RunResult, error) {
	if _, err := e.reg.Describe(moduleID); err != nil {
		return nil, err
	}
	defer e.lock(projectID)()
	return e.runLocked(ctx, projectID, moduleID, form)
}

func (e *Engine) runLocked(ctx context.Context, projectID, moduleID string, form quantity.Values) (*RunResult, error) {
	desc, err := e.reg.Describe(moduleID)
	if err != nil {
		return nil, err
	}
	qs, err := e.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	rd, err := e.resolver.Eligible(moduleID, qs)
	if err != nil {
		return nil, err
	}
	if len(rd.Missing) > 0 {
		return nil, process.NewMissingInput(moduleID, rd.Missing)
	}
	if len(rd.Blocking) > 0 {
		return nil, process.NewBlocked(moduleID, rd.Blocking)
	}

	params, err := process.Prepare(moduleID, form, qs.Slice(process.ParamNames(moduleID)))
	if err != nil {
		return nil, err
	}
	in := qs.Slice(desc.Inputs)
	for name, v := range params {
		in[name] = v
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := process.Compute(moduleID, in)
	if err != nil {
		return nil, err
	}
	if err := checkOutputs(desc, res.Outputs); err != nil {
		return nil, err
	}
	if err := e.policy.Enforce(res.Flags); err != nil {
		return nil, err
	}

	hash, err := quantity.OutputHash(res.Outputs)
	if err != nil {
		return nil, fmt.Errorf("hash %s outputs: %w", moduleID, err)
	}
	values := res.Outputs.Clone()
	for name, v := range params {
		values[name] = v
	}
	if err := qs.Merge(moduleID, values); err != nil {
		return nil, err
	}

	prev := qs.State(moduleID)
	changed := prev.Status == quantity.StatusPending || prev.OutputHash != hash
	stale, err := e.resolver.Propagate(moduleID, hash, qs)
	if err != nil {
		return nil, err
	}

	status := quantity.StatusComplete
	if quantity.AnyFailed(res.Flags) {
		status = quantity.StatusConditional
	}
	state := quantity.ModuleState{Module: moduleID, Status: status, OutputHash: hash, Seq: clockFor(qs).Next()}

	staleStates := make([]quantity.ModuleState, len(stale))
	for i, id := range stale {
		staleStates[i] = qs.State(id)
	}
	err = e.persist.SaveModuleResult(ctx, projectID, store.ModuleResult{
		Module: moduleID,
		Values: values,
		Flags:  res.Flags,
		State:  state,
		Stale:  staleStates,
	})
	if err != nil {
		return nil, err
	}

	runID := e.ids.Generate()
	e.logger.Info("module run",
		"run_id", runID,
		"project", projectID,
		"module", moduleID,
		"status", status,
		"changed", changed,
		"stale", stale)
	for _, f := range res.Flags {
		if !f.Pass {
			e.logger.Debug("flag failed", "run_id", runID, "criterion", f.Qualified(), "value", f.Value, "range", f.Range.String())
		}
	}

	if stale == nil {
		stale = []string{}
	}
	return &RunResult{
		RunID:   runID,
		Project: projectID,
		Module:  moduleID,
		Status:  status,
		Outputs: res.Outputs,
		Params:  params,
		Flags:   res.Flags,
		Changed: changed,
		Stale:   stale,
	}, nil
}

func checkOutputs(desc registry.Descriptor, outputs quantity.Values) error {
	var undeclared, missing []string
	for _, name := range outputs.SortedNames() {
		if !slices.Contains(desc.Outputs, name) {
			undeclared = append(undeclared, name)
		}
	}
	for _, name := range desc.Outputs {
		if _, ok := outputs[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(undeclared) > 0 || len(missing) > 0 {
		return &ContractError{Module: desc.ID, Undeclared: undeclared, Missing: missing}
	}
	return nil
}
