package engine

import (
	"context"
	"fmt"

	"github.com/roach88/aquaplan/internal/balance"
	"github.com/roach88/aquaplan/internal/process"
	"github.com/roach88/aquaplan/internal/quantity"
	"github.com/roach88/aquaplan/internal/resolver"
	"github.com/roach88/aquaplan/internal/viability"
)

// ModuleStatus is one row of a project's progress view.
type ModuleStatus struct {
	Module string          `json:"module"`
	Title  string          `json:"title"`
	Stage  bool            `json:"stage"`
	Status quantity.Status `json:"status"`
	Seq    int64           `json:"seq,omitempty"`
	resolver.Readiness
	FailedFlags []string `json:"failed_flags,omitempty"`
}

// ProjectStatus lists every module in topological order.
type ProjectStatus struct {
	Project string         `json:"project"`
	Name    string         `json:"name"`
	Modules []ModuleStatus `json:"modules"`
}

// Status reports each module's state and readiness.
func (e *Engine) Status(ctx context.Context, projectID string) (*ProjectStatus, error) {
	defer e.lock(projectID)()

	project, err := e.persist.LoadProjectBase(ctx, projectID)
	if err != nil {
		return nil, err
	}
	qs, err := e.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := &ProjectStatus{Project: projectID, Name: project.Name}
	for _, id := range e.reg.Order() {
		desc, _ := e.reg.Describe(id)
		rd, err := e.resolver.Eligible(id, qs)
		if err != nil {
			return nil, err
		}
		st := qs.State(id)
		ms := ModuleStatus{Module: id, Title: desc.Title, Stage: desc.Stage, Status: st.Status, Seq: st.Seq, Readiness: rd}
		for _, f := range qs.Flags(id) {
			if !f.Pass {
				ms.FailedFlags = append(ms.FailedFlags, f.Qualified())
			}
		}
		out.Modules = append(out.Modules, ms)
	}
	return out, nil
}

// RerunResult reports a Rerun pass.
type RerunResult struct {
	Runs []*RunResult `json:"runs"`
	// StoppedAt is the first stale module that could not run, if any.
	StoppedAt string `json:"stopped_at,omitempty"`
	Reason    error  `json:"-"`
}

// Rerun recomputes stale modules in topological order with their stored
// parameters. It stops at the first stale module that cannot run and
// reports why.
func (e *Engine) Rerun(ctx context.Context, projectID string) (*RerunResult, error) {
	defer e.lock(projectID)()

	out := &RerunResult{Runs: []*RunResult{}}
	for _, id := range e.reg.Order() {
		qs, err := e.load(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if qs.State(id).Status != quantity.StatusStale {
			continue
		}
		res, err := e.runLocked(ctx, projectID, id, nil)
		if err != nil {
			if isCallerError(err) {
				out.StoppedAt, out.Reason = id, err
				e.logger.Info("rerun stopped", "project", projectID, "module", id, "reason", err.Error())
				return out, nil
			}
			return nil, fmt.Errorf("rerun %s: %w", id, err)
		}
		out.Runs = append(out.Runs, res)
	}
	return out, nil
}

func isCallerError(err error) bool {
	return process.IsMissingInput(err) || process.IsOutOfRange(err) || process.IsBlocked(err)
}

// Balance audits the project's treatment train. It is read-only.
func (e *Engine) Balance(ctx context.Context, projectID string) (balance.Report, error) {
	defer e.lock(projectID)()
	qs, err := e.load(ctx, projectID)
	if err != nil {
		return balance.Report{}, err
	}
	rep := e.validator.Validate(qs.Values())
	e.logger.Debug("balance audit", "project", projectID, "violations", len(rep.Violations))
	return rep, nil
}

// Viability scores the project's current data. It is read-only and always
// recomputed from scratch.
func (e *Engine) Viability(ctx context.Context, projectID string) (viability.Result, error) {
	defer e.lock(projectID)()
	qs, err := e.load(ctx, projectID)
	if err != nil {
		return viability.Result{}, err
	}
	res, err := e.matrix.Score(qs.Values())
	if err != nil {
		return viability.Result{}, err
	}
	e.logger.Debug("viability scored", "project", projectID, "total", res.Total, "tier", res.Tier)
	return res, nil
}

// ValidateBase checks base input names against the registry and normalises
// them. Unknown names are rejected.
func (e *Engine) ValidateBase(values quantity.Values) (quantity.Values, error) {
	out := make(quantity.Values, len(values))
	for _, raw := range values.SortedNames() {
		name, err := quantity.NormalizeName(raw)
		if err != nil {
			return nil, err
		}
		if !e.reg.IsBase(name) {
			return nil, fmt.Errorf("%q is not a base input (see 'aquaplan modules')", raw)
		}
		if _, _, err := quantity.EncodeValue(values[raw]); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = values[raw]
	}
	return out, nil
}

// UpdateBase edits base inputs. Modules that read a changed input, and
// everything downstream of them, become stale. It returns those modules.
func (e *Engine) UpdateBase(ctx context.Context, projectID string, values quantity.Values) ([]string, error) {
	values, err := e.ValidateBase(values)
	if err != nil {
		return nil, err
	}
	defer e.lock(projectID)()

	qs, err := e.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var changed []string
	for _, name := range values.SortedNames() {
		if old, ok := qs.Get(name); !ok || !quantity.Equal(old, values[name]) {
			changed = append(changed, name)
		}
	}
	if len(changed) == 0 {
		return []string{}, nil
	}

	stale := e.resolver.InputsChanged(changed, qs)
	states := make([]quantity.ModuleState, len(stale))
	for i, id := range stale {
		states[i] = qs.State(id)
	}
	if err := e.persist.UpdateBase(ctx, projectID, values, states); err != nil {
		return nil, err
	}
	if stale == nil {
		stale = []string{}
	}
	return stale, nil
}

// Snapshot returns the project's quantities, flags and module states with
// the base inputs laid over them. The caller owns the returned store.
func (e *Engine) Snapshot(ctx context.Context, projectID string) (*quantity.Store, error) {
	defer e.lock(projectID)()
	return e.load(ctx, projectID)
}
