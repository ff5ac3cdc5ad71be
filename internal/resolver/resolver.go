// Package resolver decides which modules may run against a project's store
// and which modules go stale when an upstream module changes its outputs.
package resolver

import (
	"log/slog"
	"sort"

	"github.com/juju/collections/set"

	"github.com/roach88/aquaplan/internal/quantity"
	"github.com/roach88/aquaplan/internal/registry"
)

// Readiness is the answer to "may this module run now?".
type Readiness struct {
	Module string `json:"module"`
	Ready  bool   `json:"ready"`
	// Missing lists required inputs absent from the store, in declaration order.
	Missing []string `json:"missing,omitempty"`
	// Blocking lists failed must-pass criteria.
	Blocking []string `json:"blocking,omitempty"`
	// StaleUpstream lists dependencies whose own inputs changed since they ran.
	// It is informational and does not affect Ready.
	StaleUpstream []string `json:"stale_upstream,omitempty"`
}

// Resolver answers readiness and staleness questions over one registry.
type Resolver struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// New returns a Resolver. A nil logger uses slog.Default().
func New(reg *registry.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{reg: reg, logger: logger}
}

// Eligible reports whether id can run against s. A module is ready iff every
// required input is present and no must-pass criterion it declares has failed.
func (r *Resolver) Eligible(id string, s *quantity.Store) (Readiness, error) {
	desc, err := r.reg.Describe(id)
	if err != nil {
		return Readiness{}, err
	}

	rd := Readiness{Module: id}
	for _, name := range desc.Inputs {
		if !s.Has(name) {
			rd.Missing = append(rd.Missing, name)
		}
	}
	for _, crit := range desc.MustPass {
		if f, ok := s.Flag(crit); ok && !f.Pass {
			rd.Blocking = append(rd.Blocking, crit)
		}
	}
	for _, dep := range desc.Depends {
		if s.State(dep).Status == quantity.StatusStale {
			rd.StaleUpstream = append(rd.StaleUpstream, dep)
		}
	}
	rd.Ready = len(rd.Missing) == 0 && len(rd.Blocking) == 0
	return rd, nil
}

// AffectedDownstream returns every module that transitively depends on id,
// in topological order with declaration-order ties. id itself is never
// included.
func (r *Resolver) AffectedDownstream(id string) ([]string, error) {
	if _, err := r.reg.Describe(id); err != nil {
		return nil, err
	}

	visited := set.NewStrings()
	queue := r.reg.Dependents(id)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == id || visited.Contains(next) {
			continue
		}
		visited.Add(next)
		queue = append(queue, r.reg.Dependents(next)...)
	}

	out := visited.Values()
	sort.Slice(out, func(i, j int) bool {
		return r.reg.Position(out[i]) < r.reg.Position(out[j])
	})
	return out, nil
}

// Propagate records that id just ran with output hash newHash. If the hash
// differs from the one stored for id's previous run, every downstream module
// that has run is marked stale once. Modules never run stay pending; modules
// already stale are not reported again. It returns the newly stale modules in
// topological order.
//
// Propagate reads id's previous state, so call it before recording the new
// one.
func (r *Resolver) Propagate(id, newHash string, s *quantity.Store) ([]string, error) {
	prev := s.State(id)
	if prev.Status != quantity.StatusPending && prev.OutputHash == newHash {
		return nil, nil
	}

	affected, err := r.AffectedDownstream(id)
	if err != nil {
		return nil, err
	}
	var stale []string
	for _, d := range affected {
		st := s.State(d)
		switch st.Status {
		case quantity.StatusComplete, quantity.StatusConditional:
			st.Status = quantity.StatusStale
			s.SetState(st)
			stale = append(stale, d)
		}
	}
	if len(stale) > 0 {
		r.logger.Info("downstream modules stale", "module", id, "stale", stale)
	}
	return stale, nil
}

// InputsChanged marks stale every module that has run and reads one of names
// directly, plus everything downstream of those modules. It is used when base
// inputs are edited. Newly stale modules are returned in topological order.
func (r *Resolver) InputsChanged(names []string, s *quantity.Store) []string {
	changed := set.NewStrings(names...)
	affected := set.NewStrings()
	for _, d := range r.reg.Modules() {
		for _, in := range d.Inputs {
			if changed.Contains(in) {
				affected.Add(d.ID)
				down, _ := r.AffectedDownstream(d.ID)
				affected = affected.Union(set.NewStrings(down...))
				break
			}
		}
	}

	var stale []string
	for _, id := range r.reg.Order() {
		if !affected.Contains(id) {
			continue
		}
		st := s.State(id)
		if st.Status == quantity.StatusComplete || st.Status == quantity.StatusConditional {
			st.Status = quantity.StatusStale
			s.SetState(st)
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		r.logger.Info("base inputs changed", "inputs", names, "stale", stale)
	}
	return stale
}
