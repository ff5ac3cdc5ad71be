package registry

import (
	"fmt"
	"slices"

	"github.com/roach88/aquaplan/internal/quantity"
)

// Registry is the single source of truth for modules and their dependency
// edges. It is built once at start-up and never mutated afterwards, so it is
// safe for concurrent use.
//
// INVARIANTS (checked by New):
//   - module ids are unique and well formed
//   - every dependency names a registered module other than itself
//   - the dependency graph is acyclic
//   - every output is declared by exactly one module and is not a base quantity
//   - every input is a base quantity or an output of a declared dependency
//   - every must-pass criterion belongs to a declared dependency
type Registry struct {
	modules   []Descriptor   // declaration order
	index     map[string]int // id → declaration index
	base      []string
	baseSet   map[string]bool
	producers map[string]string   // output quantity → module id
	children  map[string][]string // module id → direct dependents, declaration order
	order     []string            // topological order, declaration-order ties
}

// New validates descriptors and builds a registry. Graph errors come back as
// ErrCodeInvalidGraph; everything else as ErrCodeInvalidDescriptor or
// ErrCodeDuplicateOwnership.
func New(base []string, modules []Descriptor) (*Registry, error) {
	r := &Registry{
		index:     make(map[string]int, len(modules)),
		baseSet:   make(map[string]bool, len(base)),
		producers: make(map[string]string),
		children:  make(map[string][]string, len(modules)),
	}

	for _, name := range base {
		n, err := quantity.NormalizeName(name)
		if err != nil {
			return nil, &Error{Code: ErrCodeInvalidDescriptor, Message: fmt.Sprintf("base quantity: %v", err)}
		}
		if r.baseSet[n] {
			return nil, &Error{Code: ErrCodeInvalidDescriptor, Message: fmt.Sprintf("duplicate base quantity %q", n)}
		}
		r.baseSet[n] = true
		r.base = append(r.base, n)
	}

	for i, m := range modules {
		m = cloneDescriptor(m)
		if !idPattern.MatchString(m.ID) {
			return nil, &Error{Code: ErrCodeInvalidDescriptor, Module: m.ID, Message: "invalid module id"}
		}
		if _, dup := r.index[m.ID]; dup {
			return nil, &Error{Code: ErrCodeInvalidDescriptor, Module: m.ID, Message: "duplicate module id"}
		}
		r.index[m.ID] = i
		r.modules = append(r.modules, m)
	}

	if err := r.checkEdges(); err != nil {
		return nil, err
	}
	if cycle := findCycle(r.modules, r.index); cycle != nil {
		return nil, &Error{Code: ErrCodeInvalidGraph, Module: cycle[0], Message: "dependency cycle detected", Path: cycle}
	}
	if err := r.checkQuantities(); err != nil {
		return nil, err
	}

	for _, m := range r.modules {
		for _, dep := range m.Depends {
			r.children[dep] = append(r.children[dep], m.ID)
		}
	}
	r.order = topoOrder(r.modules, r.index)
	return r, nil
}

func (r *Registry) checkEdges() error {
	for _, m := range r.modules {
		seen := make(map[string]bool, len(m.Depends))
		for _, dep := range m.Depends {
			if dep == m.ID {
				return &Error{Code: ErrCodeInvalidGraph, Module: m.ID, Message: "module depends on itself", Path: []string{m.ID, m.ID}}
			}
			if _, ok := r.index[dep]; !ok {
				return &Error{Code: ErrCodeInvalidGraph, Module: m.ID, Message: fmt.Sprintf("depends on unregistered module %q", dep)}
			}
			if seen[dep] {
				return &Error{Code: ErrCodeInvalidDescriptor, Module: m.ID, Message: fmt.Sprintf("duplicate dependency %q", dep)}
			}
			seen[dep] = true
		}
	}
	return nil
}

func (r *Registry) checkQuantities() error {
	for _, m := range r.modules {
		for _, out := range m.Outputs {
			if _, err := quantity.NormalizeName(out); err != nil {
				return &Error{Code: ErrCodeInvalidDescriptor, Module: m.ID, Message: err.Error()}
			}
			if r.baseSet[out] {
				return &Error{Code: ErrCodeDuplicateOwnership, Module: m.ID, Message: fmt.Sprintf("output %q is a base quantity", out)}
			}
			if owner, ok := r.producers[out]; ok {
				return &Error{Code: ErrCodeDuplicateOwnership, Module: m.ID, Message: fmt.Sprintf("output %q already produced by %s", out, owner)}
			}
			r.producers[out] = m.ID
		}
	}

	for _, m := range r.modules {
		for _, in := range m.Inputs {
			if r.baseSet[in] {
				continue
			}
			owner, ok := r.producers[in]
			if !ok {
				return &Error{Code: ErrCodeInvalidDescriptor, Module: m.ID, Message: fmt.Sprintf("input %q is neither a base quantity nor produced by any module", in)}
			}
			if !slices.Contains(m.Depends, owner) {
				return &Error{Code: ErrCodeInvalidGraph, Module: m.ID, Message: fmt.Sprintf("input %q is produced by %s, which is not a declared dependency", in, owner)}
			}
		}
		for _, crit := range m.MustPass {
			owner, _, ok := quantity.SplitQualified(crit)
			if !ok || !slices.Contains(m.Depends, owner) {
				return &Error{Code: ErrCodeInvalidDescriptor, Module: m.ID, Message: fmt.Sprintf("must-pass criterion %q does not belong to a declared dependency", crit)}
			}
		}
	}
	return nil
}

// Describe returns the descriptor for id, or an UnknownModule error.
func (r *Registry) Describe(id string) (Descriptor, error) {
	i, ok := r.index[id]
	if !ok {
		return Descriptor{}, unknownModule(id)
	}
	return cloneDescriptor(r.modules[i]), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Modules returns every descriptor in declaration order.
func (r *Registry) Modules() []Descriptor {
	out := make([]Descriptor, len(r.modules))
	for i, m := range r.modules {
		out[i] = cloneDescriptor(m)
	}
	return out
}

// Order returns every module id in topological order; independent modules
// keep their declaration order.
func (r *Registry) Order() []string {
	return slices.Clone(r.order)
}

// Position returns a module's index in Order, or -1.
func (r *Registry) Position(id string) int {
	return slices.Index(r.order, id)
}

// Train returns the stage modules in topological order.
func (r *Registry) Train() []string {
	var out []string
	for _, id := range r.order {
		if r.modules[r.index[id]].Stage {
			out = append(out, id)
		}
	}
	return out
}

// Dependents returns the modules that declare id as a direct dependency.
func (r *Registry) Dependents(id string) []string {
	return slices.Clone(r.children[id])
}

// Producer returns the module that produces a quantity. Base quantities report false.
func (r *Registry) Producer(name string) (string, bool) {
	id, ok := r.producers[name]
	return id, ok
}

// Base returns the base quantity names in declaration order.
func (r *Registry) Base() []string {
	return slices.Clone(r.base)
}

// IsBase reports whether name is a base quantity.
func (r *Registry) IsBase(name string) bool {
	return r.baseSet[name]
}

func cloneDescriptor(d Descriptor) Descriptor {
	d.Inputs = slices.Clone(d.Inputs)
	d.Outputs = slices.Clone(d.Outputs)
	d.Depends = slices.Clone(d.Depends)
	d.MustPass = slices.Clone(d.MustPass)
	return d
}
