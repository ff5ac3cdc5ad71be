package quantity

import (
	"fmt"
	"sort"
)

// Status is the completion state of one module within a project.
type Status string

const (
	// StatusPending: the module has never produced outputs.
	StatusPending Status = "pending"
	// StatusComplete: outputs present and every flag passed.
	StatusComplete Status = "complete"
	// StatusConditional: outputs present but at least one flag failed.
	StatusConditional Status = "conditional"
	// StatusStale: an upstream module changed its outputs after this one ran.
	StatusStale Status = "stale"
)

// ModuleState tracks one module's last run.
type ModuleState struct {
	Module     string `json:"module"`
	Status     Status `json:"status"`
	OutputHash string `json:"output_hash,omitempty"`
	Seq        int64  `json:"seq"`
}

// Entry is a stored quantity with its producer.
type Entry struct {
	Value    Value
	Producer string
}

// Store is one project's quantities, flags and module states.
//
// A Store is not safe for concurrent use. The engine serialises access per
// project; callers outside the engine work on a Clone.
type Store struct {
	entries map[string]Entry
	flags   map[string][]Flag
	states  map[string]ModuleState
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]Entry),
		flags:   make(map[string][]Flag),
		states:  make(map[string]ModuleState),
	}
}

// Get returns the named value.
func (s *Store) Get(name string) (Value, bool) {
	e, ok := s.entries[name]
	return e.Value, ok
}

// Has reports whether the name is present.
func (s *Store) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Owner returns the producer of a present quantity.
func (s *Store) Owner(name string) (string, bool) {
	e, ok := s.entries[name]
	return e.Producer, ok
}

// Len returns the number of quantities.
func (s *Store) Len() int { return len(s.entries) }

// Names returns every quantity name in byte order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns a copy of every quantity.
func (s *Store) Values() Values {
	out := make(Values, len(s.entries))
	for name, e := range s.entries {
		out[name] = e.Value
	}
	return out.Clone()
}

// Slice returns the subset of names that are present. Absent names are skipped.
func (s *Store) Slice(names []string) Values {
	out := make(Values, len(names))
	for _, name := range names {
		if e, ok := s.entries[name]; ok {
			out[name] = e.Value
		}
	}
	return out.Clone()
}

// ProducedBy returns the quantities owned by producer.
func (s *Store) ProducedBy(producer string) Values {
	out := make(Values)
	for name, e := range s.entries {
		if e.Producer == producer {
			out[name] = e.Value
		}
	}
	return out.Clone()
}

// Merge writes values on behalf of producer. A name already owned by another
// producer fails the whole merge with an OwnershipError and leaves the store
// untouched. Recomputation overwrites the producer's prior value.
func (s *Store) Merge(producer string, values Values) error {
	normalized := make(Values, len(values))
	for name, v := range values {
		n, err := NormalizeName(name)
		if err != nil {
			return fmt.Errorf("merge %s: %w", producer, err)
		}
		if v == nil {
			return fmt.Errorf("merge %s: nil value for %q", producer, n)
		}
		if e, ok := s.entries[n]; ok && e.Producer != producer {
			return &OwnershipError{Name: n, Owner: e.Producer, Producer: producer}
		}
		normalized[n] = v
	}
	for name, v := range normalized.Clone() {
		s.entries[name] = Entry{Value: v, Producer: producer}
	}
	return nil
}

// Restore puts a persisted entry back without ownership checks. Only loaders
// rebuilding a store from persistence use it.
func (s *Store) Restore(name string, v Value, producer string) {
	s.entries[name] = Entry{Value: v, Producer: producer}
}

// SetFlags replaces the flags of a module.
func (s *Store) SetFlags(module string, flags []Flag) {
	s.flags[module] = append([]Flag(nil), flags...)
}

// Flags returns the flags of a module.
func (s *Store) Flags(module string) []Flag {
	return append([]Flag(nil), s.flags[module]...)
}

// Flag looks up a flag by qualified criterion name, "module.criterion".
func (s *Store) Flag(qualified string) (Flag, bool) {
	module, _, ok := SplitQualified(qualified)
	if !ok {
		return Flag{}, false
	}
	for _, f := range s.flags[module] {
		if f.Qualified() == qualified {
			return f, true
		}
	}
	return Flag{}, false
}

// State returns a module's state; modules that never ran are pending.
func (s *Store) State(module string) ModuleState {
	if st, ok := s.states[module]; ok {
		return st
	}
	return ModuleState{Module: module, Status: StatusPending}
}

// SetState records a module's state.
func (s *Store) SetState(st ModuleState) {
	s.states[st.Module] = st
}

// States returns every recorded module state ordered by module id.
func (s *Store) States() []ModuleState {
	out := make([]ModuleState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	c := NewStore()
	for name, e := range s.entries {
		if series, ok := e.Value.(Series); ok {
			e.Value = append(Series(nil), series...)
		}
		c.entries[name] = e
	}
	for module, flags := range s.flags {
		c.flags[module] = append([]Flag(nil), flags...)
	}
	for module, st := range s.states {
		c.states[module] = st
	}
	return c
}
