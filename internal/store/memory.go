package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/aquaplan/internal/quantity"
)

// Memory is an in-process project store with the same contract as Store.
// It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	seq      int64
	projects map[string]*memProject
}

type memProject struct {
	project Project
	store   *quantity.Store
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{projects: make(map[string]*memProject)}
}

// CreateProject stores a new project with a UUIDv7 id.
func (m *Memory) CreateProject(_ context.Context, name string, base quantity.Values) (Project, error) {
	for _, n := range base.SortedNames() {
		if _, _, err := marshalValue(n, base[n]); err != nil {
			return Project{}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p := Project{ID: uuid.Must(uuid.NewV7()).String(), Name: name, Seq: m.seq, Base: base.Clone()}
	qs := quantity.NewStore()
	for n, v := range base {
		qs.Restore(n, v, quantity.ProducerProject)
	}
	m.projects[p.ID] = &memProject{project: p, store: qs}
	return withBase(p), nil
}

// LoadProjectBase returns the project and its base inputs.
func (m *Memory) LoadProjectBase(_ context.Context, projectID string) (Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mp, ok := m.projects[projectID]
	if !ok {
		return Project{}, &NotFoundError{ProjectID: projectID}
	}
	return withBase(mp.project), nil
}

// UpdateBase overwrites base inputs and records the stale states the edit
// caused. Nothing is applied unless all of it is valid.
func (m *Memory) UpdateBase(_ context.Context, projectID string, values quantity.Values, stale []quantity.ModuleState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mp, ok := m.projects[projectID]
	if !ok {
		return &NotFoundError{ProjectID: projectID}
	}
	for _, n := range values.SortedNames() {
		if _, _, err := marshalValue(n, values[n]); err != nil {
			return err
		}
	}
	if err := checkStates(stale); err != nil {
		return err
	}
	for n, v := range values {
		mp.project.Base[n] = v
		mp.store.Restore(n, v, quantity.ProducerProject)
	}
	for _, st := range stale {
		mp.store.SetState(st)
	}
	return nil
}

// ListProjects returns every project in creation order, without base inputs.
func (m *Memory) ListProjects(_ context.Context) ([]Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Project, 0, len(m.projects))
	for _, mp := range m.projects {
		p := mp.project
		p.Base = nil
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// DeleteProject removes a project.
func (m *Memory) DeleteProject(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[projectID]; !ok {
		return &NotFoundError{ProjectID: projectID}
	}
	delete(m.projects, projectID)
	return nil
}

// LoadQuantities returns a copy of the project's store.
func (m *Memory) LoadQuantities(_ context.Context, projectID string) (*quantity.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mp, ok := m.projects[projectID]
	if !ok {
		return nil, &NotFoundError{ProjectID: projectID}
	}
	return mp.store.Clone(), nil
}

// SaveModuleResult replaces everything r.Module owns and records states.
func (m *Memory) SaveModuleResult(_ context.Context, projectID string, r ModuleResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mp, ok := m.projects[projectID]
	if !ok {
		return &NotFoundError{ProjectID: projectID}
	}
	if err := r.check(); err != nil {
		return fmt.Errorf("save %s result: %w", r.Module, err)
	}

	next := quantity.NewStore()
	for _, n := range mp.store.Names() {
		owner, _ := mp.store.Owner(n)
		if owner == r.Module {
			continue
		}
		v, _ := mp.store.Get(n)
		next.Restore(n, v, owner)
	}
	for n, v := range r.Values {
		next.Restore(n, v, r.Module)
	}
	for _, st := range mp.store.States() {
		next.SetState(st)
		next.SetFlags(st.Module, mp.store.Flags(st.Module))
	}
	next.SetFlags(r.Module, r.Flags)
	next.SetState(r.State)
	for _, st := range r.Stale {
		next.SetState(st)
	}
	mp.store = next
	return nil
}

func withBase(p Project) Project {
	p.Base = p.Base.Clone()
	return p
}
