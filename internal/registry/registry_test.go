package registry

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(ids ...string) []Descriptor {
	var out []Descriptor
	for i, id := range ids {
		d := Descriptor{ID: id, Title: id, Outputs: []string{id + ".out"}}
		if i > 0 {
			d.Depends = []string{ids[i-1]}
			d.Inputs = []string{ids[i-1] + ".out"}
		}
		out = append(out, d)
	}
	return out
}

func TestNew_Chain(t *testing.T) {
	r, err := New(nil, chain("mixing", "flocculation", "sedimentation"))
	require.NoError(t, err)

	assert.Equal(t, []string{"mixing", "flocculation", "sedimentation"}, r.Order())
	assert.Equal(t, []string{"flocculation"}, r.Dependents("mixing"))

	owner, ok := r.Producer("flocculation.out")
	require.True(t, ok)
	assert.Equal(t, "flocculation", owner)
}

func TestDescribe_UnknownModule(t *testing.T) {
	r, err := New(nil, chain("a"))
	require.NoError(t, err)

	_, err = r.Describe("nope")
	require.Error(t, err)
	assert.True(t, IsUnknownModule(err))
	assert.Contains(t, err.Error(), ErrCodeUnknownModule)
}

func TestDescribe_ReturnsCopy(t *testing.T) {
	r, err := New(nil, chain("a", "b"))
	require.NoError(t, err)

	d, err := r.Describe("b")
	require.NoError(t, err)
	d.Depends[0] = "mutated"

	d2, _ := r.Describe("b")
	assert.Equal(t, []string{"a"}, d2.Depends)
}

func TestNew_SelfReference(t *testing.T) {
	_, err := New(nil, []Descriptor{{ID: "a", Depends: []string{"a"}}})
	require.Error(t, err)
	assert.True(t, IsInvalidGraph(err))
}

func TestNew_UnregisteredDependency(t *testing.T) {
	_, err := New(nil, []Descriptor{{ID: "a", Depends: []string{"ghost"}}})
	require.Error(t, err)
	assert.True(t, IsInvalidGraph(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestNew_Cycle(t *testing.T) {
	_, err := New(nil, []Descriptor{
		{ID: "a", Depends: []string{"c"}},
		{ID: "b", Depends: []string{"a"}},
		{ID: "c", Depends: []string{"b"}},
	})
	require.Error(t, err)
	assert.True(t, IsInvalidGraph(err))

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"a", "c", "b", "a"}, re.Path)
}

func TestNew_CyclePathBacktracksOutOfDeadEnds(t *testing.T) {
	// c only leads back to b, so the reported loop must go through d.
	ds := []Descriptor{
		{ID: "a", Depends: []string{"b"}},
		{ID: "b", Depends: []string{"c", "d"}},
		{ID: "c", Depends: []string{"b"}},
		{ID: "d", Depends: []string{"a"}},
	}
	_, err := New(nil, ds)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"a", "b", "d", "a"}, re.Path)
	assertRealEdges(t, ds, re.Path)
}

// assertRealEdges checks that each step of a reported cycle is a declared
// dependency.
func assertRealEdges(t *testing.T, ds []Descriptor, path []string) {
	t.Helper()
	deps := make(map[string][]string, len(ds))
	for _, d := range ds {
		deps[d.ID] = d.Depends
	}
	require.GreaterOrEqual(t, len(path), 3)
	assert.Equal(t, path[0], path[len(path)-1])
	for i := 0; i+1 < len(path); i++ {
		assert.Contains(t, deps[path[i]], path[i+1], "%s -> %s", path[i], path[i+1])
	}
}

func TestNew_DuplicateOutput(t *testing.T) {
	_, err := New(nil, []Descriptor{
		{ID: "a", Outputs: []string{"shared"}},
		{ID: "b", Outputs: []string{"shared"}},
	})
	require.Error(t, err)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeDuplicateOwnership, re.Code)
}

func TestNew_InputFromUndeclaredProducer(t *testing.T) {
	_, err := New(nil, []Descriptor{
		{ID: "a", Outputs: []string{"a.out"}},
		{ID: "b", Inputs: []string{"a.out"}},
	})
	require.Error(t, err)
	assert.True(t, IsInvalidGraph(err))
}

func TestNew_InputNobodyProduces(t *testing.T) {
	_, err := New([]string{"design_flow_Ls"}, []Descriptor{
		{ID: "a", Inputs: []string{"design_flow_Ls", "raw_ph"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "raw_ph")
}

func TestNew_MustPassOutsideDependencies(t *testing.T) {
	ds := chain("a", "b")
	ds[1].MustPass = []string{"c.some_check"}
	_, err := New(nil, ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must-pass")
}

func TestOrder_DeclarationOrderBreaksTies(t *testing.T) {
	r, err := New(nil, []Descriptor{
		{ID: "sink", Depends: []string{"right", "left"}},
		{ID: "right", Depends: []string{"root"}},
		{ID: "left", Depends: []string{"root"}},
		{ID: "root"},
		{ID: "island"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "right", "left", "sink", "island"}, r.Order())
}

func TestTrain_OnlyStages(t *testing.T) {
	ds := chain("a", "b", "c")
	ds[0].Stage = true
	ds[2].Stage = true
	r, err := New(nil, ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, r.Train())
}

// randomDAG builds n modules where every edge points to an earlier index, then
// shuffles the declaration order. The result is acyclic by construction.
func randomDAG(rng *rand.Rand, n int) []Descriptor {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("m%02d", i)
	}
	ds := make([]Descriptor, n)
	for i := range ds {
		ds[i] = Descriptor{ID: ids[i]}
		for j := 0; j < i; j++ {
			if rng.Intn(3) == 0 {
				ds[i].Depends = append(ds[i].Depends, ids[j])
			}
		}
	}
	rng.Shuffle(len(ds), func(i, j int) { ds[i], ds[j] = ds[j], ds[i] })
	return ds
}

func TestProperty_AcceptsEveryDAGPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		ds := randomDAG(rng, 2+rng.Intn(12))
		r, err := New(nil, ds)
		require.NoError(t, err, "trial %d", trial)

		// Every module appears after all of its dependencies.
		pos := make(map[string]int)
		for i, id := range r.Order() {
			pos[id] = i
		}
		require.Len(t, pos, len(ds))
		for _, d := range ds {
			for _, dep := range d.Depends {
				assert.Less(t, pos[dep], pos[d.ID])
			}
		}
	}
}

func TestProperty_NeverAcceptsACycle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(12)
		ds := randomDAG(rng, n)

		// Close a loop: pick a path-reachable pair by adding a back edge from
		// a module to one of its own descendants.
		byID := make(map[string]*Descriptor, n)
		for i := range ds {
			byID[ds[i].ID] = &ds[i]
		}
		var victim *Descriptor
		for i := range ds {
			if len(ds[i].Depends) > 0 {
				victim = &ds[i]
				break
			}
		}
		if victim == nil {
			// No edges at all: make a two-node loop.
			ds[0].Depends = []string{ds[1].ID}
			ds[1].Depends = []string{ds[0].ID}
		} else {
			upstream := byID[victim.Depends[rng.Intn(len(victim.Depends))]]
			upstream.Depends = append(upstream.Depends, victim.ID)
		}

		_, err := New(nil, ds)
		require.Error(t, err, "trial %d", trial)
		assert.True(t, IsInvalidGraph(err), "trial %d: %v", trial, err)
		var re *Error
		require.ErrorAs(t, err, &re, "trial %d", trial)
		assertRealEdges(t, ds, re.Path)
	}
}
