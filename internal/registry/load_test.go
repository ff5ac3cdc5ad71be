package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsEmbeddedModel(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)

	r := m.Registry
	assert.Equal(t, []string{
		"pretreatment", "mixing", "flocculation", "sedimentation",
		"filtration", "disinfection", "tank", "hydraulics", "massbalance",
	}, r.Order())
	assert.Equal(t, []string{
		"pretreatment", "mixing", "flocculation", "sedimentation",
		"filtration", "disinfection", "tank",
	}, r.Train())

	d, err := r.Describe("disinfection")
	require.NoError(t, err)
	assert.Equal(t, []string{"filtration.effluent_turbidity"}, d.MustPass)

	assert.True(t, r.IsBase("design_flow_Ls"))
	assert.Len(t, m.Criteria, 8)

	var sum float64
	for _, c := range m.Criteria {
		sum += c.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestLoad_SchemaViolationHasPosition(t *testing.T) {
	src := []byte(`
base: []
modules: [{id: "Bad-Id", title: "x", inputs: [], outputs: [], depends: [], must_pass: []}]
criteria: []
`)
	_, err := Load(src, "bad.cue")
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
}

func TestLoad_CriterionWeightOutOfRange(t *testing.T) {
	src := []byte(`
base: ["x"]
modules: []
criteria: [{name: "c", group: "site", weight: 1.5, kind: "linear", quantity: "x", worst: 0, best: 1}]
`)
	_, err := Load(src, "weights.cue")
	require.Error(t, err)
}

func TestLoad_CycleIsGraphError(t *testing.T) {
	src := []byte(`
base: []
modules: [
	{id: "a", title: "A", inputs: [], outputs: [], depends: ["b"], must_pass: []},
	{id: "b", title: "B", inputs: [], outputs: [], depends: ["a"], must_pass: []},
]
criteria: []
`)
	_, err := Load(src, "cycle.cue")
	require.Error(t, err)
	assert.True(t, IsInvalidGraph(err))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.cue")
	require.NoError(t, os.WriteFile(path, DefaultSource(), 0o644))

	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, m.Registry.Has("tank"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}
