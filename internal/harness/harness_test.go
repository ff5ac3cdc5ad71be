package harness

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "file name matches scenario name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario errors:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "stale_propagation.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, FormatTrace(scenario.Name, first.Trace), FormatTrace(scenario.Name, second.Trace))
	assert.NotEqual(t, first.ProjectID, second.ProjectID, "each run gets a fresh project")
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := minimalScenario()
	scenario.Flow = []Step{
		{Run: "pretreatment", Expect: &Expect{Status: "conditional"}},
		{Run: "sedimentation"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected status conditional, got complete")
	assert.Contains(t, result.Errors[1], "unexpected error E211")
	require.Len(t, result.Trace, 2)
	assert.Equal(t, "E211", result.Trace[1].Error)
}

func TestRun_AssertionFailureCarriesTrace(t *testing.T) {
	scenario := minimalScenario()
	scenario.Assertions = []Assertion{{Type: AssertModuleStatus, Module: "mixing", Status: "complete"}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "mixing is complete")
	assert.Contains(t, result.Errors[0], "Actual: pending")
	assert.Contains(t, result.Errors[0], "1 run pretreatment status=complete")
}

func TestRun_SetupFailureAborts(t *testing.T) {
	scenario := minimalScenario()
	scenario.Setup = []Step{{Run: "mixing"}}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup step 0")
}

func TestRun_RejectsUnknownBaseInput(t *testing.T) {
	scenario := minimalScenario()
	scenario.Base["river_name"] = "Nile"

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "river_name")
}

func TestTraceEvent_String(t *testing.T) {
	tests := []struct {
		event TraceEvent
		want  string
	}{
		{TraceEvent{Step: 1, Op: OpRun, Module: "tank", Status: "complete", Changed: true}, "1 run tank status=complete changed=true stale=[]"},
		{TraceEvent{Step: 2, Op: OpRun, Module: "tank", Error: "E211"}, "2 run tank error=E211"},
		{TraceEvent{Step: 3, Op: OpRerun, Ran: []string{"a", "b"}, StoppedAt: "c"}, "3 rerun ran=[a b] stopped_at=c"},
		{TraceEvent{Step: 4, Op: OpUpdateBase, Inputs: []string{"population"}}, "4 update_base inputs=[population] stale=[]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.event.String())
	}
}

func TestFormatTrace(t *testing.T) {
	out := FormatTrace("demo", []TraceEvent{{Step: 1, Op: OpRerun}})
	assert.Equal(t, "scenario: demo\n1 rerun ran=[]\n", string(out))
}

func TestCheckExpect(t *testing.T) {
	yes := true
	tests := []struct {
		name   string
		step   Step
		got    TraceEvent
		errors int
	}{
		{"no expect, success", Step{Run: "a"}, TraceEvent{Op: OpRun}, 0},
		{"no expect, error", Step{Run: "a"}, TraceEvent{Op: OpRun, Error: "E211"}, 1},
		{"expected error matches", Step{Run: "a", Expect: &Expect{Error: "E216"}}, TraceEvent{Op: OpRun, Error: "E216"}, 0},
		{"expected error missing", Step{Run: "a", Expect: &Expect{Error: "E216"}}, TraceEvent{Op: OpRun, Status: "complete"}, 1},
		{"stale empty list asserts none", Step{Run: "a", Expect: &Expect{Stale: []string{}}}, TraceEvent{Op: OpRun, Stale: []string{"b"}}, 1},
		{"stale unset is unchecked", Step{Run: "a", Expect: &Expect{}}, TraceEvent{Op: OpRun, Stale: []string{"b"}}, 0},
		{"changed mismatch", Step{Run: "a", Expect: &Expect{Changed: &yes}}, TraceEvent{Op: OpRun}, 1},
		{"rerun stopped unexpectedly", Step{Rerun: true, Expect: &Expect{Ran: []string{}}}, TraceEvent{Op: OpRerun, StoppedAt: "x"}, 1},
		{"rerun stop matches", Step{Rerun: true, Expect: &Expect{StoppedAt: "x"}}, TraceEvent{Op: OpRerun, StoppedAt: "x"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, checkExpect(0, tt.step, tt.got), tt.errors)
		})
	}
}

func TestAssertTraceCount(t *testing.T) {
	trace := []TraceEvent{
		{Op: OpRun, Module: "tank"},
		{Op: OpRun, Module: "mixing"},
		{Op: OpRerun},
	}
	two, one := 2, 1
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpRun, Count: &two}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpRun, Module: "tank", Count: &one}))

	err := assertTraceCount(trace, Assertion{Op: OpRerun, Count: &two})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "appears 1 time(s)", ae.Actual)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func minimalScenario() *Scenario {
	return &Scenario{
		Name:        "minimal",
		Description: "one module",
		Base: map[string]any{
			"design_flow_Ls":    100.0,
			"raw_turbidity_NTU": 50.0,
		},
		Flow:       []Step{{Run: "pretreatment"}},
		Assertions: []Assertion{{Type: AssertModuleStatus, Module: "pretreatment", Status: "complete"}},
	}
}
