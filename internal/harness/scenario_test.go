package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: ok
description: parses
base: { design_flow_Ls: 100.0, raw_turbidity_NTU: 50.0 }
policy: { pretreatment.hrt: reject }
setup:
  - run: pretreatment
flow:
  - run: mixing
    params: { gradient_s: 800 }
    expect: { status: complete, stale: [] }
  - rerun: true
    expect: { ran: [], stopped_at: "" }
  - update_base: { population: 100 }
assertions:
  - type: balance
    count: 0
    kinds: []
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "ok", s.Name)
	assert.Equal(t, 100.0, s.Base["design_flow_Ls"])
	assert.Equal(t, "reject", s.Policy["pretreatment.hrt"])
	require.Len(t, s.Flow, 3)
	assert.Equal(t, OpRun, s.Flow[0].Op())
	assert.Equal(t, 800, s.Flow[0].Params["gradient_s"])
	assert.NotNil(t, s.Flow[0].Expect.Stale, "an explicit empty list is kept")
	assert.Empty(t, s.Flow[0].Expect.Stale)
	assert.Equal(t, OpRerun, s.Flow[1].Op())
	assert.Equal(t, OpUpdateBase, s.Flow[2].Op())
	require.NotNil(t, s.Assertions[0].Count)
	assert.Equal(t, 0, *s.Assertions[0].Count)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nflow: [{run: m}]\nassertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nbase: {a: 1}\nflow: [{run: m}]\nassertions: [{type: balance, count: 0}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing base",
			yaml:    "name: x\ndescription: d\nflow: [{run: m}]\nassertions: [{type: balance, count: 0}]\n",
			wantErr: "base is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nflow: []\nassertions: [{type: balance, count: 0}]\n",
			wantErr: "flow list is required",
		},
		{
			name:    "two operations",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nflow: [{run: m, rerun: true}]\nassertions: [{type: balance, count: 0}]\n",
			wantErr: "flow[0]: exactly one of run, rerun, update_base",
		},
		{
			name:    "params without run",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nflow: [{rerun: true, params: {a: 1}}]\nassertions: [{type: balance, count: 0}]\n",
			wantErr: "params only apply to run",
		},
		{
			name:    "bad status",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nflow: [{run: m, expect: {status: done}}]\nassertions: [{type: balance, count: 0}]\n",
			wantErr: `unknown status "done"`,
		},
		{
			name:    "ran on a run step",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nflow: [{run: m, expect: {ran: [a]}}]\nassertions: [{type: balance, count: 0}]\n",
			wantErr: "only apply to rerun",
		},
		{
			name:    "setup with expect",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nsetup: [{run: m, expect: {status: complete}}]\nflow: [{run: m}]\nassertions: [{type: balance, count: 0}]\n",
			wantErr: "setup steps cannot have expect",
		},
		{
			name:    "bad policy level",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\npolicy: {m.c: block}\nflow: [{run: m}]\nassertions: [{type: balance, count: 0}]\n",
			wantErr: "level must be advisory or reject",
		},
		{
			name:    "balance without count",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nflow: [{run: m}]\nassertions: [{type: balance}]\n",
			wantErr: "count is required for balance",
		},
		{
			name:    "flag without pass",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nflow: [{run: m}]\nassertions: [{type: flag, criterion: m.c}]\n",
			wantErr: "criterion and pass are required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nflow: [{run: m}]\nassertions: [{type: final_state}]\n",
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name:    "negative trace count",
			yaml:    "name: x\ndescription: d\nbase: {a: 1}\nflow: [{run: m}]\nassertions: [{type: trace_count, op: run, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
