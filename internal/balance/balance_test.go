package balance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aquaplan/internal/quantity"
)

// threeStages builds a consistent a -> b -> c train at 100 L/s with no waste.
func threeStages() quantity.Values {
	data := quantity.Values{
		"design_flow_Ls":       quantity.Float(100),
		"raw_turbidity_NTU":    quantity.Float(40),
		"target_turbidity_NTU": quantity.Float(5),
	}
	turb := 40.0
	for _, id := range []string{"a", "b", "c"} {
		data[id+".inflow_Ls"] = quantity.Float(100)
		data[id+".outflow_Ls"] = quantity.Float(100)
		data[id+".waste_fraction"] = quantity.Float(0)
		data[id+".removal_efficiency"] = quantity.Float(0.5)
		turb *= 0.5
		data[id+".effluent_turbidity_NTU"] = quantity.Float(turb)
	}
	return data
}

func TestValidate_ConsistentTrain(t *testing.T) {
	rep := NewValidator([]string{"a", "b", "c"}, Options{}).Validate(threeStages())

	assert.True(t, rep.OK(), "%v", rep.Violations)
	assert.InDelta(t, 0.875, rep.CumulativeRemoval, 1e-12)
	assert.Equal(t, 5.0, rep.FinalEffluent)
	assert.Equal(t, 5.0, rep.Target)
	assert.Empty(t, rep.Skipped)
}

func TestValidate_UnaccountedLossAtInflow(t *testing.T) {
	data := threeStages()
	data["c.inflow_Ls"] = quantity.Float(90)
	data["c.outflow_Ls"] = quantity.Float(90)

	rep := NewValidator([]string{"a", "b", "c"}, Options{}).Validate(data)

	require.Len(t, rep.Violations, 1)
	v := rep.Violations[0]
	assert.Equal(t, KindFlow, v.Kind)
	assert.Equal(t, "b", v.Upstream)
	assert.Equal(t, "c", v.Downstream)
	assert.Equal(t, -10.0, v.Discrepancy)
}

func TestValidate_UnaccountedLossInsideStage(t *testing.T) {
	data := threeStages()
	data["b.outflow_Ls"] = quantity.Float(90)
	data["c.inflow_Ls"] = quantity.Float(90)
	data["c.outflow_Ls"] = quantity.Float(90)

	rep := NewValidator([]string{"a", "b", "c"}, Options{}).Validate(data)

	require.Len(t, rep.Violations, 1)
	v := rep.Violations[0]
	assert.Equal(t, KindLoss, v.Kind)
	assert.Equal(t, "b", v.Upstream)
	assert.Equal(t, "c", v.Downstream)
	assert.Equal(t, 100.0, v.Expected)
	assert.Equal(t, 90.0, v.Actual)
}

func TestValidate_DeclaredWasteIsAccounted(t *testing.T) {
	data := threeStages()
	data["b.waste_fraction"] = quantity.Float(0.1)
	data["b.outflow_Ls"] = quantity.Float(90)
	data["c.inflow_Ls"] = quantity.Float(90)
	data["c.outflow_Ls"] = quantity.Float(90)

	rep := NewValidator([]string{"a", "b", "c"}, Options{}).Validate(data)
	assert.True(t, rep.OK(), "%v", rep.Violations)
}

func TestValidate_RawFlowMismatch(t *testing.T) {
	data := threeStages()
	data["design_flow_Ls"] = quantity.Float(120)

	rep := NewValidator([]string{"a", "b", "c"}, Options{}).Validate(data)
	require.Len(t, rep.Violations, 1)
	assert.Equal(t, Raw, rep.Violations[0].Upstream)
	assert.Equal(t, "a", rep.Violations[0].Downstream)
}

func TestValidate_Efficiency(t *testing.T) {
	data := threeStages()
	data["b.removal_efficiency"] = quantity.Float(1.2)
	data["b.effluent_turbidity_NTU"] = quantity.Float(-4)
	data["c.effluent_turbidity_NTU"] = quantity.Float(-2)

	rep := NewValidator([]string{"a", "b", "c"}, Options{}).Validate(data)

	kinds := map[string]int{}
	for _, v := range rep.Violations {
		kinds[v.Kind]++
	}
	assert.Equal(t, 1, kinds[KindEfficiency])
	assert.Equal(t, 1, kinds[KindCumulative], "c pushes cumulative removal above 100%")
	assert.Zero(t, kinds[KindQuality], "declared effluents follow the declared removals")
	assert.Zero(t, kinds[KindTarget])
}

func TestValidate_QualityMismatch(t *testing.T) {
	data := threeStages()
	data["b.effluent_turbidity_NTU"] = quantity.Float(15)

	rep := NewValidator([]string{"a", "b", "c"}, Options{}).Validate(data)

	require.NotEmpty(t, rep.Violations)
	v := rep.Violations[0]
	assert.Equal(t, KindQuality, v.Kind)
	assert.Equal(t, "a", v.Upstream)
	assert.Equal(t, "b", v.Downstream)
	assert.Equal(t, 10.0, v.Expected)
}

func TestValidate_Target(t *testing.T) {
	data := threeStages()
	data["target_turbidity_NTU"] = quantity.Float(1)

	rep := NewValidator([]string{"a", "b", "c"}, Options{}).Validate(data)
	require.Len(t, rep.Violations, 1)
	v := rep.Violations[0]
	assert.Equal(t, KindTarget, v.Kind)
	assert.Equal(t, "c", v.Upstream)
	assert.Equal(t, Effluent, v.Downstream)
	assert.Equal(t, 4.0, v.Discrepancy)

	delete(data, "target_turbidity_NTU")
	rep = NewValidator([]string{"a", "b", "c"}, Options{TargetTurbidity: 10}).Validate(data)
	assert.True(t, rep.OK())
}

func TestValidate_ZeroTargetDisablesCheck(t *testing.T) {
	data := threeStages()
	delete(data, "target_turbidity_NTU")

	rep := NewValidator([]string{"a", "b", "c"}, Options{}).Validate(data)
	assert.True(t, rep.OK(), "%v", rep.Violations)
	assert.Zero(t, rep.Target)

	rep = NewValidator([]string{"a", "b", "c"}, DefaultOptions()).Validate(data)
	require.Len(t, rep.Violations, 1)
	assert.Equal(t, KindTarget, rep.Violations[0].Kind)
	assert.Equal(t, 1.0, rep.Target)
}

func TestValidate_PartialTrain(t *testing.T) {
	data := threeStages()
	for _, k := range []string{"b.inflow_Ls", "b.outflow_Ls", "b.waste_fraction", "b.removal_efficiency", "b.effluent_turbidity_NTU"} {
		delete(data, k)
	}
	data["c.inflow_Ls"] = quantity.Float(77)
	data["c.outflow_Ls"] = quantity.Float(77)

	rep := NewValidator([]string{"a", "b", "c"}, Options{}).Validate(data)
	assert.Equal(t, []string{"b"}, rep.Skipped)
	assert.True(t, rep.OK(), "no comparison across a gap: %v", rep.Violations)
}

func TestValidate_DoesNotMutate(t *testing.T) {
	data := threeStages()
	data["c.inflow_Ls"] = quantity.Float(1)
	snapshot := data.Clone()

	NewValidator([]string{"a", "b", "c"}, Options{}).Validate(data)
	assert.Equal(t, snapshot, data)
}
