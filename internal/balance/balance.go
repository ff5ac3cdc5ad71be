// Package balance audits the flow and removal accounting of the treatment
// train. It reads a snapshot and never mutates it; a violation is data for
// the engineer, not an error.
package balance

import (
	"fmt"
	"math"

	"github.com/roach88/aquaplan/internal/quantity"
)

// Violation kinds.
const (
	KindFlow       = "flow"       // inflow differs from the upstream outflow
	KindLoss       = "loss"       // declared outflow differs from inflow less waste
	KindWaste      = "waste"      // waste fraction outside [0, 1]
	KindEfficiency = "efficiency" // removal efficiency outside [0, 1]
	KindCumulative = "cumulative" // cumulative removal outside [0, 1]
	KindQuality    = "quality"    // effluent turbidity inconsistent with removal
	KindTarget     = "target"     // final effluent above the target
)

// Pseudo-stages used in violation pairs.
const (
	Raw      = "raw"
	Effluent = "effluent"
)

// Violation describes one inconsistency between two adjacent points of the
// train.
type Violation struct {
	Kind        string  `json:"kind"`
	Upstream    string  `json:"upstream"`
	Downstream  string  `json:"downstream"`
	Quantity    string  `json:"quantity"`
	Expected    float64 `json:"expected"`
	Actual      float64 `json:"actual"`
	Discrepancy float64 `json:"discrepancy"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s -> %s: %s = %g, expected %g (off by %g)",
		v.Kind, v.Upstream, v.Downstream, v.Quantity, v.Actual, v.Expected, v.Discrepancy)
}

// Report is the result of one audit.
type Report struct {
	Stages            []string    `json:"stages"`
	Skipped           []string    `json:"skipped,omitempty"`
	CumulativeRemoval float64     `json:"cumulative_removal"`
	FinalEffluent     float64     `json:"final_effluent_NTU,omitempty"`
	Target            float64     `json:"target_NTU,omitempty"`
	Violations        []Violation `json:"violations"`
}

// OK reports whether no violation was found.
func (r Report) OK() bool { return len(r.Violations) == 0 }

// Options tune the audit.
type Options struct {
	// FlowTolerance is the absolute flow discrepancy accepted, in L/s.
	FlowTolerance float64
	// EfficiencyTolerance is the slack on fraction bounds and the relative
	// slack on turbidity consistency.
	EfficiencyTolerance float64
	// TargetTurbidity applies when the project has no target_turbidity_NTU.
	// Zero disables the target check in that case.
	TargetTurbidity float64
}

// DefaultOptions are used for zero fields.
func DefaultOptions() Options {
	return Options{FlowTolerance: 1e-6, EfficiencyTolerance: 1e-9, TargetTurbidity: 1}
}

// Validator walks a fixed, ordered train of stage modules.
type Validator struct {
	train []string
	opts  Options
}

// NewValidator returns a validator for the given stage order. Zero
// tolerances take their DefaultOptions values. TargetTurbidity is taken as
// given: zero disables the target check for projects without their own
// target_turbidity_NTU.
func NewValidator(train []string, opts Options) *Validator {
	d := DefaultOptions()
	if opts.FlowTolerance <= 0 {
		opts.FlowTolerance = d.FlowTolerance
	}
	if opts.EfficiencyTolerance <= 0 {
		opts.EfficiencyTolerance = d.EfficiencyTolerance
	}
	return &Validator{train: append([]string(nil), train...), opts: opts}
}

type stage struct {
	id       string
	inflow   float64
	waste    float64
	outflow  float64 // declared, or inflow less waste
	removal  float64
	effluent float64
	hasOut   bool
	hasEff   bool
}

func (v *Validator) read(id string, data quantity.Values) (stage, bool) {
	st := stage{id: id}
	in, err := data.Float(quantity.Qualify(id, "inflow_Ls"))
	if err != nil {
		return st, false
	}
	st.inflow = in
	st.waste, _ = data.Float(quantity.Qualify(id, "waste_fraction"))
	st.removal, _ = data.Float(quantity.Qualify(id, "removal_efficiency"))
	if out, err := data.Float(quantity.Qualify(id, "outflow_Ls")); err == nil {
		st.outflow, st.hasOut = out, true
	} else {
		st.outflow = st.inflow * (1 - st.waste)
	}
	if eff, err := data.Float(quantity.Qualify(id, "effluent_turbidity_NTU")); err == nil {
		st.effluent, st.hasEff = eff, true
	}
	return st, true
}

// Validate audits data. Stages that have not produced an inflow are skipped
// and break the chain: the stage after a gap is not compared upstream.
func (v *Validator) Validate(data quantity.Values) Report {
	rep := Report{Stages: append([]string(nil), v.train...), Violations: []Violation{}}

	var prev *stage
	pass := 1.0 // Π(1 - e)
	quality, err := data.Float("raw_turbidity_NTU")
	qualityKnown := err == nil
	first := true

	for _, id := range v.train {
		st, ok := v.read(id, data)
		if !ok {
			rep.Skipped = append(rep.Skipped, id)
			prev = nil
			qualityKnown = false
			first = false
			continue
		}
		next := v.next(id)

		// Flow into this stage.
		switch {
		case prev != nil:
			v.flow(&rep, prev.id, id, prev.outflow, st.inflow)
		case first:
			if raw, err := data.Float("design_flow_Ls"); err == nil {
				v.flow(&rep, Raw, id, raw, st.inflow)
			}
		}
		first = false

		// Flow out of this stage.
		if st.waste < -v.opts.EfficiencyTolerance || st.waste > 1+v.opts.EfficiencyTolerance {
			rep.add(Violation{Kind: KindWaste, Upstream: id, Downstream: next,
				Quantity: quantity.Qualify(id, "waste_fraction"), Expected: clamp01(st.waste), Actual: st.waste})
		} else if want := st.inflow * (1 - st.waste); st.hasOut && math.Abs(st.outflow-want) > v.opts.FlowTolerance {
			rep.add(Violation{Kind: KindLoss, Upstream: id, Downstream: next,
				Quantity: quantity.Qualify(id, "outflow_Ls"), Expected: want, Actual: st.outflow})
		}

		// Removal.
		pair := Raw
		if prev != nil {
			pair = prev.id
		}
		badStage := false
		if st.removal < -v.opts.EfficiencyTolerance || st.removal > 1+v.opts.EfficiencyTolerance {
			badStage = true
			rep.add(Violation{Kind: KindEfficiency, Upstream: pair, Downstream: id,
				Quantity: quantity.Qualify(id, "removal_efficiency"), Expected: clamp01(st.removal), Actual: st.removal})
		}
		pass *= 1 - st.removal
		if cum := 1 - pass; !badStage && (cum < -v.opts.EfficiencyTolerance || cum > 1+v.opts.EfficiencyTolerance) {
			rep.add(Violation{Kind: KindCumulative, Upstream: pair, Downstream: id,
				Quantity: "cumulative_removal", Expected: clamp01(cum), Actual: cum})
		}

		// Effluent quality against the upstream quality and this removal.
		if qualityKnown && st.hasEff {
			want := quality * (1 - st.removal)
			if math.Abs(st.effluent-want) > v.opts.EfficiencyTolerance*math.Max(1, math.Abs(want)) {
				rep.add(Violation{Kind: KindQuality, Upstream: pair, Downstream: id,
					Quantity: quantity.Qualify(id, "effluent_turbidity_NTU"), Expected: want, Actual: st.effluent})
			}
		}
		if st.hasEff {
			quality, qualityKnown = st.effluent, true
			rep.FinalEffluent = st.effluent
		} else {
			qualityKnown = false
		}

		s := st
		prev = &s
	}
	rep.CumulativeRemoval = 1 - pass

	v.target(&rep, data, prev)
	return rep
}

func (v *Validator) target(rep *Report, data quantity.Values, last *stage) {
	if last == nil || !last.hasEff || last.id != v.train[len(v.train)-1] {
		return
	}
	target, err := data.Float("target_turbidity_NTU")
	if err != nil {
		target = v.opts.TargetTurbidity
	}
	if target <= 0 {
		return
	}
	rep.Target = target
	if last.effluent > target {
		rep.add(Violation{Kind: KindTarget, Upstream: last.id, Downstream: Effluent,
			Quantity: quantity.Qualify(last.id, "effluent_turbidity_NTU"), Expected: target, Actual: last.effluent})
	}
}

func (v *Validator) flow(rep *Report, up, down string, want, got float64) {
	if math.Abs(got-want) > v.opts.FlowTolerance {
		rep.add(Violation{Kind: KindFlow, Upstream: up, Downstream: down,
			Quantity: quantity.Qualify(down, "inflow_Ls"), Expected: want, Actual: got})
	}
}

func (v *Validator) next(id string) string {
	for i, s := range v.train {
		if s == id && i+1 < len(v.train) {
			return v.train[i+1]
		}
	}
	return Effluent
}

func (r *Report) add(v Violation) {
	v.Discrepancy = v.Actual - v.Expected
	r.Violations = append(r.Violations, v)
}

func clamp01(f float64) float64 {
	return math.Min(1, math.Max(0, f))
}
