package process

import "github.com/roach88/aquaplan/internal/quantity"

// massBalance closes the plant water and solids balance. Solids are the
// suspended solids removed by settling and filtration plus coagulant
// precipitate.
func massBalance(r *reader) Result {
	q := r.float("design_flow_Ls", limitFlow)
	raw := r.float("raw_turbidity_NTU", limitTurbidity)
	coag := r.float("mixing.coagulant_kgd", limitKgd)
	settled := r.float("sedimentation.effluent_turbidity_NTU", limitTurbidity)
	filtered := r.float("filtration.effluent_turbidity_NTU", limitTurbidity)
	delivered := r.float("tank.outflow_Ls", limitFlow)
	tssPerNTU := r.param("tss_per_ntu")
	coagRatio := r.param("coagulant_sludge_ratio")
	solidsFraction := r.param("sludge_solids_fraction")
	if r.err != nil {
		return Result{}
	}

	settledSolids := (raw - settled) * tssPerNTU * q * kgdPerMgLLs
	filterSolids := (settled - filtered) * tssPerNTU * q * kgdPerMgLLs
	solids := settledSolids + filterSolids + coag*coagRatio
	if solids < 0 {
		solids = 0
	}
	recovery := delivered / q

	out := quantity.Values{}
	put(out, MassBalance, "water_loss_Ls", q-delivered)
	put(out, MassBalance, "recovery_fraction", recovery)
	put(out, MassBalance, "solids_kgd", solids)
	put(out, MassBalance, "sludge_m3d", solids/(solidsFraction*1000))

	return Result{Outputs: out, Flags: []quantity.Flag{
		quantity.Check(string(MassBalance), "recovery", recovery, quantity.AtLeast(0.9), ""),
	}}
}
