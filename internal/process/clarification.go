package process

import "github.com/roach88/aquaplan/internal/quantity"

// sedimentation sizes rectangular settling tanks from the overflow rate.
func sedimentation(r *reader) Result {
	q := r.float("flocculation.outflow_Ls", limitFlow)
	turb := r.float("flocculation.effluent_turbidity_NTU", limitTurbidity)
	sor := r.param("overflow_rate_m3m2d")
	depth := r.param("depth_m")
	units := r.intParam("units")
	removal := r.param("removal_fraction")
	sludge := r.param("sludge_fraction")
	if r.err != nil {
		return Result{}
	}

	area := m3s(q) * secondsInDay / sor
	volume := area * depth
	hrt := volume / m3s(q)

	st := stage{inflow: q, waste: sludge, removal: removal, influent: turb}
	out := st.emit(Sedimentation)
	put(out, Sedimentation, "area_m2", area)
	put(out, Sedimentation, "unit_area_m2", area/float64(units))
	put(out, Sedimentation, "volume_m3", volume)
	put(out, Sedimentation, "hrt_s", hrt)

	m := string(Sedimentation)
	return Result{Outputs: out, Flags: []quantity.Flag{
		quantity.Check(m, "overflow_rate", sor, quantity.Between(15, 30), "m3/m2/d"),
		quantity.Check(m, "hrt", hrt, quantity.Between(5400, 14400), "s"),
	}}
}

// filtration sizes a bank of rapid sand filters. Backwash water leaves as
// waste.
func filtration(r *reader) Result {
	q := r.float("sedimentation.outflow_Ls", limitFlow)
	turb := r.float("sedimentation.effluent_turbidity_NTU", limitTurbidity)
	target := r.float("target_turbidity_NTU", limitTarget)
	rate := r.param("rate_m3m2d")
	filters := r.intParam("filters")
	removal := r.param("removal_fraction")
	backwash := r.param("backwash_fraction")
	if r.err != nil {
		return Result{}
	}

	area := m3s(q) * secondsInDay / rate

	st := stage{inflow: q, waste: backwash, removal: removal, influent: turb}
	out := st.emit(Filtration)
	put(out, Filtration, "area_m2", area)
	put(out, Filtration, "filter_area_m2", area/float64(filters))

	m := string(Filtration)
	return Result{Outputs: out, Flags: []quantity.Flag{
		quantity.Check(m, "rate", rate, quantity.Between(120, 360), "m3/m2/d"),
		quantity.Check(m, "effluent_turbidity", st.effluent(), quantity.Between(0, target), "NTU"),
	}}
}
