package process

import "github.com/roach88/aquaplan/internal/quantity"

// pretreatment sizes a presettling basin from its surface loading rate.
func pretreatment(r *reader) Result {
	q := r.float("design_flow_Ls", limitFlow)
	turb := r.float("raw_turbidity_NTU", limitTurbidity)
	sor := r.param("surface_rate_m3m2d")
	depth := r.param("depth_m")
	removal := r.param("removal_fraction")
	purge := r.param("purge_fraction")
	if r.err != nil {
		return Result{}
	}

	area := m3s(q) * secondsInDay / sor
	volume := area * depth
	hrt := volume / m3s(q)

	st := stage{inflow: q, waste: purge, removal: removal, influent: turb}
	out := st.emit(Pretreatment)
	put(out, Pretreatment, "area_m2", area)
	put(out, Pretreatment, "volume_m3", volume)
	put(out, Pretreatment, "hrt_s", hrt)

	m := string(Pretreatment)
	return Result{Outputs: out, Flags: []quantity.Flag{
		quantity.Check(m, "surface_rate", sor, quantity.Between(15, 80), "m3/m2/d"),
		quantity.Check(m, "hrt", hrt, quantity.Between(1800, 14400), "s"),
	}}
}
