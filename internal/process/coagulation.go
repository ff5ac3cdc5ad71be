package process

import (
	"gonum.org/v1/gonum/floats"

	"github.com/roach88/aquaplan/internal/quantity"
)

// mixing sizes a mechanical rapid mix tank and its coagulant demand.
func mixing(r *reader) Result {
	q := r.float("pretreatment.outflow_Ls", limitFlow)
	turb := r.float("pretreatment.effluent_turbidity_NTU", limitTurbidity)
	temp := r.float("raw_temperature_C", limitTemperature)
	g := r.param("gradient_s")
	td := r.param("detention_s")
	dose := r.param("coagulant_dose_mgL")
	if r.err != nil {
		return Result{}
	}

	volume := m3s(q) * td
	power := g * g * viscosity(temp) * volume

	st := stage{inflow: q, influent: turb}
	out := st.emit(Mixing)
	put(out, Mixing, "volume_m3", volume)
	put(out, Mixing, "power_W", power)
	put(out, Mixing, "coagulant_kgd", dose*q*kgdPerMgLLs)

	m := string(Mixing)
	return Result{Outputs: out, Flags: []quantity.Flag{
		quantity.Check(m, "gradient", g, quantity.Between(500, 2000), "1/s"),
		quantity.Check(m, "detention", td, quantity.Between(10, 60), "s"),
	}}
}

// flocculation sizes a tapered, multi-chamber paddle flocculator. Chamber
// gradients fall linearly from the first to the last chamber.
func flocculation(r *reader) Result {
	q := r.float("mixing.outflow_Ls", limitFlow)
	turb := r.float("mixing.effluent_turbidity_NTU", limitTurbidity)
	temp := r.float("raw_temperature_C", limitTemperature)
	n := r.intParam("chambers")
	tdMin := r.param("detention_min")
	gFirst := r.param("gradient_first_s")
	gLast := r.param("gradient_last_s")
	depth := r.param("depth_m")
	if r.err != nil {
		return Result{}
	}

	td := tdMin * 60
	volume := m3s(q) * td
	chamber := volume / float64(n)

	gradients := make([]float64, n)
	if n == 1 {
		gradients[0] = gFirst
	} else {
		floats.Span(gradients, gFirst, gLast)
	}
	squares := make([]float64, n)
	floats.MulTo(squares, gradients, gradients)
	power := floats.Sum(squares) * viscosity(temp) * chamber
	gt := floats.Sum(gradients) / float64(n) * td

	st := stage{inflow: q, influent: turb}
	out := st.emit(Flocculation)
	put(out, Flocculation, "volume_m3", volume)
	put(out, Flocculation, "chamber_volume_m3", chamber)
	put(out, Flocculation, "area_m2", volume/depth)
	out[quantity.Qualify(string(Flocculation), "gradients")] = quantity.Series(gradients)
	put(out, Flocculation, "power_W", power)
	put(out, Flocculation, "gt", gt)

	m := string(Flocculation)
	return Result{Outputs: out, Flags: []quantity.Flag{
		quantity.Check(m, "detention", td, quantity.Between(1200, 2400), "s"),
		quantity.Check(m, "gradient_max", floats.Max(gradients), quantity.Between(20, 80), "1/s"),
		quantity.Check(m, "gradient_min", floats.Min(gradients), quantity.Between(10, 80), "1/s"),
		quantity.Check(m, "gt", gt, quantity.Between(2e4, 1.5e5), ""),
	}}
}
