package process

import "github.com/roach88/aquaplan/internal/quantity"

// tank sizes treated water storage: regulation share of daily demand, fire
// reserve and an emergency allowance.
func tank(r *reader) Result {
	q := r.float("disinfection.outflow_Ls", limitFlow)
	turb := r.float("disinfection.effluent_turbidity_NTU", limitTurbidity)
	pop := r.float("population", limitPopulation)
	lpd := r.float("per_capita_demand_Lpd", limitDemand)
	regulation := r.param("regulation_fraction")
	fire := r.param("fire_reserve_m3")
	emergency := r.param("emergency_hours")
	if r.err != nil {
		return Result{}
	}

	daily := pop * lpd / 1000
	volume := regulation*daily + fire + daily/24*emergency
	ratio := q * secondsInDay / 1000 / daily

	st := stage{inflow: q, influent: turb}
	out := st.emit(Tank)
	put(out, Tank, "daily_demand_m3", daily)
	put(out, Tank, "volume_m3", volume)
	put(out, Tank, "supply_ratio", ratio)

	return Result{Outputs: out, Flags: []quantity.Flag{
		quantity.Check(string(Tank), "supply_ratio", ratio, quantity.AtLeast(1), ""),
	}}
}
