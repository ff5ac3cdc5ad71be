package process

import (
	"math"

	"github.com/roach88/aquaplan/internal/quantity"
)

// Minimum CT (mg·min/L) for free chlorine; cold water needs twice as much.
const (
	ctRequired     = 15.0
	ctRequiredCold = 30.0
	coldBelowC     = 5.0
)

// disinfection sizes a chlorine contact tank.
func disinfection(r *reader) Result {
	q := r.float("filtration.outflow_Ls", limitFlow)
	turb := r.float("filtration.effluent_turbidity_NTU", limitTurbidity)
	ph := r.float("raw_ph", limitPH)
	temp := r.float("raw_temperature_C", limitTemperature)
	dose := r.param("chlorine_dose_mgL")
	demand := r.param("chlorine_demand_mgL")
	contact := r.param("contact_min")
	bf := r.param("baffling_factor")
	if r.err != nil {
		return Result{}
	}

	residual := math.Max(dose-demand, 0)
	ct := residual * contact * bf
	need := ctRequired
	if temp < coldBelowC {
		need = ctRequiredCold
	}

	st := stage{inflow: q, influent: turb}
	out := st.emit(Disinfection)
	put(out, Disinfection, "residual_mgL", residual)
	put(out, Disinfection, "contact_volume_m3", m3s(q)*contact*60/bf)
	put(out, Disinfection, "ct_mgmin_L", ct)
	put(out, Disinfection, "chlorine_kgd", dose*q*kgdPerMgLLs)

	m := string(Disinfection)
	return Result{Outputs: out, Flags: []quantity.Flag{
		quantity.Check(m, "residual", residual, quantity.Between(0.3, 2), "mg/L"),
		quantity.Check(m, "ct", ct, quantity.AtLeast(need), "mg·min/L"),
		quantity.Check(m, "ph", ph, quantity.Between(6.5, 8.5), ""),
	}}
}
