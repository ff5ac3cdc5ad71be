package process

import "math"

const (
	gravity      = 9.81    // m/s²
	secondsInDay = 86400.0 // s
	// kgdPerMgLLs converts a dose in mg/L on a flow in L/s to kg/d.
	kgdPerMgLLs = 0.0864
)

// viscosity returns the dynamic viscosity of water in Pa·s at tC °C
// (Vogel form, within 2.5% over 0-100 °C).
func viscosity(tC float64) float64 {
	return 2.414e-5 * math.Pow(10, 247.8/(tC+133.15))
}

// m3s converts L/s to m³/s.
func m3s(ls float64) float64 { return ls / 1000 }
