package process

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/roach88/aquaplan/internal/quantity"
)

// hydraulics estimates the plant head loss across the three interconnecting
// pipes (raw main, settled water, filtered water), each of the same diameter
// and length. Friction uses Hazen-Williams; fittings use K·v²/2g.
func hydraulics(r *reader) Result {
	flows := []float64{
		r.float("pretreatment.inflow_Ls", limitFlow),
		r.float("sedimentation.outflow_Ls", limitFlow),
		r.float("filtration.outflow_Ls", limitFlow),
	}
	d := r.param("pipe_diameter_m")
	length := r.param("pipe_length_m")
	c := r.param("hazen_c")
	k := r.param("minor_loss_k")
	if r.err != nil {
		return Result{}
	}

	area := math.Pi * d * d / 4
	friction := make([]float64, len(flows))
	minor := make([]float64, len(flows))
	for i, ls := range flows {
		q := m3s(ls)
		v := q / area
		friction[i] = 10.67 * length * math.Pow(q, 1.852) / (math.Pow(c, 1.852) * math.Pow(d, 4.87))
		minor[i] = k * v * v / (2 * gravity)
	}
	velocity := m3s(floats.Max(flows)) / area
	hf := floats.Sum(friction)
	hm := floats.Sum(minor)

	out := quantity.Values{}
	put(out, Hydraulics, "velocity_ms", velocity)
	put(out, Hydraulics, "friction_loss_m", hf)
	put(out, Hydraulics, "minor_loss_m", hm)
	put(out, Hydraulics, "head_loss_m", hf+hm)

	m := string(Hydraulics)
	return Result{Outputs: out, Flags: []quantity.Flag{
		quantity.Check(m, "velocity", velocity, quantity.Between(0.6, 3), "m/s"),
		quantity.Check(m, "head_loss", hf+hm, quantity.AtMost(5), "m"),
	}}
}
