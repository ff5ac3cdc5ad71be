package process

import (
	"math"
	"strconv"

	"github.com/roach88/aquaplan/internal/quantity"
)

// Limit is a physical validity interval. MinOpen excludes the lower bound.
type Limit struct {
	Min     float64
	Max     float64
	MinOpen bool
}

// Contains reports whether v is physically valid.
func (l Limit) Contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if l.MinOpen && v <= l.Min {
		return false
	}
	return v >= l.Min && v <= l.Max
}

func (l Limit) String() string {
	open := "["
	if l.MinOpen {
		open = "("
	}
	return open + strconv.FormatFloat(l.Min, 'g', -1, 64) + ", " + strconv.FormatFloat(l.Max, 'g', -1, 64) + "]"
}

func positive(max float64) Limit { return Limit{Min: 0, Max: max, MinOpen: true} }
func closed(lo, hi float64) Limit { return Limit{Min: lo, Max: hi} }

// Physical limits shared by every process that reads these quantities.
var (
	limitFlow        = positive(100000) // L/s
	limitTurbidity   = closed(0, 4000)  // NTU, nephelometer ceiling
	limitPH          = closed(0, 14)
	limitTemperature = closed(0, 45) // °C, liquid water at plant conditions
	limitTarget      = positive(100) // NTU
	limitPopulation  = closed(1, 1e8)
	limitDemand      = positive(2000) // L/person/day
	limitKgd         = closed(0, 1e7)
)

// reader pulls typed, range-checked values out of an input mapping. The first
// failure sticks; later reads return zero and the caller checks err once.
type reader struct {
	module string
	in     quantity.Values
	err    error
}

func newReader(module string, in quantity.Values) *reader {
	return &reader{module: module, in: in}
}

func (r *reader) float(name string, lim Limit) float64 {
	if r.err != nil {
		return 0
	}
	v, ok := r.in[name]
	if !ok {
		r.err = NewMissingInput(r.module, []string{name})
		return 0
	}
	f, ok := quantity.AsFloat(v)
	if !ok {
		r.err = &InputError{Code: ErrCodeOutOfRange, Module: r.module, Quantity: name, Allowed: "numeric", Message: "input is not numeric"}
		return 0
	}
	if !lim.Contains(f) {
		r.err = outOfRange(r.module, name, f, lim)
		return 0
	}
	return f
}

func (r *reader) int(name string, lim Limit) int64 {
	f := r.float(name, lim)
	if r.err != nil {
		return 0
	}
	if math.Trunc(f) != f {
		r.err = &InputError{Code: ErrCodeOutOfRange, Module: r.module, Quantity: name, Value: f, Allowed: "whole number", Message: "input must be a whole number"}
		return 0
	}
	return int64(f)
}

// param reads one of the module's own parameters using its declared limits.
func (r *reader) param(local string) float64 {
	p, ok := lookupParam(r.module, local)
	if !ok {
		if r.err == nil {
			r.err = &InputError{Code: ErrCodeUnknownParam, Module: r.module, Quantity: local, Message: "undeclared parameter"}
		}
		return 0
	}
	return r.float(quantity.Qualify(r.module, local), p.Limit)
}

func (r *reader) intParam(local string) int64 {
	p, ok := lookupParam(r.module, local)
	if !ok {
		if r.err == nil {
			r.err = &InputError{Code: ErrCodeUnknownParam, Module: r.module, Quantity: local, Message: "undeclared parameter"}
		}
		return 0
	}
	return r.int(quantity.Qualify(r.module, local), p.Limit)
}
