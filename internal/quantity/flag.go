package quantity

import (
	"fmt"
	"strconv"
)

// Range is an acceptable interval for a criterion. A nil bound is open.
type Range struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Between returns the closed interval [lo, hi].
func Between(lo, hi float64) Range {
	return Range{Min: &lo, Max: &hi}
}

// AtLeast returns [lo, +inf).
func AtLeast(lo float64) Range {
	return Range{Min: &lo}
}

// AtMost returns (-inf, hi].
func AtMost(hi float64) Range {
	return Range{Max: &hi}
}

// Contains reports whether v lies inside the range, bounds included.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r Range) String() string {
	lo, hi := "-inf", "+inf"
	if r.Min != nil {
		lo = strconv.FormatFloat(*r.Min, 'g', -1, 64)
	}
	if r.Max != nil {
		hi = strconv.FormatFloat(*r.Max, 'g', -1, 64)
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}

// Flag records one design-criterion check. A failing flag never halts the
// computation that produced it; it marks the module's result conditionally
// valid and may block downstream modules that declare must-pass on it.
type Flag struct {
	Module    string  `json:"module"`
	Criterion string  `json:"criterion"`
	Value     float64 `json:"value"`
	Range     Range   `json:"range"`
	Unit      string  `json:"unit,omitempty"`
	Pass      bool    `json:"pass"`
}

// Check builds a flag for value against r.
func Check(module, criterion string, value float64, r Range, unit string) Flag {
	return Flag{
		Module:    module,
		Criterion: criterion,
		Value:     value,
		Range:     r,
		Unit:      unit,
		Pass:      r.Contains(value),
	}
}

// Qualified returns "module.criterion", the name used by must-pass declarations
// and policy configuration.
func (f Flag) Qualified() string {
	return Qualify(f.Module, f.Criterion)
}

func (f Flag) String() string {
	status := "pass"
	if !f.Pass {
		status = "FAIL"
	}
	return fmt.Sprintf("%s %s = %s %s in %s", status, f.Qualified(),
		strconv.FormatFloat(f.Value, 'g', 6, 64), f.Unit, f.Range)
}

// AnyFailed reports whether at least one flag failed.
func AnyFailed(flags []Flag) bool {
	for _, f := range flags {
		if !f.Pass {
			return true
		}
	}
	return false
}
