package process

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/aquaplan/internal/quantity"
)

// Param is a form-supplied design parameter. Its stored name is qualified
// with the module id ("mixing.gradient_s") and the module owns it.
type Param struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit,omitempty"`
	Default float64 `json:"default"`
	Integer bool    `json:"integer,omitempty"`
	Limit   Limit   `json:"-"`
	Doc     string  `json:"doc,omitempty"`
}

var catalog = map[ID][]Param{
	Pretreatment: {
		{Name: "surface_rate_m3m2d", Unit: "m3/m2/d", Default: 40, Limit: positive(1000), Doc: "surface loading rate"},
		{Name: "depth_m", Unit: "m", Default: 1.5, Limit: positive(10)},
		{Name: "removal_fraction", Default: 0.1, Limit: closed(0, 0.99), Doc: "turbidity removed by grit settling"},
		{Name: "purge_fraction", Default: 0.01, Limit: closed(0, 0.5), Doc: "flow purged with grit"},
	},
	Mixing: {
		{Name: "gradient_s", Unit: "1/s", Default: 1000, Limit: positive(5000), Doc: "velocity gradient G"},
		{Name: "detention_s", Unit: "s", Default: 30, Limit: positive(600)},
		{Name: "coagulant_dose_mgL", Unit: "mg/L", Default: 25, Limit: closed(0, 500)},
	},
	Flocculation: {
		{Name: "chambers", Default: 3, Integer: true, Limit: closed(1, 10)},
		{Name: "detention_min", Unit: "min", Default: 30, Limit: positive(120)},
		{Name: "gradient_first_s", Unit: "1/s", Default: 70, Limit: positive(500)},
		{Name: "gradient_last_s", Unit: "1/s", Default: 20, Limit: positive(500)},
		{Name: "depth_m", Unit: "m", Default: 3.5, Limit: positive(10)},
	},
	Sedimentation: {
		{Name: "overflow_rate_m3m2d", Unit: "m3/m2/d", Default: 25, Limit: positive(500)},
		{Name: "depth_m", Unit: "m", Default: 4, Limit: positive(10)},
		{Name: "units", Default: 2, Integer: true, Limit: closed(1, 20)},
		{Name: "removal_fraction", Default: 0.85, Limit: closed(0, 0.999)},
		{Name: "sludge_fraction", Default: 0.02, Limit: closed(0, 0.3), Doc: "flow withdrawn with sludge"},
	},
	Filtration: {
		{Name: "rate_m3m2d", Unit: "m3/m2/d", Default: 180, Limit: positive(1000)},
		{Name: "filters", Default: 4, Integer: true, Limit: closed(1, 50)},
		{Name: "removal_fraction", Default: 0.9, Limit: closed(0, 0.999)},
		{Name: "backwash_fraction", Default: 0.03, Limit: closed(0, 0.2)},
	},
	Disinfection: {
		{Name: "chlorine_dose_mgL", Unit: "mg/L", Default: 2, Limit: closed(0, 20)},
		{Name: "chlorine_demand_mgL", Unit: "mg/L", Default: 0.8, Limit: closed(0, 20)},
		{Name: "contact_min", Unit: "min", Default: 30, Limit: positive(240)},
		{Name: "baffling_factor", Default: 0.5, Limit: Limit{Min: 0, Max: 1, MinOpen: true}},
	},
	Tank: {
		{Name: "regulation_fraction", Default: 0.25, Limit: Limit{Min: 0, Max: 1, MinOpen: true}, Doc: "share of daily demand held for regulation"},
		{Name: "fire_reserve_m3", Unit: "m3", Default: 0, Limit: closed(0, 1e5)},
		{Name: "emergency_hours", Unit: "h", Default: 4, Limit: closed(0, 72)},
	},
	Hydraulics: {
		{Name: "pipe_diameter_m", Unit: "m", Default: 0.3, Limit: positive(5)},
		{Name: "pipe_length_m", Unit: "m", Default: 100, Limit: positive(10000)},
		{Name: "hazen_c", Default: 120, Limit: closed(60, 150)},
		{Name: "minor_loss_k", Default: 5, Limit: closed(0, 100)},
	},
	MassBalance: {
		{Name: "tss_per_ntu", Unit: "mg/L/NTU", Default: 1.5, Limit: positive(5), Doc: "suspended solids per unit turbidity"},
		{Name: "coagulant_sludge_ratio", Default: 0.44, Limit: closed(0, 2)},
		{Name: "sludge_solids_fraction", Default: 0.01, Limit: Limit{Min: 0, Max: 0.5, MinOpen: true}},
	},
}

// Params returns the parameters a module accepts.
func Params(id string) ([]Param, error) {
	ps, ok := catalog[ID(id)]
	if !ok {
		return nil, NewUnknownProcess(id)
	}
	return append([]Param(nil), ps...), nil
}

// ParamNames returns the qualified names of a module's parameters.
func ParamNames(id string) []string {
	ps := catalog[ID(id)]
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = quantity.Qualify(id, p.Name)
	}
	return out
}

func lookupParam(module, local string) (Param, bool) {
	for _, p := range catalog[ID(module)] {
		if p.Name == local {
			return p, true
		}
	}
	return Param{}, false
}

// Prepare resolves a module's parameters for one run. Each parameter takes
// the form value when supplied, else the value stored by the previous run,
// else its default. Form keys may be local ("gradient_s") or qualified
// ("mixing.gradient_s"). Values are range-checked here so the form layer gets
// field-level feedback before anything is computed.
func Prepare(id string, form, previous quantity.Values) (quantity.Values, error) {
	ps, ok := catalog[ID(id)]
	if !ok {
		return nil, NewUnknownProcess(id)
	}

	supplied := make(quantity.Values, len(form))
	for key, v := range form {
		local := strings.TrimPrefix(key, id+".")
		if _, ok := lookupParam(id, local); !ok {
			return nil, &InputError{
				Code:     ErrCodeUnknownParam,
				Module:   id,
				Quantity: key,
				Message:  fmt.Sprintf("%s does not take parameter %q (accepts %s)", id, key, strings.Join(localNames(ps), ", ")),
			}
		}
		supplied[local] = v
	}

	out := make(quantity.Values, len(ps))
	for _, p := range ps {
		name := quantity.Qualify(id, p.Name)
		v, ok := supplied[p.Name]
		if !ok {
			v, ok = previous[name]
		}
		if !ok {
			v = quantity.Float(p.Default)
			if p.Integer {
				v = quantity.Int(int64(p.Default))
			}
		}

		f, isNum := quantity.AsFloat(v)
		if !isNum {
			return nil, &InputError{Code: ErrCodeOutOfRange, Module: id, Quantity: name, Allowed: "numeric", Message: "parameter is not numeric"}
		}
		if !p.Limit.Contains(f) {
			return nil, outOfRange(id, name, f, p.Limit)
		}
		if p.Integer {
			if f != float64(int64(f)) {
				return nil, &InputError{Code: ErrCodeOutOfRange, Module: id, Quantity: name, Value: f, Allowed: "whole number", Message: "parameter must be a whole number"}
			}
			v = quantity.Int(int64(f))
		} else {
			v = quantity.Float(f)
		}
		out[name] = v
	}
	return out, nil
}

func localNames(ps []Param) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	sort.Strings(out)
	return out
}
