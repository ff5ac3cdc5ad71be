package process

import (
	"fmt"
	"sort"

	"github.com/roach88/aquaplan/internal/quantity"
)

// ID names a calculation. Module descriptors use the same strings.
type ID string

const (
	Pretreatment  ID = "pretreatment"
	Mixing        ID = "mixing"
	Flocculation  ID = "flocculation"
	Sedimentation ID = "sedimentation"
	Filtration    ID = "filtration"
	Disinfection  ID = "disinfection"
	Tank          ID = "tank"
	Hydraulics    ID = "hydraulics"
	MassBalance   ID = "massbalance"
)

// Result is what one calculation produces. Outputs are keyed by qualified
// name; Flags are in the order the criteria were checked.
type Result struct {
	Outputs quantity.Values
	Flags   []quantity.Flag
}

// Known reports whether a calculation exists for id.
func Known(id string) bool {
	_, ok := catalog[ID(id)]
	return ok
}

// IDs returns every calculation id, sorted.
func IDs() []string {
	out := make([]string, 0, len(catalog))
	for id := range catalog {
		out = append(out, string(id))
	}
	sort.Strings(out)
	return out
}

// Compute runs the calculation for id. It is pure: the same inputs always
// produce the same Result, and in is never modified. in must carry the
// module's inputs plus its prepared parameters (see Prepare).
func Compute(id string, in quantity.Values) (Result, error) {
	r := newReader(id, in)
	var res Result
	switch ID(id) {
	case Pretreatment:
		res = pretreatment(r)
	case Mixing:
		res = mixing(r)
	case Flocculation:
		res = flocculation(r)
	case Sedimentation:
		res = sedimentation(r)
	case Filtration:
		res = filtration(r)
	case Disinfection:
		res = disinfection(r)
	case Tank:
		res = tank(r)
	case Hydraulics:
		res = hydraulics(r)
	case MassBalance:
		res = massBalance(r)
	default:
		return Result{}, NewUnknownProcess(id)
	}
	if r.err != nil {
		return Result{}, r.err
	}
	if err := finite(id, res.Outputs); err != nil {
		return Result{}, err
	}
	return res, nil
}

// NewUnknownProcess reports an id with no calculation.
func NewUnknownProcess(id string) *InputError {
	return &InputError{
		Code:    ErrCodeUnknownProcess,
		Module:  id,
		Message: fmt.Sprintf("no calculation registered for %q", id),
	}
}

// finite rejects results that degenerated to NaN or Inf. Limits on the
// inputs should make this unreachable.
func finite(id string, out quantity.Values) error {
	for _, name := range out.SortedNames() {
		if _, _, err := quantity.EncodeValue(out[name]); err != nil {
			return &InputError{Code: ErrCodeOutOfRange, Module: id, Quantity: name, Allowed: "finite", Message: err.Error()}
		}
	}
	return nil
}

// stage is the common mass-balance record every treatment train member emits.
type stage struct {
	inflow   float64 // L/s
	waste    float64 // fraction of inflow leaving as waste
	removal  float64 // fraction of influent turbidity removed
	influent float64 // NTU
}

func (s stage) outflow() float64  { return s.inflow * (1 - s.waste) }
func (s stage) effluent() float64 { return s.influent * (1 - s.removal) }

// emit writes the stage quantities and returns the mapping for the
// module-specific outputs to be added to.
func (s stage) emit(id ID) quantity.Values {
	m := string(id)
	return quantity.Values{
		quantity.Qualify(m, "inflow_Ls"):              quantity.Float(s.inflow),
		quantity.Qualify(m, "outflow_Ls"):             quantity.Float(s.outflow()),
		quantity.Qualify(m, "waste_fraction"):         quantity.Float(s.waste),
		quantity.Qualify(m, "removal_efficiency"):     quantity.Float(s.removal),
		quantity.Qualify(m, "effluent_turbidity_NTU"): quantity.Float(s.effluent()),
	}
}

func put(out quantity.Values, id ID, local string, v float64) {
	out[quantity.Qualify(string(id), local)] = quantity.Float(v)
}
