package viability

import (
	"fmt"
	"sort"

	"github.com/roach88/aquaplan/internal/quantity"
	"github.com/roach88/aquaplan/internal/registry"
)

// ScoreFunc maps project data to a 0..100 sub-score. It returns errMissing
// (see Missing) when the data it needs is absent.
type ScoreFunc func(data quantity.Values) (float64, error)

// Missing is the error a custom ScoreFunc returns when its data is absent.
func Missing() error { return errMissing }

// Criterion is one weighted entry of a viability matrix.
type Criterion struct {
	Name     string
	Group    string
	Weight   float64
	Quantity string // informational; the quantity Score reads
	Score    ScoreFunc
}

// Linear scores name 0 at worst and 100 at best, clamped between. worst may
// be larger than best for quantities where less is better.
func Linear(name string, worst, best float64) ScoreFunc {
	return func(data quantity.Values) (float64, error) {
		v, err := number(data, name)
		if err != nil {
			return 0, err
		}
		s := 100 * (v - worst) / (best - worst)
		return clamp(s), nil
	}
}

// Bands scores name with the score of the highest band whose Min it reaches,
// or 0 below every band.
func Bands(name string, bands []registry.Band) ScoreFunc {
	sorted := append([]registry.Band(nil), bands...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })
	return func(data quantity.Values) (float64, error) {
		v, err := number(data, name)
		if err != nil {
			return 0, err
		}
		score := 0.0
		for _, b := range sorted {
			if v >= b.Min {
				score = b.Score
			}
		}
		return clamp(score), nil
	}
}

// Flag scores a boolean quantity.
func Flag(name string, ifTrue, ifFalse float64) ScoreFunc {
	return func(data quantity.Values) (float64, error) {
		v, ok := data[name]
		if !ok {
			return 0, errMissing
		}
		b, ok := v.(quantity.Bool)
		if !ok {
			return 0, fmt.Errorf("%s is %s, want bool", name, v.Kind())
		}
		if b {
			return clamp(ifTrue), nil
		}
		return clamp(ifFalse), nil
	}
}

// FromSpecs builds criteria from their declarations in the registry model.
func FromSpecs(specs []registry.CriterionSpec) ([]Criterion, error) {
	out := make([]Criterion, 0, len(specs))
	for _, s := range specs {
		c := Criterion{Name: s.Name, Group: s.Group, Weight: s.Weight, Quantity: s.Quantity}
		switch s.Kind {
		case "linear":
			c.Score = Linear(s.Quantity, s.Worst, s.Best)
		case "bands":
			c.Score = Bands(s.Quantity, s.Bands)
		case "flag":
			c.Score = Flag(s.Quantity, s.TrueScore, s.FalseScore)
		default:
			return nil, &Error{Code: ErrCodeInvalidData, Criterion: s.Name, Message: fmt.Sprintf("unknown score kind %q", s.Kind)}
		}
		out = append(out, c)
	}
	return out, nil
}

func number(data quantity.Values, name string) (float64, error) {
	v, ok := data[name]
	if !ok {
		return 0, errMissing
	}
	f, ok := quantity.AsFloat(v)
	if !ok {
		return 0, fmt.Errorf("%s is %s, want number", name, v.Kind())
	}
	return f, nil
}

func clamp(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	default:
		return s
	}
}
