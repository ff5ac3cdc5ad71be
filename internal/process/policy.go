package process

import (
	"fmt"

	"github.com/roach88/aquaplan/internal/quantity"
)

// Level says what a failed flag does.
type Level string

const (
	// Advisory flags are recorded and shown; the run is accepted.
	Advisory Level = "advisory"
	// Reject turns a failed flag into a CriterionRejected error; nothing is stored.
	Reject Level = "reject"
)

// ParseLevel validates a configured level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case Advisory, Reject:
		return Level(s), nil
	default:
		return "", fmt.Errorf("unknown policy level %q (want %q or %q)", s, Advisory, Reject)
	}
}

// Policy maps qualified criteria ("filtration.rate") to levels. Criteria not
// listed use Default; an empty Default means Advisory.
type Policy struct {
	Default  Level
	Criteria map[string]Level
}

// LevelFor returns the level applying to a qualified criterion.
func (p Policy) LevelFor(qualified string) Level {
	if l, ok := p.Criteria[qualified]; ok {
		return l
	}
	if p.Default == "" {
		return Advisory
	}
	return p.Default
}

// Enforce returns a CriterionRejected error for the first failed flag whose
// level is Reject, in flag order.
func (p Policy) Enforce(flags []quantity.Flag) error {
	for _, f := range flags {
		if f.Pass || p.LevelFor(f.Qualified()) != Reject {
			continue
		}
		return &InputError{
			Code:     ErrCodeCriterionRejected,
			Module:   f.Module,
			Quantity: f.Qualified(),
			Value:    f.Value,
			Allowed:  f.Range.String(),
			Message:  "design criterion configured as rejecting",
		}
	}
	return nil
}
