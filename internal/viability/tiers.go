package viability

import (
	"fmt"
	"sort"
)

// Default tier names.
const (
	TierViable      = "Viable"
	TierConditional = "Viable with conditions"
	TierNotViable   = "Not viable"
)

// Band assigns Tier to totals at or above Min.
type Band struct {
	Min  float64 `yaml:"min" json:"min"`
	Tier string  `yaml:"tier" json:"tier"`
}

// Tiers maps a weighted total to a feasibility tier. Build with NewTiers.
type Tiers struct {
	bands []Band // descending Min
}

// DefaultBands are the thresholds used when configuration supplies none.
func DefaultBands() []Band {
	return []Band{
		{Min: 80, Tier: TierViable},
		{Min: 50, Tier: TierConditional},
		{Min: 0, Tier: TierNotViable},
	}
}

// NewTiers validates bands: at least one, named, distinct thresholds within
// 0..100, and a band at 0 so that every total has a tier.
func NewTiers(bands []Band) (Tiers, error) {
	if len(bands) == 0 {
		return Tiers{}, &Error{Code: ErrCodeInvalidTiers, Message: "no tier bands"}
	}
	sorted := append([]Band(nil), bands...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })

	for i, b := range sorted {
		if b.Tier == "" {
			return Tiers{}, &Error{Code: ErrCodeInvalidTiers, Message: fmt.Sprintf("band at %g has no tier name", b.Min)}
		}
		if b.Min < 0 || b.Min > 100 {
			return Tiers{}, &Error{Code: ErrCodeInvalidTiers, Message: fmt.Sprintf("band %q threshold %g outside [0, 100]", b.Tier, b.Min)}
		}
		if i > 0 && sorted[i-1].Min == b.Min {
			return Tiers{}, &Error{Code: ErrCodeInvalidTiers, Message: fmt.Sprintf("bands %q and %q share threshold %g", sorted[i-1].Tier, b.Tier, b.Min)}
		}
	}
	if sorted[len(sorted)-1].Min != 0 {
		return Tiers{}, &Error{Code: ErrCodeInvalidTiers, Message: "lowest band must start at 0"}
	}
	return Tiers{bands: sorted}, nil
}

// Classify returns the tier for total.
func (t Tiers) Classify(total float64) string {
	for _, b := range t.bands {
		if total >= b.Min {
			return b.Tier
		}
	}
	if len(t.bands) == 0 {
		return ""
	}
	return t.bands[len(t.bands)-1].Tier
}

// Bands returns the thresholds, highest first.
func (t Tiers) Bands() []Band {
	return append([]Band(nil), t.bands...)
}
