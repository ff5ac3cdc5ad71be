// Package viability scores a project's site and technology feasibility with
// a weighted multi-criteria matrix.
//
// A Matrix is validated once, when built: weights must each lie in (0, 1] and
// sum to 1 within a tolerance. Scoring is a read-only pass over a snapshot of
// project data and is recomputed wholesale on every call.
package viability

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	"github.com/roach88/aquaplan/internal/quantity"
)

// DefaultTolerance bounds |Σweights - 1|.
const DefaultTolerance = 1e-6

// Matrix is a validated set of weighted criteria plus the tier thresholds.
type Matrix struct {
	criteria []Criterion
	weights  []float64
	tiers    Tiers
}

// Option configures New.
type Option func(*options)

type options struct {
	tolerance float64
	tiers     *Tiers
}

// WithTolerance overrides DefaultTolerance.
func WithTolerance(tol float64) Option {
	return func(o *options) { o.tolerance = tol }
}

// WithTiers overrides DefaultBands.
func WithTiers(t Tiers) Option {
	return func(o *options) { o.tiers = &t }
}

// New validates criteria and builds a Matrix. It fails with InvalidWeights
// when a weight is outside (0, 1] or the weights do not sum to 1.
func New(criteria []Criterion, opts ...Option) (*Matrix, error) {
	o := options{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}
	if len(criteria) == 0 {
		return nil, &Error{Code: ErrCodeInvalidWeights, Message: "matrix has no criteria"}
	}

	seen := make(map[string]bool, len(criteria))
	sum := decimal.Zero
	weights := make([]float64, len(criteria))
	for i, c := range criteria {
		if c.Name == "" || seen[c.Name] {
			return nil, &Error{Code: ErrCodeInvalidWeights, Criterion: c.Name, Message: "criterion names must be unique and non-empty"}
		}
		seen[c.Name] = true
		if c.Score == nil {
			return nil, &Error{Code: ErrCodeInvalidWeights, Criterion: c.Name, Message: "no score function"}
		}
		if !(c.Weight > 0 && c.Weight <= 1) {
			return nil, &Error{Code: ErrCodeInvalidWeights, Criterion: c.Name, Message: fmt.Sprintf("weight %g outside (0, 1]", c.Weight)}
		}
		weights[i] = c.Weight
		sum = sum.Add(decimal.NewFromFloat(c.Weight))
	}
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(decimal.NewFromFloat(o.tolerance)) {
		return nil, &Error{Code: ErrCodeInvalidWeights, Message: fmt.Sprintf("weights sum to %s, want 1", sum.String())}
	}

	tiers := o.tiers
	if tiers == nil {
		t, err := NewTiers(DefaultBands())
		if err != nil {
			return nil, err
		}
		tiers = &t
	}
	return &Matrix{
		criteria: append([]Criterion(nil), criteria...),
		weights:  weights,
		tiers:    *tiers,
	}, nil
}

// Criteria returns the matrix entries in declaration order.
func (m *Matrix) Criteria() []Criterion {
	return append([]Criterion(nil), m.criteria...)
}

// CriterionScore is one row of the breakdown.
type CriterionScore struct {
	Name     string  `json:"name"`
	Group    string  `json:"group"`
	Quantity string  `json:"quantity,omitempty"`
	Weight   float64 `json:"weight"`
	Score    float64 `json:"score"`
	Weighted float64 `json:"weighted"`
	Missing  bool    `json:"missing,omitempty"`
}

// GroupScore sums the weighted scores of one criterion group.
type GroupScore struct {
	Group    string  `json:"group"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Result is an immutable scoring outcome.
type Result struct {
	Criteria []CriterionScore `json:"criteria"`
	Groups   []GroupScore     `json:"groups"`
	Total    float64          `json:"total"`
	Tier     string           `json:"tier"`
	Missing  []string         `json:"missing,omitempty"`
}

// Score evaluates every criterion against data. Criteria whose data is
// absent score 0 and are listed in Result.Missing; a quantity of the wrong
// kind is an error.
func (m *Matrix) Score(data quantity.Values) (Result, error) {
	scores := make([]float64, len(m.criteria))
	res := Result{Criteria: make([]CriterionScore, len(m.criteria))}

	for i, c := range m.criteria {
		s, err := c.Score(data)
		missing := false
		switch {
		case errors.Is(err, errMissing):
			s, missing = 0, true
			res.Missing = append(res.Missing, c.Name)
		case err != nil:
			return Result{}, &Error{Code: ErrCodeInvalidData, Criterion: c.Name, Message: err.Error()}
		case s < 0 || s > 100:
			return Result{}, &Error{Code: ErrCodeInvalidData, Criterion: c.Name, Message: fmt.Sprintf("sub-score %g outside [0, 100]", s)}
		}
		scores[i] = s
		res.Criteria[i] = CriterionScore{
			Name:     c.Name,
			Group:    c.Group,
			Quantity: c.Quantity,
			Weight:   c.Weight,
			Score:    round(s),
			Weighted: round(c.Weight * s),
			Missing:  missing,
		}
	}

	res.Total = round(floats.Dot(m.weights, scores))
	res.Tier = m.tiers.Classify(res.Total)
	res.Groups = groupTotals(m.criteria, scores)
	return res, nil
}

func groupTotals(criteria []Criterion, scores []float64) []GroupScore {
	var out []GroupScore
	index := make(map[string]int)
	for i, c := range criteria {
		j, ok := index[c.Group]
		if !ok {
			j = len(out)
			index[c.Group] = j
			out = append(out, GroupScore{Group: c.Group})
		}
		out[j].Weight += c.Weight
		out[j].Weighted += c.Weight * scores[i]
	}
	for i := range out {
		out[i].Weight = round(out[i].Weight)
		out[i].Weighted = round(out[i].Weighted)
	}
	return out
}

// round keeps two decimals so totals print and compare stably.
func round(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
