package registry

// Descriptor is the static description of one design module.
type Descriptor struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// Stage marks modules that are part of the treatment train walked by the
	// balance validator.
	Stage bool `json:"stage"`

	// Inputs are the required quantity names, in declaration order.
	Inputs []string `json:"inputs"`

	// Outputs are the quantity names this module produces. No other module
	// may declare them.
	Outputs []string `json:"outputs"`

	// Depends lists upstream module ids (the dependency edges).
	Depends []string `json:"depends"`

	// MustPass lists qualified upstream criteria ("sedimentation.overflow_rate")
	// whose failure blocks this module.
	MustPass []string `json:"must_pass,omitempty"`
}

// CriterionSpec declares one viability criterion. Kind selects the score
// function: "linear" maps Quantity between Worst and Best onto 0..100,
// "bands" picks the score of the highest band whose Min the value reaches,
// "flag" scores a boolean quantity TrueScore or FalseScore.
type CriterionSpec struct {
	Name       string  `json:"name"`
	Group      string  `json:"group"`
	Weight     float64 `json:"weight"`
	Kind       string  `json:"kind"`
	Quantity   string  `json:"quantity"`
	Worst      float64 `json:"worst,omitempty"`
	Best       float64 `json:"best,omitempty"`
	Bands      []Band  `json:"bands,omitempty"`
	TrueScore  float64 `json:"true_score,omitempty"`
	FalseScore float64 `json:"false_score,omitempty"`
}

// Band is one step of a "bands" criterion.
type Band struct {
	Min   float64 `json:"min"`
	Score float64 `json:"score"`
}

// Model is everything declared in a registry file: the module graph and the
// viability criteria.
type Model struct {
	Registry *Registry
	Criteria []CriterionSpec
}
