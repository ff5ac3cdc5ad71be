package testutil

// FixedRunID returns the same run id every time, so a scenario produces
// byte-identical traces across executions.
//
// It satisfies engine.RunIDGenerator and is stateless.
type FixedRunID struct {
	id string
}

// NewFixedRunID returns a generator for id. An empty id becomes
// "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed id.
func (g *FixedRunID) Generate() string {
	return g.id
}
