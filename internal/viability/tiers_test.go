package viability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiersClassify(t *testing.T) {
	tiers, err := NewTiers(DefaultBands())
	require.NoError(t, err)

	tests := []struct {
		total float64
		want  string
	}{
		{100, TierViable},
		{80, TierViable},
		{79.99, TierConditional},
		{50, TierConditional},
		{49.99, TierNotViable},
		{0, TierNotViable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tiers.Classify(tt.total), "total %g", tt.total)
	}
}

func TestNewTiersSortsBands(t *testing.T) {
	tiers, err := NewTiers([]Band{{0, "low"}, {90, "high"}, {40, "mid"}})
	require.NoError(t, err)
	assert.Equal(t, []Band{{90, "high"}, {40, "mid"}, {0, "low"}}, tiers.Bands())
	assert.Equal(t, "mid", tiers.Classify(60))
}

func TestNewTiersRejects(t *testing.T) {
	tests := []struct {
		name  string
		bands []Band
	}{
		{"empty", nil},
		{"no floor", []Band{{80, "a"}, {50, "b"}}},
		{"duplicate threshold", []Band{{50, "a"}, {50, "b"}, {0, "c"}}},
		{"unnamed", []Band{{50, ""}, {0, "c"}}},
		{"above 100", []Band{{120, "a"}, {0, "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTiers(tt.bands)
			require.Error(t, err)
			assert.True(t, IsInvalidTiers(err))
		})
	}
}
