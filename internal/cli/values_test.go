package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aquaplan/internal/quantity"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{
		"population=42000",
		"design_flow_Ls=100.5",
		"site_road_access=true",
		" label = Riverside ",
		"inflow_Ls=1,2.5,3",
		"code=1",
	})
	require.NoError(t, err)

	assert.Equal(t, quantity.Values{
		"population":       quantity.Int(42000),
		"design_flow_Ls":   quantity.Float(100.5),
		"site_road_access": quantity.Bool(true),
		"label":            quantity.Text("Riverside"),
		"inflow_Ls":        quantity.Series{1, 2.5, 3},
		"code":             quantity.Int(1),
	}, got)
}

func TestParseAssignments_Errors(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		want  string
	}{
		{"no equals", []string{"population"}, "expected name=value"},
		{"empty name", []string{"=3"}, "expected name=value"},
		{"duplicate", []string{"a=1", "a=2"}, "given twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAssignments(tt.pairs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScalar_MixedListIsText(t *testing.T) {
	assert.Equal(t, quantity.Text("a,1"), parseScalar("a,1"))
}

func TestLoadValuesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population: 30000\ndesign_flow_Ls: 100.0\nsite_road_access: true\n"), 0644))

	got, err := loadValuesFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, quantity.Bool(true), got["site_road_access"])
	n, err := got.Float("population")
	require.NoError(t, err)
	assert.Equal(t, 30000.0, n)
}

func TestLoadValuesFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadValuesFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "null.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population:\n"), 0644))
	_, err = loadValuesFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no value")
}
