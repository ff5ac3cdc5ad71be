package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/aquaplan/internal/quantity"
)

// createTestStore opens a fresh SQLite store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backend is the contract both implementations satisfy.
type backend interface {
	CreateProject(ctx context.Context, name string, base quantity.Values) (Project, error)
	LoadProjectBase(ctx context.Context, projectID string) (Project, error)
	UpdateBase(ctx context.Context, projectID string, values quantity.Values, stale []quantity.ModuleState) error
	ListProjects(ctx context.Context) ([]Project, error)
	DeleteProject(ctx context.Context, projectID string) error
	LoadQuantities(ctx context.Context, projectID string) (*quantity.Store, error)
	SaveModuleResult(ctx context.Context, projectID string, r ModuleResult) error
}

var (
	_ backend = (*Store)(nil)
	_ backend = (*Memory)(nil)
)

func forEachBackend(t *testing.T, fn func(t *testing.T, b backend)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, createTestStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
}

func testBase() quantity.Values {
	return quantity.Values{
		"design_flow_Ls":    quantity.Float(100),
		"population":        quantity.Int(30000),
		"site_road_access":  quantity.Bool(true),
		"raw_turbidity_NTU": quantity.Float(50),
	}
}
