package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/aquaplan/internal/quantity"
)

// CreateProject stores a new project with a UUIDv7 id.
func (s *Store) CreateProject(ctx context.Context, name string, base quantity.Values) (Project, error) {
	p := Project{ID: uuid.Must(uuid.NewV7()).String(), Name: name, Base: base.Clone()}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM projects`).Scan(&p.Seq); err != nil {
			return fmt.Errorf("next project seq: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO projects (id, name, seq) VALUES (?, ?, ?)`, p.ID, p.Name, p.Seq); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		return writeQuantities(ctx, tx, p.ID, quantity.ProducerProject, p.Base)
	})
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// LoadProjectBase returns the project and its base inputs.
func (s *Store) LoadProjectBase(ctx context.Context, projectID string) (Project, error) {
	p := Project{ID: projectID}
	err := s.db.QueryRowContext(ctx, `SELECT name, seq FROM projects WHERE id = ?`, projectID).Scan(&p.Name, &p.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, &NotFoundError{ProjectID: projectID}
	}
	if err != nil {
		return Project{}, fmt.Errorf("load project: %w", err)
	}

	base, err := s.readQuantities(ctx, projectID, `producer = ?`, quantity.ProducerProject)
	if err != nil {
		return Project{}, err
	}
	p.Base = quantity.Values{}
	for _, e := range base {
		p.Base[e.name] = e.value
	}
	return p, nil
}

// UpdateBase overwrites base inputs and records the stale states the edit
// caused, in one transaction. Names absent from values are kept.
func (s *Store) UpdateBase(ctx context.Context, projectID string, values quantity.Values, stale []quantity.ModuleState) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := projectExists(ctx, tx, projectID); err != nil {
			return err
		}
		if err := writeQuantities(ctx, tx, projectID, quantity.ProducerProject, values); err != nil {
			return err
		}
		for _, st := range stale {
			if err := writeState(ctx, tx, projectID, st); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListProjects returns every project in creation order, without base inputs.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, seq FROM projects
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Seq); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// DeleteProject removes a project and, by cascade, all of its rows.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n == 0 {
		return &NotFoundError{ProjectID: projectID}
	}
	return nil
}

func projectExists(ctx context.Context, tx *sql.Tx, projectID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, projectID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{ProjectID: projectID}
	}
	if err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	return nil
}
