package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/aquaplan/internal/quantity"
)

type storedQuantity struct {
	name     string
	producer string
	value    quantity.Value
}

// LoadQuantities rebuilds a project's store: base inputs, module quantities,
// flags and module states.
func (s *Store) LoadQuantities(ctx context.Context, projectID string) (*quantity.Store, error) {
	if _, err := s.LoadProjectBase(ctx, projectID); err != nil {
		return nil, err
	}

	qs := quantity.NewStore()
	entries, err := s.readQuantities(ctx, projectID, `1 = 1`)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		qs.Restore(e.name, e.value, e.producer)
	}

	flags, err := s.readFlags(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for module, fs := range flags {
		qs.SetFlags(module, fs)
	}

	states, err := s.readStates(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, st := range states {
		qs.SetState(st)
	}
	return qs, nil
}

// SaveModuleResult replaces everything r.Module owns and records the stale
// states it caused, atomically.
func (s *Store) SaveModuleResult(ctx context.Context, projectID string, r ModuleResult) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := projectExists(ctx, tx, projectID); err != nil {
			return err
		}
		if err := r.check(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM quantities WHERE project_id = ? AND producer = ?`, projectID, r.Module); err != nil {
			return fmt.Errorf("clear quantities: %w", err)
		}
		if err := writeQuantities(ctx, tx, projectID, r.Module, r.Values); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM flags WHERE project_id = ? AND module = ?`, projectID, r.Module); err != nil {
			return fmt.Errorf("clear flags: %w", err)
		}
		for i, f := range r.Flags {
			lo, hi := rangeColumns(f.Range)
			_, err := tx.ExecContext(ctx, `
				INSERT INTO flags (project_id, module, ordinal, criterion, value, range_min, range_max, unit, pass)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, projectID, f.Module, i, f.Criterion, f.Value, lo, hi, f.Unit, boolToInt(f.Pass))
			if err != nil {
				return fmt.Errorf("insert flag %s: %w", f.Qualified(), err)
			}
		}

		for _, st := range append([]quantity.ModuleState{r.State}, r.Stale...) {
			if err := writeState(ctx, tx, projectID, st); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s result: %w", r.Module, err)
	}
	return nil
}

func writeState(ctx context.Context, tx *sql.Tx, projectID string, st quantity.ModuleState) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO module_state (project_id, module, status, output_hash, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, module) DO UPDATE SET
			status = excluded.status,
			output_hash = excluded.output_hash,
			seq = excluded.seq
	`, projectID, st.Module, string(st.Status), st.OutputHash, st.Seq)
	if err != nil {
		return fmt.Errorf("write state %s: %w", st.Module, err)
	}
	return nil
}

func writeQuantities(ctx context.Context, tx *sql.Tx, projectID, producer string, values quantity.Values) error {
	for _, name := range values.SortedNames() {
		kind, raw, err := marshalValue(name, values[name])
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO quantities (project_id, name, producer, kind, value)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(project_id, name) DO UPDATE SET
				producer = excluded.producer,
				kind = excluded.kind,
				value = excluded.value
		`, projectID, name, producer, kind, raw)
		if err != nil {
			return fmt.Errorf("write quantity %s: %w", name, err)
		}
	}
	return nil
}

// readQuantities returns quantities matching where, ordered by name.
func (s *Store) readQuantities(ctx context.Context, projectID, where string, args ...any) ([]storedQuantity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, producer, kind, value FROM quantities
		WHERE project_id = ? AND `+where+`
		ORDER BY name COLLATE BINARY ASC
	`, append([]any{projectID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query quantities: %w", err)
	}
	defer rows.Close()

	var out []storedQuantity
	for rows.Next() {
		var e storedQuantity
		var kind, raw string
		if err := rows.Scan(&e.name, &e.producer, &kind, &raw); err != nil {
			return nil, fmt.Errorf("scan quantity: %w", err)
		}
		if e.value, err = unmarshalValue(e.name, kind, raw); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quantities: %w", err)
	}
	return out, nil
}

func (s *Store) readFlags(ctx context.Context, projectID string) (map[string][]quantity.Flag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module, criterion, value, range_min, range_max, unit, pass FROM flags
		WHERE project_id = ?
		ORDER BY module COLLATE BINARY ASC, ordinal ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query flags: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]quantity.Flag)
	for rows.Next() {
		var f quantity.Flag
		var lo, hi sql.NullFloat64
		var pass int
		if err := rows.Scan(&f.Module, &f.Criterion, &f.Value, &lo, &hi, &f.Unit, &pass); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		f.Range = rangeFromColumns(lo, hi)
		f.Pass = pass == 1
		out[f.Module] = append(out[f.Module], f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flags: %w", err)
	}
	return out, nil
}

func (s *Store) readStates(ctx context.Context, projectID string) ([]quantity.ModuleState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module, status, output_hash, seq FROM module_state
		WHERE project_id = ?
		ORDER BY seq ASC, module COLLATE BINARY ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query module state: %w", err)
	}
	defer rows.Close()

	var out []quantity.ModuleState
	for rows.Next() {
		var st quantity.ModuleState
		var status string
		if err := rows.Scan(&st.Module, &status, &st.OutputHash, &st.Seq); err != nil {
			return nil, fmt.Errorf("scan module state: %w", err)
		}
		st.Status = quantity.Status(status)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate module state: %w", err)
	}
	return out, nil
}
