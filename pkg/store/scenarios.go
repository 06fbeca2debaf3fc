package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/faultline-io/faultline/pkg/scenario"
)

// ErrNotFound is returned when a scenario id does not exist.
var ErrNotFound = errors.New("scenario not found")

// SaveScenario inserts or updates a scenario. UpdatedAt is bumped on every
// write; CreatedAt of an existing row is preserved.
func (s *Store) SaveScenario(ctx context.Context, sc *scenario.Scenario) error {
	if err := scenario.Validate(sc); err != nil {
		return err
	}

	steps, err := json.Marshal(sc.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	now := time.Now().UTC()
	sc.UpdatedAt = now
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = now
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scenarios (id, name, description, total_duration, steps, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			total_duration = excluded.total_duration,
			steps = excluded.steps,
			updated_at = excluded.updated_at`,
		sc.ID, sc.Name, sc.Description, sc.TotalDuration, string(steps), sc.CreatedAt, sc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save scenario: %w", err)
	}
	return nil
}

// GetScenario loads one scenario by id.
func (s *Store) GetScenario(ctx context.Context, id string) (*scenario.Scenario, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, total_duration, steps, created_at, updated_at
		FROM scenarios WHERE id = ?`, id)
	return scanScenario(row)
}

// ListScenarios returns all scenarios ordered by creation time, newest
// first.
func (s *Store) ListScenarios(ctx context.Context) ([]*scenario.Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, total_duration, steps, created_at, updated_at
		FROM scenarios ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var out []*scenario.Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// DeleteScenario removes a scenario by id.
func (s *Store) DeleteScenario(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(row rowScanner) (*scenario.Scenario, error) {
	var (
		sc          scenario.Scenario
		description sql.NullString
		steps       string
	)
	err := row.Scan(&sc.ID, &sc.Name, &description, &sc.TotalDuration, &steps, &sc.CreatedAt, &sc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenario: %w", err)
	}
	sc.Description = description.String
	if err := json.Unmarshal([]byte(steps), &sc.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}
	return &sc, nil
}
