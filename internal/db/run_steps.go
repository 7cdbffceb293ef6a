package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runStepColumns = `id, run_id, step, category, status, started_at, completed_at,
		duration_ms, error_message, parameters, created_at, updated_at`

func scanRunStep(row pgx.Row) (*RunStep, error) {
	var step RunStep
	var parametersJSON []byte
	if err := row.Scan(&step.ID, &step.RunID, &step.Step, &step.Category, &step.Status,
		&step.StartedAt, &step.CompletedAt, &step.DurationMs, &step.ErrorMessage,
		&parametersJSON, &step.CreatedAt, &step.UpdatedAt); err != nil {
		return nil, err
	}
	if parametersJSON != nil {
		_ = json.Unmarshal(parametersJSON, &step.Parameters)
	}
	return &step, nil
}

// RecordStep upserts the journal entry for input.Step. The first in_progress
// transition stamps started_at; a terminal status stamps completed_at and the duration.
func (db *DB) RecordStep(ctx context.Context, runID uuid.UUID, input *RunStepInput) (*RunStep, error) {
	if input == nil || input.Step == "" {
		return nil, fmt.Errorf("step name is required")
	}

	var parametersJSON []byte
	if input.Parameters != nil {
		var err error
		parametersJSON, err = json.Marshal(input.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal parameters: %w", err)
		}
	}
	var errorMsg *string
	if input.ErrorMessage != "" {
		errorMsg = &input.ErrorMessage
	}
	done := terminal(input.Status)

	step, err := scanRunStep(db.pool.QueryRow(ctx,
		`INSERT INTO run_steps (run_id, step, category, status, parameters, error_message, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6,
		         CASE WHEN $4 = 'pending' THEN NULL ELSE NOW() END,
		         CASE WHEN $7 THEN NOW() ELSE NULL END)
		 ON CONFLICT (run_id, step) DO UPDATE SET
		     category = EXCLUDED.category,
		     status = EXCLUDED.status,
		     parameters = COALESCE(EXCLUDED.parameters, run_steps.parameters),
		     error_message = EXCLUDED.error_message,
		     started_at = COALESCE(run_steps.started_at, EXCLUDED.started_at),
		     completed_at = EXCLUDED.completed_at,
		     duration_ms = CASE WHEN $7 AND run_steps.started_at IS NOT NULL
		         THEN (EXTRACT(EPOCH FROM (NOW() - run_steps.started_at)) * 1000)::int
		         ELSE NULL END,
		     updated_at = NOW()
		 RETURNING `+runStepColumns,
		runID, input.Step, input.Category, input.Status, parametersJSON, errorMsg, done,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to record step %s: %w", input.Step, err)
	}
	return step, nil
}

// GetRunStep retrieves a run step by run_id and step name
func (db *DB) GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*RunStep, error) {
	step, err := scanRunStep(db.pool.QueryRow(ctx,
		`SELECT `+runStepColumns+` FROM run_steps WHERE run_id = $1 AND step = $2`,
		runID, stepName,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run step: %w", err)
	}
	return step, nil
}

// ListRunSteps retrieves all steps for a run, optionally filtered by status or category
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID, status, category *string) ([]RunStep, error) {
	query := `SELECT ` + runStepColumns + ` FROM run_steps WHERE run_id = $1`
	args := []any{runID}
	argPos := 2

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *status)
		argPos++
	}

	if category != nil {
		query += fmt.Sprintf(" AND category = $%d", argPos)
		args = append(args, *category)
	}

	query += " ORDER BY created_at"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	steps := []RunStep{}
	for rows.Next() {
		step, err := scanRunStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}
