package db

import (
	"time"

	"github.com/google/uuid"
)

// StepStatus constants
const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
	StepStatusSkipped    = "skipped"
	StepStatusBlocked    = "blocked"
)

// StepCategory constants
const (
	StepCategoryScoring    = "scoring"
	StepCategoryAnalysis   = "analysis"
	StepCategoryAutomation = "automation"
	StepCategoryLedger     = "ledger"
)

// RunStep is the journal entry for one step of a run.
type RunStep struct {
	ID           uuid.UUID      `json:"id"`
	RunID        uuid.UUID      `json:"run_id"`
	Step         string         `json:"step"`
	Category     string         `json:"category"`
	Status       string         `json:"status"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	DurationMs   *int           `json:"duration_ms,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// RunStepInput is the data recorded for a step transition.
type RunStepInput struct {
	Step         string
	Category     string
	Status       string
	Parameters   map[string]any
	ErrorMessage string
}

// terminal reports whether status ends a step.
func terminal(status string) bool {
	switch status {
	case StepStatusCompleted, StepStatusFailed, StepStatusSkipped, StepStatusBlocked:
		return true
	}
	return false
}
