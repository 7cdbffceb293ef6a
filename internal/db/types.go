package db

import (
	"time"

	"github.com/google/uuid"
)

// Run is one job-application attempt: a URL taken from submission to a terminal state.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	JobURL      string     `json:"job_url"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusBlocked   = "blocked"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// Step name constants for journaled workflow steps
const (
	StepATSScore          = "ats_score"
	StepAnalyzeForm       = "analyze_form"
	StepCheckFillable     = "check_fillable"
	StepFillForm          = "fill_form"
	StepRecordApplication = "record_application"
)

// ValidRunStatus reports whether s is a known run status.
func ValidRunStatus(s string) bool {
	switch s {
	case RunStatusRunning, RunStatusCompleted, RunStatusBlocked, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}
