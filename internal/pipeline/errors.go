package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrRunInFlight is returned when a call is made while another is still loading.
	ErrRunInFlight = errors.New("a request is already in progress")
	// ErrNotPreviewing is returned by Fill outside the previewing state.
	ErrNotPreviewing = errors.New("fill is only available while previewing an analyzed form")
	// ErrNotAwaitingDecision is returned by Proceed and Cancel when no score is shown.
	ErrNotAwaitingDecision = errors.New("no score is awaiting a decision")
	// ErrNothingToReview is returned by Review before a fill has finished.
	ErrNothingToReview = errors.New("no fill result to review")
	// ErrStaleRun is returned when a response arrives for a run that was superseded.
	ErrStaleRun = errors.New("run was superseded; response discarded")
	// ErrNoFillResult is returned by RecordApplication before any fill.
	ErrNoFillResult = errors.New("no fill result to record")
)

// BusinessRejection is a scoring answer that stops the run on purpose.
type BusinessRejection struct {
	Reason  string
	Message string
}

func (e *BusinessRejection) Error() string {
	return fmt.Sprintf("run stopped (%s): %s", e.Reason, e.Message)
}

// PartialOutcome is the failure of a best-effort call. It is logged, never surfaced as a run failure.
type PartialOutcome struct {
	Step  string
	Cause error
}

func (e *PartialOutcome) Error() string {
	return fmt.Sprintf("best-effort step %s failed: %v", e.Step, e.Cause)
}

func (e *PartialOutcome) Unwrap() error {
	return e.Cause
}

// ValidationError is a missing or invalid input detected before any call is made.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// StepError is a failed collaborator call. Message is the text shown to the user.
type StepError struct {
	Step    string
	Message string
	Cause   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
