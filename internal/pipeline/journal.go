package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/apply-assistant/internal/db"
	"github.com/jonathan/apply-assistant/internal/pipeline/steps"
)

// Journal records runs and their steps. *db.DB implements it.
type Journal interface {
	CreateRun(ctx context.Context, runID uuid.UUID, jobURL string) error
	RecordStep(ctx context.Context, runID uuid.UUID, input *db.RunStepInput) (*db.RunStep, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
}

// Journal writes outlive the caller's cancellation and their failures are warnings only.

func (o *Orchestrator) journalRun(ctx context.Context, runID uuid.UUID, jobURL string) {
	if o.journal == nil {
		return
	}
	if err := o.journal.CreateRun(context.WithoutCancel(ctx), runID, jobURL); err != nil {
		o.log.Warnw("failed to journal run", "run_id", runID, "error", err)
	}
}

func (o *Orchestrator) journalStep(ctx context.Context, runID uuid.UUID, step, status, errMsg string, params map[string]any) {
	if o.journal == nil {
		return
	}
	input := &db.RunStepInput{
		Step:         step,
		Category:     steps.CategoryOf(step),
		Status:       status,
		Parameters:   params,
		ErrorMessage: errMsg,
	}
	if _, err := o.journal.RecordStep(context.WithoutCancel(ctx), runID, input); err != nil {
		o.log.Warnw("failed to journal step", "run_id", runID, "step", step, "error", err)
	}
}

func (o *Orchestrator) journalComplete(ctx context.Context, runID uuid.UUID, status string) {
	if o.journal == nil || runID == uuid.Nil {
		return
	}
	if err := o.journal.CompleteRun(context.WithoutCancel(ctx), runID, status); err != nil {
		o.log.Warnw("failed to complete journaled run", "run_id", runID, "status", status, "error", err)
	}
}
