package pipeline

import (
	"github.com/google/uuid"

	"github.com/jonathan/apply-assistant/internal/pipeline/steps"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	State    State  `json:"state"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called on every state transition. Fillability results
// arrive on a background goroutine, so the callback must be safe for concurrent use.
type ProgressCallback func(event ProgressEvent)

// emitProgress calls the progress callback if configured. It must not be called with o.mu held.
func (o *Orchestrator) emitProgress(snap Snapshot, step, message string, content any) {
	if o.onProgress == nil {
		return
	}
	event := ProgressEvent{
		Step:     step,
		Category: steps.CategoryOf(step),
		State:    snap.State,
		Message:  message,
		Content:  content,
	}
	if snap.RunID != uuid.Nil {
		event.RunID = snap.RunID.String()
	}
	o.onProgress(event)
}
