package pipeline

import (
	"github.com/google/uuid"

	"github.com/jonathan/apply-assistant/internal/forms"
	"github.com/jonathan/apply-assistant/internal/types"
)

// State is a node of the workflow state machine.
type State string

// Workflow states
const (
	StateIdle              State = "idle"
	StateScoringInFlight   State = "scoring_in_flight"
	StateScoreBlocked      State = "score_blocked"
	StateScoreShown        State = "score_shown"
	StateAutoAnalyzing     State = "auto_analyzing"
	StateAnalyzingInFlight State = "analyzing_in_flight"
	StatePreviewing        State = "previewing"
	StateFillingInFlight   State = "filling_in_flight"
	StateFilled            State = "filled"
	StatePartiallyFilled   State = "partially_filled"
	StateFailed            State = "failed"
)

// FillDone reports whether s is one of the states reached after a fill.
func (s State) FillDone() bool {
	return s == StateFilled || s == StatePartiallyFilled || s == StateFailed
}

// InFlight reports whether a collaborator call is outstanding in s.
func (s State) InFlight() bool {
	switch s {
	case StateScoringInFlight, StateAutoAnalyzing, StateAnalyzingInFlight, StateFillingInFlight:
		return true
	}
	return false
}

func stateForOutcome(o types.FillOutcome) State {
	switch o {
	case types.FillOutcomeFull:
		return StateFilled
	case types.FillOutcomePartial:
		return StatePartiallyFilled
	default:
		return StateFailed
	}
}

// Snapshot is a point-in-time copy of the workflow state of one session.
type Snapshot struct {
	State      State
	RunID      uuid.UUID
	Generation uint64
	URL        string
	Loading    bool

	Score *types.AtsScore

	Structure    types.FormStructure
	HasStructure bool

	Fillability        Optional[types.FillabilityAssessment]
	FillabilityPending bool

	Result      *types.FillResult
	Outcome     types.FillOutcome
	Application *types.Application

	// Message is the last user-facing status or error text.
	Message string
}

// clone returns a copy that shares no mutable data with s.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Structure = forms.Normalize(s.Structure)
	if s.Score != nil {
		score := *s.Score
		out.Score = &score
	}
	if s.Result != nil {
		result := *s.Result
		out.Result = &result
	}
	if s.Application != nil {
		app := *s.Application
		out.Application = &app
	}
	return out
}
