package types

// FillRequest is the body sent to the fill collaborator.
// FormData is omitted in profile mode so the backend uses the stored profile.
type FillRequest struct {
	URL       string            `json:"url"`
	MultiStep bool              `json:"multi_step"`
	FormData  map[string]string `json:"form_data,omitempty"`
}

// FillResult is the fill collaborator's report.
type FillResult struct {
	Success         bool     `json:"success"`
	BrowserOpen     bool     `json:"browser_open"`
	FilledCount     int      `json:"filled_count"`
	TotalFields     *int     `json:"total_fields,omitempty"`
	Message         string   `json:"message"`
	ExecutedActions []string `json:"executed_actions"`
	Errors          []string `json:"errors"`
}

// FillOutcome is the three-way classification of a FillResult.
type FillOutcome string

// FillOutcome values
const (
	FillOutcomeFull    FillOutcome = "full"
	FillOutcomePartial FillOutcome = "partial"
	FillOutcomeFailure FillOutcome = "failure"
)

// Classify maps the result onto full, partial or failure.
func (r *FillResult) Classify() FillOutcome {
	if r == nil {
		return FillOutcomeFailure
	}
	if r.Success {
		return FillOutcomeFull
	}
	if r.BrowserOpen || r.FilledCount > 0 {
		return FillOutcomePartial
	}
	return FillOutcomeFailure
}

// FilledFields returns the counters recorded on an application, or nil when nothing was reported.
func (r *FillResult) FilledFields() *FilledFields {
	if r == nil {
		return nil
	}
	ff := &FilledFields{FilledCount: r.FilledCount}
	if r.TotalFields != nil {
		ff.TotalFields = *r.TotalFields
	}
	return ff
}
