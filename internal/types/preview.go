package types

import "encoding/json"

// PreviewRequest asks the backend what a fill would do without touching the page.
// FormData is always sent; the backend matches its keys to field labels loosely.
type PreviewRequest struct {
	URL      string            `json:"url"`
	FormData map[string]string `json:"form_data"`
}

// PlannedAction is one input the fill would perform.
type PlannedAction struct {
	Action   string `json:"action"`
	Field    string `json:"field"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	Required bool   `json:"required"`
}

// PreviewValidation is the backend's check of the values against the form.
type PreviewValidation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// FillPreview lists the planned actions with validation errors and warnings.
type FillPreview struct {
	URL          string            `json:"url"`
	TotalFields  int               `json:"total_fields"`
	FieldsToFill int               `json:"fields_to_fill"`
	Actions      []PlannedAction   `json:"actions"`
	Validation   PreviewValidation `json:"validation"`
	Warnings     []string          `json:"warnings"`
}

// DryRunResult is a preview made against a freshly detected form.
// Failures are reported in the body with Success false.
type DryRunResult struct {
	Success       bool            `json:"success"`
	DryRun        bool            `json:"dry_run"`
	FormStructure json.RawMessage `json:"form_structure,omitempty"`
	Preview       *FillPreview    `json:"preview,omitempty"`
	Message       string          `json:"message,omitempty"`
	Error         string          `json:"error,omitempty"`
}
