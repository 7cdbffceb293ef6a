package types

// FieldKind is the input type the backend detected for a form field.
type FieldKind string

// Known field kinds. Other values may appear on the wire.
const (
	FieldKindText     FieldKind = "text"
	FieldKindEmail    FieldKind = "email"
	FieldKindTel      FieldKind = "tel"
	FieldKindTextarea FieldKind = "textarea"
	FieldKindSelect   FieldKind = "select"
	FieldKindFile     FieldKind = "file"
	FieldKindCheckbox FieldKind = "checkbox"
)

// FormStructure is the canonical form description: ordered fields and automation actions.
type FormStructure struct {
	Fields  []Field  `json:"fields"`
	Actions []Action `json:"actions"`
}

// Field is a single detected input. Label is the join key used by custom fill data.
type Field struct {
	Label    string    `json:"label"`
	Kind     FieldKind `json:"type"`
	Required bool      `json:"required"`
	Value    string    `json:"value,omitempty"`
	Options  []string  `json:"options,omitempty"`
}

// Action is an automation step proposed by the analysis collaborator.
type Action struct {
	Type   string `json:"type"`
	Target string `json:"target"`
	Value  string `json:"value,omitempty"`
}

// RequiredCount returns the number of required fields.
func (f FormStructure) RequiredCount() int {
	n := 0
	for _, field := range f.Fields {
		if field.Required {
			n++
		}
	}
	return n
}

// Confidence of a fillability assessment.
type Confidence string

// Confidence values
const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// FillabilityAssessment is a heuristic judgment of whether the page can be filled programmatically.
type FillabilityAssessment struct {
	Fillable   bool       `json:"fillable"`
	Confidence Confidence `json:"confidence"`
	Message    string     `json:"message"`
}

// Positive reports a fillable page with high confidence.
func (a FillabilityAssessment) Positive() bool {
	return a.Fillable && a.Confidence == ConfidenceHigh
}
