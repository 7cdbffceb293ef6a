package types

import (
	"github.com/go-playground/validator/v10"
)

// ApplicationStatus is the user-settable tracking status of an application.
type ApplicationStatus string

// ApplicationStatus values
const (
	StatusPending   ApplicationStatus = "pending"
	StatusSubmitted ApplicationStatus = "submitted"
	StatusCompleted ApplicationStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusCompleted:
		return true
	}
	return false
}

// FilledFields records how many fields were filled automatically.
type FilledFields struct {
	FilledCount int `json:"filled_count"`
	TotalFields int `json:"total_fields"`
}

// Application is a tracked job application owned by the remote ledger.
type Application struct {
	ID           string            `json:"id"`
	JobTitle     string            `json:"job_title,omitempty"`
	CompanyName  string            `json:"company_name,omitempty"`
	JobURL       string            `json:"job_url"`
	Status       ApplicationStatus `json:"status"`
	FilledFields *FilledFields     `json:"filled_fields,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    Timestamp         `json:"created_at"`
	SubmittedAt  *Timestamp        `json:"submitted_at,omitempty"`
}

// CreateApplicationRequest creates a ledger entry.
type CreateApplicationRequest struct {
	JobURL       string            `json:"job_url" validate:"required,url"`
	JobTitle     string            `json:"job_title,omitempty"`
	CompanyName  string            `json:"company_name,omitempty"`
	Status       ApplicationStatus `json:"status,omitempty" validate:"omitempty,oneof=pending submitted completed"`
	FormData     map[string]string `json:"form_data,omitempty"`
	FilledFields *FilledFields     `json:"filled_fields,omitempty"`
	Notes        string            `json:"notes,omitempty"`
}

// UpdateApplicationRequest changes mutable ledger fields.
type UpdateApplicationRequest struct {
	Status      ApplicationStatus `json:"status,omitempty" validate:"omitempty,oneof=pending submitted completed"`
	SubmittedAt *Timestamp        `json:"submitted_at,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
}

// Validate validates the CreateApplicationRequest using the validator.
func (r *CreateApplicationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateApplicationRequest using the validator.
func (r *UpdateApplicationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
