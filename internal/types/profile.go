package types

import (
	"github.com/go-playground/validator/v10"
)

// Profile is the single stored applicant profile of the session.
type Profile struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"`
	Email          string         `json:"email,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Address        map[string]any `json:"address,omitempty"`
	ResumePath     string         `json:"resume_path,omitempty"`
	ResumeData     *ResumeData    `json:"resume_data,omitempty"`
	QuickApplyData map[string]any `json:"quick_apply_data,omitempty"`
	CreatedAt      Timestamp      `json:"created_at,omitempty"`
	UpdatedAt      Timestamp      `json:"updated_at,omitempty"`
}

// ResumeData is the parsed resume content kept on the profile.
type ResumeData struct {
	Skills []string `json:"skills,omitempty"`
}

// HasResume reports whether a resume has been uploaded for the profile.
func (p *Profile) HasResume() bool {
	return p != nil && p.ResumePath != ""
}

// ProfileInput is the body for profile create and update.
type ProfileInput struct {
	Name           string         `json:"name" validate:"required,min=1"`
	Email          string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string         `json:"phone,omitempty"`
	Address        map[string]any `json:"address,omitempty"`
	QuickApplyData map[string]any `json:"quick_apply_data,omitempty"`
}

// Validate validates the ProfileInput using the validator.
func (r *ProfileInput) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
