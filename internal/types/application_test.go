package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusSubmitted.Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.False(t, ApplicationStatus("archived").Valid())
	assert.False(t, ApplicationStatus("").Valid())
}

func TestCreateApplicationRequest_Validation(t *testing.T) {
	ok := CreateApplicationRequest{JobURL: "https://ex.com/apply", Status: StatusPending}
	assert.NoError(t, ok.Validate())

	missingURL := CreateApplicationRequest{}
	assert.Error(t, missingURL.Validate())

	badStatus := CreateApplicationRequest{JobURL: "https://ex.com/apply", Status: "archived"}
	err := badStatus.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")
}

func TestApplication_JSONDecoding(t *testing.T) {
	raw := `{
		"id": "app-1",
		"user_id": "u-1",
		"job_url": "https://ex.com/apply",
		"job_title": "Engineer",
		"status": "submitted",
		"filled_fields": {"filled_count": 4, "total_fields": 6},
		"created_at": "2024-05-01T10:00:00Z",
		"submitted_at": "2024-05-02T10:00:00Z"
	}`

	var app Application
	require.NoError(t, json.Unmarshal([]byte(raw), &app))
	assert.Equal(t, "app-1", app.ID)
	assert.Equal(t, StatusSubmitted, app.Status)
	require.NotNil(t, app.FilledFields)
	assert.Equal(t, 4, app.FilledFields.FilledCount)
	require.NotNil(t, app.SubmittedAt)
}

func TestProfileInput_Validation(t *testing.T) {
	assert.NoError(t, (&ProfileInput{Name: "Jane"}).Validate())
	assert.Error(t, (&ProfileInput{}).Validate())
	assert.Error(t, (&ProfileInput{Name: "Jane", Email: "nope"}).Validate())
}

func TestProfile_HasResume(t *testing.T) {
	var p *Profile
	assert.False(t, p.HasResume())
	assert.False(t, (&Profile{Name: "Jane"}).HasResume())
	assert.True(t, (&Profile{Name: "Jane", ResumePath: "uploads/cv.pdf"}).HasResume())
}
