package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestFillResult_Classify(t *testing.T) {
	tests := []struct {
		name   string
		result *FillResult
		want   FillOutcome
	}{
		{"nil result", nil, FillOutcomeFailure},
		{"success", &FillResult{Success: true, FilledCount: 5}, FillOutcomeFull},
		{"success with browser open", &FillResult{Success: true, BrowserOpen: true}, FillOutcomeFull},
		{"browser left open", &FillResult{BrowserOpen: true}, FillOutcomePartial},
		{"some fields filled", &FillResult{FilledCount: 2, TotalFields: intPtr(7)}, FillOutcomePartial},
		{"nothing happened", &FillResult{Errors: []string{"timeout"}}, FillOutcomeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Classify())
		})
	}
}

func TestFillResult_FilledFields(t *testing.T) {
	var nilResult *FillResult
	assert.Nil(t, nilResult.FilledFields())

	r := &FillResult{FilledCount: 3, TotalFields: intPtr(4)}
	assert.Equal(t, &FilledFields{FilledCount: 3, TotalFields: 4}, r.FilledFields())

	noTotal := &FillResult{FilledCount: 3}
	assert.Equal(t, 0, noTotal.FilledFields().TotalFields)
}

func TestFillRequest_OmitsFormDataInProfileMode(t *testing.T) {
	b, err := json.Marshal(FillRequest{URL: "https://ex.com/apply", MultiStep: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://ex.com/apply","multi_step":true}`, string(b))

	b, err = json.Marshal(FillRequest{URL: "https://ex.com/apply", MultiStep: true, FormData: map[string]string{"Email": "a@b.c"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://ex.com/apply","multi_step":true,"form_data":{"Email":"a@b.c"}}`, string(b))
}

func TestRecommendation_Branches(t *testing.T) {
	assert.True(t, RecommendationHigh.Acceptable())
	assert.True(t, RecommendationMedium.Acceptable())
	assert.False(t, RecommendationLow.Acceptable())
	assert.True(t, RecommendationLow.NeedsConfirmation())
	assert.True(t, RecommendationPoor.NeedsConfirmation())
	assert.False(t, RecommendationNoResume.NeedsConfirmation())
	assert.False(t, RecommendationUnknown.Acceptable())
}

func TestAtsScore_ClampedScore(t *testing.T) {
	assert.Equal(t, 0, (&AtsScore{Score: -4}).ClampedScore())
	assert.Equal(t, 100, (&AtsScore{Score: 140}).ClampedScore())
	assert.Equal(t, 82, (&AtsScore{Score: 82}).ClampedScore())
}
