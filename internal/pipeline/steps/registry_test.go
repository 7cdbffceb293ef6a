package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/jonathan/apply-assistant/internal/db"
)

func doneSet(names ...string) Completed {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	return func(step string) bool { return set[step] }
}

func TestStepRegistry(t *testing.T) {
	expectedSteps := []string{
		dbpkg.StepATSScore, dbpkg.StepAnalyzeForm, dbpkg.StepCheckFillable,
		dbpkg.StepFillForm, dbpkg.StepRecordApplication,
	}

	for _, stepName := range expectedSteps {
		def, ok := StepRegistry[stepName]
		require.True(t, ok, "Step %s should be in registry", stepName)
		assert.Equal(t, stepName, def.Name)
		assert.NotEmpty(t, def.Category)
	}
	assert.Len(t, StepRegistry, len(expectedSteps))
}

func TestStepRegistryCategories(t *testing.T) {
	categories := map[string][]string{
		dbpkg.StepCategoryScoring:    {dbpkg.StepATSScore},
		dbpkg.StepCategoryAnalysis:   {dbpkg.StepAnalyzeForm, dbpkg.StepCheckFillable},
		dbpkg.StepCategoryAutomation: {dbpkg.StepFillForm},
		dbpkg.StepCategoryLedger:     {dbpkg.StepRecordApplication},
	}

	for category, stepNames := range categories {
		for _, stepName := range stepNames {
			assert.Equal(t, category, CategoryOf(stepName), "Step %s should be in category %s", stepName, category)
		}
	}
	assert.Empty(t, CategoryOf("unknown_step"))
}

func TestDependencyError(t *testing.T) {
	err := &DependencyError{
		Step:                "test_step",
		MissingDependencies: []string{"dep1", "dep2"},
	}

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing dependencies")
	assert.Contains(t, err.Error(), "test_step")
}

func TestValidateDependencies(t *testing.T) {
	tests := []struct {
		name    string
		done    Completed
		step    string
		missing []string
	}{
		{"analysis without scoring", doneSet(), dbpkg.StepAnalyzeForm, nil},
		{"fillability before analysis", doneSet(dbpkg.StepATSScore), dbpkg.StepCheckFillable, []string{dbpkg.StepAnalyzeForm}},
		{"fill after analysis", doneSet(dbpkg.StepAnalyzeForm), dbpkg.StepFillForm, nil},
		{"fill without analysis", nil, dbpkg.StepFillForm, []string{dbpkg.StepAnalyzeForm}},
		{"record before fill", doneSet(dbpkg.StepAnalyzeForm), dbpkg.StepRecordApplication, []string{dbpkg.StepFillForm}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDependencies(tt.done, tt.step)
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var depErr *DependencyError
			require.ErrorAs(t, err, &depErr)
			assert.Equal(t, tt.missing, depErr.MissingDependencies)
		})
	}
}

func TestValidateDependencies_UnknownStep(t *testing.T) {
	err := ValidateDependencies(doneSet(), "unknown_step")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")
}

func TestAvailableAndBlockedSteps(t *testing.T) {
	assert.Equal(t, []string{dbpkg.StepAnalyzeForm, dbpkg.StepATSScore}, AvailableSteps(doneSet()))
	assert.Equal(t, []string{dbpkg.StepCheckFillable, dbpkg.StepFillForm, dbpkg.StepRecordApplication}, BlockedSteps(doneSet()))

	done := doneSet(dbpkg.StepATSScore, dbpkg.StepAnalyzeForm)
	assert.Equal(t, []string{dbpkg.StepCheckFillable, dbpkg.StepFillForm}, AvailableSteps(done))
	assert.Equal(t, []string{dbpkg.StepRecordApplication}, BlockedSteps(done))
}
