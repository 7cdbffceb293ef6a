// Package steps provides step definitions and dependency validation
// for the job-application workflow.
package steps

import (
	"fmt"
	"sort"

	dbpkg "github.com/jonathan/apply-assistant/internal/db"
)

// StepDefinition defines metadata for a workflow step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	Optional     []string
}

// StepRegistry holds all step definitions. Scoring is optional for analysis
// because a failed scoring call still proceeds to analysis.
var StepRegistry = map[string]StepDefinition{
	dbpkg.StepATSScore: {
		Name:         dbpkg.StepATSScore,
		Category:     dbpkg.StepCategoryScoring,
		Dependencies: []string{},
		Optional:     []string{},
	},
	dbpkg.StepAnalyzeForm: {
		Name:         dbpkg.StepAnalyzeForm,
		Category:     dbpkg.StepCategoryAnalysis,
		Dependencies: []string{},
		Optional:     []string{dbpkg.StepATSScore},
	},
	dbpkg.StepCheckFillable: {
		Name:         dbpkg.StepCheckFillable,
		Category:     dbpkg.StepCategoryAnalysis,
		Dependencies: []string{dbpkg.StepAnalyzeForm},
		Optional:     []string{},
	},
	dbpkg.StepFillForm: {
		Name:         dbpkg.StepFillForm,
		Category:     dbpkg.StepCategoryAutomation,
		Dependencies: []string{dbpkg.StepAnalyzeForm},
		Optional:     []string{dbpkg.StepCheckFillable},
	},
	dbpkg.StepRecordApplication: {
		Name:         dbpkg.StepRecordApplication,
		Category:     dbpkg.StepCategoryLedger,
		Dependencies: []string{dbpkg.StepFillForm},
		Optional:     []string{},
	},
}

// CategoryOf returns the category of a registered step, or "" when unknown.
func CategoryOf(stepName string) string {
	return StepRegistry[stepName].Category
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Completed reports whether a step has completed in the current run.
type Completed func(step string) bool

// ValidateDependencies checks if all required dependencies for a step are completed
func ValidateDependencies(done Completed, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if done == nil || !done(dep) {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}
	return nil
}

// AvailableSteps returns the not yet completed steps whose dependencies are met, sorted by name.
func AvailableSteps(done Completed) []string {
	var available []string
	for stepName := range StepRegistry {
		if done != nil && done(stepName) {
			continue
		}
		if err := ValidateDependencies(done, stepName); err != nil {
			continue
		}
		available = append(available, stepName)
	}
	sort.Strings(available)
	return available
}

// BlockedSteps returns the not yet completed steps whose dependencies are missing, sorted by name.
func BlockedSteps(done Completed) []string {
	var blocked []string
	for stepName := range StepRegistry {
		if done != nil && done(stepName) {
			continue
		}
		if err := ValidateDependencies(done, stepName); err != nil {
			blocked = append(blocked, stepName)
		}
	}
	sort.Strings(blocked)
	return blocked
}
