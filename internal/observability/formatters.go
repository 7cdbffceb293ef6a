// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/apply-assistant/internal/profile"
	"github.com/jonathan/apply-assistant/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// writeList writes up to limit items as bullets, then a "more" line.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

// PrintScore outputs the ATS score with its breakdown.
func (p *Printer) PrintScore(score *types.AtsScore) {
	if score == nil {
		return
	}

	var sb strings.Builder
	if score.Recommendation == types.RecommendationNoResume {
		sb.WriteString("No resume on file\n")
	} else {
		sb.WriteString(fmt.Sprintf("Score:    %d/100\n", score.ClampedScore()))
	}
	sb.WriteString(fmt.Sprintf("Verdict:  %s\n", score.Recommendation))
	if score.Message != "" {
		sb.WriteString(fmt.Sprintf("%s\n", score.Message))
	}

	if d := score.Details; d != nil {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Skills %.0f%%  Experience %.0f%%  Education %.0f%%  Keywords %.0f%%\n",
			d.SkillsMatch, d.ExperienceMatch, d.EducationMatch, d.KeywordsMatch))
		writeList(&sb, "Strengths", d.Strengths, 3)
		writeList(&sb, "Weaknesses", d.Weaknesses, 3)
		writeList(&sb, "Suggestions", d.Suggestions, 3)
	}

	p.printBox("ATS SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStructure outputs the detected form fields and planned actions.
func (p *Printer) PrintStructure(fs types.FormStructure) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Fields: %d (%d required)  Actions: %d\n", len(fs.Fields), fs.RequiredCount(), len(fs.Actions)))

	if len(fs.Fields) > 0 {
		sb.WriteString("\n")
	}
	for i, f := range fs.Fields {
		marker := " "
		if f.Required {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s [%s]", marker, f.Label, profile.InputFor(f.Kind))
		if f.Value != "" {
			line += " = " + f.Value
		}
		sb.WriteString(line + "\n")
		if len(f.Options) > 0 {
			sb.WriteString(fmt.Sprintf("    options: %s\n", strings.Join(f.Options, ", ")))
		}
		if i == maxItemsToShow*4-1 && len(fs.Fields) > maxItemsToShow*4 {
			sb.WriteString(fmt.Sprintf("  ... and %d more fields\n", len(fs.Fields)-maxItemsToShow*4))
			break
		}
	}

	p.printBox("DETECTED FORM", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFillability outputs the fillability indicator. A nil assessment means the check did not answer.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintFillability(a *types.FillabilityAssessment) {
	switch {
	case a == nil:
		fmt.Fprintln(p.out, "Fillability: unknown")
	case a.Positive():
		fmt.Fprintf(p.out, "Fillability: ✓ can be filled automatically (%s)\n", a.Message)
	case a.Fillable:
		fmt.Fprintf(p.out, "Fillability: ? may be fillable, low confidence (%s)\n", a.Message)
	default:
		fmt.Fprintf(p.out, "Fillability: ✗ manual filling likely needed (%s)\n", a.Message)
	}
}

// PrintFillResult outputs the outcome of a fill.
func (p *Printer) PrintFillResult(result *types.FillResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	switch result.Classify() {
	case types.FillOutcomeFull:
		sb.WriteString("✅ Form filled\n")
	case types.FillOutcomePartial:
		sb.WriteString("⚠ Partially filled; finish in the open browser\n")
	default:
		sb.WriteString("❌ Fill failed\n")
	}
	if result.TotalFields != nil {
		sb.WriteString(fmt.Sprintf("Filled:   %d/%d fields\n", result.FilledCount, *result.TotalFields))
	} else {
		sb.WriteString(fmt.Sprintf("Filled:   %d fields\n", result.FilledCount))
	}
	if result.Message != "" {
		sb.WriteString(result.Message + "\n")
	}
	writeList(&sb, "Actions", result.ExecutedActions, maxItemsToShow)
	writeList(&sb, "Errors", result.Errors, maxItemsToShow)

	p.printBox("FILL RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPreview outputs the actions a fill would perform, without performing them.
func (p *Printer) PrintPreview(preview *types.FillPreview) {
	if preview == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Would fill: %d of %d fields\n", preview.FieldsToFill, preview.TotalFields))
	for _, a := range preview.Actions {
		marker := " "
		if a.Required {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %-6s %s = %s\n", marker, a.Action, a.Field, a.Value))
	}
	if preview.Validation.IsValid {
		sb.WriteString("Validation: ok\n")
	} else {
		writeList(&sb, "Validation errors", preview.Validation.Errors, maxItemsToShow)
	}
	writeList(&sb, "Warnings", preview.Warnings, maxItemsToShow)

	p.printBox("FILL PREVIEW", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintApplications outputs the tracked applications and per-status counts.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintApplications(apps []types.Application) {
	if len(apps) == 0 {
		fmt.Fprintln(p.out, "No applications tracked yet.")
		return
	}

	counts := map[types.ApplicationStatus]int{}
	var sb strings.Builder
	for _, a := range apps {
		counts[a.Status]++
		title := a.JobTitle
		if title == "" {
			title = a.JobURL
		}
		if a.CompanyName != "" {
			title += " @ " + a.CompanyName
		}
		sb.WriteString(fmt.Sprintf("%-9s %s\n", a.Status, title))
		detail := "    id " + a.ID
		if a.FilledFields != nil {
			detail += fmt.Sprintf("  filled %d/%d", a.FilledFields.FilledCount, a.FilledFields.TotalFields)
		}
		if !a.CreatedAt.IsZero() {
			detail += "  " + a.CreatedAt.Format("2006-01-02")
		}
		sb.WriteString(detail + "\n")
	}
	sb.WriteString(fmt.Sprintf("\npending %d  submitted %d  completed %d",
		counts[types.StatusPending], counts[types.StatusSubmitted], counts[types.StatusCompleted]))

	p.printBox(fmt.Sprintf("APPLICATIONS (%d)", len(apps)), sb.String())
}

// PrintProfile outputs the stored profile with its quick-apply data.
func (p *Printer) PrintProfile(prof *types.Profile) {
	if prof == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", prof.Name))
	sb.WriteString(fmt.Sprintf("Email:    %s\n", prof.Email))
	if prof.Phone != "" {
		sb.WriteString(fmt.Sprintf("Phone:    %s\n", prof.Phone))
	}
	if prof.HasResume() {
		sb.WriteString(fmt.Sprintf("Resume:   %s\n", prof.ResumePath))
	} else {
		sb.WriteString("Resume:   none uploaded\n")
	}
	if prof.ResumeData != nil {
		writeList(&sb, "Skills", prof.ResumeData.Skills, maxItemsToShow)
	}
	if len(prof.QuickApplyData) > 0 {
		writeQuickApply(&sb, profile.QuickApplyOf(prof))
	}

	p.printBox("PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

func writeQuickApply(sb *strings.Builder, qa profile.QuickApply) {
	sb.WriteString("Quick apply:\n")
	name := strings.TrimSpace(qa.FirstName + " " + qa.LastName)
	if qa.PreferredFirstName != "" {
		name += fmt.Sprintf(" (%s)", qa.PreferredFirstName)
	}
	if name != "" {
		sb.WriteString(fmt.Sprintf("  Name:     %s\n", name))
	}
	if qa.Phone != "" {
		sb.WriteString(fmt.Sprintf("  Phone:    %s %s\n", qa.PhoneCountry, qa.Phone))
	}
	if qa.Location != "" {
		sb.WriteString(fmt.Sprintf("  Location: %s\n", qa.Location))
	}
	sites := make([]string, 0, len(qa.OnlineProfiles))
	for site := range qa.OnlineProfiles {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	for _, site := range sites {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", site, qa.OnlineProfiles[site]))
	}
}
