package types

// Recommendation is the scoring collaborator's verdict on resume fit.
type Recommendation string

// Recommendation values
const (
	RecommendationNoResume Recommendation = "no_resume"
	RecommendationHigh     Recommendation = "high"
	RecommendationMedium   Recommendation = "medium"
	RecommendationLow      Recommendation = "low"
	RecommendationPoor     Recommendation = "poor"
	// RecommendationUnknown is sent when the backend could not extract a job description.
	RecommendationUnknown Recommendation = "unknown"
)

// Acceptable reports whether the score is good enough to continue without asking.
func (r Recommendation) Acceptable() bool {
	return r == RecommendationHigh || r == RecommendationMedium
}

// NeedsConfirmation reports whether the user has to decide before analysis.
func (r Recommendation) NeedsConfirmation() bool {
	return r == RecommendationLow || r == RecommendationPoor
}

// AtsScore is the ATS-style match score between the stored resume and a job posting.
type AtsScore struct {
	Score          int            `json:"score"`
	Recommendation Recommendation `json:"recommendation"`
	Message        string         `json:"message"`
	Details        *AtsDetails    `json:"details,omitempty"`
}

// AtsDetails breaks the score down per category. The percentages may be fractional.
type AtsDetails struct {
	SkillsMatch     float64  `json:"skills_match,omitempty"`
	ExperienceMatch float64  `json:"experience_match,omitempty"`
	EducationMatch  float64  `json:"education_match,omitempty"`
	KeywordsMatch   float64  `json:"keywords_match,omitempty"`
	Strengths       []string `json:"strengths,omitempty"`
	Weaknesses      []string `json:"weaknesses,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

// ClampedScore returns the score limited to the 0-100 range.
func (s *AtsScore) ClampedScore() int {
	switch {
	case s.Score < 0:
		return 0
	case s.Score > 100:
		return 100
	default:
		return s.Score
	}
}
