// internal/models/report.go
package models

// Coverage is the three-valued judgment of whether the uploaded documents
// satisfy one article's requirement.
type Coverage string

const (
	CoverageSatisfied Coverage = "satisfied"
	CoveragePartial   Coverage = "partial"
	CoverageAbsent    Coverage = "absent"
)

// Value maps coverage onto the 0-100 scale used by the scorer.
func (c Coverage) Value() float64 {
	switch c {
	case CoverageSatisfied:
		return 100
	case CoveragePartial:
		return 50
	default:
		return 0
	}
}

// Verdict is the matcher's terminal judgment for one article. The complete
// verdict set is the single source for both gaps and scores.
type Verdict struct {
	ArticleID string   `json:"article_id"`
	Coverage  Coverage `json:"coverage"`
	Evidence  string   `json:"evidence,omitempty"`
}

// Severity ranks how badly a gap blocks licensing readiness.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Gap records one shortfall against an article, with remediation guidance.
type Gap struct {
	GapID          string   `json:"gap_id"`
	ArticleID      string   `json:"article"`
	ArticleName    string   `json:"article_name"`
	Category       string   `json:"category"`
	Severity       Severity `json:"severity"`
	Status         string   `json:"status"`
	Description    string   `json:"description"`
	Requirement    string   `json:"requirement"`
	Recommendation string   `json:"recommendation"`
}

// Score aggregates the verdict set into category and overall readiness.
type Score struct {
	OverallScore       float64            `json:"overall_score"`
	ReadinessLevel     string             `json:"readiness_level"`
	ReadinessColor     string             `json:"readiness_color"`
	CategoryScores     map[string]float64 `json:"category_scores"`
	CategoryGapCounts  map[string]int     `json:"category_gap_counts"`
	TotalGaps          int                `json:"total_gaps"`
	HighSeverityGaps   int                `json:"high_severity_gaps"`
	MediumSeverityGaps int                `json:"medium_severity_gaps"`
	LowSeverityGaps    int                `json:"low_severity_gaps"`
}

// ExpertRecommendation points a startup at a vetted advisor.
type ExpertRecommendation struct {
	ExpertID         string   `json:"expert_id"`
	Name             string   `json:"name"`
	Specialization   string   `json:"specialization"`
	Contact          string   `json:"contact"`
	Categories       []string `json:"categories"`
	RelevantArticles []string `json:"relevant_articles"`
}

// ProgramRecommendation points a startup at a support program.
type ProgramRecommendation struct {
	ProgramID   string   `json:"program_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Duration    string   `json:"duration"`
	FocusAreas  []string `json:"focus_areas"`
	Categories  []string `json:"categories"`
	Website     string   `json:"website"`
}

// Recommendations bundles the curated entries matched to the gap categories.
type Recommendations struct {
	Experts  []ExpertRecommendation  `json:"experts"`
	Programs []ProgramRecommendation `json:"programs"`
}
