// internal/models/assessment.go
package models

import "time"

// AssessmentStatus tracks the lifecycle of an assessment. Transitions are
// one-directional: pending -> processing -> completed | failed.
type AssessmentStatus string

const (
	StatusPending    AssessmentStatus = "pending"
	StatusProcessing AssessmentStatus = "processing"
	StatusCompleted  AssessmentStatus = "completed"
	StatusFailed     AssessmentStatus = "failed"
)

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s AssessmentStatus) CanTransitionTo(next AssessmentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Assessment is the persisted record for one regulatory readiness run.
// Result fields are nil until the status is completed.
type Assessment struct {
	ID            string           `json:"id"`
	StartupName   string           `json:"startup_name"`
	ContactEmail  string           `json:"contact_email,omitempty"`
	Status        AssessmentStatus `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	FailureDetail string           `json:"failure_detail,omitempty"`

	Entities          *ExtractedEntities `json:"entities,omitempty"`
	Verdicts          []Verdict          `json:"verdicts,omitempty"`
	Gaps              []Gap              `json:"gaps,omitempty"`
	Score             *Score             `json:"score,omitempty"`
	Recommendations   *Recommendations   `json:"recommendations,omitempty"`
	DocumentsAnalyzed []string           `json:"documents_analyzed,omitempty"`
	Warnings          []string           `json:"warnings,omitempty"`
}

// AssessmentSummary is the trimmed listing view of an assessment.
type AssessmentSummary struct {
	ID             string           `json:"id"`
	StartupName    string           `json:"startup_name"`
	Status         AssessmentStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	OverallScore   *float64         `json:"overall_score,omitempty"`
	ReadinessLevel string           `json:"readiness_level,omitempty"`
	TotalGaps      *int             `json:"total_gaps,omitempty"`
}

// DocumentKind is the upload format as classified from the filename. Files
// outside the accepted set still flow through ingestion so they can be
// skipped per file instead of rejecting the batch.
type DocumentKind string

const (
	KindPDF         DocumentKind = "pdf"
	KindDOCX        DocumentKind = "docx"
	KindUnsupported DocumentKind = "unsupported"
)

// UploadedDocument holds one uploaded file and, once ingested, its text.
type UploadedDocument struct {
	AssessmentID string       `json:"assessment_id"`
	Filename     string       `json:"filename"`
	Kind         DocumentKind `json:"kind"`
	Content      []byte       `json:"-"`
	Text         string       `json:"-"`
	Warning      string       `json:"warning,omitempty"`
}

// ExtractedEntities are the structured facts pulled out of the combined
// document text before clause matching.
type ExtractedEntities struct {
	PaidUpCapital     float64  `json:"paid_up_capital,omitempty"`
	AuthorizedCapital float64  `json:"authorized_capital,omitempty"`
	DataLocations     []string `json:"data_locations,omitempty"`
	HasComplianceRole bool     `json:"has_compliance_officer"`
	HasAMLPolicy      bool     `json:"has_aml_policy"`
	AMLBoardApproved  bool     `json:"aml_board_approved"`
	HasTxnMonitoring  bool     `json:"has_transaction_monitoring"`
	BusinessCategory  string   `json:"business_category,omitempty"`
}
