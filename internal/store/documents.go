// internal/store/documents.go
package store

import (
	"context"
	"encoding/json"
	"time"

	"finregx-backend/internal/common/database"
	stderrors "finregx-backend/internal/common/errors"
	"finregx-backend/internal/common/logger"
	"finregx-backend/internal/models"
)

// DocumentStore keeps the raw uploaded files for audit and, when
// Elasticsearch is configured, indexes the extracted text for later search.
type DocumentStore struct {
	db  *database.PostgresClient
	es  *database.ElasticsearchClient
	log logger.Logger
}

func NewDocumentStore(db *database.PostgresClient, es *database.ElasticsearchClient, log logger.Logger) *DocumentStore {
	return &DocumentStore{db: db, es: es, log: log}
}

// SaveRaw persists the uploaded bytes before any parsing happens, so a file
// that later fails extraction is still auditable.
func (s *DocumentStore) SaveRaw(ctx context.Context, doc *models.UploadedDocument) error {
	const q = `
		INSERT INTO assessment_documents (assessment_id, filename, kind, content, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.Exec(ctx, q, doc.AssessmentID, doc.Filename, string(doc.Kind), doc.Content, time.Now().UTC())
	if err != nil {
		return stderrors.NewDatabaseError("save document", err)
	}
	return nil
}

// IndexExtractedText pushes a document's extracted text into the audit
// index. Indexing is best effort: a failure is logged and swallowed, never
// surfaced to the assessment flow.
func (s *DocumentStore) IndexExtractedText(ctx context.Context, assessmentID string, doc *models.UploadedDocument) {
	if s.es == nil || doc.Text == "" {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"assessment_id": assessmentID,
		"filename":      doc.Filename,
		"kind":          string(doc.Kind),
		"text":          doc.Text,
		"indexed_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	if err := s.es.IndexDocument(ctx, assessmentID+":"+doc.Filename, body); err != nil {
		s.log.Warn("document indexing failed", map[string]interface{}{
			"assessment_id": assessmentID,
			"filename":      doc.Filename,
			"error":         err.Error(),
		})
	}
}
