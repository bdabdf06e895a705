// internal/server/handlers.go
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	stderrors "finregx-backend/internal/common/errors"
	"finregx-backend/internal/common/metrics"
	"finregx-backend/internal/common/validation"
	"finregx-backend/internal/models"
)

type createAssessmentRequest struct {
	StartupName  string `json:"startup_name"`
	ContactEmail string `json:"contact_email"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": s.cfg.App.Name,
		"version": s.cfg.App.Version,
		"endpoints": []string{
			"POST /api/assessments",
			"POST /api/assessments/{id}/upload",
			"GET /api/assessments/{id}",
			"GET /api/assessments",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreate registers a new assessment in the pending state.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errs.WriteError(w, r, stderrors.NewValidationError("request body must be valid JSON"))
		return
	}

	req.StartupName = strings.TrimSpace(req.StartupName)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if result := validation.ValidateCreateAssessment(req.StartupName, req.ContactEmail); !result.Valid {
		s.errs.WriteError(w, r, stderrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; ")))
		return
	}

	a := &models.Assessment{
		ID:           uuid.New().String(),
		StartupName:  req.StartupName,
		ContactEmail: req.ContactEmail,
		Status:       models.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(r.Context(), a); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.log.Info("assessment created", map[string]interface{}{
		"assessment_id": a.ID,
		"startup_name":  a.StartupName,
	})
	s.writeJSON(w, http.StatusCreated, a)
}

// handleUpload receives the document set and runs the full pipeline
// synchronously. The response is the completed assessment or the failure
// that stopped it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	a, err := s.store.Get(ctx, id)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if !a.Status.CanTransitionTo(models.StatusProcessing) {
		s.errs.WriteError(w, r, stderrors.NewStateConflictError(
			fmt.Sprintf("assessment %s is %s and cannot accept uploads", id, a.Status)))
		return
	}

	docs, err := s.readUploads(r, id)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	if err := s.store.MarkProcessing(ctx, id); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	// Raw files are kept for audit regardless of how extraction goes.
	for _, doc := range docs {
		if err := s.docs.SaveRaw(ctx, doc); err != nil {
			s.log.Warn("raw document persistence failed", map[string]interface{}{
				"assessment_id": id,
				"filename":      doc.Filename,
				"error":         err.Error(),
			})
		}
	}

	out, err := s.runner.Run(ctx, id, docs)
	if err != nil {
		stdErr := stderrors.AsStandard(err)
		detail := stdErr.Detail
		if detail == "" {
			detail = stdErr.Message
		}
		if failErr := s.store.Fail(ctx, id, detail); failErr != nil {
			s.log.Error("failed-state transition did not persist", map[string]interface{}{
				"assessment_id": id,
				"error":         failErr.Error(),
			})
		}
		metrics.AssessmentsFailed.WithLabelValues(string(stdErr.Code)).Inc()
		s.errs.WriteError(w, r, err)
		return
	}

	completedAt := time.Now().UTC()
	a.Status = models.StatusCompleted
	a.CompletedAt = &completedAt
	a.Entities = out.Entities
	a.Verdicts = out.Verdicts
	a.Gaps = out.Gaps
	a.Score = out.Score
	a.Recommendations = out.Recommendations
	a.DocumentsAnalyzed = out.DocumentsAnalyzed
	a.Warnings = out.Warnings

	if err := s.store.Complete(ctx, a); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	metrics.AssessmentsCompleted.Inc()

	for _, doc := range docs {
		s.docs.IndexExtractedText(ctx, id, doc)
	}
	s.notifier.AssessmentCompleted(ctx, a)

	if cached, ok := s.store.GetCompletedJSON(ctx, id); ok {
		s.writeRawJSON(w, http.StatusOK, cached)
		return
	}
	if body, err := json.Marshal(a); err == nil {
		s.writeRawJSON(w, http.StatusOK, body)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

// handleGet serves one assessment. Completed assessments come straight from
// the cached rendering, so repeated reads are byte-identical.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if cached, ok := s.store.GetCompletedJSON(r.Context(), id); ok {
		s.writeRawJSON(w, http.StatusOK, cached)
		return
	}

	a, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if a.Status == models.StatusCompleted {
		// Render completed assessments the same way the cache does, so a
		// cache miss still returns byte-identical payloads.
		if body, err := json.Marshal(a); err == nil {
			s.writeRawJSON(w, http.StatusOK, body)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"assessments": summaries,
		"count":       len(summaries),
	})
}

// readUploads parses the multipart form and classifies every file by
// extension. Unsupported files are kept and classified as such; the ingest
// stage skips them per file so the rest of the batch still processes.
func (s *Server) readUploads(r *http.Request, assessmentID string) ([]*models.UploadedDocument, error) {
	maxBytes := s.cfg.Pipeline.MaxUploadBytes
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, stderrors.NewValidationError("request must be multipart form data within the upload size limit")
	}

	var headers []*multipart.FileHeader
	for _, hs := range r.MultipartForm.File {
		headers = append(headers, hs...)
	}
	if len(headers) == 0 {
		return nil, stderrors.NewValidationError("at least one file is required")
	}

	docs := make([]*models.UploadedDocument, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, stderrors.NewIngestionError(h.Filename, err)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, stderrors.NewIngestionError(h.Filename, err)
		}

		docs = append(docs, &models.UploadedDocument{
			AssessmentID: assessmentID,
			Filename:     h.Filename,
			Kind:         kindForFilename(h.Filename),
			Content:      content,
		})
	}
	return docs, nil
}

func kindForFilename(name string) models.DocumentKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return models.KindPDF
	case ".docx":
		return models.KindDOCX
	default:
		return models.KindUnsupported
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encoding failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.log.Error("response write failed", map[string]interface{}{"error": err.Error()})
	}
}
