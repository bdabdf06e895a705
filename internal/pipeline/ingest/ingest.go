// internal/pipeline/ingest/ingest.go
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	stderrors "finregx-backend/internal/common/errors"
	"finregx-backend/internal/common/logger"
	"finregx-backend/internal/common/metrics"
	"finregx-backend/internal/models"
)

// Result is the ingestion output handed to the clause matcher: the combined
// document text, the structured entities pulled from it, and the per-file
// outcome bookkeeping.
type Result struct {
	CombinedText string
	Entities     *models.ExtractedEntities
	Analyzed     []string
	Warnings     []string
}

// Ingestor turns uploaded files into analyzable text. Files are extracted
// concurrently but the combined text preserves upload order.
type Ingestor struct {
	log logger.Logger
}

func New(log logger.Logger) *Ingestor {
	return &Ingestor{log: log}
}

// Ingest extracts text from every uploaded document. A file of an
// unsupported type, a file that cannot be parsed, or one that parses to
// empty text is skipped with a warning rather than failing the run. When no
// file yields text the whole ingestion fails.
func (i *Ingestor) Ingest(ctx context.Context, docs []*models.UploadedDocument) (*Result, error) {
	if len(docs) == 0 {
		return nil, stderrors.NewNoValidDocumentsError("no documents uploaded")
	}

	type outcome struct {
		text    string
		warning string
	}
	outcomes := make([]outcome, len(docs))

	var wg sync.WaitGroup
	for idx := range docs {
		// Stop fanning out once the pipeline deadline fires.
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			doc := docs[idx]

			if doc.Kind != models.KindPDF && doc.Kind != models.KindDOCX {
				metrics.DocumentsRejected.WithLabelValues("unsupported_type").Inc()
				outcomes[idx] = outcome{warning: fmt.Sprintf("%s: unsupported file type, only .pdf and .docx documents are analyzed", doc.Filename)}
				return
			}

			text, err := extract(doc)
			if err != nil {
				i.log.Warn("document extraction failed", map[string]interface{}{
					"filename": doc.Filename,
					"kind":     string(doc.Kind),
					"error":    err.Error(),
				})
				metrics.DocumentsRejected.WithLabelValues("extract_error").Inc()
				outcomes[idx] = outcome{warning: fmt.Sprintf("%s: extraction failed: %v", doc.Filename, err)}
				return
			}

			text = strings.TrimSpace(text)
			if text == "" {
				metrics.DocumentsRejected.WithLabelValues("empty_text").Inc()
				outcomes[idx] = outcome{warning: fmt.Sprintf("%s: no extractable text", doc.Filename)}
				return
			}

			metrics.DocumentsIngested.WithLabelValues(string(doc.Kind)).Inc()
			outcomes[idx] = outcome{text: text}
		}(idx)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	var sb strings.Builder
	for idx, doc := range docs {
		out := outcomes[idx]
		if out.warning != "" {
			doc.Warning = out.warning
			res.Warnings = append(res.Warnings, out.warning)
			continue
		}
		doc.Text = out.text
		res.Analyzed = append(res.Analyzed, doc.Filename)
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("--- ")
		sb.WriteString(doc.Filename)
		sb.WriteString(" ---\n")
		sb.WriteString(out.text)
	}

	if len(res.Analyzed) == 0 {
		return nil, stderrors.NewNoValidDocumentsError(strings.Join(res.Warnings, "; "))
	}

	res.CombinedText = sb.String()
	res.Entities = ExtractEntities(res.CombinedText)

	i.log.Info("ingestion complete", map[string]interface{}{
		"documents_analyzed": len(res.Analyzed),
		"documents_skipped":  len(res.Warnings),
		"text_length":        len(res.CombinedText),
	})

	return res, nil
}

func extract(doc *models.UploadedDocument) (string, error) {
	switch doc.Kind {
	case models.KindPDF:
		return extractPDF(doc.Content)
	case models.KindDOCX:
		return extractDOCX(doc.Content)
	default:
		return "", fmt.Errorf("unsupported document kind %q", doc.Kind)
	}
}
