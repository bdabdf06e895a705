// internal/server/handlers_test.go
package server

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finregx-backend/internal/common/config"
	"finregx-backend/internal/common/database"
	"finregx-backend/internal/common/logger"
	"finregx-backend/internal/common/observability"
	"finregx-backend/internal/models"
	"finregx-backend/internal/pipeline"
	"finregx-backend/internal/rulebook"
	"finregx-backend/internal/store"
)

const serverCatalogJSON = `{
  "version": "test",
  "categories": [
    {"name": "AML", "share": 50},
    {"name": "Governance", "share": 50}
  ],
  "articles": [
    {
      "id": "1.1.1",
      "name": "AML Policy",
      "category": "AML",
      "weight": 50,
      "critical": true,
      "requirement": "Maintain a board-approved AML policy.",
      "keywords": ["aml policy"],
      "recommendation": "Draft and board-approve an AML policy."
    },
    {
      "id": "2.2.1",
      "name": "Compliance Officer",
      "category": "Governance",
      "weight": 50,
      "critical": true,
      "requirement": "Appoint a dedicated compliance officer.",
      "keywords": ["compliance officer"],
      "recommendation": "Appoint a compliance officer."
    }
  ],
  "experts": [
    {
      "id": "EXPERT_C102",
      "name": "Mr. Karim Hassan",
      "specialization": "Corporate governance",
      "contact": "karim@example.com",
      "categories": ["Governance"],
      "article_mapping": ["2.2.1"]
    }
  ],
  "programs": [
    {
      "id": "QDB_INCUBATOR_001",
      "name": "Fintech Incubator",
      "categories": [],
      "always_include": true
    }
  ]
}`

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "finregx-backend"
	cfg.App.Version = "test"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ReadTimeout = 120000
	cfg.Server.WriteTimeout = 120000
	cfg.Pipeline = config.PipelineConfig{
		Timeout:            60000,
		MatchWorkers:       4,
		SatisfiedThreshold: 0.6,
		PartialThreshold:   0.25,
		EvidenceWindow:     240,
		MaxUploadBytes:     32 << 20,
		ReadinessLevels: []config.ReadinessLevel{
			{MinScore: 90, Level: "EXCELLENT", Color: "green"},
			{MinScore: 75, Level: "GOOD", Color: "blue"},
			{MinScore: 50, Level: "MODERATE", Color: "yellow"},
			{MinScore: 25, Level: "POOR", Color: "orange"},
			{MinScore: 0, Level: "CRITICAL", Color: "red"},
		},
	}
	return cfg
}

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	cache := &database.RedisClient{Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()})}

	log := logger.NewTestLogger(t)
	pg := &database.PostgresClient{DB: db}

	catalog, err := rulebook.Parse([]byte(serverCatalogJSON))
	require.NoError(t, err)

	cfg := testConfig()
	runner := pipeline.NewRunner(catalog, cfg.Pipeline, &observability.Observability{}, log)

	srv := New(cfg,
		log,
		store.NewAssessmentStore(pg, cache, log),
		store.NewDocumentStore(pg, nil, log),
		runner,
		nil,
	)
	return srv, mock
}

func docxFile(t *testing.T, text string) []byte {
	t.Helper()
	doc := fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:body></w:document>`,
		text,
	)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type uploadFile struct {
	name    string
	content []byte
}

func multipartUpload(t *testing.T, files []uploadFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func pendingRow(id, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "startup_name", "contact_email", "status", "created_at", "completed_at", "failure_detail", "result",
	}).AddRow(id, name, "", "pending", time.Now().UTC(), nil, nil, nil)
}

func TestCreateAssessment(t *testing.T) {
	srv, mock := newTestServer(t)

	mock.ExpectExec("INSERT INTO assessments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := strings.NewReader(`{"startup_name": "PayQatar", "contact_email": "founders@payqatar.example"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/assessments", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var a models.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "PayQatar", a.StartupName)
	assert.Equal(t, models.StatusPending, a.Status)
}

func TestCreateAssessmentValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"contact_email": "a@b.c"}`},
		{"blank name", `{"startup_name": "   "}`},
		{"bad email", `{"startup_name": "X", "contact_email": "not-an-email"}`},
		{"not json", `{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/assessments", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
		})
	}
}

func TestUploadRunsAssessment(t *testing.T) {
	srv, mock := newTestServer(t)

	mock.ExpectQuery("FROM assessments WHERE id").
		WithArgs("a-1").
		WillReturnRows(pendingRow("a-1", "PayQatar"))
	mock.ExpectExec("UPDATE assessments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assessment_documents").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE assessments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, contentType := multipartUpload(t, []uploadFile{
		{"policies.docx", docxFile(t, "Our board-approved AML policy is maintained by our appointed compliance officer.")},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assessments/a-1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a models.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, models.StatusCompleted, a.Status)
	require.NotNil(t, a.Score)
	assert.Equal(t, 100.0, a.Score.OverallScore)
	assert.Equal(t, "EXCELLENT", a.Score.ReadinessLevel)
	assert.Empty(t, a.Gaps)
	assert.Equal(t, []string{"policies.docx"}, a.DocumentsAnalyzed)

	// Repeated GETs serve the cached rendering byte for byte.
	getReq := httptest.NewRequest(http.MethodGet, "/api/assessments/a-1", nil)
	getRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	assert.Equal(t, rec.Body.Bytes(), getRec.Body.Bytes())

	againRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(againRec, httptest.NewRequest(http.MethodGet, "/api/assessments/a-1", nil))
	assert.Equal(t, getRec.Body.Bytes(), againRec.Body.Bytes())
}

func TestUploadDetectsGaps(t *testing.T) {
	srv, mock := newTestServer(t)

	mock.ExpectQuery("FROM assessments WHERE id").
		WithArgs("a-2").
		WillReturnRows(pendingRow("a-2", "LendFast"))
	mock.ExpectExec("UPDATE assessments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assessment_documents").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE assessments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, contentType := multipartUpload(t, []uploadFile{
		{"aml.docx", docxFile(t, "Our AML policy covers customer due diligence.")},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assessments/a-2/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a models.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	require.Len(t, a.Gaps, 1)
	assert.Equal(t, "2.2.1", a.Gaps[0].ArticleID)
	assert.Equal(t, models.SeverityHigh, a.Gaps[0].Severity)
	require.NotNil(t, a.Recommendations)
	require.Len(t, a.Recommendations.Experts, 1)
	assert.Equal(t, "EXPERT_C102", a.Recommendations.Experts[0].ExpertID)
}

func TestUploadWithoutUsableDocumentsFails(t *testing.T) {
	srv, mock := newTestServer(t)

	mock.ExpectQuery("FROM assessments WHERE id").
		WithArgs("a-3").
		WillReturnRows(pendingRow("a-3", "PayQatar"))
	mock.ExpectExec("UPDATE assessments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assessment_documents").
		WillReturnResult(sqlmock.NewResult(1, 1))
	// Failure transition.
	mock.ExpectExec("UPDATE assessments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, contentType := multipartUpload(t, []uploadFile{
		{"junk.pdf", []byte("not a pdf at all")},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assessments/a-3/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_VALID_DOCUMENTS")
}

func TestUploadSkipsUnsupportedFiles(t *testing.T) {
	srv, mock := newTestServer(t)

	mock.ExpectQuery("FROM assessments WHERE id").
		WithArgs("a-4").
		WillReturnRows(pendingRow("a-4", "PayQatar"))
	mock.ExpectExec("UPDATE assessments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assessment_documents").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO assessment_documents").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE assessments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, contentType := multipartUpload(t, []uploadFile{
		{"policies.docx", docxFile(t, "Our board-approved AML policy is maintained by our appointed compliance officer.")},
		{"notes.txt", []byte("plain text notes")},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assessments/a-4/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a models.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, models.StatusCompleted, a.Status)
	assert.Equal(t, []string{"policies.docx"}, a.DocumentsAnalyzed)
	require.Len(t, a.Warnings, 1)
	assert.Contains(t, a.Warnings[0], "notes.txt")
	assert.Contains(t, a.Warnings[0], "unsupported file type")
}

func TestUploadAllUnsupportedFilesFails(t *testing.T) {
	srv, mock := newTestServer(t)

	mock.ExpectQuery("FROM assessments WHERE id").
		WithArgs("a-7").
		WillReturnRows(pendingRow("a-7", "PayQatar"))
	mock.ExpectExec("UPDATE assessments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assessment_documents").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO assessment_documents").
		WillReturnResult(sqlmock.NewResult(2, 1))
	// Failure transition.
	mock.ExpectExec("UPDATE assessments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, contentType := multipartUpload(t, []uploadFile{
		{"pitch.pptx", []byte("slides")},
		{"notes.txt", []byte("plain text notes")},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assessments/a-7/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_VALID_DOCUMENTS")
	assert.Contains(t, rec.Body.String(), "unsupported file type")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadToMissingAssessment(t *testing.T) {
	srv, mock := newTestServer(t)

	mock.ExpectQuery("FROM assessments WHERE id").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	body, contentType := multipartUpload(t, []uploadFile{
		{"policies.docx", docxFile(t, "text")},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assessments/nope/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadToCompletedAssessmentConflicts(t *testing.T) {
	srv, mock := newTestServer(t)

	rows := sqlmock.NewRows([]string{
		"id", "startup_name", "contact_email", "status", "created_at", "completed_at", "failure_detail", "result",
	}).AddRow("a-5", "PayQatar", "", "completed", time.Now().UTC(), time.Now().UTC(), nil, nil)
	mock.ExpectQuery("FROM assessments WHERE id").
		WithArgs("a-5").
		WillReturnRows(rows)

	body, contentType := multipartUpload(t, []uploadFile{
		{"policies.docx", docxFile(t, "text")},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assessments/a-5/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "STATE_CONFLICT")
}

func TestListAssessments(t *testing.T) {
	srv, mock := newTestServer(t)

	rows := sqlmock.NewRows([]string{
		"id", "startup_name", "status", "created_at", "completed_at", "overall_score", "readiness_level", "total_gaps",
	}).AddRow("a-6", "PayQatar", "completed", time.Now().UTC(), time.Now().UTC(), "62.5", "MODERATE", "3")
	mock.ExpectQuery("ORDER BY created_at DESC").
		WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodGet, "/api/assessments", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Assessments []models.AssessmentSummary `json:"assessments"`
		Count       int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Assessments, 1)
	assert.Equal(t, "MODERATE", resp.Assessments[0].ReadinessLevel)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestIndex(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "finregx-backend")
}

