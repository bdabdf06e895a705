// internal/store/assessments.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"finregx-backend/internal/common/database"
	stderrors "finregx-backend/internal/common/errors"
	"finregx-backend/internal/common/logger"
	"finregx-backend/internal/models"
)

// completedCacheTTL bounds how long a completed assessment's rendered JSON
// stays in Redis. Completed assessments are immutable, so the TTL only
// limits cache footprint, not correctness.
const completedCacheTTL = 24 * time.Hour

// AssessmentStore persists assessments in PostgreSQL and keeps the rendered
// JSON of completed assessments in Redis so repeated reads return
// byte-identical payloads.
type AssessmentStore struct {
	db    *database.PostgresClient
	cache *database.RedisClient
	log   logger.Logger
}

func NewAssessmentStore(db *database.PostgresClient, cache *database.RedisClient, log logger.Logger) *AssessmentStore {
	return &AssessmentStore{db: db, cache: cache, log: log}
}

// Create inserts a new pending assessment.
func (s *AssessmentStore) Create(ctx context.Context, a *models.Assessment) error {
	const q = `
		INSERT INTO assessments (id, startup_name, contact_email, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.Exec(ctx, q, a.ID, a.StartupName, a.ContactEmail, string(a.Status), a.CreatedAt)
	if err != nil {
		return stderrors.NewDatabaseError("create assessment", err)
	}
	return nil
}

// Get loads one assessment. Completed assessments are rebuilt from the
// persisted result document.
func (s *AssessmentStore) Get(ctx context.Context, id string) (*models.Assessment, error) {
	const q = `
		SELECT id, startup_name, contact_email, status, created_at, completed_at, failure_detail, result
		FROM assessments WHERE id = $1`

	var (
		a             models.Assessment
		status        string
		completedAt   sql.NullTime
		failureDetail sql.NullString
		result        []byte
	)
	err := s.db.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.StartupName, &a.ContactEmail, &status, &a.CreatedAt, &completedAt, &failureDetail, &result,
	)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewNotFoundError("assessment", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseError("get assessment", err)
	}

	a.Status = models.AssessmentStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	if failureDetail.Valid {
		a.FailureDetail = failureDetail.String
	}
	if len(result) > 0 {
		// The result column holds the full rendered assessment; it wins
		// over the bare columns for completed records.
		var full models.Assessment
		if err := json.Unmarshal(result, &full); err != nil {
			return nil, stderrors.NewDatabaseError("decode assessment result", err)
		}
		return &full, nil
	}
	return &a, nil
}

// GetCompletedJSON returns the cached rendered JSON of a completed
// assessment, falling back to the database when the cache misses. The
// returned bytes are stable across calls for the same assessment.
func (s *AssessmentStore) GetCompletedJSON(ctx context.Context, id string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.GetBytes(ctx, cacheKey(id))
	if err != nil {
		if !database.IsNil(err) {
			s.log.Warn("assessment cache read failed", map[string]interface{}{
				"assessment_id": id,
				"error":         err.Error(),
			})
		}
		return nil, false
	}
	return data, true
}

// List returns assessment summaries, newest first.
func (s *AssessmentStore) List(ctx context.Context) ([]models.AssessmentSummary, error) {
	const q = `
		SELECT id, startup_name, status, created_at, completed_at,
		       result->'score'->>'overall_score',
		       result->'score'->>'readiness_level',
		       result->'score'->>'total_gaps'
		FROM assessments ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, stderrors.NewDatabaseError("list assessments", err)
	}
	defer rows.Close()

	summaries := []models.AssessmentSummary{}
	for rows.Next() {
		var (
			sum         models.AssessmentSummary
			status      string
			completedAt sql.NullTime
			score       sql.NullString
			level       sql.NullString
			gapsCount   sql.NullString
		)
		if err := rows.Scan(&sum.ID, &sum.StartupName, &status, &sum.CreatedAt, &completedAt, &score, &level, &gapsCount); err != nil {
			return nil, stderrors.NewDatabaseError("scan assessment row", err)
		}
		sum.Status = models.AssessmentStatus(status)
		if completedAt.Valid {
			t := completedAt.Time
			sum.CompletedAt = &t
		}
		if score.Valid {
			var v float64
			if _, err := fmt.Sscanf(score.String, "%g", &v); err == nil {
				sum.OverallScore = &v
			}
		}
		if level.Valid {
			sum.ReadinessLevel = level.String
		}
		if gapsCount.Valid {
			var n int
			if _, err := fmt.Sscanf(gapsCount.String, "%d", &n); err == nil {
				sum.TotalGaps = &n
			}
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseError("list assessments", err)
	}
	return summaries, nil
}

// MarkProcessing moves a pending assessment to processing. The WHERE clause
// enforces the status transition at the database, so a concurrent second
// upload loses cleanly.
func (s *AssessmentStore) MarkProcessing(ctx context.Context, id string) error {
	const q = `UPDATE assessments SET status = $1 WHERE id = $2 AND status = $3`

	res, err := s.db.Exec(ctx, q, string(models.StatusProcessing), id, string(models.StatusPending))
	if err != nil {
		return stderrors.NewDatabaseError("mark assessment processing", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewDatabaseError("mark assessment processing", err)
	}
	if affected == 0 {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return getErr
		}
		return stderrors.NewStateConflictError(fmt.Sprintf("assessment %s has already been processed", id))
	}
	return nil
}

// Complete finalizes a processing assessment with its rendered result and
// caches the exact JSON served to clients.
func (s *AssessmentStore) Complete(ctx context.Context, a *models.Assessment) error {
	rendered, err := json.Marshal(a)
	if err != nil {
		return stderrors.NewInternalError(fmt.Errorf("render assessment %s: %w", a.ID, err))
	}

	const q = `
		UPDATE assessments SET status = $1, completed_at = $2, result = $3
		WHERE id = $4 AND status = $5`

	res, err := s.db.Exec(ctx, q, string(models.StatusCompleted), a.CompletedAt, rendered, a.ID, string(models.StatusProcessing))
	if err != nil {
		return stderrors.NewDatabaseError("complete assessment", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewDatabaseError("complete assessment", err)
	}
	if affected == 0 {
		return stderrors.NewStateConflictError(fmt.Sprintf("assessment %s is not processing", a.ID))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(a.ID), rendered, completedCacheTTL); err != nil {
			s.log.Warn("assessment cache write failed", map[string]interface{}{
				"assessment_id": a.ID,
				"error":         err.Error(),
			})
		}
	}
	return nil
}

// Fail marks an assessment failed with a client-readable explanation.
// Failure is terminal but reachable from both pending and processing.
func (s *AssessmentStore) Fail(ctx context.Context, id, detail string) error {
	const q = `
		UPDATE assessments SET status = $1, failure_detail = $2
		WHERE id = $3 AND status IN ($4, $5)`

	res, err := s.db.Exec(ctx, q, string(models.StatusFailed), detail, id,
		string(models.StatusPending), string(models.StatusProcessing))
	if err != nil {
		return stderrors.NewDatabaseError("fail assessment", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewDatabaseError("fail assessment", err)
	}
	if affected == 0 {
		return stderrors.NewStateConflictError(fmt.Sprintf("assessment %s is already terminal", id))
	}
	return nil
}

func cacheKey(id string) string {
	return "assessment:completed:" + id
}
