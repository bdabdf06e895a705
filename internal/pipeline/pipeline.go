// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finregx-backend/internal/common/config"
	stderrors "finregx-backend/internal/common/errors"
	"finregx-backend/internal/common/logger"
	"finregx-backend/internal/common/metrics"
	"finregx-backend/internal/common/observability"
	"finregx-backend/internal/models"
	"finregx-backend/internal/pipeline/gaps"
	"finregx-backend/internal/pipeline/ingest"
	"finregx-backend/internal/pipeline/match"
	"finregx-backend/internal/pipeline/recommend"
	"finregx-backend/internal/pipeline/score"
	"finregx-backend/internal/rulebook"
)

// Output is the full result of one pipeline run, ready to be attached to
// the assessment record.
type Output struct {
	Entities          *models.ExtractedEntities
	Verdicts          []models.Verdict
	Gaps              []models.Gap
	Score             *models.Score
	Recommendations   *models.Recommendations
	DocumentsAnalyzed []string
	Warnings          []string
	CombinedText      string
}

// Runner executes the assessment pipeline synchronously: ingest the
// documents, match every catalog article, derive gaps and scores from the
// verdict set, then attach recommendations. The whole run shares one
// deadline.
type Runner struct {
	catalog  *rulebook.Catalog
	ingestor *ingest.Ingestor
	matcher  *match.Matcher
	cfg      config.PipelineConfig
	obs      *observability.Observability
	log      logger.Logger
}

func NewRunner(catalog *rulebook.Catalog, cfg config.PipelineConfig, obs *observability.Observability, log logger.Logger) *Runner {
	return NewRunnerWithEvaluator(catalog, cfg, obs, log, match.NewKeywordEvaluator(catalog, cfg))
}

// NewRunnerWithEvaluator wires a custom article evaluator in place of the
// default keyword evaluator.
func NewRunnerWithEvaluator(catalog *rulebook.Catalog, cfg config.PipelineConfig, obs *observability.Observability, log logger.Logger, eval match.Evaluator) *Runner {
	return &Runner{
		catalog:  catalog,
		ingestor: ingest.New(log),
		matcher:  match.New(catalog, eval, cfg.MatchWorkers, log),
		cfg:      cfg,
		obs:      obs,
		log:      log,
	}
}

// Run processes the uploaded documents for one assessment. Errors come back
// as StandardError values; a run that exceeds the configured timeout fails
// with a timeout error rather than hanging.
func (r *Runner) Run(ctx context.Context, assessmentID string, docs []*models.UploadedDocument) (*Output, error) {
	timeout := time.Duration(r.cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	metrics.PipelinesActive.Inc()
	defer metrics.PipelinesActive.Dec()

	start := time.Now()
	out, err := r.run(ctx, assessmentID, docs)
	elapsed := time.Since(start)

	status := "completed"
	if err != nil {
		status = "failed"
	}
	r.obs.RecordRun(ctx, status)
	r.obs.RecordRunDuration(ctx, elapsed, status)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = stderrors.NewPipelineTimeoutError(fmt.Sprintf("assessment %s exceeded the %s pipeline deadline", assessmentID, timeout))
		}
		r.log.Error("pipeline run failed", map[string]interface{}{
			"assessment_id": assessmentID,
			"duration_ms":   elapsed.Milliseconds(),
			"error":         err.Error(),
		})
		return nil, err
	}

	r.log.Info("pipeline run completed", map[string]interface{}{
		"assessment_id":   assessmentID,
		"duration_ms":     elapsed.Milliseconds(),
		"overall_score":   out.Score.OverallScore,
		"readiness_level": out.Score.ReadinessLevel,
		"total_gaps":      out.Score.TotalGaps,
	})
	return out, nil
}

func (r *Runner) run(ctx context.Context, assessmentID string, docs []*models.UploadedDocument) (*Output, error) {
	ingested, err := r.timedIngest(ctx, docs)
	if err != nil {
		return nil, err
	}

	verdicts, err := r.timedMatch(ctx, ingested)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, stderrors.NewPipelineError("match", err)
	}

	stageStart := time.Now()
	gapList := gaps.Detect(r.catalog, verdicts)
	scorecard := score.Compute(r.catalog, verdicts, gapList, r.cfg.ReadinessLevels)
	metrics.PipelineStageDuration.WithLabelValues("analyze").Observe(time.Since(stageStart).Seconds())

	stageStart = time.Now()
	recs := recommend.Build(r.catalog, gapList)
	metrics.PipelineStageDuration.WithLabelValues("recommend").Observe(time.Since(stageStart).Seconds())

	return &Output{
		Entities:          ingested.Entities,
		Verdicts:          verdicts,
		Gaps:              gapList,
		Score:             scorecard,
		Recommendations:   recs,
		DocumentsAnalyzed: ingested.Analyzed,
		Warnings:          ingested.Warnings,
		CombinedText:      ingested.CombinedText,
	}, nil
}

func (r *Runner) timedIngest(ctx context.Context, docs []*models.UploadedDocument) (*ingest.Result, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("ingest").Observe(time.Since(start).Seconds())
	}()
	return r.ingestor.Ingest(ctx, docs)
}

func (r *Runner) timedMatch(ctx context.Context, ingested *ingest.Result) ([]models.Verdict, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("match").Observe(time.Since(start).Seconds())
	}()
	return r.matcher.Match(ctx, ingested.CombinedText, ingested.Entities)
}
