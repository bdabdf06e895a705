// internal/pipeline/match/evaluator.go
package match

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"finregx-backend/internal/common/config"
	"finregx-backend/internal/models"
	"finregx-backend/internal/rulebook"
)

// Evaluator judges one article against the combined document text. The
// default keyword evaluator is deterministic; the seam exists so a smarter
// scorer can be swapped in without touching the matcher.
type Evaluator interface {
	Evaluate(text string, article rulebook.Article, entities *models.ExtractedEntities) (models.Coverage, string)
}

// KeywordEvaluator grades an article by the fraction of its catalog keywords
// present in the document text. Capital articles are additionally refined
// with the extracted capital figures.
type KeywordEvaluator struct {
	catalog            *rulebook.Catalog
	satisfiedThreshold float64
	partialThreshold   float64
	evidenceWindow     int
}

func NewKeywordEvaluator(catalog *rulebook.Catalog, cfg config.PipelineConfig) *KeywordEvaluator {
	return &KeywordEvaluator{
		catalog:            catalog,
		satisfiedThreshold: cfg.SatisfiedThreshold,
		partialThreshold:   cfg.PartialThreshold,
		evidenceWindow:     cfg.EvidenceWindow,
	}
}

func (e *KeywordEvaluator) Evaluate(text string, article rulebook.Article, entities *models.ExtractedEntities) (models.Coverage, string) {
	lower := strings.ToLower(text)

	hits := 0
	firstHit := -1
	for _, kw := range article.Keywords {
		idx := strings.Index(lower, strings.ToLower(kw))
		if idx < 0 {
			continue
		}
		hits++
		if firstHit < 0 || idx < firstHit {
			firstHit = idx
		}
	}

	ratio := float64(hits) / float64(len(article.Keywords))
	coverage := models.CoverageAbsent
	switch {
	case ratio >= e.satisfiedThreshold:
		coverage = models.CoverageSatisfied
	case ratio >= e.partialThreshold:
		coverage = models.CoveragePartial
	}

	evidence := ""
	if firstHit >= 0 {
		evidence = snippet(text, firstHit, e.evidenceWindow)
	}

	// Only the critical capital article states a numeric floor, so only it
	// gets the figure-based refinement.
	if article.Category == "Capital" && article.Critical && entities != nil {
		return e.refineCapital(entities, coverage, evidence)
	}
	return coverage, evidence
}

// refineCapital overrides the keyword verdict for capital articles when the
// extracted figures allow a numeric comparison against the licensing floor.
// A disclosed but insufficient paid-up capital is treated as absent so the
// shortfall surfaces as a top-severity gap.
func (e *KeywordEvaluator) refineCapital(entities *models.ExtractedEntities, fallback models.Coverage, evidence string) (models.Coverage, string) {
	if entities.PaidUpCapital <= 0 {
		return fallback, evidence
	}
	req, ok := e.catalog.CapitalRequirementFor(entities.BusinessCategory)
	if !ok {
		// Capital disclosed but the business model is unclassified, so
		// the floor cannot be checked.
		if fallback == models.CoverageAbsent {
			return models.CoveragePartial, evidence
		}
		return fallback, evidence
	}

	if entities.PaidUpCapital >= req.MinimumCapital {
		return models.CoverageSatisfied, fmt.Sprintf(
			"Disclosed paid-up capital QAR %.0f meets the %s minimum of QAR %.0f.",
			entities.PaidUpCapital, entities.BusinessCategory, req.MinimumCapital,
		)
	}
	return models.CoverageAbsent, fmt.Sprintf(
		"Disclosed paid-up capital QAR %.0f is below the %s minimum of QAR %.0f.",
		entities.PaidUpCapital, entities.BusinessCategory, req.MinimumCapital,
	)
}

// snippet cuts a window of text centered on pos. The window edges are walked
// back to rune boundaries so the evidence is always valid UTF-8.
func snippet(text string, pos, window int) string {
	if window <= 0 {
		return ""
	}
	start := pos - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	s := strings.TrimSpace(text[start:end])
	s = strings.Join(strings.Fields(s), " ")
	return s
}
