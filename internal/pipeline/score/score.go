// internal/pipeline/score/score.go
package score

import (
	"math"

	"finregx-backend/internal/common/config"
	"finregx-backend/internal/models"
	"finregx-backend/internal/rulebook"
)

// Compute aggregates a verdict set into category scores and the overall
// readiness figure. Category scores are weight-normalized within each
// category; the overall score weights categories by their catalog share.
func Compute(catalog *rulebook.Catalog, verdicts []models.Verdict, gapList []models.Gap, levels []config.ReadinessLevel) *models.Score {
	earned := make(map[string]float64)
	possible := make(map[string]float64)
	for _, v := range verdicts {
		article, ok := catalog.ArticleByID(v.ArticleID)
		if !ok {
			continue
		}
		earned[article.Category] += article.Weight * v.Coverage.Value() / 100
		possible[article.Category] += article.Weight
	}

	categoryScores := make(map[string]float64, len(catalog.Categories))
	overall := 0.0
	for _, name := range catalog.CategoryNames() {
		cs := 0.0
		if possible[name] > 0 {
			cs = round2(earned[name] / possible[name] * 100)
		}
		categoryScores[name] = cs
		overall += cs * catalog.CategoryShare(name) / 100
	}
	overall = round2(overall)

	s := &models.Score{
		OverallScore:      overall,
		CategoryScores:    categoryScores,
		CategoryGapCounts: make(map[string]int, len(catalog.Categories)),
		TotalGaps:         len(gapList),
	}
	for _, name := range catalog.CategoryNames() {
		s.CategoryGapCounts[name] = 0
	}
	for _, g := range gapList {
		s.CategoryGapCounts[g.Category]++
		switch g.Severity {
		case models.SeverityHigh:
			s.HighSeverityGaps++
		case models.SeverityMedium:
			s.MediumSeverityGaps++
		case models.SeverityLow:
			s.LowSeverityGaps++
		}
	}

	s.ReadinessLevel, s.ReadinessColor = readiness(overall, levels)
	return s
}

// readiness maps a score onto the configured cut points. Levels are sorted
// descending by MinScore at config load, so the first match wins.
func readiness(overall float64, levels []config.ReadinessLevel) (string, string) {
	for _, l := range levels {
		if overall >= l.MinScore {
			return l.Level, l.Color
		}
	}
	if len(levels) > 0 {
		last := levels[len(levels)-1]
		return last.Level, last.Color
	}
	return "", ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
