// internal/pipeline/gaps/gaps.go
package gaps

import (
	"fmt"
	"strings"

	"finregx-backend/internal/models"
	"finregx-backend/internal/rulebook"
)

// Detect derives the gap list from a verdict set. It is a pure function:
// same catalog and verdicts, same gaps. Gaps come out in verdict (catalog)
// order, one per non-satisfied article.
func Detect(catalog *rulebook.Catalog, verdicts []models.Verdict) []models.Gap {
	out := make([]models.Gap, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Coverage == models.CoverageSatisfied {
			continue
		}
		article, ok := catalog.ArticleByID(v.ArticleID)
		if !ok {
			continue
		}
		out = append(out, models.Gap{
			GapID:          gapID(article.ID),
			ArticleID:      article.ID,
			ArticleName:    article.Name,
			Category:       article.Category,
			Severity:       severityFor(v.Coverage, article.Critical),
			Status:         string(v.Coverage),
			Description:    describe(article, v),
			Requirement:    article.Requirement,
			Recommendation: article.Recommendation,
		})
	}
	return out
}

// severityFor ranks a gap. A missing critical requirement is always HIGH;
// partial coverage of a critical requirement is MEDIUM, everything else
// steps down one level.
func severityFor(coverage models.Coverage, critical bool) models.Severity {
	if coverage == models.CoverageAbsent {
		if critical {
			return models.SeverityHigh
		}
		return models.SeverityMedium
	}
	if critical {
		return models.SeverityMedium
	}
	return models.SeverityLow
}

func gapID(articleID string) string {
	return "GAP_" + strings.ReplaceAll(articleID, ".", "_")
}

func describe(article *rulebook.Article, v models.Verdict) string {
	// Capital shortfall verdicts carry a precise explanation already.
	if v.Evidence != "" && strings.Contains(v.Evidence, "below the") {
		return v.Evidence
	}
	if v.Coverage == models.CoverageAbsent {
		return fmt.Sprintf("No evidence addressing %q was found in the submitted documents.", article.Name)
	}
	return fmt.Sprintf("The submitted documents only partially address %q.", article.Name)
}
