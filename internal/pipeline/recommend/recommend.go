// internal/pipeline/recommend/recommend.go
package recommend

import (
	"finregx-backend/internal/models"
	"finregx-backend/internal/rulebook"
)

// Build matches the curated expert and program catalog against the detected
// gap categories. With no gaps there is nothing to remediate, so both lists
// come back empty — including always-on programs.
func Build(catalog *rulebook.Catalog, gapList []models.Gap) *models.Recommendations {
	recs := &models.Recommendations{
		Experts:  []models.ExpertRecommendation{},
		Programs: []models.ProgramRecommendation{},
	}
	if len(gapList) == 0 {
		return recs
	}

	gapCategories := make(map[string]bool)
	gapArticles := make(map[string]bool)
	for _, g := range gapList {
		gapCategories[g.Category] = true
		gapArticles[g.ArticleID] = true
	}

	seenExperts := make(map[string]bool)
	for _, e := range catalog.Experts {
		if seenExperts[e.ID] || !intersects(e.Categories, gapCategories) {
			continue
		}
		seenExperts[e.ID] = true

		relevant := make([]string, 0, len(e.ArticleMapping))
		for _, id := range e.ArticleMapping {
			if gapArticles[id] {
				relevant = append(relevant, id)
			}
		}

		recs.Experts = append(recs.Experts, models.ExpertRecommendation{
			ExpertID:         e.ID,
			Name:             e.Name,
			Specialization:   e.Specialization,
			Contact:          e.Contact,
			Categories:       e.Categories,
			RelevantArticles: relevant,
		})
	}

	seenPrograms := make(map[string]bool)
	for _, p := range catalog.Programs {
		if seenPrograms[p.ID] {
			continue
		}
		if !p.AlwaysInclude && !intersects(p.Categories, gapCategories) {
			continue
		}
		seenPrograms[p.ID] = true

		recs.Programs = append(recs.Programs, models.ProgramRecommendation{
			ProgramID:   p.ID,
			Name:        p.Name,
			Description: p.Description,
			Duration:    p.Duration,
			FocusAreas:  p.FocusAreas,
			Categories:  p.Categories,
			Website:     p.Website,
		})
	}

	return recs
}

func intersects(categories []string, wanted map[string]bool) bool {
	for _, c := range categories {
		if wanted[c] {
			return true
		}
	}
	return false
}
