// internal/pipeline/score/score_test.go
package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finregx-backend/internal/common/config"
	"finregx-backend/internal/models"
	"finregx-backend/internal/pipeline/gaps"
	"finregx-backend/internal/rulebook"
)

const scoreCatalogJSON = `{
  "version": "test",
  "categories": [
    {"name": "AML", "share": 60},
    {"name": "Governance", "share": 40}
  ],
  "articles": [
    {
      "id": "1.1.1",
      "name": "AML Policy",
      "category": "AML",
      "weight": 40,
      "critical": true,
      "requirement": "Maintain a board-approved AML policy.",
      "keywords": ["aml policy"],
      "recommendation": "Draft an AML policy."
    },
    {
      "id": "1.1.2",
      "name": "Transaction Monitoring",
      "category": "AML",
      "weight": 20,
      "requirement": "Monitor transactions continuously.",
      "keywords": ["transaction monitoring"],
      "recommendation": "Deploy monitoring."
    },
    {
      "id": "2.2.1",
      "name": "Compliance Officer",
      "category": "Governance",
      "weight": 40,
      "critical": true,
      "requirement": "Appoint a dedicated compliance officer.",
      "keywords": ["compliance officer"],
      "recommendation": "Appoint an officer."
    }
  ]
}`

func scoreCatalog(t *testing.T) *rulebook.Catalog {
	t.Helper()
	cat, err := rulebook.Parse([]byte(scoreCatalogJSON))
	require.NoError(t, err)
	return cat
}

func defaultLevels() []config.ReadinessLevel {
	return []config.ReadinessLevel{
		{MinScore: 90, Level: "EXCELLENT", Color: "green"},
		{MinScore: 75, Level: "GOOD", Color: "blue"},
		{MinScore: 50, Level: "MODERATE", Color: "yellow"},
		{MinScore: 25, Level: "POOR", Color: "orange"},
		{MinScore: 0, Level: "CRITICAL", Color: "red"},
	}
}

func TestComputeAllSatisfied(t *testing.T) {
	cat := scoreCatalog(t)
	verdicts := []models.Verdict{
		{ArticleID: "1.1.1", Coverage: models.CoverageSatisfied},
		{ArticleID: "1.1.2", Coverage: models.CoverageSatisfied},
		{ArticleID: "2.2.1", Coverage: models.CoverageSatisfied},
	}

	s := Compute(cat, verdicts, nil, defaultLevels())

	assert.Equal(t, 100.0, s.OverallScore)
	assert.Equal(t, "EXCELLENT", s.ReadinessLevel)
	assert.Equal(t, "green", s.ReadinessColor)
	assert.Equal(t, 0, s.TotalGaps)
	assert.Equal(t, 100.0, s.CategoryScores["AML"])
	assert.Equal(t, 100.0, s.CategoryScores["Governance"])
}

func TestComputeAllAbsent(t *testing.T) {
	cat := scoreCatalog(t)
	verdicts := []models.Verdict{
		{ArticleID: "1.1.1", Coverage: models.CoverageAbsent},
		{ArticleID: "1.1.2", Coverage: models.CoverageAbsent},
		{ArticleID: "2.2.1", Coverage: models.CoverageAbsent},
	}
	gapList := gaps.Detect(cat, verdicts)

	s := Compute(cat, verdicts, gapList, defaultLevels())

	assert.Equal(t, 0.0, s.OverallScore)
	assert.Equal(t, "CRITICAL", s.ReadinessLevel)
	assert.Equal(t, "red", s.ReadinessColor)
	assert.Equal(t, len(cat.Articles), s.TotalGaps)
	assert.Equal(t, 2, s.HighSeverityGaps)
	assert.Equal(t, 1, s.MediumSeverityGaps)
}

func TestComputeWeightedMix(t *testing.T) {
	cat := scoreCatalog(t)
	verdicts := []models.Verdict{
		{ArticleID: "1.1.1", Coverage: models.CoverageSatisfied}, // 40 of 60
		{ArticleID: "1.1.2", Coverage: models.CoveragePartial},   // 10 of 60
		{ArticleID: "2.2.1", Coverage: models.CoverageAbsent},    // 0 of 40
	}
	gapList := gaps.Detect(cat, verdicts)

	s := Compute(cat, verdicts, gapList, defaultLevels())

	// AML: (40*1 + 20*0.5) / 60 = 83.33; Governance: 0.
	assert.InDelta(t, 83.33, s.CategoryScores["AML"], 0.01)
	assert.Equal(t, 0.0, s.CategoryScores["Governance"])
	// Overall: 83.33*0.6 + 0*0.4 = 50.
	assert.InDelta(t, 50.0, s.OverallScore, 0.01)
	assert.Equal(t, "MODERATE", s.ReadinessLevel)

	assert.Equal(t, 1, s.CategoryGapCounts["AML"])
	assert.Equal(t, 1, s.CategoryGapCounts["Governance"])
}

func TestSeverityCountsSumToTotal(t *testing.T) {
	cat := scoreCatalog(t)
	verdicts := []models.Verdict{
		{ArticleID: "1.1.1", Coverage: models.CoveragePartial},
		{ArticleID: "1.1.2", Coverage: models.CoverageAbsent},
		{ArticleID: "2.2.1", Coverage: models.CoverageAbsent},
	}
	gapList := gaps.Detect(cat, verdicts)

	s := Compute(cat, verdicts, gapList, defaultLevels())
	assert.Equal(t, s.TotalGaps, s.HighSeverityGaps+s.MediumSeverityGaps+s.LowSeverityGaps)
}

func TestReadinessBoundaries(t *testing.T) {
	levels := defaultLevels()
	tests := []struct {
		score float64
		want  string
	}{
		{100, "EXCELLENT"},
		{90, "EXCELLENT"},
		{89.99, "GOOD"},
		{75, "GOOD"},
		{50, "MODERATE"},
		{25, "POOR"},
		{24.99, "CRITICAL"},
		{0, "CRITICAL"},
	}
	for _, tt := range tests {
		level, _ := readiness(tt.score, levels)
		assert.Equal(t, tt.want, level, "score %v", tt.score)
	}
}
