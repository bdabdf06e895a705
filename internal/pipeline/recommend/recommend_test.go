// internal/pipeline/recommend/recommend_test.go
package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finregx-backend/internal/models"
	"finregx-backend/internal/rulebook"
)

const recommendCatalogJSON = `{
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
      "weight": 60,
      "critical": true,
      "requirement": "Maintain a board-approved AML policy.",
      "keywords": ["aml policy"],
      "recommendation": "Draft an AML policy."
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
  ],
  "experts": [
    {
      "id": "EXPERT_C101",
      "name": "Dr. Aisha Al-Mansoori",
      "specialization": "AML and financial crime compliance",
      "contact": "aisha@example.com",
      "categories": ["AML"],
      "article_mapping": ["1.1.1"]
    },
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
      "description": "General readiness program.",
      "duration": "6 months",
      "categories": [],
      "always_include": true
    },
    {
      "id": "QDB_EXPERT_002",
      "name": "Compliance Clinic",
      "description": "Targeted compliance support.",
      "duration": "3 months",
      "categories": ["Governance"]
    }
  ]
}`

func recommendCatalog(t *testing.T) *rulebook.Catalog {
	t.Helper()
	cat, err := rulebook.Parse([]byte(recommendCatalogJSON))
	require.NoError(t, err)
	return cat
}

func amlGap() models.Gap {
	return models.Gap{GapID: "GAP_1_1_1", ArticleID: "1.1.1", Category: "AML", Severity: models.SeverityHigh}
}

func governanceGap() models.Gap {
	return models.Gap{GapID: "GAP_2_2_1", ArticleID: "2.2.1", Category: "Governance", Severity: models.SeverityHigh}
}

func TestBuildEmptyWhenNoGaps(t *testing.T) {
	cat := recommendCatalog(t)

	recs := Build(cat, nil)
	require.NotNil(t, recs)
	assert.Empty(t, recs.Experts)
	assert.Empty(t, recs.Programs)
}

func TestBuildMatchesGapCategories(t *testing.T) {
	cat := recommendCatalog(t)

	recs := Build(cat, []models.Gap{amlGap()})

	require.Len(t, recs.Experts, 1)
	assert.Equal(t, "EXPERT_C101", recs.Experts[0].ExpertID)
	assert.Equal(t, []string{"1.1.1"}, recs.Experts[0].RelevantArticles)

	// Only the always-on program applies; the Governance clinic does not.
	require.Len(t, recs.Programs, 1)
	assert.Equal(t, "QDB_INCUBATOR_001", recs.Programs[0].ProgramID)
}

func TestBuildCoversAllGapCategories(t *testing.T) {
	cat := recommendCatalog(t)

	recs := Build(cat, []models.Gap{amlGap(), governanceGap()})

	require.Len(t, recs.Experts, 2)
	require.Len(t, recs.Programs, 2)
}

func TestBuildDedupesAcrossMultipleGapsInOneCategory(t *testing.T) {
	cat := recommendCatalog(t)

	dup := amlGap()
	dup.GapID = "GAP_1_1_1_b"
	recs := Build(cat, []models.Gap{amlGap(), dup})

	assert.Len(t, recs.Experts, 1)
	assert.Len(t, recs.Programs, 1)
}
