// internal/pipeline/match/matcher.go
package match

import (
	"context"
	"sync"

	"finregx-backend/internal/common/logger"
	"finregx-backend/internal/models"
	"finregx-backend/internal/rulebook"
)

// Matcher evaluates every catalog article against the combined document
// text. Articles are graded concurrently; the returned verdict set always
// follows catalog order and covers every article exactly once.
type Matcher struct {
	catalog *rulebook.Catalog
	eval    Evaluator
	workers int
	log     logger.Logger
}

func New(catalog *rulebook.Catalog, eval Evaluator, workers int, log logger.Logger) *Matcher {
	if workers < 1 {
		workers = 1
	}
	return &Matcher{catalog: catalog, eval: eval, workers: workers, log: log}
}

// Match produces one verdict per catalog article.
func (m *Matcher) Match(ctx context.Context, text string, entities *models.ExtractedEntities) ([]models.Verdict, error) {
	articles := m.catalog.Articles
	verdicts := make([]models.Verdict, len(articles))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < m.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				article := articles[idx]
				coverage, evidence := m.eval.Evaluate(text, article, entities)
				verdicts[idx] = models.Verdict{
					ArticleID: article.ID,
					Coverage:  coverage,
					Evidence:  evidence,
				}
			}
		}()
	}

	for idx := range articles {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := map[models.Coverage]int{}
	for _, v := range verdicts {
		counts[v.Coverage]++
	}
	m.log.Info("clause matching complete", map[string]interface{}{
		"articles":  len(verdicts),
		"satisfied": counts[models.CoverageSatisfied],
		"partial":   counts[models.CoveragePartial],
		"absent":    counts[models.CoverageAbsent],
	})

	return verdicts, nil
}
