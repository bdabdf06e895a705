// internal/rulebook/rulebook.go
package rulebook

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// shareEpsilon is the rounding tolerance allowed when category shares are
// checked against 100.
const shareEpsilon = 0.01

// Article is one regulatory requirement item in the catalog.
type Article struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Weight         float64  `json:"weight"`
	Critical       bool     `json:"critical"`
	Requirement    string   `json:"requirement"`
	Keywords       []string `json:"keywords"`
	Recommendation string   `json:"recommendation"`
}

// Category groups articles and carries the category's share of the overall
// 100-point rubric.
type Category struct {
	Name  string  `json:"name"`
	Share float64 `json:"share"`
}

// CapitalRequirement is the minimum paid-up capital for one licensing
// category of fintech business.
type CapitalRequirement struct {
	Name           string  `json:"name"`
	MinimumCapital float64 `json:"minimum_capital"`
	Description    string  `json:"description"`
}

// Expert is a curated advisor entry in the resource catalog.
type Expert struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialization string   `json:"specialization"`
	Contact        string   `json:"contact"`
	Categories     []string `json:"categories"`
	ArticleMapping []string `json:"article_mapping"`
}

// Program is a curated support-program entry in the resource catalog.
type Program struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Duration      string   `json:"duration"`
	FocusAreas    []string `json:"focus_areas"`
	Categories    []string `json:"categories"`
	Website       string   `json:"website"`
	AlwaysInclude bool     `json:"always_include"`
}

// Catalog is the versioned rule set an assessment is evaluated against.
// It is loaded once at process start and treated as immutable afterwards.
type Catalog struct {
	Version             string                        `json:"version"`
	Categories          []Category                    `json:"categories"`
	Articles            []Article                     `json:"articles"`
	CapitalRequirements map[string]CapitalRequirement `json:"capital_requirements"`
	Experts             []Expert                      `json:"experts"`
	Programs            []Program                     `json:"programs"`

	byID    map[string]*Article
	byShare map[string]float64
}

// Load reads, schema-validates, and invariant-checks a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulebook %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw JSON.
func Parse(data []byte) (*Catalog, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("unmarshal rulebook: %w", err)
	}

	if err := cat.checkInvariants(); err != nil {
		return nil, err
	}

	cat.byID = make(map[string]*Article, len(cat.Articles))
	cat.byShare = make(map[string]float64, len(cat.Categories))
	for i := range cat.Articles {
		cat.byID[cat.Articles[i].ID] = &cat.Articles[i]
	}
	for _, c := range cat.Categories {
		cat.byShare[c.Name] = c.Share
	}

	return &cat, nil
}

func validateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(catalogSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("rulebook schema validation: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("rulebook schema violations: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// checkInvariants enforces the catalog-level rules: shares sum to 100,
// every article belongs to a declared category, weights are positive, and
// each category's article weights sum to its share.
func (c *Catalog) checkInvariants() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("rulebook has no categories")
	}

	shares := make(map[string]float64, len(c.Categories))
	total := 0.0
	for _, cat := range c.Categories {
		if cat.Share <= 0 {
			return fmt.Errorf("category %q has non-positive share %v", cat.Name, cat.Share)
		}
		if _, dup := shares[cat.Name]; dup {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		shares[cat.Name] = cat.Share
		total += cat.Share
	}
	if math.Abs(total-100) > shareEpsilon {
		return fmt.Errorf("category shares sum to %v, want 100", total)
	}

	seen := make(map[string]bool, len(c.Articles))
	weightByCategory := make(map[string]float64, len(c.Categories))
	for _, a := range c.Articles {
		if seen[a.ID] {
			return fmt.Errorf("duplicate article %q", a.ID)
		}
		seen[a.ID] = true
		if a.Weight <= 0 {
			return fmt.Errorf("article %q has non-positive weight %v", a.ID, a.Weight)
		}
		if _, ok := shares[a.Category]; !ok {
			return fmt.Errorf("article %q references unknown category %q", a.ID, a.Category)
		}
		if len(a.Keywords) == 0 {
			return fmt.Errorf("article %q has no keywords", a.ID)
		}
		weightByCategory[a.Category] += a.Weight
	}

	for name, share := range shares {
		if got := weightByCategory[name]; math.Abs(got-share) > shareEpsilon {
			return fmt.Errorf("category %q article weights sum to %v, want share %v", name, got, share)
		}
	}

	return nil
}

// ArticleByID returns the article with the given id, if present.
func (c *Catalog) ArticleByID(id string) (*Article, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// CategoryShare returns a category's declared share of the 100-point rubric.
func (c *Catalog) CategoryShare(name string) float64 {
	return c.byShare[name]
}

// CategoryNames returns the declared category set in a stable order.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	sort.Strings(names)
	return names
}

// CapitalRequirementFor returns the capital floor for a business category
// label such as "Category 1".
func (c *Catalog) CapitalRequirementFor(businessCategory string) (CapitalRequirement, bool) {
	req, ok := c.CapitalRequirements[businessCategory]
	return req, ok
}
