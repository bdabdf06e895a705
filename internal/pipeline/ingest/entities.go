// internal/pipeline/ingest/entities.go
package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"finregx-backend/internal/models"
)

// minCapitalMention filters out figures too small to be a capital amount,
// such as clause numbers or percentages caught by the amount pattern.
const minCapitalMention = 100000

var (
	paidUpCapitalRe     = regexp.MustCompile(`(?i)paid[\s-]?up\s+(?:share\s+)?capital[^0-9]{0,60}?([0-9][0-9,]*(?:\.[0-9]+)?)\s*(million|mn|m\b)?`)
	authorizedCapitalRe = regexp.MustCompile(`(?i)authori[sz]ed\s+(?:share\s+)?capital[^0-9]{0,60}?([0-9][0-9,]*(?:\.[0-9]+)?)\s*(million|mn|m\b)?`)

	dataLocationRe = regexp.MustCompile(`(?i)data\s+(?:is\s+|will\s+be\s+|are\s+)?(?:stored|hosted|located|resides?|kept|maintained)\s+(?:in|at|within)\s+(?:the\s+)?([A-Za-z][A-Za-z ]{1,40}?)(?:[.,;\n]|$)`)

	complianceOfficerRe = regexp.MustCompile(`(?i)(?:appointed|designated|hired|employs?|have|has)\s+(?:a\s+|an\s+)?(?:full[\s-]time\s+)?(?:chief\s+)?compliance\s+officer`)
	noComplianceRe      = regexp.MustCompile(`(?i)(?:no|not\s+yet\s+(?:appointed|hired)|without|lacks?|do(?:es)?\s+not\s+have)\s+(?:a\s+|an\s+)?(?:chief\s+)?compliance\s+officer`)

	amlPolicyRe     = regexp.MustCompile(`(?i)(?:aml|anti[\s-]money[\s-]laundering)\s+(?:\S+\s+){0,3}?polic(?:y|ies)`)
	boardApprovedRe = regexp.MustCompile(`(?i)board[\s-]approved|approved\s+by\s+(?:the\s+)?board`)
	txnMonitoringRe = regexp.MustCompile(`(?i)transaction\s+monitoring|monitor(?:s|ing)?\s+(?:\S+\s+){0,2}?transactions`)
)

// businessCategoryHints maps business-model language onto the licensing
// categories used by the capital requirement table. First match wins, so
// more specific phrasings are listed before generic ones.
var businessCategoryHints = []struct {
	pattern  *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`(?i)peer[\s-]to[\s-]peer|p2p\s+lending|crowdfunding`), "Category 2"},
	{regexp.MustCompile(`(?i)wealth\s+management|robo[\s-]advis|investment\s+advisory|portfolio\s+management`), "Category 3"},
	{regexp.MustCompile(`(?i)payment\s+(?:service|gateway|processing|provider)|money\s+(?:transfer|remittance)|digital\s+wallet|\bpsp\b`), "Category 1"},
}

// ExtractEntities pulls structured facts out of the combined document text.
// Extraction is deterministic: the same text always yields the same entities.
func ExtractEntities(text string) *models.ExtractedEntities {
	e := &models.ExtractedEntities{}

	e.PaidUpCapital = extractAmount(paidUpCapitalRe, text)
	e.AuthorizedCapital = extractAmount(authorizedCapitalRe, text)

	for _, m := range dataLocationRe.FindAllStringSubmatch(text, -1) {
		loc := strings.TrimSpace(m[1])
		if loc == "" {
			continue
		}
		if !containsFold(e.DataLocations, loc) {
			e.DataLocations = append(e.DataLocations, loc)
		}
	}

	// A statement that there is no compliance officer overrides any
	// generic mention of the role.
	e.HasComplianceRole = complianceOfficerRe.MatchString(text) && !noComplianceRe.MatchString(text)

	e.HasAMLPolicy = amlPolicyRe.MatchString(text)
	e.AMLBoardApproved = e.HasAMLPolicy && boardApprovedRe.MatchString(text)
	e.HasTxnMonitoring = txnMonitoringRe.MatchString(text)

	for _, hint := range businessCategoryHints {
		if hint.pattern.MatchString(text) {
			e.BusinessCategory = hint.category
			break
		}
	}

	return e
}

// extractAmount parses the largest amount matched by re, normalizing
// "5 million" style figures to absolute QAR values.
func extractAmount(re *regexp.Regexp, text string) float64 {
	best := 0.0
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			val *= 1_000_000
		}
		if val >= minCapitalMention && val > best {
			best = val
		}
	}
	return best
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
