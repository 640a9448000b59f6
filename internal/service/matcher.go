package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"dealintake/internal/model"
	"dealintake/internal/utils"
)

// Match reason constants
const (
	ReasonUnitExact     = "Unit number match"
	ReasonUnitMentioned = "Unit number mentioned"
	ReasonUnitPartial   = "Unit number partial match"
	ReasonBlockMatch    = "Block match"
	ReasonSectorMatch   = "Sector match"
	ReasonAreaToken     = "Area match"
	ReasonOwnerMatch    = "Owner match"
	ReasonSizeMatch     = "Size match"
)

// Score weights
const (
	scoreUnitExact     = 50
	scoreUnitMentioned = 45
	scoreUnitPartial   = 30
	scoreBlock         = 25
	scoreSector        = 30
	scoreAreaToken     = 15
	scoreOwner         = 40
	scoreSize          = 15
	maxScore           = 100
)

const (
	DefaultMatchMinScore = 15
	DefaultMatchTopN     = 5
)

// areaStopwords are too common to say anything about a locality
var areaStopwords = map[string]bool{
	"sector": true,
	"phase":  true,
	"mohali": true,
	"city":   true,
}

// Matcher ranks inventory records against a parsed deal
type Matcher struct {
	MinScore int
	TopN     int
}

// NewMatcher creates a matcher; non-positive values fall back to the defaults
func NewMatcher(minScore, topN int) *Matcher {
	if minScore <= 0 {
		minScore = DefaultMatchMinScore
	}
	if topN <= 0 {
		topN = DefaultMatchTopN
	}
	return &Matcher{MinScore: minScore, TopN: topN}
}

// Score scores every record, drops those under MinScore and returns the best
// TopN, highest first. Equal scores keep their input order.
func (m *Matcher) Score(records []model.InventoryRecord, deal *model.ParsedDeal, raw, owner string) []model.InventoryMatch {
	matches := []model.InventoryMatch{}
	if deal == nil && strings.TrimSpace(raw) == "" {
		return matches
	}

	for _, record := range records {
		score, reasons := m.scoreRecord(record, deal, raw, owner)
		if score < m.MinScore {
			continue
		}
		matches = append(matches, model.InventoryMatch{
			Inventory: record,
			Score:     score,
			Reasons:   reasons,
		})
	}

	// Sort by score descending
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > m.TopN {
		matches = matches[:m.TopN]
	}
	return matches
}

func (m *Matcher) scoreRecord(record model.InventoryRecord, deal *model.ParsedDeal, raw, owner string) (int, []string) {
	score := 0
	reasons := []string{}
	add := func(points int, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	if points, reason := unitScore(record, deal, raw); points > 0 {
		add(points, reason)
	}

	if blockMentioned(deref(record.Block), raw) {
		add(scoreBlock, ReasonBlockMatch)
	}

	// Whole-word, not substring: "Sector 8" must not match "Sector 82".
	area := record.AreaText()
	if deal != nil && deal.Address.Sector != nil && utils.ContainsWord(area, *deal.Address.Sector) {
		add(scoreSector, ReasonSectorMatch)
	} else {
		for _, token := range utils.SignificantTokens(area, 3, areaStopwords) {
			if utils.ContainsWord(raw, token) {
				add(scoreAreaToken, fmt.Sprintf("%s: %s", ReasonAreaToken, token))
			}
		}
	}

	if owner = strings.TrimSpace(owner); owner != "" {
		for _, o := range record.Owners {
			if utils.ContainsFold(o, owner) {
				add(scoreOwner, ReasonOwnerMatch)
				break
			}
		}
	}

	if deal != nil && deal.Specs.Size != nil {
		want := utils.DigitsOnly(*deal.Specs.Size)
		if want != "" && want == utils.DigitsOnly(deref(record.Size)) {
			add(scoreSize, ReasonSizeMatch)
		}
	}

	if score > maxScore {
		score = maxScore
	}
	return score, reasons
}

// unitScore applies the first unit rule that fits: exact parsed unit, whole
// word in the message, then bare substring for units longer than two characters.
func unitScore(record model.InventoryRecord, deal *model.ParsedDeal, raw string) (int, string) {
	unit := strings.TrimSpace(deref(record.UnitNumber))
	if unit == "" {
		return 0, ""
	}
	if deal != nil && deal.Address.UnitNumber != nil && strings.EqualFold(unit, strings.TrimSpace(*deal.Address.UnitNumber)) {
		return scoreUnitExact, ReasonUnitExact
	}
	if utils.ContainsWord(raw, unit) {
		return scoreUnitMentioned, ReasonUnitMentioned
	}
	if len(unit) > 2 && utils.ContainsFold(raw, unit) {
		return scoreUnitPartial, ReasonUnitPartial
	}
	return 0, ""
}

var blockWordRe = regexp.MustCompile(`(?i)\bblock\b`)

// blockMentioned reports whether raw names the block, either verbatim or as
// "block <code>" / "<code> block" around its alphanumeric core.
func blockMentioned(block, raw string) bool {
	block = strings.TrimSpace(block)
	if block == "" {
		return false
	}
	if utils.ContainsFold(raw, block) {
		return true
	}
	code := utils.Alphanumeric(blockWordRe.ReplaceAllString(block, ""))
	if code == "" {
		return false
	}
	q := regexp.QuoteMeta(code)
	re, err := regexp.Compile(`(?i)\bblock[\s\-:]*` + q + `\b|\b` + q + `[\s\-]*block\b`)
	if err != nil {
		return false
	}
	return re.MatchString(raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
