package parser

import (
	"regexp"
	"strings"

	"dealintake/internal/model"
)

var (
	buyerCues  = []string{"want", "need", "require", "looking for", "urgent", "buy", "budget"}
	sellerCues = []string{"available", "sale", "sell", "inventory", "offer", "hot", "fresh", "resale", "booking"}
)

// intentOverrides are literal phrases that decide intent outright, checked in order.
var intentOverrides = []struct {
	phrase string
	intent model.Intent
}{
	{"want to sell", model.IntentSeller},
	{"available for rent", model.IntentLandlord},
	{"want to rent", model.IntentTenant},
}

// DetermineIntent scores buyer against seller cues over the whole message.
// A tie goes to SELLER: most messages shared in broker groups are inventory.
func DetermineIntent(text string) model.Intent {
	t := strings.ToLower(text)

	for _, o := range intentOverrides {
		if strings.Contains(t, o.phrase) {
			return o.intent
		}
	}

	buyerScore, sellerScore := 0, 0
	for _, w := range buyerCues {
		if strings.Contains(t, w) {
			buyerScore++
		}
	}
	for _, w := range sellerCues {
		if strings.Contains(t, w) {
			sellerScore++
		}
	}

	if buyerScore > sellerScore {
		return model.IntentBuyer
	}
	return model.IntentSeller
}

var (
	directRe  = regexp.MustCompile(`(?i)\b(?:direct|party|owner)s?\b`)
	cihRe     = regexp.MustCompile(`(?i)\b(?:cih|client[\s\-]*in[\s\-]*hand)\b`)
	resaleRe  = regexp.MustCompile(`(?i)\b(?:resale|re-sale)\b`)
	freshRe   = regexp.MustCompile(`(?i)\b(?:fresh|booking|new\s+launch)\b`)
	urgentRe  = regexp.MustCompile(`(?i)\b(?:urgent|urgently|immediate|immediately|fire|hot)\b`)
	premiumRe = regexp.MustCompile(`(?i)\b(?:corner|park[\s\-]*facing)\b`)
)

// DetectTags returns the markers found in text in a fixed order. RESALE and
// FRESH are exclusive; resale cues win.
func DetectTags(text string) []model.Tag {
	tags := make([]model.Tag, 0, 4)
	if directRe.MatchString(text) {
		tags = append(tags, model.TagDirect)
	}
	if cihRe.MatchString(text) {
		tags = append(tags, model.TagCIH)
	}
	if resaleRe.MatchString(text) {
		tags = append(tags, model.TagResale)
	} else if freshRe.MatchString(text) {
		tags = append(tags, model.TagFresh)
	}
	if urgentRe.MatchString(text) {
		tags = append(tags, model.TagUrgent)
	}
	if premiumRe.MatchString(text) {
		tags = append(tags, model.TagPremium)
	}
	return tags
}
