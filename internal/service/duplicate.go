package service

import (
	"strings"

	"dealintake/internal/model"
	"dealintake/internal/parser"
	"dealintake/internal/utils"
)

// DefaultDuplicateThreshold is the similarity, in percent, at which two
// intakes describe the same property.
const DefaultDuplicateThreshold = 95.0

// Classifier decides whether an intake has been seen before.
type Classifier struct {
	// Threshold is the minimum property similarity counted as a sighting.
	Threshold float64

	assembler *parser.Assembler
}

// NewClassifier creates a classifier. threshold <= 0 means the default.
// assembler re-parses history entries stored without details; nil means the
// default patterns.
func NewClassifier(threshold float64, assembler *parser.Assembler) *Classifier {
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}
	if assembler == nil {
		assembler = parser.NewAssembler(nil, nil)
	}
	return &Classifier{Threshold: threshold, assembler: assembler}
}

// DetailsFromDeal projects a parsed deal onto the comparable fields. Values
// the assembler fills in by default are treated as absent.
func DetailsFromDeal(deal *model.ParsedDeal) model.PropertyDetails {
	if deal == nil {
		return model.PropertyDetails{}
	}
	var d model.PropertyDetails
	if deal.Address.UnitNumber != nil {
		d.UnitNumber = *deal.Address.UnitNumber
	}
	if deal.Address.City != nil {
		d.City = *deal.Address.City
	}
	if deal.Location != model.LocationUnspecified {
		d.Location = deal.Location
	}
	// the category is only meaningful once a type was recognised
	if deal.Type != model.TypeUnknown && deal.Type != "" {
		d.Type = deal.Type
		d.Category = string(deal.Category)
	}
	return d
}

// Similarity averages the word overlap of the fields populated on both sides.
// ok is false when the two share no populated field.
func Similarity(a, b model.PropertyDetails) (score float64, ok bool) {
	af, bf := a.Fields(), b.Fields()
	total, n := 0.0, 0
	for i := range af {
		if strings.TrimSpace(af[i]) == "" || strings.TrimSpace(bf[i]) == "" {
			continue
		}
		total += utils.WordOverlapRatio(af[i], bf[i])
		n++
	}
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}

// Classify compares intake against the history window and the active deals.
// Only history sightings add to the frequency; an active-deal hit just marks
// the intake as a duplicate.
func (c *Classifier) Classify(intake model.PropertyDetails, history []model.IntakeHistoryEntry, active []model.ActiveDeal) model.DuplicateAssessment {
	result := model.DuplicateAssessment{Category: model.BandNew}
	if intake.IsEmpty() {
		return result
	}

	var latest *model.IntakeHistoryEntry
	var latestDetails model.PropertyDetails
	for i := range history {
		entry := &history[i]
		details := c.entryDetails(entry)
		if !c.matches(intake, details) {
			continue
		}
		result.Frequency++
		if latest == nil || entry.ReceivedAt.After(latest.ReceivedAt) {
			latest = entry
			latestDetails = details
		}
	}

	if latest != nil {
		seen := latest.ReceivedAt
		result.LastSeen = &seen
		result.MatchDetails = &latestDetails
	}

	activeHit := false
	for _, deal := range active {
		details := deal.Details()
		if !c.matches(intake, details) {
			continue
		}
		activeHit = true
		if result.MatchDetails == nil {
			result.MatchDetails = &details
		}
		break
	}

	result.IsDuplicate = result.Frequency > 0 || activeHit
	result.Category = model.BandForFrequency(result.Frequency)
	return result
}

// ClassifyDeal is Classify for a freshly assembled deal.
func (c *Classifier) ClassifyDeal(deal *model.ParsedDeal, history []model.IntakeHistoryEntry, active []model.ActiveDeal) model.DuplicateAssessment {
	return c.Classify(DetailsFromDeal(deal), history, active)
}

func (c *Classifier) matches(a, b model.PropertyDetails) bool {
	score, ok := Similarity(a, b)
	return ok && score >= c.Threshold
}

func (c *Classifier) entryDetails(entry *model.IntakeHistoryEntry) model.PropertyDetails {
	if entry.Details != nil {
		return *entry.Details
	}
	return DetailsFromDeal(c.assembler.Assemble(entry.Content))
}
