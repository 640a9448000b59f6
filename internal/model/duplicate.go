package model

import "time"

// FrequencyBand buckets how many times an intake has been seen before.
type FrequencyBand string

const (
	BandNew         FrequencyBand = "new"
	BandRepeat1x    FrequencyBand = "repeat1x"
	BandRepeat2x    FrequencyBand = "repeat2x"
	BandRepeat3x    FrequencyBand = "repeat3x"
	BandRepeat3Plus FrequencyBand = "repeat3plus"
)

// BandForFrequency maps a prior-sighting count onto its band.
func BandForFrequency(frequency int) FrequencyBand {
	switch {
	case frequency <= 0:
		return BandNew
	case frequency == 1:
		return BandRepeat1x
	case frequency == 2:
		return BandRepeat2x
	case frequency == 3:
		return BandRepeat3x
	default:
		return BandRepeat3Plus
	}
}

// PropertyDetails is the comparable projection of a deal used for dedupe.
// Empty strings mean the field is absent.
type PropertyDetails struct {
	UnitNumber string `json:"unitNumber,omitempty"`
	Project    string `json:"project,omitempty"`
	Location   string `json:"location,omitempty"`
	Category   string `json:"category,omitempty"`
	Type       string `json:"type,omitempty"`
	City       string `json:"city,omitempty"`
}

// Fields returns the six comparable fields in a fixed order.
func (p PropertyDetails) Fields() [6]string {
	return [6]string{p.UnitNumber, p.Project, p.Location, p.Category, p.Type, p.City}
}

// IsEmpty reports whether none of the comparable fields is populated.
func (p PropertyDetails) IsEmpty() bool {
	for _, f := range p.Fields() {
		if f != "" {
			return false
		}
	}
	return true
}

// IntakeHistoryEntry is a persisted envelope around a past intake.
type IntakeHistoryEntry struct {
	ID            string               `json:"id" db:"id"`
	Content       string               `json:"content" db:"content"`
	ReceivedAt    time.Time            `json:"receivedAt" db:"received_at"`
	Category      string               `json:"category" db:"category"`
	Details       *PropertyDetails     `json:"details,omitempty" db:"-"`
	DuplicateInfo *DuplicateAssessment `json:"duplicateInfo,omitempty" db:"-"`
}

// DuplicateAssessment is the classifier verdict for one intake.
type DuplicateAssessment struct {
	IsDuplicate  bool             `json:"isDuplicate"`
	Frequency    int              `json:"frequency"`
	Category     FrequencyBand    `json:"category"`
	MatchDetails *PropertyDetails `json:"matchDetails"`
	LastSeen     *time.Time       `json:"lastSeen"`
}

// ActiveDeal is an open deal already on the books, reduced to the fields the
// duplicate classifier compares.
type ActiveDeal struct {
	ID         string `json:"id" db:"id"`
	UnitNumber string `json:"unitNumber" db:"unit_number"`
	Project    string `json:"project" db:"project"`
	Location   string `json:"location" db:"location"`
	Category   string `json:"category" db:"category"`
	Type       string `json:"type" db:"type"`
	City       string `json:"city" db:"city"`
}

// Details returns the comparable projection of the deal.
func (d ActiveDeal) Details() PropertyDetails {
	return PropertyDetails{
		UnitNumber: d.UnitNumber,
		Project:    d.Project,
		Location:   d.Location,
		Category:   d.Category,
		Type:       d.Type,
		City:       d.City,
	}
}
