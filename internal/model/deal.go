package model

// RawSegment is one candidate message fragment cut from an intake.
type RawSegment struct {
	Text         string `json:"text"`
	SourceOffset int    `json:"sourceOffset"`
}

// ParsedDeal is the structured record assembled from one segment.
type ParsedDeal struct {
	Intent      Intent    `json:"intent"`
	Category    Category  `json:"category"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Address     Address   `json:"address"`
	Specs       Specs     `json:"specs"`
	Remarks     *string   `json:"remarks"`
	Contact     *Contact  `json:"contact"`
	AllContacts []Contact `json:"allContacts"`
	Tags        []Tag     `json:"tags"`
	Raw         string    `json:"raw"`
	Confidence  string    `json:"confidence"`
}

// Address holds the geographic identifiers of a deal
type Address struct {
	City       *string `json:"city"`
	Sector     *string `json:"sector"`
	UnitNumber *string `json:"unitNumber"`
}

// Specs holds normalized "<number> <unit>" strings
type Specs struct {
	Size  *string `json:"size"`
	Price *string `json:"price"`
}

// Contact is a phone number found in a message, resolved against the directory.
type Contact struct {
	Mobile string `json:"mobile"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	ID     string `json:"id,omitempty"`
	IsNew  bool   `json:"isNew"`
}

// ContactInfo is what a contact directory knows about a phone number.
type ContactInfo struct {
	ID     string `json:"id" db:"id"`
	Mobile string `json:"mobile" db:"mobile"`
	Name   string `json:"name" db:"name"`
	Role   string `json:"role" db:"role"`
}

// HasTag reports whether the deal carries tag t.
func (d *ParsedDeal) HasTag(t Tag) bool {
	for _, tag := range d.Tags {
		if tag == t {
			return true
		}
	}
	return false
}
