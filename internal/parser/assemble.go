package parser

import (
	"strings"

	"dealintake/internal/model"
)

// pipeline is the fixed detector order. City and location go first so they
// cannot be misread as identifiers; units go before sizes and prices so their
// digits are gone by then.
var pipeline = []detector{
	detectCity,
	detectLocation,
	detectUnit,
	detectSize,
	detectPrice,
	detectType,
	detectContacts,
	detectIntent,
	detectTags,
}

// Assembler builds ParsedDeals from single messages.
type Assembler struct {
	registry *Registry
	contacts ContactDirectory
}

// NewAssembler creates an assembler. A nil registry means the defaults; a nil
// directory leaves every phone number unresolved.
func NewAssembler(registry *Registry, contacts ContactDirectory) *Assembler {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Assembler{registry: registry, contacts: contacts}
}

// Registry returns the pattern set in use.
func (a *Assembler) Registry() *Registry {
	return a.registry
}

// Assemble extracts a deal from one message. It returns nil only for blank
// input; anything else yields a record, possibly with every field empty.
func (a *Assembler) Assemble(raw string) *model.ParsedDeal {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	s := scan{
		deal: model.ParsedDeal{
			Category:    model.CategoryResidential,
			Type:        model.TypeUnknown,
			AllContacts: []model.Contact{},
			Tags:        []model.Tag{},
			Raw:         raw,
		},
		rest: raw,
	}
	for _, d := range pipeline {
		s = d(a, raw, s)
	}

	deal := s.deal
	deal.Remarks = cleanRemarks(s.rest)

	switch {
	case deal.Address.Sector != nil:
		deal.Location = *deal.Address.Sector
	case deal.Address.City != nil:
		deal.Location = *deal.Address.City
	default:
		deal.Location = model.LocationUnspecified
	}

	deal.Confidence = model.ConfidenceLow
	if deal.Address.Sector != nil {
		deal.Confidence = model.ConfidenceHigh
	}

	return &deal
}

// Assemble parses raw with the default patterns and no contact directory.
func Assemble(raw string) *model.ParsedDeal {
	return NewAssembler(nil, nil).Assemble(raw)
}
