package model

// PatternOverride is a user-curated replacement for the built-in detector
// lists. Any list left empty keeps its default.
type PatternOverride struct {
	Cities       []string              `json:"cities,omitempty" yaml:"cities" validate:"omitempty,dive,notblank,max=64"`
	Localities   []string              `json:"localities,omitempty" yaml:"localities" validate:"omitempty,dive,notblank,max=64"`
	TypeKeywords map[Category][]string `json:"typeKeywords,omitempty" yaml:"typeKeywords" validate:"omitempty,dive,keys,oneof=Residential Commercial Industrial Agricultural Institutional,endkeys,dive,notblank,max=64"`
}

// IsZero reports whether the override replaces nothing.
func (p *PatternOverride) IsZero() bool {
	return p == nil || (len(p.Cities) == 0 && len(p.Localities) == 0 && len(p.TypeKeywords) == 0)
}
