// Package parser turns free-text real-estate listing messages into
// structured deal records. Everything here is pure: no I/O, no clock, and no
// shared mutable state, so a Registry may be used from many goroutines.
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"dealintake/internal/model"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DefaultCities is the closed list of cities recognised out of the box.
var DefaultCities = []string{
	"Chandigarh", "Mohali", "Zirakpur", "Panchkula", "Kharar", "New Chandigarh", "Derabassi",
}

// DefaultLocalities are named localities matched alongside "sector <n>".
var DefaultLocalities = []string{
	"Aerocity", "IT City", "Eco City", "JLPL", "TDP", "Bestech", "Homeland", "Marbella",
}

// DefaultTypeKeywords is the property-type taxonomy keyed by category.
var DefaultTypeKeywords = map[model.Category][]string{
	model.CategoryResidential: {
		"flat", "apartment", "penthouse", "floor", "villa", "kothi", "bungalow",
		"independent house", "house", "residential plot", "plot",
	},
	model.CategoryCommercial: {
		"sco", "scf", "dss", "booth", "shop", "showroom", "office", "bay",
		"commercial plot", "commercial land",
	},
	model.CategoryIndustrial: {
		"industrial plot", "industrial shed", "factory", "warehouse", "shed",
	},
	model.CategoryAgricultural: {
		"farm land", "farm house", "agricultural land", "farm", "land",
	},
	model.CategoryInstitutional: {
		"institutional plot", "school site", "hospital site", "hotel site",
	},
}

// typeKeyword is one flattened (keyword, category) pair.
type typeKeyword struct {
	keyword  string
	category model.Category
	re       *regexp.Regexp
}

// Registry is a compiled set of detectors. Build it once and share it.
type Registry struct {
	cities     []string
	localities []string
	cityRe     *regexp.Regexp
	locationRe *regexp.Regexp
	keywords   []typeKeyword
}

var (
	defaultRegistry = mustCompile(model.PatternOverride{})
	validate        = validator.New()
)

// DefaultRegistry returns the registry built from the built-in lists.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// NewRegistry compiles override on top of the defaults. An override that
// fails validation or compilation is logged and the defaults are returned.
func NewRegistry(override *model.PatternOverride, logger *zap.Logger) *Registry {
	if override.IsZero() {
		return defaultRegistry
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r, err := compile(*override)
	if err != nil {
		logger.Warn("pattern override rejected, falling back to defaults", zap.Error(err))
		return defaultRegistry
	}
	return r
}

// Override returns the lists this registry was built from.
func (r *Registry) Override() model.PatternOverride {
	out := model.PatternOverride{
		Cities:       append([]string(nil), r.cities...),
		Localities:   append([]string(nil), r.localities...),
		TypeKeywords: make(map[model.Category][]string),
	}
	for _, kw := range r.keywords {
		out.TypeKeywords[kw.category] = append(out.TypeKeywords[kw.category], kw.keyword)
	}
	return out
}

func mustCompile(override model.PatternOverride) *Registry {
	r, err := compile(override)
	if err != nil {
		panic(err)
	}
	return r
}

func compile(override model.PatternOverride) (*Registry, error) {
	if err := validate.Struct(override); err != nil {
		return nil, fmt.Errorf("invalid pattern override: %w", err)
	}

	cities, err := pick(override.Cities, DefaultCities)
	if err != nil {
		return nil, fmt.Errorf("cities: %w", err)
	}
	localities, err := pick(override.Localities, DefaultLocalities)
	if err != nil {
		return nil, fmt.Errorf("localities: %w", err)
	}
	r := &Registry{cities: cities, localities: localities}

	r.cityRe, err = regexp.Compile(`(?i)\b(` + alternation(r.cities) + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compile city pattern: %w", err)
	}
	r.locationRe, err = regexp.Compile(`(?i)\b(?:(?:sector|sec)[\s.\-]*(\d{1,3}[a-z]?)|(` + alternation(r.localities) + `))\b`)
	if err != nil {
		return nil, fmt.Errorf("compile location pattern: %w", err)
	}

	typeKeywords := override.TypeKeywords
	if len(typeKeywords) == 0 {
		typeKeywords = DefaultTypeKeywords
	}
	r.keywords = flatten(typeKeywords)
	if len(r.keywords) == 0 {
		return nil, fmt.Errorf("type taxonomy has no keywords")
	}

	return r, nil
}

// pick normalizes whitespace in values, or returns defaults when values is
// empty. A blank entry would compile to an alternation matching every text.
func pick(values, defaults []string) ([]string, error) {
	if len(values) == 0 {
		return defaults, nil
	}
	out := make([]string, 0, len(values))
	for i, v := range values {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			return nil, fmt.Errorf("entry %d is blank", i)
		}
		out = append(out, v)
	}
	return out, nil
}

// alternation quotes each term and orders them longest first so that
// "new chandigarh" wins over "chandigarh".
func alternation(terms []string) string {
	sorted := append([]string(nil), terms...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`)
	}
	return strings.Join(quoted, "|")
}

// flatten turns the taxonomy into (keyword, category) pairs ordered by keyword
// length descending, so "industrial plot" is tried before "plot".
func flatten(taxonomy map[model.Category][]string) []typeKeyword {
	var out []typeKeyword
	seen := make(map[string]bool)
	for _, category := range model.Categories {
		for _, kw := range taxonomy[category] {
			kw = strings.ToLower(strings.Join(strings.Fields(kw), " "))
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			// Whole words with an optional plural: "land" must not hit "Homeland".
			out = append(out, typeKeyword{
				keyword:  kw,
				category: category,
				re:       regexp.MustCompile(`(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(kw), " ", `\s+`) + `(?:s|es)?\b`),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].keyword) != len(out[j].keyword) {
			return len(out[i].keyword) > len(out[j].keyword)
		}
		return out[i].keyword < out[j].keyword
	})
	return out
}

// canonical returns the registry spelling of a matched city or locality.
func canonical(list []string, matched string) string {
	norm := strings.Join(strings.Fields(matched), " ")
	for _, v := range list {
		if strings.EqualFold(v, norm) {
			return v
		}
	}
	return norm
}
