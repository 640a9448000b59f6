package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"dealintake/internal/model"
	"dealintake/internal/utils"
)

var (
	// unit tiers, most specific first
	unitLabelRe    = regexp.MustCompile(`(?i)\b(?:plot|sco|scf|dss|house|shop|booth|flat|villa|kothi|office|showroom|unit)\s*(?:no\.?|number|#)\s*[:\-]?\s*([a-z0-9][a-z0-9\-]{0,9})\b`)
	unitImplicitRe = regexp.MustCompile(`(?i)\b(?:sco|scf|dss|booth|shop|plot|house|flat|villa|kothi|showroom)\s*[:\-]?\s*(\d{1,5}[a-z]?)\b`)
	unitGenericRe  = regexp.MustCompile(`(?i)(?:\bunit|\bno\.?|#)\s*[:\-]?\s*([a-z0-9][a-z0-9\-]{0,7})\b`)
	unitStarRe     = regexp.MustCompile(`(?i)\*\s*([a-z0-9][a-z0-9\-]{0,9})\s*\*`)

	// a unit candidate directly followed by one of these is really a size or price
	unitTailRe = regexp.MustCompile(`(?i)^\s*(?:kanal|marla|gaz|sq|bigha|acre|crore|cr\b|lac|lakh|l\b|k\b|thousand|bhk)`)
	// or by the rest of a phone number written in groups ("98765 43210")
	phoneTailRe = regexp.MustCompile(`^[\s\-]*\d{4,}`)

	sizeRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kanals?|marlas?|gaz|sq\.?\s*(?:yds?|yards?)|sqyds?|sq\.?\s*(?:ft|feet)|sqft|bighas?|acres?)\b`)

	priceRe      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(crores?|cr|lacs?|lakhs?|l|k|thousand)\b`)
	priceWordsRe = regexp.MustCompile(`(?i)\b(?:price|rate|ask|demand)\b`)

	bhkRe = regexp.MustCompile(`(?i)(\d)\s*bhk\b`)

	separatorRunRe = regexp.MustCompile(`(?:\s*[,;|]\s*)+`)
)

// scan is the accumulator threaded through the detectors: the record built so
// far and the working copy of the text with matched spans removed.
type scan struct {
	deal model.ParsedDeal
	rest string
}

// cut removes rest[start:end], leaving a space so neighbours do not fuse.
func (s scan) cut(start, end int) string {
	return s.rest[:start] + " " + s.rest[end:]
}

// detector is one step of the fold. original is the untouched segment text.
type detector func(a *Assembler, original string, s scan) scan

func detectCity(a *Assembler, _ string, s scan) scan {
	loc := a.registry.cityRe.FindStringSubmatchIndex(s.rest)
	if loc == nil {
		return s
	}
	city := canonical(a.registry.cities, s.rest[loc[2]:loc[3]])
	s.deal.Address.City = &city
	s.rest = s.cut(loc[0], loc[1])
	return s
}

func detectLocation(a *Assembler, _ string, s scan) scan {
	loc := a.registry.locationRe.FindStringSubmatchIndex(s.rest)
	if loc == nil {
		return s
	}
	var sector string
	if loc[2] >= 0 {
		sector = "Sector " + strings.ToUpper(s.rest[loc[2]:loc[3]])
	} else {
		sector = canonical(a.registry.localities, s.rest[loc[4]:loc[5]])
	}
	s.deal.Address.Sector = &sector
	s.rest = s.cut(loc[0], loc[1])
	return s
}

func detectUnit(_ *Assembler, _ string, s scan) scan {
	tiers := []struct {
		re         *regexp.Regexp
		needsDigit bool
	}{
		{re: unitLabelRe},
		{re: unitImplicitRe},
		{re: unitGenericRe, needsDigit: true},
		{re: unitStarRe, needsDigit: true},
	}

	for _, tier := range tiers {
		for _, loc := range tier.re.FindAllStringSubmatchIndex(s.rest, -1) {
			token := s.rest[loc[2]:loc[3]]
			if !acceptUnit(token, s.rest[loc[1]:], tier.needsDigit) {
				continue
			}
			unit := strings.ToUpper(token)
			s.deal.Address.UnitNumber = &unit
			s.rest = s.cut(loc[0], loc[1])
			return s
		}
	}
	return s
}

func acceptUnit(token, tail string, needsDigit bool) bool {
	digits := utils.DigitsOnly(token)
	if needsDigit && digits == "" {
		return false
	}
	if len(digits) >= 10 {
		return false
	}
	return !unitTailRe.MatchString(tail) && !phoneTailRe.MatchString(tail)
}

func detectSize(_ *Assembler, _ string, s scan) scan {
	loc := sizeRe.FindStringSubmatchIndex(s.rest)
	if loc == nil {
		return s
	}
	size := fmt.Sprintf("%s %s", s.rest[loc[2]:loc[3]], sizeUnit(s.rest[loc[4]:loc[5]]))
	s.deal.Specs.Size = &size
	s.rest = s.cut(loc[0], loc[1])
	return s
}

func sizeUnit(raw string) string {
	u := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	switch {
	case strings.HasPrefix(u, "kanal"):
		return "Kanal"
	case strings.HasPrefix(u, "marla"):
		return "Marla"
	case u == "gaz":
		return "Gaz"
	case strings.HasPrefix(u, "bigha"):
		return "Bigha"
	case strings.HasPrefix(u, "acre"):
		return "Acre"
	case strings.ContainsAny(u, "y"):
		return "Sqyd"
	default:
		return "Sqft"
	}
}

func detectPrice(_ *Assembler, _ string, s scan) scan {
	loc := priceRe.FindStringSubmatchIndex(s.rest)
	if loc == nil {
		return s
	}
	price, ok := NormalizePrice(s.rest[loc[2]:loc[3]], s.rest[loc[4]:loc[5]])
	if !ok {
		return s
	}
	s.deal.Specs.Price = &price
	s.rest = s.cut(loc[0], loc[1])
	s.rest = priceWordsRe.ReplaceAllString(s.rest, " ")
	return s
}

// NormalizePrice renders an amount and unit as "<n> Cr" or "<n> Lac".
// Thousands ("50k") fold into Lac.
func NormalizePrice(amount, unit string) (string, bool) {
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return "", false
	}
	switch u := strings.ToLower(unit); {
	case strings.HasPrefix(u, "c"):
		return strconv.FormatFloat(value, 'f', -1, 64) + " Cr", true
	case u == "k" || u == "thousand":
		value /= 100
	}
	return formatLac(value) + " Lac", true
}

func formatLac(value float64) string {
	rounded := math.Round(value*100) / 100
	if rounded == math.Trunc(rounded) {
		return strconv.FormatFloat(rounded, 'f', 0, 64)
	}
	return strconv.FormatFloat(rounded, 'f', 2, 64)
}

func detectType(a *Assembler, original string, s scan) scan {
	if m := bhkRe.FindStringSubmatch(original); m != nil {
		s.deal.Category = model.CategoryResidential
		s.deal.Type = m[1] + " BHK Flat"
		if loc := bhkRe.FindStringIndex(s.rest); loc != nil {
			s.rest = s.cut(loc[0], loc[1])
		}
		return s
	}

	for _, kw := range a.registry.keywords {
		if !kw.re.MatchString(original) {
			continue
		}
		s.deal.Category = kw.category
		s.deal.Type = utils.DisplayCase(kw.keyword)
		if loc := kw.re.FindStringIndex(s.rest); loc != nil {
			s.rest = s.cut(loc[0], loc[1])
		}
		return s
	}
	return s
}

func detectContacts(a *Assembler, _ string, s scan) scan {
	phones := findPhones(s.rest)
	// cut from the back so earlier offsets stay valid
	for i := len(phones) - 1; i >= 0; i-- {
		s.rest = s.cut(phones[i].start, phones[i].end)
	}
	for _, p := range phones {
		if p.mobile == "" {
			continue
		}
		s.deal.AllContacts = append(s.deal.AllContacts, resolveContact(a.contacts, p.mobile))
	}
	if len(s.deal.AllContacts) > 0 {
		primary := s.deal.AllContacts[0]
		s.deal.Contact = &primary
	}
	return s
}

func detectIntent(_ *Assembler, original string, s scan) scan {
	s.deal.Intent = DetermineIntent(original)
	return s
}

func detectTags(_ *Assembler, original string, s scan) scan {
	s.deal.Tags = DetectTags(original)
	return s
}

// cleanRemarks tidies what is left of the working copy.
func cleanRemarks(rest string) *string {
	text := strings.Join(strings.Fields(rest), " ")
	text = separatorRunRe.ReplaceAllString(text, ", ")
	text = strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if text == "" {
		return nil
	}
	return &text
}
