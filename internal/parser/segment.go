package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"dealintake/internal/model"
)

// MinSegmentLength is the shortest fragment worth assembling, in characters.
const MinSegmentLength = 10

var (
	listMarkerRe     = regexp.MustCompile(`(?m)^[ \t]*\d{1,3}[.)][ \t]+`)
	paragraphBreakRe = regexp.MustCompile(`\n[ \t]*\n`)
)

// Split cuts a message into candidate fragments: on numbered-list markers if
// there are any, else on blank lines, else not at all. Fragments shorter than
// minLength characters are dropped.
func Split(raw string, minLength int) []model.RawSegment {
	if minLength <= 0 {
		minLength = MinSegmentLength
	}

	var pieces [][2]int
	if markers := listMarkerRe.FindAllStringIndex(raw, -1); len(markers) > 0 {
		pieces = append(pieces, [2]int{0, markers[0][0]})
		for i, m := range markers {
			end := len(raw)
			if i+1 < len(markers) {
				end = markers[i+1][0]
			}
			pieces = append(pieces, [2]int{m[1], end})
		}
	} else if breaks := paragraphBreakRe.FindAllStringIndex(raw, -1); len(breaks) > 0 {
		start := 0
		for _, b := range breaks {
			pieces = append(pieces, [2]int{start, b[0]})
			start = b[1]
		}
		pieces = append(pieces, [2]int{start, len(raw)})
	} else {
		pieces = append(pieces, [2]int{0, len(raw)})
	}

	segments := make([]model.RawSegment, 0, len(pieces))
	for _, p := range pieces {
		chunk := raw[p[0]:p[1]]
		text := strings.TrimSpace(chunk)
		if utf8.RuneCountInString(text) < minLength {
			continue
		}
		offset := p[0] + strings.Index(chunk, text)
		segments = append(segments, model.RawSegment{Text: text, SourceOffset: offset})
	}
	return segments
}

// Significant reports whether a deal carries anything beyond greetings and
// signatures: a location, unit, size, price or recognised type.
func Significant(deal *model.ParsedDeal) bool {
	if deal == nil {
		return false
	}
	return deal.Location != model.LocationUnspecified ||
		deal.Address.UnitNumber != nil ||
		deal.Specs.Size != nil ||
		deal.Specs.Price != nil ||
		deal.Type != model.TypeUnknown
}

// Segmenter splits multi-listing messages and assembles each part.
type Segmenter struct {
	assembler *Assembler
	minLength int
}

// NewSegmenter creates a segmenter; minLength <= 0 means MinSegmentLength.
func NewSegmenter(assembler *Assembler, minLength int) *Segmenter {
	if assembler == nil {
		assembler = NewAssembler(nil, nil)
	}
	if minLength <= 0 {
		minLength = MinSegmentLength
	}
	return &Segmenter{assembler: assembler, minLength: minLength}
}

// Split exposes the fragmenting step on its own.
func (s *Segmenter) Split(raw string) []model.RawSegment {
	return Split(raw, s.minLength)
}

// Segment returns one deal per significant fragment of raw. Never nil.
func (s *Segmenter) Segment(raw string) []model.ParsedDeal {
	deals := []model.ParsedDeal{}
	for _, seg := range s.Split(raw) {
		deal := s.assembler.Assemble(seg.Text)
		if !Significant(deal) {
			continue
		}
		deals = append(deals, *deal)
	}
	return deals
}

// Segment splits and assembles raw with the default patterns.
func Segment(raw string) []model.ParsedDeal {
	return NewSegmenter(nil, 0).Segment(raw)
}
