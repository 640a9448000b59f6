package model

import "time"

// IntakeRequest is a raw message submitted for processing
type IntakeRequest struct {
	Text       string     `json:"text" binding:"required"`
	ReceivedAt *time.Time `json:"receivedAt,omitempty"`
}

// SegmentError reports a segment whose assembly failed
type SegmentError struct {
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Error  string `json:"error"`
}

// PreviewResponse is the result of parsing without persistence
type PreviewResponse struct {
	Segments []RawSegment   `json:"segments"`
	Deals    []ParsedDeal   `json:"deals"`
	Errors   []SegmentError `json:"errors,omitempty"`
	Took     int64          `json:"took_ms"`
}

// ProcessedDeal is one assembled deal with its dedupe verdict and inventory matches
type ProcessedDeal struct {
	HistoryID string              `json:"historyId"`
	Deal      ParsedDeal          `json:"deal"`
	Duplicate DuplicateAssessment `json:"duplicate"`
	Matches   []InventoryMatch    `json:"matches"`
}

// IntakeSummary counts deals per frequency band
type IntakeSummary struct {
	Total       int `json:"total"`
	New         int `json:"new"`
	Repeat1x    int `json:"repeat1x"`
	Repeat2x    int `json:"repeat2x"`
	Repeat3x    int `json:"repeat3x"`
	Repeat3Plus int `json:"repeat3plus"`
}

// Add counts one assessment in its band
func (s *IntakeSummary) Add(band FrequencyBand) {
	s.Total++
	switch band {
	case BandNew:
		s.New++
	case BandRepeat1x:
		s.Repeat1x++
	case BandRepeat2x:
		s.Repeat2x++
	case BandRepeat3x:
		s.Repeat3x++
	case BandRepeat3Plus:
		s.Repeat3Plus++
	}
}

// IntakeResponse is the result of processing an intake
type IntakeResponse struct {
	Deals   []ProcessedDeal `json:"deals"`
	Summary IntakeSummary   `json:"summary"`
	Errors  []SegmentError  `json:"errors,omitempty"`
	Took    int64           `json:"took_ms"`
}

// MatchRequest asks for inventory candidates for a message
type MatchRequest struct {
	Text  string  `json:"text" binding:"required"`
	Owner *string `json:"owner,omitempty"`
}

// MatchResponse carries ranked inventory candidates
type MatchResponse struct {
	Deal    *ParsedDeal      `json:"deal"`
	Matches []InventoryMatch `json:"matches"`
	Took    int64            `json:"took_ms"`
}
