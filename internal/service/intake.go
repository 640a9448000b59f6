package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dealintake/internal/metrics"
	"dealintake/internal/model"
	"dealintake/internal/parser"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrEmptyIntake is returned for blank submissions.
	ErrEmptyIntake = errors.New("intake text is empty")
	// ErrPatternsRejected means an override failed validation and the defaults are in use.
	ErrPatternsRejected = errors.New("pattern override rejected, defaults restored")
	// ErrHistoryNotFound means no history entry has the requested id.
	ErrHistoryNotFound = errors.New("history entry not found")
)

// HistoryStore persists past intakes.
type HistoryStore interface {
	LoadHistory(ctx context.Context, since time.Time) ([]model.IntakeHistoryEntry, error)
	AppendHistory(ctx context.Context, entry model.IntakeHistoryEntry) error
	GetHistoryEntry(ctx context.Context, id string) (*model.IntakeHistoryEntry, error)
}

// DealStore lists deals that are still open.
type DealStore interface {
	ActiveDeals(ctx context.Context) ([]model.ActiveDeal, error)
}

// InventoryStore lists the inventory book.
type InventoryStore interface {
	ListInventory(ctx context.Context) ([]model.InventoryRecord, error)
}

// ContactStore lists the known contacts.
type ContactStore interface {
	ListContacts(ctx context.Context) ([]model.ContactInfo, error)
}

// Store is everything the intake service needs from persistence.
type Store interface {
	HistoryStore
	DealStore
	InventoryStore
	ContactStore
}

// Options tunes the intake service. Zero values mean the defaults.
type Options struct {
	MinSegmentLength   int
	DuplicateThreshold float64
	HistoryWindow      time.Duration
	MatchMinScore      int
	MatchTopN          int
	ContactRefresh     time.Duration
	Patterns           *model.PatternOverride
}

const (
	DefaultHistoryWindow  = 30 * 24 * time.Hour
	DefaultContactRefresh = time.Minute
)

// Segment outcomes reported to metrics
const (
	outcomeDeal   = "deal"
	outcomeNoise  = "noise"
	outcomeFailed = "failed"
)

// IntakeService runs raw messages through segmentation, dedupe and inventory matching.
type IntakeService struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	matcher *Matcher
	opts    Options
	clock   atomic.Pointer[func() time.Time]

	registry atomic.Pointer[parser.Registry]

	// serializes read history, classify, append history
	historyMu sync.Mutex

	contactsMu     sync.Mutex
	contacts       *parser.StaticDirectory
	contactsLoaded time.Time
}

// NewIntakeService creates a new intake service
func NewIntakeService(store Store, opts Options, logger *zap.Logger, m *metrics.Metrics) *IntakeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MinSegmentLength <= 0 {
		opts.MinSegmentLength = parser.MinSegmentLength
	}
	if opts.DuplicateThreshold <= 0 {
		opts.DuplicateThreshold = DefaultDuplicateThreshold
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	if opts.ContactRefresh <= 0 {
		opts.ContactRefresh = DefaultContactRefresh
	}

	s := &IntakeService{
		store:   store,
		logger:  logger,
		metrics: m,
		matcher: NewMatcher(opts.MatchMinScore, opts.MatchTopN),
		opts:    opts,
	}
	s.registry.Store(parser.NewRegistry(opts.Patterns, logger))
	s.SetClock(time.Now)
	return s
}

// SetClock replaces the wall clock used for receivedAt defaults, the history
// window and the contact snapshot TTL. It is safe to call while requests run.
func (s *IntakeService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.clock.Store(&now)
}

func (s *IntakeService) now() time.Time {
	return (*s.clock.Load())()
}

// Preview splits and parses raw without touching persistence.
func (s *IntakeService) Preview(ctx context.Context, raw string) (*model.PreviewResponse, error) {
	startTime := time.Now()
	defer s.metrics.ObserveOperation("preview", startTime)

	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyIntake
	}

	segments := parser.Split(raw, s.opts.MinSegmentLength)
	deals, segErrs := s.assembleSegments(s.assembler(ctx), segments)

	return &model.PreviewResponse{
		Segments: segments,
		Deals:    deals,
		Errors:   segErrs,
		Took:     time.Since(startTime).Milliseconds(),
	}, nil
}

// Process parses raw, classifies every deal against the history window and
// active deals, records each deal in history and matches it to inventory.
// A zero receivedAt means now.
func (s *IntakeService) Process(ctx context.Context, raw string, receivedAt time.Time) (*model.IntakeResponse, error) {
	startTime := time.Now()
	defer s.metrics.ObserveOperation("process", startTime)

	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyIntake
	}
	if receivedAt.IsZero() {
		receivedAt = s.now()
	}

	assembler := s.assembler(ctx)
	deals, segErrs := s.assembleSegments(assembler, parser.Split(raw, s.opts.MinSegmentLength))

	resp := &model.IntakeResponse{
		Deals:  make([]model.ProcessedDeal, 0, len(deals)),
		Errors: segErrs,
	}
	if len(deals) == 0 {
		resp.Took = time.Since(startTime).Milliseconds()
		return resp, nil
	}

	inventory, err := s.store.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	active, err := s.store.ActiveDeals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active deals: %w", err)
	}

	classifier := NewClassifier(s.opts.DuplicateThreshold, assembler)

	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	history, err := s.store.LoadHistory(ctx, s.now().Add(-s.opts.HistoryWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	for i := range deals {
		deal := deals[i]
		assessment := classifier.ClassifyDeal(&deal, history, active)
		details := DetailsFromDeal(&deal)

		entry := model.IntakeHistoryEntry{
			ID:            uuid.NewString(),
			Content:       deal.Raw,
			ReceivedAt:    receivedAt,
			Category:      string(assessment.Category),
			Details:       &details,
			DuplicateInfo: &assessment,
		}
		if err := s.store.AppendHistory(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to append history: %w", err)
		}
		// later segments of the same intake see the earlier ones
		history = append(history, entry)

		matches := s.matcher.Score(inventory, &deal, deal.Raw, ownerName(&deal))
		s.metrics.Classified(string(assessment.Category))
		s.metrics.Matched(len(matches))

		resp.Deals = append(resp.Deals, model.ProcessedDeal{
			HistoryID: entry.ID,
			Deal:      deal,
			Duplicate: assessment,
			Matches:   matches,
		})
		resp.Summary.Add(assessment.Category)
	}

	resp.Took = time.Since(startTime).Milliseconds()
	s.logger.Info("intake processed",
		zap.Int("deals", resp.Summary.Total),
		zap.Int("new", resp.Summary.New),
		zap.Int("repeats", resp.Summary.Total-resp.Summary.New),
		zap.Int("failed_segments", len(segErrs)),
		zap.Int64("took_ms", resp.Took),
	)
	return resp, nil
}

// MatchInventory ranks inventory against the first deal found in raw. owner
// defaults to the name of the deal's resolved primary contact.
func (s *IntakeService) MatchInventory(ctx context.Context, raw string, owner *string) (*model.MatchResponse, error) {
	startTime := time.Now()
	defer s.metrics.ObserveOperation("match", startTime)

	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyIntake
	}

	assembler := s.assembler(ctx)
	var deal *model.ParsedDeal
	if deals := parser.NewSegmenter(assembler, s.opts.MinSegmentLength).Segment(raw); len(deals) > 0 {
		deal = &deals[0]
	} else {
		deal = assembler.Assemble(raw)
	}

	inventory, err := s.store.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	name := ownerName(deal)
	if owner != nil {
		name = *owner
	}
	matches := s.matcher.Score(inventory, deal, raw, name)
	s.metrics.Matched(len(matches))

	return &model.MatchResponse{
		Deal:    deal,
		Matches: matches,
		Took:    time.Since(startTime).Milliseconds(),
	}, nil
}

// HistoryEntry returns one recorded intake entry by its history id.
func (s *IntakeService) HistoryEntry(ctx context.Context, id string) (*model.IntakeHistoryEntry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrHistoryNotFound
	}
	entry, err := s.store.GetHistoryEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	if entry == nil {
		return nil, ErrHistoryNotFound
	}
	return entry, nil
}

// Patterns returns the detector lists in use.
func (s *IntakeService) Patterns() model.PatternOverride {
	return s.registry.Load().Override()
}

// UpdatePatterns swaps in a new pattern set. A nil or empty override restores
// the defaults. A rejected override also leaves the defaults in place and
// returns ErrPatternsRejected.
func (s *IntakeService) UpdatePatterns(override *model.PatternOverride) (model.PatternOverride, error) {
	registry := parser.NewRegistry(override, s.logger)
	s.registry.Store(registry)

	if !override.IsZero() && registry == parser.DefaultRegistry() {
		s.metrics.PatternReload("rejected")
		return registry.Override(), ErrPatternsRejected
	}
	s.metrics.PatternReload("applied")
	s.logger.Info("patterns updated",
		zap.Int("cities", len(registry.Override().Cities)),
		zap.Int("localities", len(registry.Override().Localities)),
	)
	return registry.Override(), nil
}

func (s *IntakeService) assembler(ctx context.Context) *parser.Assembler {
	return parser.NewAssembler(s.registry.Load(), s.directory(ctx))
}

// directory returns the contact snapshot, reloading it once it is older than
// ContactRefresh. A failed reload keeps the previous snapshot.
func (s *IntakeService) directory(ctx context.Context) parser.ContactDirectory {
	s.contactsMu.Lock()
	defer s.contactsMu.Unlock()

	now := s.now()
	if s.contacts != nil && now.Sub(s.contactsLoaded) < s.opts.ContactRefresh {
		return s.contacts
	}

	contacts, err := s.store.ListContacts(ctx)
	if err != nil {
		s.logger.Warn("failed to load contacts, using previous snapshot", zap.Error(err))
		if s.contacts == nil {
			return nil
		}
		return s.contacts
	}
	s.contacts = parser.NewStaticDirectory(contacts)
	s.contactsLoaded = now
	return s.contacts
}

// assembleSegments assembles each segment on its own so one failure cannot
// abort the batch.
func (s *IntakeService) assembleSegments(assembler *parser.Assembler, segments []model.RawSegment) ([]model.ParsedDeal, []model.SegmentError) {
	deals := []model.ParsedDeal{}
	var segErrs []model.SegmentError

	for i, seg := range segments {
		deal, err := safeAssemble(assembler, seg.Text)
		if err != nil {
			s.logger.Error("segment assembly failed",
				zap.Int("index", i),
				zap.Int("offset", seg.SourceOffset),
				zap.Error(err),
			)
			s.metrics.Segment(outcomeFailed)
			segErrs = append(segErrs, model.SegmentError{Index: i, Offset: seg.SourceOffset, Error: err.Error()})
			continue
		}
		if !parser.Significant(deal) {
			s.metrics.Segment(outcomeNoise)
			continue
		}
		s.metrics.Segment(outcomeDeal)
		deals = append(deals, *deal)
	}
	return deals, segErrs
}

func safeAssemble(assembler *parser.Assembler, text string) (deal *model.ParsedDeal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while assembling segment: %v", r)
		}
	}()
	return assembler.Assemble(text), nil
}

// ownerName is the primary contact's name when the directory knew it.
func ownerName(deal *model.ParsedDeal) string {
	if deal == nil || deal.Contact == nil || deal.Contact.IsNew {
		return ""
	}
	return deal.Contact.Name
}
