package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dealintake/internal/metrics"
	"dealintake/internal/model"
	"dealintake/internal/parser"
	"dealintake/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, seed repository.Seed) (*IntakeService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore(seed)
	svc := NewIntakeService(store, Options{}, nil, nil)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc, store
}

func TestIntakeService_ProcessRepeats(t *testing.T) {
	svc, store := newTestService(t, repository.Seed{})
	ctx := context.Background()

	first, err := svc.Process(ctx, plotListing, time.Time{})
	require.NoError(t, err)
	require.Len(t, first.Deals, 1)
	assert.Equal(t, model.BandNew, first.Deals[0].Duplicate.Category)
	assert.Equal(t, model.IntakeSummary{Total: 1, New: 1}, first.Summary)

	second, err := svc.Process(ctx, plotListing, fixedNow.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, second.Deals, 1)
	dup := second.Deals[0].Duplicate
	assert.True(t, dup.IsDuplicate)
	assert.Equal(t, model.BandRepeat1x, dup.Category)
	require.NotNil(t, dup.LastSeen)
	assert.Equal(t, fixedNow, *dup.LastSeen)
	assert.Equal(t, model.IntakeSummary{Total: 1, Repeat1x: 1}, second.Summary)

	assert.NotEmpty(t, first.Deals[0].HistoryID)
	assert.NotEqual(t, first.Deals[0].HistoryID, second.Deals[0].HistoryID)

	history, err := store.LoadHistory(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, string(model.BandRepeat1x), history[1].Category)
	require.NotNil(t, history[1].DuplicateInfo)
	assert.Equal(t, 1, history[1].DuplicateInfo.Frequency)
}

func TestIntakeService_ProcessSegmentsSeeEachOther(t *testing.T) {
	svc, _ := newTestService(t, repository.Seed{})

	resp, err := svc.Process(context.Background(),
		"1. Plot No 123, Sector 82, 2 Cr\n2. SCO 55 Aerocity 3 cr\n3. Plot No 123, Sector 82, 2 Cr", time.Time{})
	require.NoError(t, err)
	require.Len(t, resp.Deals, 3)

	assert.Equal(t, model.BandNew, resp.Deals[0].Duplicate.Category)
	assert.Equal(t, model.BandNew, resp.Deals[1].Duplicate.Category)
	assert.Equal(t, model.BandRepeat1x, resp.Deals[2].Duplicate.Category)
	assert.Equal(t, model.IntakeSummary{Total: 3, New: 2, Repeat1x: 1}, resp.Summary)
}

func TestIntakeService_HistoryWindow(t *testing.T) {
	svc, store := newTestService(t, repository.Seed{})
	ctx := context.Background()

	details := DetailsFromDeal(parser.Assemble(plotListing))
	require.NoError(t, store.AppendHistory(ctx, model.IntakeHistoryEntry{
		ID:         "stale",
		Content:    plotListing,
		ReceivedAt: fixedNow.AddDate(0, 0, -31),
		Details:    &details,
	}))

	resp, err := svc.Process(ctx, plotListing, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, model.BandNew, resp.Deals[0].Duplicate.Category)

	require.NoError(t, store.AppendHistory(ctx, model.IntakeHistoryEntry{
		ID:         "recent",
		Content:    plotListing,
		ReceivedAt: fixedNow.AddDate(0, 0, -29),
	}))

	resp, err = svc.Process(ctx, plotListing, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, model.BandRepeat2x, resp.Deals[0].Duplicate.Category)
}

func TestIntakeService_ActiveDealMarksDuplicate(t *testing.T) {
	svc, _ := newTestService(t, repository.Seed{
		ActiveDeals: []model.ActiveDeal{{ID: "d1", UnitNumber: "123", Location: "Sector 82", Type: "Plot", Category: "Residential"}},
	})

	resp, err := svc.Process(context.Background(), plotListing, time.Time{})
	require.NoError(t, err)
	dup := resp.Deals[0].Duplicate
	assert.True(t, dup.IsDuplicate)
	assert.Equal(t, 0, dup.Frequency)
	assert.Equal(t, model.BandNew, dup.Category)
}

func TestIntakeService_MatchesInventoryWithResolvedOwner(t *testing.T) {
	svc, _ := newTestService(t, repository.Seed{
		Contacts: []model.ContactInfo{{ID: "c1", Mobile: "+91 98765 43210", Name: "Harpreet Singh", Role: "Owner"}},
		Inventory: []model.InventoryRecord{
			{ID: "i1", UnitNumber: strPtr("123"), Owners: model.JSONArray{"Harpreet Singh"}},
			{ID: "i2", UnitNumber: strPtr("77")},
		},
	})

	resp, err := svc.Process(context.Background(), plotListing, time.Time{})
	require.NoError(t, err)
	deal := resp.Deals[0]

	require.NotNil(t, deal.Deal.Contact)
	assert.Equal(t, "Harpreet Singh", deal.Deal.Contact.Name)
	assert.False(t, deal.Deal.Contact.IsNew)

	require.Len(t, deal.Matches, 1)
	assert.Equal(t, "i1", deal.Matches[0].Inventory.ID)
	assert.Equal(t, 90, deal.Matches[0].Score)
	assert.Contains(t, deal.Matches[0].Reasons, ReasonOwnerMatch)
}

func TestIntakeService_MatchInventory(t *testing.T) {
	svc, _ := newTestService(t, repository.Seed{
		Inventory: []model.InventoryRecord{
			{ID: "i1", UnitNumber: strPtr("55"), Owners: model.JSONArray{"Gurpreet Kaur"}},
			{ID: "i2", Sector: strPtr("Aerocity")},
		},
	})
	ctx := context.Background()

	resp, err := svc.MatchInventory(ctx, "SCO 55 Aerocity 100 sqyd", nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Deal)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "i1", resp.Matches[0].Inventory.ID)
	assert.Equal(t, 50, resp.Matches[0].Score)

	owner := "gurpreet"
	resp, err = svc.MatchInventory(ctx, "SCO 55 Aerocity 100 sqyd", &owner)
	require.NoError(t, err)
	assert.Equal(t, 90, resp.Matches[0].Score)
}

func TestIntakeService_Preview(t *testing.T) {
	svc, store := newTestService(t, repository.Seed{})
	ctx := context.Background()

	resp, err := svc.Preview(ctx, "Good morning all\n\n"+plotListing)
	require.NoError(t, err)
	assert.Len(t, resp.Segments, 2)
	require.Len(t, resp.Deals, 1)
	assert.Equal(t, strPtr("123"), resp.Deals[0].Address.UnitNumber)
	assert.Empty(t, resp.Errors)

	history, err := store.LoadHistory(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestIntakeService_EmptyIntake(t *testing.T) {
	svc, _ := newTestService(t, repository.Seed{})
	ctx := context.Background()

	_, err := svc.Preview(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyIntake)
	_, err = svc.Process(ctx, "", time.Time{})
	assert.ErrorIs(t, err, ErrEmptyIntake)
	_, err = svc.MatchInventory(ctx, "\n", nil)
	assert.ErrorIs(t, err, ErrEmptyIntake)
}

func TestIntakeService_NoiseOnlyIntake(t *testing.T) {
	svc, store := newTestService(t, repository.Seed{})
	ctx := context.Background()

	resp, err := svc.Process(ctx, "Good morning everyone, have a nice day", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, resp.Deals)
	assert.Equal(t, 0, resp.Summary.Total)

	history, _ := store.LoadHistory(ctx, time.Time{})
	assert.Empty(t, history)
}

func TestIntakeService_UpdatePatterns(t *testing.T) {
	svc, _ := newTestService(t, repository.Seed{})
	ctx := context.Background()

	got, err := svc.UpdatePatterns(&model.PatternOverride{Cities: []string{"Ludhiana"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ludhiana"}, got.Cities)
	assert.Equal(t, []string{"Ludhiana"}, svc.Patterns().Cities)

	resp, err := svc.Preview(ctx, "kothi in ludhiana 1 kanal")
	require.NoError(t, err)
	require.Len(t, resp.Deals, 1)
	assert.Equal(t, strPtr("Ludhiana"), resp.Deals[0].Address.City)

	_, err = svc.UpdatePatterns(&model.PatternOverride{
		TypeKeywords: map[model.Category][]string{"Spaceport": {"pad"}},
	})
	assert.ErrorIs(t, err, ErrPatternsRejected)
	assert.Equal(t, parser.DefaultCities, svc.Patterns().Cities)

	_, err = svc.UpdatePatterns(nil)
	require.NoError(t, err)
	assert.Equal(t, parser.DefaultCities, svc.Patterns().Cities)
}

func TestSafeAssemble_RecoversPanics(t *testing.T) {
	// a zero Assembler has no registry and panics on first use
	deal, err := safeAssemble(&parser.Assembler{}, plotListing)
	assert.Nil(t, deal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic while assembling segment")
}

type failingStore struct {
	*repository.MemoryStore
	historyErr error
}

func (s *failingStore) LoadHistory(ctx context.Context, since time.Time) ([]model.IntakeHistoryEntry, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.MemoryStore.LoadHistory(ctx, since)
}

func TestIntakeService_HistoryEntry(t *testing.T) {
	svc, _ := newTestService(t, repository.Seed{})
	ctx := context.Background()

	resp, err := svc.Process(ctx, plotListing, time.Time{})
	require.NoError(t, err)
	require.Len(t, resp.Deals, 1)

	entry, err := svc.HistoryEntry(ctx, resp.Deals[0].HistoryID)
	require.NoError(t, err)
	assert.Equal(t, resp.Deals[0].HistoryID, entry.ID)
	assert.Equal(t, fixedNow, entry.ReceivedAt)
	assert.Equal(t, string(model.BandNew), entry.Category)

	for _, id := range []string{"", "  ", "no-such-id"} {
		_, err := svc.HistoryEntry(ctx, id)
		assert.ErrorIs(t, err, ErrHistoryNotFound, id)
	}
}

func TestIntakeService_StoreErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	store := &failingStore{MemoryStore: repository.NewMemoryStore(repository.Seed{}), historyErr: boom}
	svc := NewIntakeService(store, Options{}, nil, nil)

	_, err := svc.Process(context.Background(), plotListing, time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to load history")
}

type countingStore struct {
	*repository.MemoryStore
	contactLoads int
}

func (s *countingStore) ListContacts(ctx context.Context) ([]model.ContactInfo, error) {
	s.contactLoads++
	return s.MemoryStore.ListContacts(ctx)
}

func TestIntakeService_ContactSnapshotRefresh(t *testing.T) {
	store := &countingStore{MemoryStore: repository.NewMemoryStore(repository.Seed{})}
	svc := NewIntakeService(store, Options{ContactRefresh: time.Minute}, nil, nil)
	now := fixedNow
	svc.SetClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := svc.Preview(ctx, plotListing)
	require.NoError(t, err)
	_, err = svc.Preview(ctx, plotListing)
	require.NoError(t, err)
	assert.Equal(t, 1, store.contactLoads)

	store.AddContacts(model.ContactInfo{ID: "c1", Mobile: "9876543210", Name: "Harpreet", Role: "Owner"})
	now = now.Add(2 * time.Minute)

	resp, err := svc.Preview(ctx, plotListing)
	require.NoError(t, err)
	assert.Equal(t, 2, store.contactLoads)
	assert.Equal(t, "Harpreet", resp.Deals[0].Contact.Name)
}

func TestIntakeService_SetClockWhileProcessing(t *testing.T) {
	svc, store := newTestService(t, repository.Seed{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Process(ctx, plotListing, time.Time{})
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			at := fixedNow.Add(time.Duration(i) * time.Minute)
			svc.SetClock(func() time.Time { return at })
		}(i)
	}
	wg.Wait()

	history, err := store.LoadHistory(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, history, 4)

	svc.SetClock(nil)
	resp, err := svc.Process(ctx, plotListing, time.Time{})
	require.NoError(t, err)
	entry, err := svc.HistoryEntry(ctx, resp.Deals[0].HistoryID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), entry.ReceivedAt, time.Minute)
}

func TestIntakeService_Metrics(t *testing.T) {
	m := metrics.New()
	svc := NewIntakeService(repository.NewMemoryStore(repository.Seed{}), Options{}, nil, m)
	svc.SetClock(func() time.Time { return fixedNow })

	_, err := svc.Process(context.Background(), "Hello all\n\n"+plotListing, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SegmentsTotal.WithLabelValues("deal")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SegmentsTotal.WithLabelValues("noise")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DealsClassified.WithLabelValues("new")))
}
