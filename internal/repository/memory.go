package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"dealintake/internal/model"
)

// Seed is the initial content of a MemoryStore
type Seed struct {
	Inventory   []model.InventoryRecord `json:"inventory"`
	ActiveDeals []model.ActiveDeal      `json:"activeDeals"`
	Contacts    []model.ContactInfo     `json:"contacts"`
}

// LoadSeedFile reads a JSON seed file
func LoadSeedFile(path string) (Seed, error) {
	var seed Seed
	data, err := os.ReadFile(path)
	if err != nil {
		return seed, fmt.Errorf("failed to read seed file: %w", err)
	}
	if err := json.Unmarshal(data, &seed); err != nil {
		return seed, fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}
	return seed, nil
}

// MemoryStore keeps everything in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	history   []model.IntakeHistoryEntry
	deals     []model.ActiveDeal
	inventory []model.InventoryRecord
	contacts  []model.ContactInfo
}

// NewMemoryStore creates a store holding a copy of seed
func NewMemoryStore(seed Seed) *MemoryStore {
	return &MemoryStore{
		deals:     append([]model.ActiveDeal(nil), seed.ActiveDeals...),
		inventory: append([]model.InventoryRecord(nil), seed.Inventory...),
		contacts:  append([]model.ContactInfo(nil), seed.Contacts...),
	}
}

// LoadHistory returns entries received at or after since, oldest first
func (s *MemoryStore) LoadHistory(_ context.Context, since time.Time) ([]model.IntakeHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.IntakeHistoryEntry, 0, len(s.history))
	for _, e := range s.history {
		if !e.ReceivedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})
	return out, nil
}

// AppendHistory stores one history entry
func (s *MemoryStore) AppendHistory(_ context.Context, entry model.IntakeHistoryEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("history entry has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.history {
		if e.ID == entry.ID {
			return fmt.Errorf("history entry %s already exists", entry.ID)
		}
	}
	s.history = append(s.history, entry)
	return nil
}

// GetHistoryEntry returns the entry with the given id, or nil when there is none
func (s *MemoryStore) GetHistoryEntry(_ context.Context, id string) (*model.IntakeHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.history {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

// PruneHistory deletes entries received before cutoff
func (s *MemoryStore) PruneHistory(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.history[:0]
	for _, e := range s.history {
		if !e.ReceivedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	pruned := int64(len(s.history) - len(kept))
	s.history = kept
	return pruned, nil
}

// ActiveDeals lists the seeded open deals
func (s *MemoryStore) ActiveDeals(_ context.Context) ([]model.ActiveDeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ActiveDeal(nil), s.deals...), nil
}

// ListInventory returns the inventory book
func (s *MemoryStore) ListInventory(_ context.Context) ([]model.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.InventoryRecord(nil), s.inventory...), nil
}

// ListContacts returns every known contact
func (s *MemoryStore) ListContacts(_ context.Context) ([]model.ContactInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ContactInfo(nil), s.contacts...), nil
}

// AddActiveDeal registers an open deal
func (s *MemoryStore) AddActiveDeal(deal model.ActiveDeal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals = append(s.deals, deal)
}

// AddInventory adds records to the inventory book
func (s *MemoryStore) AddInventory(records ...model.InventoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inventory = append(s.inventory, records...)
}

// AddContacts adds contacts to the directory
func (s *MemoryStore) AddContacts(contacts ...model.ContactInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append(s.contacts, contacts...)
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
