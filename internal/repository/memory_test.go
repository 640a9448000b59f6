package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dealintake/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_History(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Seed{})
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, offset := range []int{5, 0, 40} {
		err := store.AppendHistory(ctx, model.IntakeHistoryEntry{
			ID:         string(rune('a' + i)),
			Content:    "plot sector 82",
			ReceivedAt: base.AddDate(0, 0, -offset),
			Category:   string(model.BandNew),
		})
		require.NoError(t, err)
	}

	entries, err := store.LoadHistory(ctx, base.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)

	pruned, err := store.PruneHistory(ctx, base.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	entries, err = store.LoadHistory(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entry, err := store.GetHistoryEntry(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, base, entry.ReceivedAt)

	missing, err := store.GetHistoryEntry(ctx, "c")
	require.NoError(t, err)
	assert.Nil(t, missing, "pruned entries are gone")
}

func TestMemoryStore_AppendHistoryRejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Seed{})

	assert.Error(t, store.AppendHistory(ctx, model.IntakeHistoryEntry{}))

	entry := model.IntakeHistoryEntry{ID: "x", ReceivedAt: time.Now()}
	require.NoError(t, store.AppendHistory(ctx, entry))
	assert.Error(t, store.AppendHistory(ctx, entry))
}

func TestMemoryStore_SeedIsCopied(t *testing.T) {
	ctx := context.Background()
	seed := Seed{
		ActiveDeals: []model.ActiveDeal{{ID: "d1", UnitNumber: "55"}},
		Contacts:    []model.ContactInfo{{ID: "c1", Mobile: "9876543210"}},
	}
	store := NewMemoryStore(seed)
	seed.ActiveDeals[0].UnitNumber = "changed"

	deals, err := store.ActiveDeals(ctx)
	require.NoError(t, err)
	assert.Equal(t, "55", deals[0].UnitNumber)

	store.AddActiveDeal(model.ActiveDeal{ID: "d2"})
	store.AddContacts(model.ContactInfo{ID: "c2"})
	unit := "12"
	store.AddInventory(model.InventoryRecord{ID: "i1", UnitNumber: &unit})

	deals, _ = store.ActiveDeals(ctx)
	contacts, _ := store.ListContacts(ctx)
	inventory, _ := store.ListInventory(ctx)
	assert.Len(t, deals, 2)
	assert.Len(t, contacts, 2)
	assert.Len(t, inventory, 1)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	content := `{
		"inventory": [{"id": "i1", "unitNumber": "55", "block": "Block A", "owners": ["Harpreet Singh"], "address": {"locality": "Aerocity"}}],
		"activeDeals": [{"id": "d1", "unitNumber": "123", "location": "Sector 82"}],
		"contacts": [{"id": "c1", "mobile": "+91 98765 43210", "name": "Harpreet", "role": "Owner"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seed.Inventory, 1)
	assert.Equal(t, "55", *seed.Inventory[0].UnitNumber)
	assert.Equal(t, model.JSONArray{"Harpreet Singh"}, seed.Inventory[0].Owners)
	assert.Equal(t, "Aerocity", seed.Inventory[0].AreaText())
	assert.Equal(t, "Sector 82", seed.ActiveDeals[0].Location)
	assert.Equal(t, "Owner", seed.Contacts[0].Role)

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
