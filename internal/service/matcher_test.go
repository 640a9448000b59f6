package service

import (
	"fmt"
	"testing"

	"dealintake/internal/model"
	"dealintake/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string {
	return &v
}

func TestMatcher_ScoreRecord(t *testing.T) {
	m := NewMatcher(0, 0)

	tests := []struct {
		name    string
		record  model.InventoryRecord
		raw     string
		owner   string
		score   int
		reasons []string
	}{
		{
			name:    "exact unit",
			record:  model.InventoryRecord{UnitNumber: strPtr("123")},
			raw:     "Plot No 123, Sector 82",
			score:   50,
			reasons: []string{ReasonUnitExact},
		},
		{
			name:    "unit mentioned as a word",
			record:  model.InventoryRecord{UnitNumber: strPtr("82")},
			raw:     "Plot No 123, Sector 82",
			score:   45,
			reasons: []string{ReasonUnitMentioned},
		},
		{
			name:    "unit inside a longer token",
			record:  model.InventoryRecord{UnitNumber: strPtr("203")},
			raw:     "flat B2035 ready",
			score:   30,
			reasons: []string{ReasonUnitPartial},
		},
		{
			name:   "short unit inside a token scores nothing",
			record: model.InventoryRecord{UnitNumber: strPtr("20")},
			raw:    "flat B2035 ready",
			score:  0,
		},
		{
			name:    "block verbatim",
			record:  model.InventoryRecord{Block: strPtr("Tower C")},
			raw:     "3bhk in tower c",
			score:   25,
			reasons: []string{ReasonBlockMatch},
		},
		{
			name:    "block code form",
			record:  model.InventoryRecord{Block: strPtr("Block-A")},
			raw:     "kothi in A block",
			score:   25,
			reasons: []string{ReasonBlockMatch},
		},
		{
			name:    "sector in area",
			record:  model.InventoryRecord{Sector: strPtr("Sector 82"), Area: strPtr("JLPL")},
			raw:     "Plot No 999, Sector 82",
			score:   30,
			reasons: []string{ReasonSectorMatch},
		},
		{
			name:   "sector is matched as a whole word",
			record: model.InventoryRecord{Sector: strPtr("Sector 82")},
			raw:    "Plot No 999, Sector 8",
			score:  0,
		},
		{
			name:    "area tokens",
			record:  model.InventoryRecord{Area: strPtr("Marigold Phase 2, Mohali"), ProjectName: strPtr("Green Lotus")},
			raw:     "sco near marigold and green lotus",
			score:   45,
			reasons: []string{ReasonAreaToken + ": green", ReasonAreaToken + ": lotus", ReasonAreaToken + ": marigold"},
		},
		{
			name:    "owner",
			record:  model.InventoryRecord{Owners: model.JSONArray{"Harpreet Singh Sandhu"}},
			raw:     "booth available",
			owner:   "harpreet singh",
			score:   40,
			reasons: []string{ReasonOwnerMatch},
		},
		{
			name:    "size digits",
			record:  model.InventoryRecord{Size: strPtr("500")},
			raw:     "Plot 500 Sqyd",
			score:   15,
			reasons: []string{ReasonSizeMatch},
		},
		{
			name: "everything clamps to 100",
			record: model.InventoryRecord{
				UnitNumber: strPtr("123"),
				Block:      strPtr("B"),
				Sector:     strPtr("Sector 82"),
				Owners:     model.JSONArray{"Harpreet"},
				Size:       strPtr("500 sq yd"),
			},
			raw:     "Plot No 123 block B, Sector 82, 500 Sqyd",
			owner:   "Harpreet",
			score:   100,
			reasons: []string{ReasonUnitExact, ReasonBlockMatch, ReasonSectorMatch, ReasonOwnerMatch, ReasonSizeMatch},
		},
		{
			name:   "nothing in common",
			record: model.InventoryRecord{UnitNumber: strPtr("77"), Area: strPtr("Eco City")},
			raw:    "Plot No 123, Sector 82",
			score:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal := parser.Assemble(tt.raw)
			require.NotNil(t, deal)

			score, reasons := m.scoreRecord(tt.record, deal, tt.raw, tt.owner)
			assert.Equal(t, tt.score, score)
			if tt.reasons == nil {
				assert.Empty(t, reasons)
			} else {
				assert.Equal(t, tt.reasons, reasons)
			}
		})
	}
}

func TestMatcher_ScoreFiltersSortsAndTruncates(t *testing.T) {
	raw := "Plot No 123, Sector 82, 500 Sqyd"
	deal := parser.Assemble(raw)

	records := []model.InventoryRecord{
		{ID: "size-only", Size: strPtr("500")},
		{ID: "nothing", UnitNumber: strPtr("9")},
		{ID: "unit", UnitNumber: strPtr("123")},
		{ID: "sector-a", Sector: strPtr("Sector 82")},
		{ID: "sector-b", Sector: strPtr("Sector 82")},
		{ID: "unit-sector", UnitNumber: strPtr("123"), Sector: strPtr("Sector 82")},
		{ID: "sector-size", Sector: strPtr("Sector 82"), Size: strPtr("500")},
	}

	got := NewMatcher(0, 0).Score(records, deal, raw, "")
	require.Len(t, got, 5)

	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.Inventory.ID
	}
	assert.Equal(t, []string{"unit-sector", "unit", "sector-size", "sector-a", "sector-b"}, ids)
	assert.Equal(t, []int{80, 50, 45, 30, 30}, []int{got[0].Score, got[1].Score, got[2].Score, got[3].Score, got[4].Score})

	all := (&Matcher{MinScore: 15, TopN: 10}).Score(records, deal, raw, "")
	assert.Len(t, all, 6)
	assert.Equal(t, "size-only", all[5].Inventory.ID)

	strict := (&Matcher{MinScore: 40, TopN: 10}).Score(records, deal, raw, "")
	assert.Len(t, strict, 3)
}

func TestMatcher_ScoreIsBounded(t *testing.T) {
	m := NewMatcher(1, 100)
	raws := []string{
		"Plot No 123, Sector 82, 500 Sqyd, Price 2 Cr",
		"SCO 55 block A aerocity green lotus harpreet 100 sqyd",
		"nothing useful here",
	}
	records := []model.InventoryRecord{
		{UnitNumber: strPtr("55"), Block: strPtr("A"), Area: strPtr("Aerocity Green Lotus Heights Tower"), Owners: model.JSONArray{"Harpreet"}, Size: strPtr("100")},
		{UnitNumber: strPtr("123"), Sector: strPtr("Sector 82"), Size: strPtr("500")},
		{},
	}

	for _, raw := range raws {
		deal := parser.Assemble(raw)
		for i, r := range records {
			score, _ := m.scoreRecord(r, deal, raw, "Harpreet")
			assert.GreaterOrEqual(t, score, 0, fmt.Sprintf("%s / %d", raw, i))
			assert.LessOrEqual(t, score, 100, fmt.Sprintf("%s / %d", raw, i))
		}
	}
}

func TestMatcher_NilDealAndBlankRaw(t *testing.T) {
	got := NewMatcher(0, 0).Score([]model.InventoryRecord{{UnitNumber: strPtr("1")}}, nil, " ", "")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
