package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageRecord_ApplyShown(t *testing.T) {
	userID := uuid.New()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(24 * time.Hour)

	rec := NewUsageRecord(userID, 7)
	first := rec.ApplyShown("work", false, t0)
	second := first.ApplyShown("date", true, t1)

	assert.Equal(t, 0, rec.TotalShown, "receiver must not be mutated")
	assert.Empty(t, rec.OccasionCounts)

	assert.Equal(t, 1, first.TotalShown)
	assert.Equal(t, map[string]int{"work": 1}, first.OccasionCounts)

	assert.Equal(t, 2, second.TotalShown)
	assert.Equal(t, 1, second.TotalFavorited)
	assert.Equal(t, map[string]int{"work": 1, "date": 1}, second.OccasionCounts)
	assert.InDelta(t, 0.5, second.SuccessRate, 1e-9)
	assert.Equal(t, 2.0, second.VersatilityScore)

	require.NotNil(t, second.FirstShownAt)
	require.NotNil(t, second.LastShownAt)
	assert.Equal(t, t0, *second.FirstShownAt)
	assert.Equal(t, t1, *second.LastShownAt)
	assert.Equal(t, userID, second.UserID)
}

func TestUsageRecord_ApplyShown_SameOccasionKeepsVersatility(t *testing.T) {
	rec := NewUsageRecord(uuid.New(), 1)
	now := time.Now()

	for i := 0; i < 3; i++ {
		rec = rec.ApplyShown("casual", false, now)
	}

	assert.Equal(t, 3, rec.TotalShown)
	assert.Equal(t, 3, rec.OccasionCounts["casual"])
	assert.Equal(t, 1.0, rec.VersatilityScore)
	assert.Zero(t, rec.SuccessRate)
}

func TestItemSet(t *testing.T) {
	a := NewItemSet(1, 2, 3, 3)
	b := NewItemSet(3, 4, 1)

	assert.Len(t, a, 3)
	assert.True(t, a.Contains(2))
	assert.False(t, a.Contains(4))
	assert.Equal(t, 2, a.IntersectionSize(b))
	assert.Equal(t, 2, b.IntersectionSize(a))
	assert.Equal(t, 0, a.IntersectionSize(NewItemSet()))
	assert.Equal(t, []int64{1, 3, 4}, b.Sorted())
}

func TestOutfitHistoryEntry_ItemSet(t *testing.T) {
	entry := &OutfitHistoryEntry{ItemIDs: []int64{5, 2, 5}}
	assert.Equal(t, []int64{2, 5}, entry.ItemSet().Sorted())
}

func TestNormalizeOccasion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"work", "work"},
		{"  Formal ", "formal"},
		{"brunch", DefaultOccasion},
		{"", DefaultOccasion},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeOccasion(tt.in))
		})
	}

	assert.True(t, IsRecognizedOccasion("Date"))
	assert.False(t, IsRecognizedOccasion("brunch"))
}
