package outfit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

func TestFilterByOccasion(t *testing.T) {
	pool := []*models.ClothingItem{
		tagged(item(1, "shirt", "dress-shirt"), "formal"),
		tagged(item(2, "pants", "chinos"), "business", "formal"),
		tagged(item(3, "shirt", "tee"), "athletic"),
		item(4, "shoes", "loafers"),
		tagged(item(5, "accessory", "watch"), "all"),
		tagged(item(6, "top", "blouse"), "evening"),
		tagged(item(7, "pants", "joggers"), "Casual"),
	}

	tests := []struct {
		name     string
		occasion string
		want     []int64
	}{
		{"direct tag and neutral and broad", "athletic", []int64{3, 4, 5, 7}},
		{"work synonyms", "work", []int64{1, 2, 4, 5, 7}},
		{"business synonyms", "Business", []int64{1, 2, 4, 5, 7}},
		{"night synonyms", "night", []int64{4, 5, 6, 7}},
		{"date synonyms", "date", []int64{4, 5, 6, 7}},
		{"unrelated occasion keeps neutral and broad", "travel", []int64{4, 5, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByOccasion(pool, tt.occasion, nil)
			assert.Equal(t, tt.want, models.ItemIDs(got))
		})
	}
}

func TestFilterByOccasion_FallsBackToFullPool(t *testing.T) {
	pool := []*models.ClothingItem{
		tagged(item(1, "shirt", "tee"), "athletic"),
		tagged(item(2, "pants", "joggers"), "lounge"),
	}

	got := FilterByOccasion(pool, "formal", nil)

	assert.Equal(t, []int64{1, 2}, models.ItemIDs(got))
}

func TestFilterCandidates_StyleProfileExclusions(t *testing.T) {
	pool := []*models.ClothingItem{
		{ID: 1, Category: "shirt", Color: "Bright Red", Pattern: "solid"},
		{ID: 2, Category: "pants", Color: "navy", Pattern: "plaid"},
		{ID: 3, Category: "shoes", Color: "white", SecondaryColors: []string{"neon orange"}},
		{ID: 4, Category: "shirt", Color: "white", Pattern: "striped"},
	}
	profile := &models.StyleProfile{
		AvoidColors:   []string{" red ", "orange", ""},
		AvoidPatterns: []string{"Plaid"},
	}

	got := FilterCandidates(pool, "casual", profile, nil)

	assert.Equal(t, []int64{4}, models.ItemIDs(got))
}

func TestFilterCandidates_ExclusionRunsAfterOccasionFallback(t *testing.T) {
	pool := []*models.ClothingItem{
		tagged(&models.ClothingItem{ID: 1, Category: "shirt", Color: "red"}, "athletic"),
		tagged(&models.ClothingItem{ID: 2, Category: "pants", Color: "black"}, "athletic"),
	}
	profile := &models.StyleProfile{AvoidColors: []string{"red"}}

	// No item is tagged formal, so the occasion filter falls back to the full
	// pool and only then drops the avoided color.
	got := FilterCandidates(pool, "formal", profile, nil)

	assert.Equal(t, []int64{2}, models.ItemIDs(got))
}

func TestFilterCandidates_NilProfile(t *testing.T) {
	pool := basicOutfit()
	got := FilterCandidates(pool, "casual", nil, nil)
	assert.Equal(t, models.ItemIDs(pool), models.ItemIDs(got))
}
