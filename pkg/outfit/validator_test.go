package outfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name       string
		items      []*models.ClothingItem
		wantValid  bool
		wantReason []string
	}{
		{
			name:       "empty",
			items:      nil,
			wantReason: []string{"no items"},
		},
		{
			name:      "top bottom shoes",
			items:     basicOutfit()[:3],
			wantValid: true,
		},
		{
			name:      "layer alone covers the top",
			items:     []*models.ClothingItem{item(1, "jacket", "bomber"), item(2, "pants", "chinos"), item(3, "shoes", "loafers")},
			wantValid: true,
		},
		{
			name: "base top plus layer",
			items: []*models.ClothingItem{
				item(1, "shirt", "oxford"), item(2, "blazer", ""), item(3, "pants", "trousers"), item(4, "shoes", "oxfords"),
			},
			wantValid: true,
		},
		{
			name: "repeated accessories are fine",
			items: append(basicOutfit(), item(5, "accessory", "belt"), item(6, "accessory", "sunglasses")),
			wantValid: true,
		},
		{
			name: "two bottoms",
			items: []*models.ClothingItem{
				item(1, "shirt", "tee"), item(2, "pants", "jeans"), item(3, "shorts", ""), item(4, "shoes", "sneakers"),
			},
			wantReason: []string{"bottom"},
		},
		{
			name: "two shoes",
			items: []*models.ClothingItem{
				item(1, "shirt", "tee"), item(2, "pants", "jeans"), item(3, "shoes", "sneakers"), item(4, "boots", ""),
			},
			wantReason: []string{"shoes"},
		},
		{
			name:       "missing everything but a top",
			items:      []*models.ClothingItem{item(1, "shirt", "tee")},
			wantReason: []string{"bottom", "shoes"},
		},
		{
			name:       "missing top coverage",
			items:      []*models.ClothingItem{item(1, "pants", "jeans"), item(2, "shoes", "sneakers")},
			wantReason: []string{"base_top/layer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.items)
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantValid {
				assert.Empty(t, res.Reason)
			}
			for _, fragment := range tt.wantReason {
				assert.Contains(t, res.Reason, fragment)
			}
		})
	}
}

// Scenario B: two base tops with one bottom and one pair of shoes.
func TestValidator_DuplicateBaseTopNamesSlot(t *testing.T) {
	v := NewValidator(nil)
	items := []*models.ClothingItem{
		item(1, "shirt", "t-shirt"),
		item(2, "top", "polo"),
		item(3, "pants", "jeans"),
		item(4, "shoes", "sneakers"),
	}

	res := v.Validate(items)

	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "base_top")
}

func TestValidator_AdvisoryNeverRejects(t *testing.T) {
	v := NewValidator(nil)
	items := []*models.ClothingItem{
		{ID: 1, Category: "shirt", Subcategory: "tank", Color: "red", Pattern: "floral"},
		{ID: 2, Category: "pants", Subcategory: "dress-pants", Color: "pink", Pattern: "graphic print"},
		{ID: 3, Category: "shoes", Subcategory: "oxfords", Color: "green"},
		{ID: 4, Category: "accessory", Subcategory: "watch", Color: "blue"},
		{ID: 5, Category: "accessory", Subcategory: "belt"},
		{ID: 6, Category: "accessory", Subcategory: "hat"},
	}

	res := v.Validate(items)

	require.True(t, res.Valid)
	assert.Equal(t, 7, res.Advisory.FormalitySpread)
	assert.True(t, res.Advisory.FormalityMismatch)
	assert.True(t, res.Advisory.PatternClash)
	assert.ElementsMatch(t, []string{"red+pink", "green+blue"}, res.Advisory.ColorClashes)
	assert.True(t, res.Advisory.AccessoryOverload)
}

func TestValidator_SlotsReported(t *testing.T) {
	v := NewValidator(nil)
	res := v.Validate(basicOutfit())

	require.True(t, res.Valid)
	assert.Equal(t, map[int64]models.Slot{
		1: models.SlotBaseTop,
		2: models.SlotBottom,
		3: models.SlotShoes,
		4: models.SlotAccessory,
	}, res.Slots)
}

func TestPatternIntensity(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, 0, PatternIntensity(&models.ClothingItem{}, rules))
	assert.Equal(t, 4, PatternIntensity(&models.ClothingItem{Pattern: "Striped"}, rules))
	assert.Equal(t, 9, PatternIntensity(&models.ClothingItem{Pattern: "tie-dye"}, rules))
	assert.Equal(t, 0, PatternIntensity(&models.ClothingItem{Pattern: "houndstooth"}, rules))
}

func TestFormalityScore(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, 8, FormalityScore(&models.ClothingItem{Category: "blazer"}, rules))
	assert.Equal(t, 7, FormalityScore(&models.ClothingItem{Category: "shirt", Subcategory: "dress shirt"}, rules))
	assert.Equal(t, 3, FormalityScore(&models.ClothingItem{Category: "pants", Subcategory: "jeans"}, rules))
	assert.Equal(t, 5, FormalityScore(&models.ClothingItem{Category: "cape"}, rules))
}
