package outfit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name        string
		category    string
		subcategory string
		want        models.Slot
	}{
		{"t-shirt", "shirt", "t-shirt", models.SlotBaseTop},
		{"polo", "Top", "Polo", models.SlotBaseTop},
		{"jeans", "pants", "jeans", models.SlotBottom},
		{"dress counts as bottom", "dress", "", models.SlotBottom},
		{"sneakers", "shoes", "sneakers", models.SlotShoes},
		{"watch", "accessory", "watch", models.SlotAccessory},
		{"blazer", "blazer", "", models.SlotLayer},
		{"hoodie", "sweatshirt", "hoodie", models.SlotLayer},
		{"upper case input", "JACKET", "BOMBER", models.SlotLayer},
		{"unknown text defaults to accessory", "thing", "gizmo", models.SlotAccessory},
		{"empty text defaults to accessory", "", "", models.SlotAccessory},
		{"category fallback boot", "ankle boot", "", models.SlotShoes},
		{"category fallback pant", "pantalon", "", models.SlotBottom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.category, tt.subcategory))
		})
	}
}

func TestClassifier_PriorityOrder(t *testing.T) {
	c := NewClassifier(nil)

	// "overshirt" contains "shirt" but layer outranks base_top.
	assert.Equal(t, models.SlotLayer, c.Classify("top", "overshirt"))
	// "shirt jacket" hits both layer and base_top keywords.
	assert.Equal(t, models.SlotLayer, c.Classify("shirt", "jacket"))
	// Shoes outrank everything, including layer words.
	assert.Equal(t, models.SlotShoes, c.Classify("boots", "coat"))
	// base_top outranks bottom: "tank" plus "shorts".
	assert.Equal(t, models.SlotBaseTop, c.Classify("tank", "shorts"))
	// bottom outranks accessory: "skirt" plus "belt".
	assert.Equal(t, models.SlotBottom, c.Classify("skirt", "belt"))
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier(nil)
	inputs := [][2]string{{"shirt", "t-shirt"}, {"coat", "trench"}, {"misc", "keychain"}}

	for _, in := range inputs {
		first := c.Classify(in[0], in[1])
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, c.Classify(in[0], in[1]))
		}
	}
}

func TestClassifier_InjectedRules(t *testing.T) {
	rules := DefaultRules()
	rules.SlotKeywords = append([]SlotKeywords{{Slot: models.SlotAccessory, Keywords: []string{"novelty"}}}, rules.SlotKeywords...)
	c := NewClassifier(rules)

	assert.Equal(t, models.SlotAccessory, c.Classify("novelty", "shirt"))
	// Default classifier is unaffected by the modified copy.
	assert.Equal(t, models.SlotBaseTop, NewClassifier(nil).Classify("novelty", "shirt"))
}

func TestClassifier_OrganizeBySlot(t *testing.T) {
	c := NewClassifier(nil)
	items := append(basicOutfit(), item(5, "accessory", "belt"))

	slots := c.OrganizeBySlot(items)

	assert.Len(t, slots, len(models.AllSlots))
	assert.Equal(t, []int64{1}, models.ItemIDs(slots[models.SlotBaseTop]))
	assert.Equal(t, []int64{4, 5}, models.ItemIDs(slots[models.SlotAccessory]))
	assert.Empty(t, slots[models.SlotLayer])
}
