package outfit

import (
	"strings"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

// Classifier maps item text to a slot. It is total and deterministic:
// the same category and subcategory always produce the same slot.
type Classifier struct {
	rules *Rules
}

// NewClassifier creates a classifier over the given rules. Nil selects DefaultRules.
func NewClassifier(rules *Rules) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Rules returns the tables the classifier was built with.
func (c *Classifier) Rules() *Rules {
	return c.rules
}

// Classify returns the slot for a category/subcategory pair.
//
// Keyword sets are tried in rule order (shoes, layer, base_top, bottom,
// accessory by default) against "category subcategory", so overlapping words
// such as "overshirt" resolve to the more specific slot. When nothing matches,
// the category alone is checked against the coarse fallbacks, and anything
// still unmatched is an accessory.
func (c *Classifier) Classify(category, subcategory string) models.Slot {
	category = strings.ToLower(category)
	fullText := category + " " + strings.ToLower(subcategory)

	if slot, ok := matchSlot(c.rules.SlotKeywords, fullText); ok {
		return slot
	}
	if slot, ok := matchSlot(c.rules.CategoryFallbacks, category); ok {
		return slot
	}
	return models.SlotAccessory
}

// ClassifyItem classifies a clothing item by its category fields.
func (c *Classifier) ClassifyItem(item *models.ClothingItem) models.Slot {
	return c.Classify(item.Category, item.Subcategory)
}

// OrganizeBySlot groups items by slot, preserving input order within a slot.
// Every slot is present in the result, possibly with no items.
func (c *Classifier) OrganizeBySlot(items []*models.ClothingItem) map[models.Slot][]*models.ClothingItem {
	slots := make(map[models.Slot][]*models.ClothingItem, len(models.AllSlots))
	for _, s := range models.AllSlots {
		slots[s] = []*models.ClothingItem{}
	}
	for _, item := range items {
		slot := c.ClassifyItem(item)
		slots[slot] = append(slots[slot], item)
	}
	return slots
}

func matchSlot(sets []SlotKeywords, text string) (models.Slot, bool) {
	for _, set := range sets {
		for _, kw := range set.Keywords {
			if strings.Contains(text, kw) {
				return set.Slot, true
			}
		}
	}
	return "", false
}
