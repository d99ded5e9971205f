package outfit

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

// ValidationResult is the structural verdict for one candidate.
type ValidationResult struct {
	Valid    bool
	Reason   string
	Slots    map[int64]models.Slot
	Advisory models.AdvisorySignals
}

// Validator checks that a set of items forms a wearable outfit.
type Validator struct {
	classifier *Classifier
}

// NewValidator creates a validator that classifies with the given classifier.
func NewValidator(classifier *Classifier) *Validator {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &Validator{classifier: classifier}
}

// Validate accepts the items iff they cover the top (base_top or layer),
// have exactly one bottom and exactly one pair of shoes, and repeat no slot
// other than accessory. Formality, pattern and color observations are
// reported in Advisory and never reject.
func (v *Validator) Validate(items []*models.ClothingItem) ValidationResult {
	if len(items) == 0 {
		return ValidationResult{Reason: "no items"}
	}

	result := ValidationResult{
		Slots:    make(map[int64]models.Slot, len(items)),
		Advisory: v.Advise(items),
	}

	seen := make(map[models.Slot]bool, len(models.AllSlots))
	for _, item := range items {
		slot := v.classifier.ClassifyItem(item)
		result.Slots[item.ID] = slot
		if seen[slot] && slot != models.SlotAccessory {
			result.Reason = fmt.Sprintf("duplicate %s: an outfit can only contain one %s item", slot, slot)
			return result
		}
		seen[slot] = true
	}

	var missing []string
	if !seen[models.SlotBaseTop] && !seen[models.SlotLayer] {
		missing = append(missing, string(models.SlotBaseTop)+"/"+string(models.SlotLayer))
	}
	if !seen[models.SlotBottom] {
		missing = append(missing, string(models.SlotBottom))
	}
	if !seen[models.SlotShoes] {
		missing = append(missing, string(models.SlotShoes))
	}
	if len(missing) > 0 {
		result.Reason = "missing required slots: " + strings.Join(missing, ", ")
		return result
	}

	result.Valid = true
	return result
}

// Advise computes the advisory styling signals for a set of items.
func (v *Validator) Advise(items []*models.ClothingItem) models.AdvisorySignals {
	rules := v.classifier.Rules()
	var signals models.AdvisorySignals
	if len(items) == 0 {
		return signals
	}

	signals.FormalitySpread = formalitySpread(items, rules)
	signals.FormalityMismatch = signals.FormalitySpread > rules.MaxFormalitySpread
	signals.PatternClash = patternsClash(items, rules)
	signals.ColorClashes = colorClashes(items, rules)

	accessories := 0
	for _, item := range items {
		if v.classifier.ClassifyItem(item) == models.SlotAccessory {
			accessories++
		}
	}
	signals.AccessoryOverload = accessories > rules.MaxAccessories
	return signals
}

// FormalityScore returns the 0-10 formality of an item. The subcategory is
// looked up before the category; unknown items sit at the rules default.
func FormalityScore(item *models.ClothingItem, rules *Rules) int {
	for _, key := range []string{item.Subcategory, item.Category} {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if score, ok := rules.Formality[key]; ok {
			return score
		}
		if score, ok := rules.Formality[strings.ReplaceAll(key, " ", "-")]; ok {
			return score
		}
	}
	return rules.DefaultFormality
}

// PatternIntensity returns the 0-10 intensity of an item's pattern.
// An empty pattern is treated as solid.
func PatternIntensity(item *models.ClothingItem, rules *Rules) int {
	pattern := strings.ToLower(item.Pattern)
	if pattern == "" {
		pattern = "solid"
	}
	for _, level := range rules.PatternIntensity {
		if strings.Contains(pattern, level.Pattern) {
			return level.Intensity
		}
	}
	return 0
}

func formalitySpread(items []*models.ClothingItem, rules *Rules) int {
	lo, hi := 0, 0
	for i, item := range items {
		score := FormalityScore(item, rules)
		if i == 0 || score < lo {
			lo = score
		}
		if i == 0 || score > hi {
			hi = score
		}
	}
	return hi - lo
}

// patternsClash allows at most one loud pattern, and only alongside quiet ones.
func patternsClash(items []*models.ClothingItem, rules *Rules) bool {
	loud := 0
	busiestQuiet := 0
	for _, item := range items {
		p := PatternIntensity(item, rules)
		if p >= rules.LoudPatternThreshold {
			loud++
		} else if p > busiestQuiet {
			busiestQuiet = p
		}
	}
	if loud > 1 {
		return true
	}
	return loud == 1 && busiestQuiet > rules.QuietPatternCeiling
}

func colorClashes(items []*models.ClothingItem, rules *Rules) []string {
	colors := make(map[string]bool, len(items))
	for _, item := range items {
		if c := strings.ToLower(strings.TrimSpace(item.Color)); c != "" {
			colors[c] = true
		}
	}

	var clashes []string
	for _, pair := range rules.ColorClashes {
		if colors[pair[0]] && colors[pair[1]] {
			clashes = append(clashes, pair[0]+"+"+pair[1])
		}
	}
	return clashes
}
