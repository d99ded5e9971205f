// Package outfit holds the deterministic outfit composition logic: slot
// classification, candidate filtering, structural validation and scoring.
// Nothing in this package performs I/O; lookup tables arrive as Rules and
// scoring weights as ScoringConfig so tests and tuning never touch globals.
package outfit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

// RulesVersion identifies the built-in lookup tables.
const RulesVersion = "2025.1"

// SlotKeywords maps a set of keywords to the slot they indicate.
type SlotKeywords struct {
	Slot     models.Slot `yaml:"slot"`
	Keywords []string    `yaml:"keywords"`
}

// PatternLevel is the visual intensity of a pattern keyword (0 solid, 10 loud).
type PatternLevel struct {
	Pattern   string `yaml:"pattern"`
	Intensity int    `yaml:"intensity"`
}

// OccasionSynonyms widens occasion matching: a request for any of Occasions
// accepts items tagged with any of Tags.
type OccasionSynonyms struct {
	Occasions []string `yaml:"occasions"`
	Tags      []string `yaml:"tags"`
}

// Rules is the lookup data used by the classifier, filter and validator.
// Treat a Rules value as immutable once handed to a component.
type Rules struct {
	Version string `yaml:"version"`

	// SlotKeywords is tested in order against "category subcategory";
	// the first set with a matching keyword wins.
	SlotKeywords []SlotKeywords `yaml:"slot_keywords"`
	// CategoryFallbacks is tested in order against the category alone when
	// no keyword matched.
	CategoryFallbacks []SlotKeywords `yaml:"category_fallbacks"`

	Formality          map[string]int `yaml:"formality"`
	DefaultFormality   int            `yaml:"default_formality"`
	MaxFormalitySpread int            `yaml:"max_formality_spread"`

	PatternIntensity     []PatternLevel `yaml:"pattern_intensity"`
	LoudPatternThreshold int            `yaml:"loud_pattern_threshold"`
	QuietPatternCeiling  int            `yaml:"quiet_pattern_ceiling"`

	ColorClashes [][2]string `yaml:"color_clashes"`

	BroadOccasionTags []string           `yaml:"broad_occasion_tags"`
	OccasionSynonyms  []OccasionSynonyms `yaml:"occasion_synonyms"`

	// MaxAccessories is the accessory count above which the advisory
	// overload flag is raised.
	MaxAccessories int `yaml:"max_accessories"`
}

// DefaultRules returns a fresh copy of the built-in tables.
func DefaultRules() *Rules {
	return &Rules{
		Version: RulesVersion,
		SlotKeywords: []SlotKeywords{
			{Slot: models.SlotShoes, Keywords: []string{
				"shoes", "sneakers", "boots", "loafers", "sandals",
				"heels", "flats", "oxfords", "derbies", "mules",
				"slides", "trainers", "running-shoes", "athletic-shoes",
			}},
			{Slot: models.SlotLayer, Keywords: []string{
				"jacket", "blazer", "coat", "cardigan", "overshirt",
				"hoodie", "vest", "bomber", "denim jacket", "leather jacket",
				"windbreaker", "puffer", "trench", "peacoat",
			}},
			{Slot: models.SlotBaseTop, Keywords: []string{
				"shirt", "t-shirt", "tshirt", "tee", "polo", "blouse",
				"knit", "sweater", "tank", "top", "henley",
			}},
			{Slot: models.SlotBottom, Keywords: []string{
				"pants", "jeans", "trousers", "chinos", "joggers",
				"shorts", "skirt", "dress", "jumpsuit", "cargo",
			}},
			{Slot: models.SlotAccessory, Keywords: []string{
				"watch", "necklace", "chain", "bracelet", "ring",
				"belt", "bag", "backpack", "tote", "hat", "cap",
				"beanie", "scarf", "sunglasses", "glasses", "tie",
				"bowtie", "pocket-square",
			}},
		},
		CategoryFallbacks: []SlotKeywords{
			{Slot: models.SlotShoes, Keywords: []string{"shoe", "boot", "sneaker"}},
			{Slot: models.SlotLayer, Keywords: []string{"jacket", "coat", "blazer"}},
			{Slot: models.SlotBottom, Keywords: []string{"pant", "jean", "short", "skirt"}},
			{Slot: models.SlotBaseTop, Keywords: []string{"shirt", "tee", "top"}},
		},
		Formality: map[string]int{
			"t-shirt": 2, "tee": 2, "tank": 1, "polo": 4, "henley": 3,
			"shirt": 5, "dress-shirt": 7, "oxford": 6, "knit": 5, "sweater": 5,

			"hoodie": 2, "bomber": 3, "denim-jacket": 3, "leather-jacket": 4,
			"blazer": 8, "suit-jacket": 9, "coat": 6, "cardigan": 5, "overshirt": 4,

			"joggers": 2, "cargo": 2, "jeans": 3, "chinos": 5, "dress-pants": 7,
			"trousers": 6, "shorts": 2, "skirt": 5, "dress": 6,

			"sneakers": 3, "trainers": 2, "boots": 5, "chelsea-boots": 6,
			"loafers": 7, "oxfords": 8, "sandals": 1, "slides": 1,
		},
		DefaultFormality:   5,
		MaxFormalitySpread: 3,
		PatternIntensity: []PatternLevel{
			{Pattern: "solid", Intensity: 0},
			{Pattern: "minimal", Intensity: 1},
			{Pattern: "striped", Intensity: 4},
			{Pattern: "checkered", Intensity: 5},
			{Pattern: "plaid", Intensity: 6},
			{Pattern: "floral", Intensity: 7},
			{Pattern: "graphic", Intensity: 8},
			{Pattern: "tie-dye", Intensity: 9},
			{Pattern: "camo", Intensity: 7},
			{Pattern: "paisley", Intensity: 8},
		},
		LoudPatternThreshold: 6,
		QuietPatternCeiling:  3,
		ColorClashes: [][2]string{
			{"red", "pink"},
			{"orange", "red"},
			{"purple", "brown"},
			{"green", "blue"},
		},
		BroadOccasionTags: []string{"all", "casual"},
		OccasionSynonyms: []OccasionSynonyms{
			{Occasions: []string{"work", "business"}, Tags: []string{"formal", "business", "work"}},
			{Occasions: []string{"party", "date", "night"}, Tags: []string{"party", "date", "evening"}},
		},
		MaxAccessories: 2,
	}
}

// Validate checks that the tables can drive classification.
func (r *Rules) Validate() error {
	if r.Version == "" {
		return fmt.Errorf("rules version is required")
	}
	if len(r.SlotKeywords) == 0 {
		return fmt.Errorf("rules %s: slot_keywords must not be empty", r.Version)
	}
	for _, set := range append(append([]SlotKeywords{}, r.SlotKeywords...), r.CategoryFallbacks...) {
		if !isKnownSlot(set.Slot) {
			return fmt.Errorf("rules %s: unknown slot %q", r.Version, set.Slot)
		}
	}
	if r.MaxFormalitySpread < 0 || r.LoudPatternThreshold < 0 || r.MaxAccessories < 0 {
		return fmt.Errorf("rules %s: thresholds must not be negative", r.Version)
	}
	return nil
}

// LoadRules reads a YAML rules document. Fields absent from the file keep
// their built-in values.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

func isKnownSlot(slot models.Slot) bool {
	for _, s := range models.AllSlots {
		if s == slot {
			return true
		}
	}
	return false
}
