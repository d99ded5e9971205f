package models

import (
	"time"

	"github.com/google/uuid"
)

// Slot is the structural role an item occupies in an outfit.
type Slot string

const (
	SlotBaseTop   Slot = "base_top"
	SlotLayer     Slot = "layer"
	SlotBottom    Slot = "bottom"
	SlotShoes     Slot = "shoes"
	SlotAccessory Slot = "accessory"
)

// AllSlots lists every slot in classification priority order.
var AllSlots = []Slot{SlotShoes, SlotLayer, SlotBaseTop, SlotBottom, SlotAccessory}

// String returns the slot name.
func (s Slot) String() string {
	return string(s)
}

// IsTopCoverage reports whether the slot covers the upper body.
func (s Slot) IsTopCoverage() bool {
	return s == SlotBaseTop || s == SlotLayer
}

// ClothingItem is a single piece in a user's wardrobe.
// Attributes are written by the image analyzer; the engine only reads them.
type ClothingItem struct {
	ID     int64     `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory,omitempty"`
	Color           string   `json:"color,omitempty"`
	SecondaryColors []string `json:"secondary_colors,omitempty"`
	Pattern         string   `json:"pattern,omitempty"`
	FitType         string   `json:"fit_type,omitempty"`
	Silhouette      string   `json:"silhouette,omitempty"`
	Brand           string   `json:"brand,omitempty"`
	Description     string   `json:"description,omitempty"`

	StyleTags    []string `json:"style_tags,omitempty"`
	OccasionTags []string `json:"occasion_tags,omitempty"`
	SeasonTags   []string `json:"season_tags,omitempty"`

	// QualityScore is on a 0-10 scale. Nil when the analyzer did not rate the item.
	QualityScore *float64 `json:"quality_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemIDs returns the IDs of the given items in order.
func ItemIDs(items []*ClothingItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

// StyleProfile holds a user's styling preferences. Only the avoid lists
// affect candidate filtering; the rest is passed to the suggestion oracle.
type StyleProfile struct {
	UserID          uuid.UUID `json:"user_id"`
	PreferredStyles []string  `json:"preferred_styles,omitempty"`
	PreferredColors []string  `json:"preferred_colors,omitempty"`
	AvoidColors     []string  `json:"avoid_colors,omitempty"`
	AvoidPatterns   []string  `json:"avoid_patterns,omitempty"`
	BodyType        string    `json:"body_type,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}
