package models

import (
	"github.com/google/uuid"
)

// OutfitCandidate is a proposed combination produced by the suggestion oracle.
// Nothing in it is trusted until it has been validated against owned item data.
type OutfitCandidate struct {
	Name        string  `json:"outfit_name"`
	Description string  `json:"description"`
	ItemIDs     []int64 `json:"item_ids"`
	StylingTip  string  `json:"styling_tips"`
}

// AdvisorySignals are styling observations that never reject a combination.
type AdvisorySignals struct {
	FormalitySpread   int      `json:"formality_spread"`
	FormalityMismatch bool     `json:"formality_mismatch"`
	PatternClash      bool     `json:"pattern_clash"`
	ColorClashes      []string `json:"color_clashes,omitempty"`
	AccessoryOverload bool     `json:"accessory_overload"`
}

// ScoreBreakdown holds every scoring term so callers can explain a ranking.
type ScoreBreakdown struct {
	Total            float64 `json:"total"`
	ForcedItemMissed bool    `json:"forced_item_missed,omitempty"`
	OccasionMatch    float64 `json:"occasion_match"`
	StyleCoherence   float64 `json:"style_coherence"`
	Quality          float64 `json:"quality"`
	ColorCoord       float64 `json:"color_coordination"`
	VarietyBonus     float64 `json:"variety_bonus"`
	CoverageBonus    float64 `json:"coverage_bonus"`
	PairNovelty      float64 `json:"pair_novelty"`
	RotationPenalty  float64 `json:"rotation_penalty"`
}

// ScoredCandidate is a validated candidate annotated with its score.
type ScoredCandidate struct {
	OutfitCandidate
	Items     []*ClothingItem `json:"items"`
	Slots     map[int64]Slot  `json:"slots"`
	Score     float64         `json:"score"`
	Breakdown ScoreBreakdown  `json:"breakdown"`
	Advisory  AdvisorySignals `json:"advisory"`
}

// GenerationRequest asks the engine for ranked outfits.
type GenerationRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	Occasion string    `json:"occasion"`
	Season   string    `json:"season,omitempty"`
	Weather  string    `json:"weather,omitempty"`

	// ItemIDs restricts the pool. Empty means the whole wardrobe.
	ItemIDs []int64 `json:"item_ids,omitempty"`
	// MustInclude lists items every returned outfit has to contain.
	MustInclude []int64 `json:"must_include,omitempty"`
	// Preview skips every usage ledger write.
	Preview bool `json:"preview"`
}

// GenerationStatus distinguishes a ranked list from the fallback outcomes.
type GenerationStatus string

const (
	GenerationStatusOK                GenerationStatus = "ok"
	GenerationStatusUnableToGenerate  GenerationStatus = "unable_to_generate"
	GenerationStatusOracleUnavailable GenerationStatus = "oracle_unavailable"
)

// GenerationResult is the outcome of one generation cycle.
type GenerationResult struct {
	Status     GenerationStatus   `json:"status"`
	Message    string             `json:"message,omitempty"`
	Occasion   string             `json:"occasion"`
	Candidates []*ScoredCandidate `json:"candidates"`
	// Dropped counts oracle candidates that failed structural validation.
	Dropped int  `json:"dropped"`
	Salvage bool `json:"salvaged,omitempty"`
	Preview bool `json:"preview"`
	// Recorded is true once the returned outfits are committed to the usage
	// ledger. It stays false for previews and for a failed commit, which
	// sets Message but keeps Status and Candidates.
	Recorded bool `json:"recorded"`
}
