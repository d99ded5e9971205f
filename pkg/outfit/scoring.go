package outfit

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

// ScoringConfig holds every weight and threshold of the scoring engine.
// Terms add up to a conceptual 0-150 range with the defaults.
type ScoringConfig struct {
	// OccasionMatch is shared evenly across items; each item tagged for the
	// occasion contributes OccasionMatch/N.
	OccasionMatch float64 `yaml:"occasion_match"`

	StyleCoherent   float64 `yaml:"style_coherent"`
	StyleIncoherent float64 `yaml:"style_incoherent"`

	Quality        float64 `yaml:"quality"`
	DefaultQuality float64 `yaml:"default_quality"`

	// ColorCoordination is a flat term; the oracle is asked for color-aware
	// combinations and the engine does not re-grade them.
	ColorCoordination float64 `yaml:"color_coordination"`

	VarietyBonus    float64 `yaml:"variety_bonus"`
	CoveragePerItem float64 `yaml:"coverage_per_item"`
	CoverageCap     float64 `yaml:"coverage_cap"`

	NoveltyMax        float64 `yaml:"novelty_max"`
	NoveltyRepeatCost float64 `yaml:"novelty_repeat_cost"`
	// NoveltyOverlap is the overlap ratio at or above which a recent
	// combination counts as a repeat.
	NoveltyOverlap float64 `yaml:"novelty_overlap"`

	// RotationWindow is how many of the most recent combinations the
	// rotation penalty looks at.
	RotationWindow    int     `yaml:"rotation_window"`
	RotationThreshold float64 `yaml:"rotation_threshold"`
	RotationScale     float64 `yaml:"rotation_scale"`
	RotationCap       float64 `yaml:"rotation_cap"`
}

// DefaultScoringConfig returns the production weights.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		OccasionMatch:     30,
		StyleCoherent:     25,
		StyleIncoherent:   12,
		Quality:           15,
		DefaultQuality:    7.0,
		ColorCoordination: 10,
		VarietyBonus:      15,
		CoveragePerItem:   10,
		CoverageCap:       15,
		NoveltyMax:        10,
		NoveltyRepeatCost: 2,
		NoveltyOverlap:    0.5,
		RotationWindow:    5,
		RotationThreshold: 0.5,
		RotationScale:     40,
		RotationCap:       20,
	}
}

// Validate rejects configurations that would produce meaningless scores.
func (c ScoringConfig) Validate() error {
	weights := map[string]float64{
		"occasion_match":      c.OccasionMatch,
		"style_coherent":      c.StyleCoherent,
		"style_incoherent":    c.StyleIncoherent,
		"quality":             c.Quality,
		"color_coordination":  c.ColorCoordination,
		"variety_bonus":       c.VarietyBonus,
		"coverage_per_item":   c.CoveragePerItem,
		"coverage_cap":        c.CoverageCap,
		"novelty_max":         c.NoveltyMax,
		"novelty_repeat_cost": c.NoveltyRepeatCost,
		"rotation_scale":      c.RotationScale,
		"rotation_cap":        c.RotationCap,
	}
	for name, w := range weights {
		if w < 0 {
			return fmt.Errorf("scoring weight %s must not be negative (got %g)", name, w)
		}
	}
	if c.NoveltyOverlap < 0 || c.NoveltyOverlap > 1 {
		return fmt.Errorf("novelty_overlap must be within [0,1] (got %g)", c.NoveltyOverlap)
	}
	if c.RotationThreshold < 0 || c.RotationThreshold > 1 {
		return fmt.Errorf("rotation_threshold must be within [0,1] (got %g)", c.RotationThreshold)
	}
	if c.RotationWindow < 0 {
		return fmt.Errorf("rotation_window must not be negative (got %d)", c.RotationWindow)
	}
	return nil
}

// ScoreInput is everything the scorer needs for one candidate.
type ScoreInput struct {
	Items    []*models.ClothingItem
	Occasion string
	// Underused may be nil.
	Underused models.ItemSet
	// Recent holds recently shown combinations, most recent first.
	Recent []models.ItemSet
	// MustInclude items must all be present or the score is zero.
	MustInclude []int64
}

// Scorer computes candidate scores.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer creates a scorer with the given weights.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns the scorer's weights.
func (s *Scorer) Config() ScoringConfig {
	return s.cfg
}

// Score computes the breakdown for one candidate. Terms are evaluated in a
// fixed order; a missing forced item zeroes the score before anything else.
func (s *Scorer) Score(in ScoreInput) models.ScoreBreakdown {
	var b models.ScoreBreakdown

	candidate := make(models.ItemSet, len(in.Items))
	for _, item := range in.Items {
		candidate[item.ID] = struct{}{}
	}

	for _, id := range in.MustInclude {
		if !candidate.Contains(id) {
			b.ForcedItemMissed = true
			return b
		}
	}
	if len(in.Items) == 0 {
		return b
	}

	b.OccasionMatch = s.occasionMatch(in.Items, in.Occasion)
	b.StyleCoherence = s.styleCoherence(in.Items)
	b.Quality = s.quality(in.Items)
	b.ColorCoord = s.cfg.ColorCoordination
	b.VarietyBonus = s.variety(in.Items, in.Underused)
	b.CoverageBonus = s.coverage(in.Items, in.Underused)
	b.PairNovelty = s.pairNovelty(candidate, in.Recent)
	b.RotationPenalty = s.rotationPenalty(candidate, in.Recent)

	total := b.OccasionMatch + b.StyleCoherence + b.Quality + b.ColorCoord +
		b.VarietyBonus + b.CoverageBonus + b.PairNovelty - b.RotationPenalty
	b.Total = round2(math.Max(0, total))
	return b
}

func (s *Scorer) occasionMatch(items []*models.ClothingItem, occasion string) float64 {
	occasion = strings.ToLower(strings.TrimSpace(occasion))
	per := s.cfg.OccasionMatch / float64(len(items))
	score := 0.0
	for _, item := range items {
		tags := TagText(item.OccasionTags)
		if tags != "" && strings.Contains(tags, occasion) {
			score += per
		}
	}
	return score
}

// styleCoherence rewards candidates whose items all share at least one style tag.
func (s *Scorer) styleCoherence(items []*models.ClothingItem) float64 {
	if len(items) == 1 {
		return s.cfg.StyleCoherent
	}

	shared := styleTokens(items[0])
	for _, item := range items[1:] {
		tokens := styleTokens(item)
		for tag := range shared {
			if !tokens[tag] {
				delete(shared, tag)
			}
		}
		if len(shared) == 0 {
			return s.cfg.StyleIncoherent
		}
	}
	return s.cfg.StyleCoherent
}

func (s *Scorer) quality(items []*models.ClothingItem) float64 {
	per := s.cfg.Quality / float64(len(items))
	score := 0.0
	for _, item := range items {
		q := s.cfg.DefaultQuality
		if item.QualityScore != nil {
			q = *item.QualityScore
		}
		score += (q / 10) * per
	}
	return score
}

func (s *Scorer) variety(items []*models.ClothingItem, underused models.ItemSet) float64 {
	if countUnderused(items, underused) > 0 {
		return s.cfg.VarietyBonus
	}
	return 0
}

func (s *Scorer) coverage(items []*models.ClothingItem, underused models.ItemSet) float64 {
	n := countUnderused(items, underused)
	return math.Min(s.cfg.CoverageCap, float64(n)*s.cfg.CoveragePerItem)
}

// pairNovelty loses NoveltyRepeatCost for every recent combination that
// shares at least NoveltyOverlap of the candidate's items.
func (s *Scorer) pairNovelty(candidate models.ItemSet, recent []models.ItemSet) float64 {
	if len(recent) == 0 {
		return s.cfg.NoveltyMax
	}
	repeats := 0
	for _, combo := range recent {
		if OverlapRatio(candidate, combo) >= s.cfg.NoveltyOverlap {
			repeats++
		}
	}
	return math.Max(0, s.cfg.NoveltyMax-s.cfg.NoveltyRepeatCost*float64(repeats))
}

// rotationPenalty is taken from the first of the most recent combinations
// whose overlap exceeds the threshold. It is not cumulative.
func (s *Scorer) rotationPenalty(candidate models.ItemSet, recent []models.ItemSet) float64 {
	window := recent
	if len(window) > s.cfg.RotationWindow {
		window = window[:s.cfg.RotationWindow]
	}
	for _, combo := range window {
		overlap := OverlapRatio(candidate, combo)
		if overlap > s.cfg.RotationThreshold {
			return math.Min(s.cfg.RotationCap, (overlap-s.cfg.RotationThreshold)*s.cfg.RotationScale)
		}
	}
	return 0
}

// OverlapRatio is |candidate ∩ other| / |candidate|, or 0 for an empty candidate.
func OverlapRatio(candidate, other models.ItemSet) float64 {
	if len(candidate) == 0 {
		return 0
	}
	return float64(candidate.IntersectionSize(other)) / float64(len(candidate))
}

// Rank orders candidates by descending score. Equal scores keep their
// original relative order.
func Rank(candidates []*models.ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

func countUnderused(items []*models.ClothingItem, underused models.ItemSet) int {
	if len(underused) == 0 {
		return 0
	}
	n := 0
	for _, item := range items {
		if underused.Contains(item.ID) {
			n++
		}
	}
	return n
}

func styleTokens(item *models.ClothingItem) map[string]bool {
	tokens := make(map[string]bool, len(item.StyleTags))
	for _, tag := range item.StyleTags {
		if t := strings.ToLower(strings.TrimSpace(tag)); t != "" {
			tokens[t] = true
		}
	}
	return tokens
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
