package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

const (
	DefaultUnderusedPercentile = 0.25
	DefaultUnderusedLimit      = 10
)

// UnderusedSet is the ordered list of rarely shown items plus a membership set.
type UnderusedSet struct {
	IDs     []int64
	Members models.ItemSet
}

// NewUnderusedSet builds a set from ids, keeping their order.
func NewUnderusedSet(ids []int64) *UnderusedSet {
	return &UnderusedSet{IDs: ids, Members: models.NewItemSet(ids...)}
}

// Contains reports whether id is underused.
func (s *UnderusedSet) Contains(id int64) bool {
	if s == nil {
		return false
	}
	return s.Members.Contains(id)
}

// Set returns the membership set, empty for a nil receiver.
func (s *UnderusedSet) Set() models.ItemSet {
	if s == nil {
		return nil
	}
	return s.Members
}

// Len returns the number of underused items.
func (s *UnderusedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.IDs)
}

// UnderusedSelection is computed once per generation. Hints holds the items
// of Scoring.IDs in the same order, so the oracle is steered toward exactly
// the items the scorer rewards.
type UnderusedSelection struct {
	Scoring *UnderusedSet
	Hints   []*models.ClothingItem
}

// UnderusedSelectorConfig tunes the selector.
type UnderusedSelectorConfig struct {
	Percentile float64
	// Limit caps the selection, keeping the least shown items.
	Limit int
}

// UnderusedSelector identifies the rarely shown items of a wardrobe.
type UnderusedSelector interface {
	Select(ctx context.Context, userID uuid.UUID, items []*models.ClothingItem) (*UnderusedSelection, error)
}

type underusedSelector struct {
	ledger UsageLedger
	cfg    UnderusedSelectorConfig
	logger *zap.Logger
}

// NewUnderusedSelector creates a selector backed by the usage ledger.
// Zero config values fall back to the defaults.
func NewUnderusedSelector(ledger UsageLedger, cfg UnderusedSelectorConfig, logger *zap.Logger) UnderusedSelector {
	if cfg.Percentile <= 0 {
		cfg.Percentile = DefaultUnderusedPercentile
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultUnderusedLimit
	}
	return &underusedSelector{
		ledger: ledger,
		cfg:    cfg,
		logger: logger.Named("underused-selector"),
	}
}

var _ UnderusedSelector = (*underusedSelector)(nil)

func (s *underusedSelector) Select(ctx context.Context, userID uuid.UUID, items []*models.ClothingItem) (*UnderusedSelection, error) {
	ids := models.ItemIDs(items)

	counts, err := s.ledger.UsageCounts(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to select underused items: %w", err)
	}

	selected := selectUnderused(ids, counts, s.cfg.Percentile)
	if len(selected) > s.cfg.Limit {
		selected = selected[:s.cfg.Limit]
	}
	scoring := NewUnderusedSet(selected)

	byID := make(map[int64]*models.ClothingItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	hints := make([]*models.ClothingItem, 0, len(selected))
	for _, id := range selected {
		hints = append(hints, byID[id])
	}

	s.logger.Debug("Selected underused items",
		zap.String("user_id", userID.String()),
		zap.Int("pool_size", len(ids)),
		zap.Int64s("underused", scoring.IDs))

	return &UnderusedSelection{Scoring: scoring, Hints: hints}, nil
}
