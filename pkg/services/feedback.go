package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/wardrobe-engine/pkg/apperrors"
	"github.com/ekaya-inc/wardrobe-engine/pkg/cache"
	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
	"github.com/ekaya-inc/wardrobe-engine/pkg/repositories"
)

// FeedbackService records what the user thought of a suggested outfit.
type FeedbackService interface {
	// Favorite counts the outfit as shown and favorited, then records it in history.
	Favorite(ctx context.Context, userID uuid.UUID, itemIDs []int64, occasion, outfitName string) (*models.OutfitHistoryEntry, error)

	// Dismiss records the outfit in history without touching usage counters.
	Dismiss(ctx context.Context, userID uuid.UUID, itemIDs []int64, occasion, outfitName string) (*models.OutfitHistoryEntry, error)

	// ListFavorites returns one page of favorited outfits, most recent first.
	// A limit of 0 means no limit.
	ListFavorites(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OutfitHistoryEntry, error)

	// RemoveFavorite unfavorites a history entry. The entry and the usage
	// counters it contributed stay as they are.
	RemoveFavorite(ctx context.Context, userID, entryID uuid.UUID) error
}

type feedbackService struct {
	itemRepo    repositories.ClothingItemRepository
	historyRepo repositories.OutfitHistoryRepository
	ledger      UsageLedger
	cache       cache.AnalyticsCache
	logger      *zap.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(
	itemRepo repositories.ClothingItemRepository,
	historyRepo repositories.OutfitHistoryRepository,
	ledger UsageLedger,
	analyticsCache cache.AnalyticsCache,
	logger *zap.Logger,
) FeedbackService {
	if analyticsCache == nil {
		analyticsCache = cache.NoopAnalyticsCache{}
	}
	return &feedbackService{
		itemRepo:    itemRepo,
		historyRepo: historyRepo,
		ledger:      ledger,
		cache:       analyticsCache,
		logger:      logger.Named("feedback"),
	}
}

var _ FeedbackService = (*feedbackService)(nil)

func (s *feedbackService) Favorite(ctx context.Context, userID uuid.UUID, itemIDs []int64, occasion, outfitName string) (*models.OutfitHistoryEntry, error) {
	ids, err := s.ownedIDs(ctx, userID, itemIDs)
	if err != nil {
		return nil, err
	}

	entry := &models.OutfitHistoryEntry{
		UserID:     userID,
		ItemIDs:    ids,
		Occasion:   occasion,
		OutfitName: outfitName,
		ShownAt:    time.Now().UTC(),
		Favorited:  true,
	}
	if err := s.record(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Outfit favorited",
		zap.String("user_id", userID.String()),
		zap.Int64s("item_ids", ids))
	return entry, nil
}

func (s *feedbackService) Dismiss(ctx context.Context, userID uuid.UUID, itemIDs []int64, occasion, outfitName string) (*models.OutfitHistoryEntry, error) {
	ids, err := s.ownedIDs(ctx, userID, itemIDs)
	if err != nil {
		return nil, err
	}

	entry := &models.OutfitHistoryEntry{
		UserID:     userID,
		ItemIDs:    ids,
		Occasion:   occasion,
		OutfitName: outfitName,
		ShownAt:    time.Now().UTC(),
		Dismissed:  true,
	}
	if err := s.record(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Outfit dismissed",
		zap.String("user_id", userID.String()),
		zap.Int64s("item_ids", ids))
	return entry, nil
}

func (s *feedbackService) ListFavorites(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OutfitHistoryEntry, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", apperrors.ErrInvalidRequest)
	}

	favorites, err := s.historyRepo.ListFavorited(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

func (s *feedbackService) RemoveFavorite(ctx context.Context, userID, entryID uuid.UUID) error {
	cleared, err := s.historyRepo.ClearFavorite(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if !cleared {
		return fmt.Errorf("%w: favorite %s", apperrors.ErrNotFound, entryID)
	}

	s.logger.Info("Favorite removed",
		zap.String("user_id", userID.String()),
		zap.String("entry_id", entryID.String()))
	return nil
}

// record commits the entry through the ledger. A counter conflict still
// commits the history entry and is only logged.
func (s *feedbackService) record(ctx context.Context, entry *models.OutfitHistoryEntry) error {
	err := s.ledger.RecordOutfits(ctx, []*models.OutfitHistoryEntry{entry})
	if err != nil {
		if !errors.Is(err, apperrors.ErrLedgerWriteConflict) {
			return err
		}
		s.logger.Warn("Usage ledger conflict while recording feedback",
			zap.String("user_id", entry.UserID.String()),
			zap.Int64s("item_ids", entry.ItemIDs),
			zap.Error(err))
	}
	s.invalidate(ctx, entry.UserID)
	return nil
}

// ownedIDs rejects feedback naming items the user does not own.
func (s *feedbackService) ownedIDs(ctx context.Context, userID uuid.UUID, itemIDs []int64) ([]int64, error) {
	ids := dedupeIDs(itemIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no items given", apperrors.ErrInvalidRequest)
	}

	items, err := s.itemRepo.ListByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	if len(items) != len(ids) {
		return nil, fmt.Errorf("%w: some items are not in the wardrobe", apperrors.ErrNotFound)
	}
	return ids, nil
}

func (s *feedbackService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate analytics cache",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
