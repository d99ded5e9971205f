package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/wardrobe-engine/pkg/apperrors"
	"github.com/ekaya-inc/wardrobe-engine/pkg/database"
	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
	"github.com/ekaya-inc/wardrobe-engine/pkg/repositories"
	"github.com/ekaya-inc/wardrobe-engine/pkg/retry"
)

// DefaultLedgerMaxRetries bounds conditional-write attempts per item.
const DefaultLedgerMaxRetries = 5

// UsageLedger is the persistent record of how often each item has been shown.
type UsageLedger interface {
	// RecordShown increments the counters of every item in itemIDs for the
	// given occasion. Each item is an independent read-modify-write guarded
	// by the record version.
	RecordShown(ctx context.Context, userID uuid.UUID, itemIDs []int64, occasion string, favorited bool) error

	// RecordOutfits commits a batch of shown outfits in one transaction:
	// counters for every entry that is not dismissed, then the history
	// entries. Items whose conditional write still conflicts after the retry
	// budget keep their old counters and are reported as
	// apperrors.ErrLedgerWriteConflict once the rest has committed. Any
	// other failure rolls the whole batch back.
	RecordOutfits(ctx context.Context, entries []*models.OutfitHistoryEntry) error

	// AppendHistory stores an outfit shown at shownAt.
	AppendHistory(ctx context.Context, userID uuid.UUID, itemIDs []int64, occasion, outfitName string, shownAt time.Time) (*models.OutfitHistoryEntry, error)

	// AppendHistoryEntry stores a prepared entry, including favorite and dismiss flags.
	AppendHistoryEntry(ctx context.Context, entry *models.OutfitHistoryEntry) error

	// QueryRecentCombinations returns the item sets shown in the last
	// windowDays days, most recent first.
	QueryRecentCombinations(ctx context.Context, userID uuid.UUID, windowDays int) ([]models.ItemSet, error)

	// QueryUnderusedItems returns the floor(len(allItemIDs) * percentile)
	// least shown items. Items without a record count as never shown.
	QueryUnderusedItems(ctx context.Context, userID uuid.UUID, allItemIDs []int64, percentile float64) ([]int64, error)

	// UsageCounts returns total_shown per item. Items without a record map to 0.
	UsageCounts(ctx context.Context, userID uuid.UUID, itemIDs []int64) (map[int64]int, error)

	// ResetUsage deletes every counter and history entry for the user.
	ResetUsage(ctx context.Context, userID uuid.UUID) error
}

type usageLedger struct {
	usageRepo   repositories.UsageRepository
	historyRepo repositories.OutfitHistoryRepository
	tx          database.Transactor
	maxRetries  int
	now         func() time.Time
	logger      *zap.Logger
}

// NewUsageLedger creates a new usage ledger. maxRetries <= 0 uses
// DefaultLedgerMaxRetries.
func NewUsageLedger(
	usageRepo repositories.UsageRepository,
	historyRepo repositories.OutfitHistoryRepository,
	tx database.Transactor,
	maxRetries int,
	logger *zap.Logger,
) UsageLedger {
	if maxRetries <= 0 {
		maxRetries = DefaultLedgerMaxRetries
	}
	return &usageLedger{
		usageRepo:   usageRepo,
		historyRepo: historyRepo,
		tx:          tx,
		maxRetries:  maxRetries,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.Named("usage-ledger"),
	}
}

var _ UsageLedger = (*usageLedger)(nil)

// errVersionMismatch marks a conditional write that lost a race.
var errVersionMismatch = errors.New("usage record version changed")

func isVersionMismatch(err error) bool {
	return errors.Is(err, errVersionMismatch)
}

func (l *usageLedger) RecordShown(ctx context.Context, userID uuid.UUID, itemIDs []int64, occasion string, favorited bool) error {
	conflicted, err := l.recordShown(ctx, userID, itemIDs, occasion, favorited, l.now())
	if err != nil {
		return err
	}
	return conflictError(conflicted)
}

func (l *usageLedger) RecordOutfits(ctx context.Context, entries []*models.OutfitHistoryEntry) error {
	now := l.now()

	var conflicted []int64
	err := l.tx.InTx(ctx, func(ctx context.Context) error {
		conflicted = nil
		for _, entry := range entries {
			if entry.ShownAt.IsZero() {
				entry.ShownAt = now
			}
			if !entry.Dismissed {
				c, err := l.recordShown(ctx, entry.UserID, entry.ItemIDs, entry.Occasion, entry.Favorited, entry.ShownAt)
				if err != nil {
					return err
				}
				conflicted = append(conflicted, c...)
			}
			if err := l.AppendHistoryEntry(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record outfits: %w", err)
	}
	return conflictError(conflicted)
}

// recordShown applies one shown event to each item and returns the items
// whose write conflict outlasted the retry budget. Any other error aborts.
func (l *usageLedger) recordShown(ctx context.Context, userID uuid.UUID, itemIDs []int64, occasion string, favorited bool, now time.Time) ([]int64, error) {
	occasion = models.NormalizeOccasion(occasion)

	var conflicted []int64
	for _, itemID := range dedupeIDs(itemIDs) {
		err := retry.DoWhen(ctx, retry.ConflictConfig(l.maxRetries), isVersionMismatch, func() error {
			return l.applyShown(ctx, userID, itemID, occasion, favorited, now)
		})
		if err == nil {
			continue
		}
		if isVersionMismatch(err) {
			l.logger.Warn("Usage record write conflict persisted after retries",
				zap.String("user_id", userID.String()),
				zap.Int64("item_id", itemID),
				zap.Int("max_retries", l.maxRetries))
			conflicted = append(conflicted, itemID)
			continue
		}
		return nil, fmt.Errorf("failed to record usage for item %d: %w", itemID, err)
	}

	l.logger.Debug("Recorded usage",
		zap.String("user_id", userID.String()),
		zap.Int64s("item_ids", itemIDs),
		zap.String("occasion", occasion),
		zap.Bool("favorited", favorited),
		zap.Int("conflicted", len(conflicted)))
	return conflicted, nil
}

func conflictError(conflicted []int64) error {
	if len(conflicted) == 0 {
		return nil
	}
	return fmt.Errorf("%w: items %v", apperrors.ErrLedgerWriteConflict, conflicted)
}

// applyShown performs one read-modify-write attempt. It returns
// errVersionMismatch when another writer changed the record first.
func (l *usageLedger) applyShown(ctx context.Context, userID uuid.UUID, itemID int64, occasion string, favorited bool, now time.Time) error {
	current, err := l.usageRepo.Get(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if current == nil {
		current = models.NewUsageRecord(userID, itemID)
	}

	next := current.ApplyShown(occasion, favorited, now)

	var ok bool
	if current.Version == 0 {
		ok, err = l.usageRepo.Insert(ctx, next)
	} else {
		ok, err = l.usageRepo.UpdateIfVersion(ctx, next, current.Version)
	}
	if err != nil {
		return err
	}
	if !ok {
		return errVersionMismatch
	}
	return nil
}

func (l *usageLedger) AppendHistory(ctx context.Context, userID uuid.UUID, itemIDs []int64, occasion, outfitName string, shownAt time.Time) (*models.OutfitHistoryEntry, error) {
	entry := &models.OutfitHistoryEntry{
		UserID:     userID,
		ItemIDs:    itemIDs,
		Occasion:   occasion,
		OutfitName: outfitName,
		ShownAt:    shownAt,
	}
	if err := l.AppendHistoryEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (l *usageLedger) AppendHistoryEntry(ctx context.Context, entry *models.OutfitHistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ShownAt.IsZero() {
		entry.ShownAt = l.now()
	}
	entry.Occasion = models.NormalizeOccasion(entry.Occasion)

	if err := l.historyRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append outfit history: %w", err)
	}
	return nil
}

func (l *usageLedger) QueryRecentCombinations(ctx context.Context, userID uuid.UUID, windowDays int) ([]models.ItemSet, error) {
	since := l.now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	entries, err := l.historyRepo.ListSince(ctx, userID, since, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent combinations: %w", err)
	}

	sets := make([]models.ItemSet, 0, len(entries))
	for _, entry := range entries {
		sets = append(sets, entry.ItemSet())
	}
	return sets, nil
}

func (l *usageLedger) QueryUnderusedItems(ctx context.Context, userID uuid.UUID, allItemIDs []int64, percentile float64) ([]int64, error) {
	counts, err := l.UsageCounts(ctx, userID, allItemIDs)
	if err != nil {
		return nil, err
	}
	return selectUnderused(allItemIDs, counts, percentile), nil
}

func (l *usageLedger) UsageCounts(ctx context.Context, userID uuid.UUID, itemIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(itemIDs))
	if len(itemIDs) == 0 {
		return counts, nil
	}

	records, err := l.usageRepo.ListByItems(ctx, userID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage counts: %w", err)
	}
	for _, rec := range records {
		counts[rec.ItemID] = rec.TotalShown
	}
	return counts, nil
}

func (l *usageLedger) ResetUsage(ctx context.Context, userID uuid.UUID) error {
	var usageDeleted, historyDeleted int64
	err := l.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if usageDeleted, err = l.usageRepo.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to reset usage counters: %w", err)
		}
		if historyDeleted, err = l.historyRepo.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to reset outfit history: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("Usage reset",
		zap.String("user_id", userID.String()),
		zap.Int64("usage_records", usageDeleted),
		zap.Int64("history_entries", historyDeleted))
	return nil
}

// selectUnderused stable-sorts ids by count ascending and keeps the lowest
// floor(len(ids) * percentile). Ties keep their input order.
func selectUnderused(ids []int64, counts map[int64]int, percentile float64) []int64 {
	n := int(math.Floor(float64(len(ids)) * percentile))
	if n <= 0 {
		return []int64{}
	}
	if n > len(ids) {
		n = len(ids)
	}

	sorted := slices.Clone(ids)
	slices.SortStableFunc(sorted, func(a, b int64) int {
		return counts[a] - counts[b]
	})
	return sorted[:n]
}

// dedupeIDs drops repeated IDs, keeping first occurrences in order.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
