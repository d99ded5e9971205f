package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

// UsageRepository provides data access for per-item usage counters.
// Writes are conditional on the record version; callers re-read and retry
// when a write reports it lost the race.
type UsageRepository interface {
	Get(ctx context.Context, userID uuid.UUID, itemID int64) (*models.UsageRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UsageRecord, error)
	ListByItems(ctx context.Context, userID uuid.UUID, itemIDs []int64) ([]*models.UsageRecord, error)

	// Insert stores a new record. Returns false if a record already exists.
	Insert(ctx context.Context, rec *models.UsageRecord) (bool, error)
	// UpdateIfVersion overwrites the record only if its stored version still
	// equals expectedVersion. Returns false when another writer got there first.
	UpdateIfVersion(ctx context.Context, rec *models.UsageRecord, expectedVersion int64) (bool, error)

	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type usageRepository struct{}

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository() UsageRepository {
	return &usageRepository{}
}

var _ UsageRepository = (*usageRepository)(nil)

const usageColumns = `
	user_id, item_id, total_shown, total_favorited, occasion_counts,
	success_rate, versatility_score, first_shown_at, last_shown_at,
	version, updated_at`

func (r *usageRepository) Get(ctx context.Context, userID uuid.UUID, itemID int64) (*models.UsageRecord, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + usageColumns + `
		FROM item_usage_stats
		WHERE user_id = $1 AND item_id = $2`

	rec, err := scanUsageRecord(scope.Conn.QueryRow(ctx, query, userID, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get usage record: %w", err)
	}
	return rec, nil
}

func (r *usageRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UsageRecord, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + usageColumns + `
		FROM item_usage_stats
		WHERE user_id = $1
		ORDER BY item_id`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	return collectUsageRecords(rows)
}

func (r *usageRepository) ListByItems(ctx context.Context, userID uuid.UUID, itemIDs []int64) ([]*models.UsageRecord, error) {
	if len(itemIDs) == 0 {
		return []*models.UsageRecord{}, nil
	}

	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + usageColumns + `
		FROM item_usage_stats
		WHERE user_id = $1 AND item_id = ANY($2)
		ORDER BY item_id`

	rows, err := scope.Conn.Query(ctx, query, userID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records by item: %w", err)
	}
	return collectUsageRecords(rows)
}

func (r *usageRepository) Insert(ctx context.Context, rec *models.UsageRecord) (bool, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO item_usage_stats (
			user_id, item_id, total_shown, total_favorited, occasion_counts,
			success_rate, versatility_score, first_shown_at, last_shown_at,
			version, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10)
		ON CONFLICT (user_id, item_id) DO NOTHING`

	result, err := scope.Conn.Exec(ctx, query,
		rec.UserID, rec.ItemID, rec.TotalShown, rec.TotalFavorited, occasionCounts(rec),
		rec.SuccessRate, rec.VersatilityScore, rec.FirstShownAt, rec.LastShownAt, rec.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert usage record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	rec.Version = 1
	return true, nil
}

func (r *usageRepository) UpdateIfVersion(ctx context.Context, rec *models.UsageRecord, expectedVersion int64) (bool, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE item_usage_stats SET
			total_shown = $3,
			total_favorited = $4,
			occasion_counts = $5,
			success_rate = $6,
			versatility_score = $7,
			first_shown_at = $8,
			last_shown_at = $9,
			updated_at = $10,
			version = version + 1
		WHERE user_id = $1 AND item_id = $2 AND version = $11
		RETURNING version`

	var newVersion int64
	err = scope.Conn.QueryRow(ctx, query,
		rec.UserID, rec.ItemID, rec.TotalShown, rec.TotalFavorited, occasionCounts(rec),
		rec.SuccessRate, rec.VersatilityScore, rec.FirstShownAt, rec.LastShownAt, rec.UpdatedAt,
		expectedVersion,
	).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update usage record: %w", err)
	}

	rec.Version = newVersion
	return true, nil
}

func (r *usageRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return 0, err
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM item_usage_stats WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete usage records: %w", err)
	}
	return result.RowsAffected(), nil
}

func occasionCounts(rec *models.UsageRecord) map[string]int {
	if rec.OccasionCounts == nil {
		return map[string]int{}
	}
	return rec.OccasionCounts
}

func collectUsageRecords(rows pgx.Rows) ([]*models.UsageRecord, error) {
	defer rows.Close()

	records := make([]*models.UsageRecord, 0)
	for rows.Next() {
		rec, err := scanUsageRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage records: %w", err)
	}
	return records, nil
}

func scanUsageRecord(row pgx.Row) (*models.UsageRecord, error) {
	var rec models.UsageRecord
	err := row.Scan(
		&rec.UserID, &rec.ItemID, &rec.TotalShown, &rec.TotalFavorited, &rec.OccasionCounts,
		&rec.SuccessRate, &rec.VersatilityScore, &rec.FirstShownAt, &rec.LastShownAt,
		&rec.Version, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rec.OccasionCounts == nil {
		rec.OccasionCounts = map[string]int{}
	}
	return &rec, nil
}
