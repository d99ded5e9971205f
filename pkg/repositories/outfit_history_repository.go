package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

// OutfitHistoryRepository provides data access for shown-outfit history.
// Entries are append-only apart from the favorited flag. Listings are most
// recent first, with insertion order breaking ties on shown_at.
type OutfitHistoryRepository interface {
	Append(ctx context.Context, entry *models.OutfitHistoryEntry) error
	// ListSince returns entries shown at or after since. A limit of 0 means
	// no limit.
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]*models.OutfitHistoryEntry, error)
	// ListFavorited returns one page of favorited entries. A limit of 0
	// means no limit.
	ListFavorited(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OutfitHistoryEntry, error)
	// ClearFavorite unsets the favorited flag of one entry. It returns false
	// when no favorited entry with that ID exists.
	ClearFavorite(ctx context.Context, userID, entryID uuid.UUID) (bool, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type outfitHistoryRepository struct{}

// NewOutfitHistoryRepository creates a new OutfitHistoryRepository.
func NewOutfitHistoryRepository() OutfitHistoryRepository {
	return &outfitHistoryRepository{}
}

var _ OutfitHistoryRepository = (*outfitHistoryRepository)(nil)

func (r *outfitHistoryRepository) Append(ctx context.Context, entry *models.OutfitHistoryEntry) error {
	scope, err := userScope(ctx)
	if err != nil {
		return err
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ShownAt.IsZero() {
		entry.ShownAt = time.Now()
	}

	query := `
		INSERT INTO outfit_history (
			id, user_id, item_ids, occasion, outfit_name, shown_at, favorited, dismissed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = scope.Conn.Exec(ctx, query,
		entry.ID, entry.UserID, nonNil(entry.ItemIDs), entry.Occasion, entry.OutfitName,
		entry.ShownAt, entry.Favorited, entry.Dismissed,
	)
	if err != nil {
		return fmt.Errorf("failed to append outfit history: %w", err)
	}
	return nil
}

func (r *outfitHistoryRepository) ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]*models.OutfitHistoryEntry, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, item_ids, occasion, outfit_name, shown_at, favorited, dismissed
		FROM outfit_history
		WHERE user_id = $1 AND shown_at >= $2
		ORDER BY shown_at DESC, seq DESC
		LIMIT NULLIF($3, 0)`

	rows, err := scope.Conn.Query(ctx, query, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list outfit history: %w", err)
	}
	return collectHistoryEntries(rows)
}

func (r *outfitHistoryRepository) ListFavorited(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OutfitHistoryEntry, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, item_ids, occasion, outfit_name, shown_at, favorited, dismissed
		FROM outfit_history
		WHERE user_id = $1 AND favorited
		ORDER BY shown_at DESC, seq DESC
		LIMIT NULLIF($2, 0) OFFSET $3`

	rows, err := scope.Conn.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return collectHistoryEntries(rows)
}

func (r *outfitHistoryRepository) ClearFavorite(ctx context.Context, userID, entryID uuid.UUID) (bool, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return false, err
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE outfit_history SET favorited = false
		WHERE user_id = $1 AND id = $2 AND favorited`, userID, entryID)
	if err != nil {
		return false, fmt.Errorf("failed to clear favorite: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *outfitHistoryRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return 0, err
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM outfit_history WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete outfit history: %w", err)
	}
	return result.RowsAffected(), nil
}

func collectHistoryEntries(rows pgx.Rows) ([]*models.OutfitHistoryEntry, error) {
	defer rows.Close()

	entries := make([]*models.OutfitHistoryEntry, 0)
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outfit history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outfit history: %w", err)
	}
	return entries, nil
}

func scanHistoryEntry(row pgx.Row) (*models.OutfitHistoryEntry, error) {
	var e models.OutfitHistoryEntry
	err := row.Scan(&e.ID, &e.UserID, &e.ItemIDs, &e.Occasion, &e.OutfitName, &e.ShownAt, &e.Favorited, &e.Dismissed)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
