package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

// ClothingItemRepository provides data access for wardrobe items.
type ClothingItemRepository interface {
	Create(ctx context.Context, item *models.ClothingItem) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*models.ClothingItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ClothingItem, error)
	ListByIDs(ctx context.Context, userID uuid.UUID, ids []int64) ([]*models.ClothingItem, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
}

type clothingItemRepository struct{}

// NewClothingItemRepository creates a new ClothingItemRepository.
func NewClothingItemRepository() ClothingItemRepository {
	return &clothingItemRepository{}
}

var _ ClothingItemRepository = (*clothingItemRepository)(nil)

const clothingItemColumns = `
	id, user_id, category, subcategory, color, secondary_colors, pattern,
	fit_type, silhouette, brand, description, style_tags, occasion_tags,
	season_tags, quality_score, created_at, updated_at`

func (r *clothingItemRepository) Create(ctx context.Context, item *models.ClothingItem) error {
	scope, err := userScope(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	query := `
		INSERT INTO clothing_items (
			user_id, category, subcategory, color, secondary_colors, pattern,
			fit_type, silhouette, brand, description, style_tags, occasion_tags,
			season_tags, quality_score, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`

	err = scope.Conn.QueryRow(ctx, query,
		item.UserID, item.Category, item.Subcategory, item.Color, nonNil(item.SecondaryColors),
		item.Pattern, item.FitType, item.Silhouette, item.Brand, item.Description,
		nonNil(item.StyleTags), nonNil(item.OccasionTags), nonNil(item.SeasonTags),
		item.QualityScore, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create clothing item: %w", err)
	}

	return nil
}

func (r *clothingItemRepository) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*models.ClothingItem, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + clothingItemColumns + `
		FROM clothing_items
		WHERE user_id = $1 AND id = $2`

	item, err := scanClothingItem(scope.Conn.QueryRow(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get clothing item: %w", err)
	}
	return item, nil
}

func (r *clothingItemRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ClothingItem, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + clothingItemColumns + `
		FROM clothing_items
		WHERE user_id = $1
		ORDER BY id`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clothing items: %w", err)
	}
	return collectClothingItems(rows)
}

// ListByIDs returns the user's items among ids, ordered by id. Unknown or
// foreign ids are silently absent from the result.
func (r *clothingItemRepository) ListByIDs(ctx context.Context, userID uuid.UUID, ids []int64) ([]*models.ClothingItem, error) {
	if len(ids) == 0 {
		return []*models.ClothingItem{}, nil
	}

	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + clothingItemColumns + `
		FROM clothing_items
		WHERE user_id = $1 AND id = ANY($2)
		ORDER BY id`

	rows, err := scope.Conn.Query(ctx, query, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list clothing items by id: %w", err)
	}
	return collectClothingItems(rows)
}

func (r *clothingItemRepository) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	scope, err := userScope(ctx)
	if err != nil {
		return err
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM clothing_items WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete clothing item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("clothing item not found")
	}
	return nil
}

func collectClothingItems(rows pgx.Rows) ([]*models.ClothingItem, error) {
	defer rows.Close()

	items := make([]*models.ClothingItem, 0)
	for rows.Next() {
		item, err := scanClothingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clothing item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clothing items: %w", err)
	}
	return items, nil
}

func scanClothingItem(row pgx.Row) (*models.ClothingItem, error) {
	var item models.ClothingItem
	err := row.Scan(
		&item.ID, &item.UserID, &item.Category, &item.Subcategory, &item.Color,
		&item.SecondaryColors, &item.Pattern, &item.FitType, &item.Silhouette,
		&item.Brand, &item.Description, &item.StyleTags, &item.OccasionTags,
		&item.SeasonTags, &item.QualityScore, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
