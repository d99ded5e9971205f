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

// StyleProfileRepository provides data access for user style preferences.
type StyleProfileRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.StyleProfile, error)
	Upsert(ctx context.Context, profile *models.StyleProfile) error
}

type styleProfileRepository struct{}

// NewStyleProfileRepository creates a new StyleProfileRepository.
func NewStyleProfileRepository() StyleProfileRepository {
	return &styleProfileRepository{}
}

var _ StyleProfileRepository = (*styleProfileRepository)(nil)

func (r *styleProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*models.StyleProfile, error) {
	scope, err := userScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, preferred_styles, preferred_colors, avoid_colors,
		       avoid_patterns, body_type, notes, updated_at
		FROM style_profiles
		WHERE user_id = $1`

	var p models.StyleProfile
	err = scope.Conn.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.PreferredStyles, &p.PreferredColors, &p.AvoidColors,
		&p.AvoidPatterns, &p.BodyType, &p.Notes, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get style profile: %w", err)
	}
	return &p, nil
}

func (r *styleProfileRepository) Upsert(ctx context.Context, profile *models.StyleProfile) error {
	scope, err := userScope(ctx)
	if err != nil {
		return err
	}

	profile.UpdatedAt = time.Now()

	query := `
		INSERT INTO style_profiles (
			user_id, preferred_styles, preferred_colors, avoid_colors,
			avoid_patterns, body_type, notes, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			preferred_styles = EXCLUDED.preferred_styles,
			preferred_colors = EXCLUDED.preferred_colors,
			avoid_colors = EXCLUDED.avoid_colors,
			avoid_patterns = EXCLUDED.avoid_patterns,
			body_type = EXCLUDED.body_type,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`

	_, err = scope.Conn.Exec(ctx, query,
		profile.UserID, nonNil(profile.PreferredStyles), nonNil(profile.PreferredColors),
		nonNil(profile.AvoidColors), nonNil(profile.AvoidPatterns),
		profile.BodyType, profile.Notes, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert style profile: %w", err)
	}
	return nil
}
