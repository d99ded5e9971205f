package testhelpers

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ekaya-inc/wardrobe-engine/pkg/database"
)

// UserContext returns a context carrying a user scope for userID. The scope
// is closed when the test finishes.
func UserContext(t *testing.T, db *database.DB, userID uuid.UUID) context.Context {
	t.Helper()

	scope, err := db.WithUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to create user scope: %v", err)
	}
	t.Cleanup(scope.Close)

	return database.SetUserScope(context.Background(), scope)
}

// CleanupUser removes every row belonging to userID.
func CleanupUser(t *testing.T, db *database.DB, userID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	scope, err := db.WithoutUser(ctx)
	if err != nil {
		t.Fatalf("failed to create scope for cleanup: %v", err)
	}
	defer scope.Close()

	for _, table := range []string{"outfit_history", "item_usage_stats", "clothing_items", "style_profiles"} {
		if _, err := scope.Conn.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", userID); err != nil {
			t.Fatalf("failed to clean %s: %v", table, err)
		}
	}
}
