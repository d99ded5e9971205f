package repositories

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/wardrobe-engine/pkg/database"
)

func userScope(ctx context.Context) (*database.UserScope, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}
	return scope, nil
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
