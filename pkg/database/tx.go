package database

import (
	"context"
	"fmt"
)

// Transactor runs a unit of work atomically on the user-scoped connection.
type Transactor interface {
	// InTx begins a transaction on the scope's connection, runs fn and
	// commits. Any error from fn rolls the transaction back and is returned
	// unchanged. Repositories reading the scope from ctx run inside it.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type scopeTransactor struct{}

// NewTransactor creates a Transactor backed by the UserScope in context.
func NewTransactor() Transactor {
	return scopeTransactor{}
}

var _ Transactor = scopeTransactor{}

func (scopeTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	scope, ok := GetUserScope(ctx)
	if !ok {
		return fmt.Errorf("no user scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(ctx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
