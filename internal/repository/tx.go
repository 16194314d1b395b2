package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/chisomo/villagebank/pkg/errors"
)

// Atomic runs a function inside a single database transaction. Everything
// the function writes either commits together or rolls back together.
type Atomic interface {
	Do(ctx context.Context, fn func(q sqlx.ExtContext) error) error
}

type atomic struct {
	db *sqlx.DB
}

func NewAtomic(db *sqlx.DB) Atomic {
	return &atomic{db: db}
}

func (a *atomic) Do(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.WrapTxAborted(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.WrapTxAborted(err)
	}
	return nil
}
