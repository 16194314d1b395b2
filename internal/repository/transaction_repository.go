package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/chisomo/villagebank/internal/domain"
)

type transactionRepository struct{}

func NewTransactionRepository() TransactionRepository {
	return &transactionRepository{}
}

const transactionColumns = `id, user_id, type, amount, reference_id, note,
		cycle_number, cycle_end_date, archived, created_at`

func (r *transactionRepository) Append(ctx context.Context, q sqlx.ExtContext, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, type, amount, reference_id, note, cycle_number, archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		txn.ID,
		txn.UserID,
		txn.Type,
		txn.Amount,
		txn.ReferenceID,
		txn.Note,
		txn.CycleNumber,
		txn.Archived,
		txn.CreatedAt,
	)
	return err
}

func (r *transactionRepository) ListByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`

	var txns []*domain.Transaction
	if err := sqlx.SelectContext(ctx, q, &txns, query, userID); err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE archived = FALSE ORDER BY created_at`

	var txns []*domain.Transaction
	if err := sqlx.SelectContext(ctx, q, &txns, query); err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	if cycleNumber != nil {
		query := `SELECT ` + transactionColumns + ` FROM transactions WHERE archived = TRUE AND cycle_number = $1 ORDER BY created_at`
		if err := sqlx.SelectContext(ctx, q, &txns, query, *cycleNumber); err != nil {
			return nil, err
		}
		return txns, nil
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE archived = TRUE ORDER BY created_at`
	if err := sqlx.SelectContext(ctx, q, &txns, query); err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) LatestCycleReset(ctx context.Context, q sqlx.ExtContext) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE type = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var txn domain.Transaction
	err := sqlx.GetContext(ctx, q, &txn, query, domain.TransactionTypeCycleReset)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) SumSignedLive(ctx context.Context, q sqlx.ExtContext) (decimal.Decimal, error) {
	// Sign convention mirrors domain.Transaction.SignedAmount.
	query := `
		SELECT COALESCE(SUM(
			CASE type
				WHEN 'loan' THEN -amount
				WHEN 'payout' THEN -amount
				WHEN 'cycle_reset' THEN 0
				ELSE amount
			END
		), 0)
		FROM transactions
		WHERE archived = FALSE
	`
	var sum decimal.Decimal
	if err := sqlx.GetContext(ctx, q, &sum, query); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *transactionRepository) ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error {
	query := `
		UPDATE transactions
		SET cycle_number = $1, cycle_end_date = $2, archived = TRUE
		WHERE archived = FALSE
	`
	_, err := q.ExecContext(ctx, query, cycleNumber, cycleEnd)
	return err
}
