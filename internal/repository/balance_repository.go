package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// balanceRepository manages the single bank_balance row. The row is
// constrained to id = 1 so there is exactly one running total.
type balanceRepository struct{}

func NewBalanceRepository() BalanceRepository {
	return &balanceRepository{}
}

func (r *balanceRepository) Get(ctx context.Context, q sqlx.ExtContext) (decimal.Decimal, error) {
	query := `
		INSERT INTO bank_balance (id, balance) VALUES (1, 0)
		ON CONFLICT (id) DO UPDATE SET balance = bank_balance.balance
		RETURNING balance
	`
	var balance decimal.Decimal
	if err := sqlx.GetContext(ctx, q, &balance, query); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (r *balanceRepository) Set(ctx context.Context, q sqlx.ExtContext, balance decimal.Decimal) error {
	query := `
		INSERT INTO bank_balance (id, balance) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance
	`
	_, err := q.ExecContext(ctx, query, balance)
	return err
}

func (r *balanceRepository) Adjust(ctx context.Context, q sqlx.ExtContext, delta decimal.Decimal) (decimal.Decimal, error) {
	// The upsert takes a row lock, so concurrent ledger writes serialize here.
	query := `
		INSERT INTO bank_balance (id, balance) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET balance = bank_balance.balance + EXCLUDED.balance
		RETURNING balance
	`
	var balance decimal.Decimal
	if err := sqlx.GetContext(ctx, q, &balance, query, delta); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
