package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/chisomo/villagebank/internal/domain"
)

type thresholdRepository struct{}

func NewThresholdRepository() ThresholdRepository {
	return &thresholdRepository{}
}

const thresholdColumns = `id, cycle, start_month, total_bank_balance, retained_amount,
		prepaid_interest, total_members, threshold_per_member, created_at`

func (r *thresholdRepository) Create(ctx context.Context, q sqlx.ExtContext, threshold *domain.Threshold) error {
	query := `
		INSERT INTO thresholds (id, cycle, start_month, total_bank_balance, retained_amount, prepaid_interest, total_members, threshold_per_member, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		threshold.ID,
		threshold.Cycle,
		threshold.StartMonth,
		threshold.TotalBankBalance,
		threshold.RetainedAmount,
		threshold.PrepaidInterest,
		threshold.TotalMembers,
		threshold.ThresholdPerMember,
		threshold.CreatedAt,
	)
	return err
}

func (r *thresholdRepository) GetLatest(ctx context.Context, q sqlx.ExtContext) (*domain.Threshold, error) {
	query := `SELECT ` + thresholdColumns + ` FROM thresholds ORDER BY created_at DESC LIMIT 1`

	var threshold domain.Threshold
	if err := sqlx.GetContext(ctx, q, &threshold, query); err != nil {
		return nil, err
	}
	return &threshold, nil
}
