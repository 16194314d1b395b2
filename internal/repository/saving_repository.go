package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chisomo/villagebank/internal/domain"
)

type savingRepository struct{}

func NewSavingRepository() SavingRepository {
	return &savingRepository{}
}

const savingColumns = `id, user_id, month, amount, date, fine, interest_earned,
		cycle_number, cycle_end_date, archived, created_at`

func (r *savingRepository) Create(ctx context.Context, q sqlx.ExtContext, saving *domain.Saving) error {
	query := `
		INSERT INTO savings (id, user_id, month, amount, date, fine, interest_earned, archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		saving.ID,
		saving.UserID,
		saving.Month,
		saving.Amount,
		saving.Date,
		saving.Fine,
		saving.InterestEarned,
		saving.Archived,
		saving.CreatedAt,
	)
	return err
}

func (r *savingRepository) ListByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]*domain.Saving, error) {
	query := `SELECT ` + savingColumns + ` FROM savings WHERE user_id = $1 ORDER BY month`

	var savings []*domain.Saving
	if err := sqlx.SelectContext(ctx, q, &savings, query, userID); err != nil {
		return nil, err
	}
	return savings, nil
}

func (r *savingRepository) ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Saving, error) {
	query := `SELECT ` + savingColumns + ` FROM savings WHERE archived = FALSE ORDER BY date`

	var savings []*domain.Saving
	if err := sqlx.SelectContext(ctx, q, &savings, query); err != nil {
		return nil, err
	}
	return savings, nil
}

func (r *savingRepository) ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Saving, error) {
	var savings []*domain.Saving
	if cycleNumber != nil {
		query := `SELECT ` + savingColumns + ` FROM savings WHERE archived = TRUE AND cycle_number = $1 ORDER BY date`
		if err := sqlx.SelectContext(ctx, q, &savings, query, *cycleNumber); err != nil {
			return nil, err
		}
		return savings, nil
	}
	query := `SELECT ` + savingColumns + ` FROM savings WHERE archived = TRUE ORDER BY date`
	if err := sqlx.SelectContext(ctx, q, &savings, query); err != nil {
		return nil, err
	}
	return savings, nil
}

func (r *savingRepository) ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error {
	query := `
		UPDATE savings
		SET cycle_number = $1, cycle_end_date = $2, archived = TRUE
		WHERE archived = FALSE
	`
	_, err := q.ExecContext(ctx, query, cycleNumber, cycleEnd)
	return err
}

func (r *savingRepository) DeleteUnarchived(ctx context.Context, q sqlx.ExtContext) error {
	_, err := q.ExecContext(ctx, `DELETE FROM savings WHERE archived = FALSE`)
	return err
}
