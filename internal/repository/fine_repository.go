package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chisomo/villagebank/internal/domain"
)

type fineRepository struct{}

func NewFineRepository() FineRepository {
	return &fineRepository{}
}

const fineColumns = `id, user_id, username, amount, note, issued_by, issued_at, paid, paid_at,
		payment_transaction_id, cycle_number, cycle_end_date, archived`

func (r *fineRepository) Create(ctx context.Context, q sqlx.ExtContext, fine *domain.Fine) error {
	query := `
		INSERT INTO fines (id, user_id, username, amount, note, issued_by, issued_at, paid, archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		fine.ID,
		fine.UserID,
		fine.Username,
		fine.Amount,
		fine.Note,
		fine.IssuedBy,
		fine.IssuedAt,
		fine.Paid,
		fine.Archived,
	)
	return err
}

func (r *fineRepository) GetByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines WHERE id = $1 FOR UPDATE`

	var fine domain.Fine
	if err := sqlx.GetContext(ctx, q, &fine, query, id); err != nil {
		return nil, err
	}
	return &fine, nil
}

func (r *fineRepository) Update(ctx context.Context, q sqlx.ExtContext, fine *domain.Fine) error {
	query := `
		UPDATE fines
		SET paid = $2, paid_at = $3, payment_transaction_id = $4
		WHERE id = $1
	`
	_, err := q.ExecContext(ctx, query, fine.ID, fine.Paid, fine.PaidAt, fine.PaymentTransactionID)
	return err
}

func (r *fineRepository) ListUnpaid(ctx context.Context, q sqlx.ExtContext) ([]*domain.Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines WHERE paid = FALSE AND archived = FALSE ORDER BY issued_at`

	var fines []*domain.Fine
	if err := sqlx.SelectContext(ctx, q, &fines, query); err != nil {
		return nil, err
	}
	return fines, nil
}

func (r *fineRepository) ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines WHERE archived = FALSE ORDER BY issued_at`

	var fines []*domain.Fine
	if err := sqlx.SelectContext(ctx, q, &fines, query); err != nil {
		return nil, err
	}
	return fines, nil
}

func (r *fineRepository) ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Fine, error) {
	var fines []*domain.Fine
	if cycleNumber != nil {
		query := `SELECT ` + fineColumns + ` FROM fines WHERE archived = TRUE AND cycle_number = $1 ORDER BY issued_at`
		if err := sqlx.SelectContext(ctx, q, &fines, query, *cycleNumber); err != nil {
			return nil, err
		}
		return fines, nil
	}
	query := `SELECT ` + fineColumns + ` FROM fines WHERE archived = TRUE ORDER BY issued_at`
	if err := sqlx.SelectContext(ctx, q, &fines, query); err != nil {
		return nil, err
	}
	return fines, nil
}

func (r *fineRepository) ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error {
	query := `
		UPDATE fines
		SET cycle_number = $1, cycle_end_date = $2, archived = TRUE
		WHERE archived = FALSE
	`
	_, err := q.ExecContext(ctx, query, cycleNumber, cycleEnd)
	return err
}

func (r *fineRepository) DeleteUnarchived(ctx context.Context, q sqlx.ExtContext) error {
	_, err := q.ExecContext(ctx, `DELETE FROM fines WHERE archived = FALSE`)
	return err
}

func (r *fineRepository) DeleteAll(ctx context.Context, q sqlx.ExtContext) error {
	_, err := q.ExecContext(ctx, `DELETE FROM fines`)
	return err
}
