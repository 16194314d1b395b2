package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chisomo/villagebank/internal/domain"
)

type loanRepository struct{}

func NewLoanRepository() LoanRepository {
	return &loanRepository{}
}

const loanColumns = `id, user_id, amount, duration_months, interest_rate, note, fully_paid,
		cycle_number, cycle_end_date, archived, created_at, updated_at`

const installmentColumns = `id, loan_id, month, principal, interest, total, paid_amount,
		status, paid, payment_date, late_interest, overdue_fine, early_payment_charge`

func (r *loanRepository) Create(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, user_id, amount, duration_months, interest_rate, note, fully_paid, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q.ExecContext(ctx, query,
		loan.ID,
		loan.UserID,
		loan.Amount,
		loan.DurationMonths,
		loan.InterestRate,
		loan.Note,
		loan.FullyPaid,
		loan.Archived,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return err
	}

	instQuery := `
		INSERT INTO loan_installments (id, loan_id, month, principal, interest, total, paid_amount, status, paid, late_interest, overdue_fine, early_payment_charge)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	for _, inst := range loan.Installments {
		_, err = q.ExecContext(ctx, instQuery,
			inst.ID,
			inst.LoanID,
			inst.Month,
			inst.Principal,
			inst.Interest,
			inst.Total,
			inst.PaidAmount,
			inst.Status,
			inst.Paid,
			inst.LateInterest,
			inst.OverdueFine,
			inst.EarlyPaymentCharge,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *loanRepository) getOne(ctx context.Context, q sqlx.ExtContext, query string, arg interface{}) (*domain.Loan, error) {
	var loan domain.Loan
	if err := sqlx.GetContext(ctx, q, &loan, query, arg); err != nil {
		return nil, err
	}
	if err := r.loadInstallments(ctx, q, &loan); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) loadInstallments(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error {
	query := `SELECT ` + installmentColumns + ` FROM loan_installments WHERE loan_id = $1 ORDER BY month`
	return sqlx.SelectContext(ctx, q, &loan.Installments, query, loan.ID)
}

func (r *loanRepository) GetByID(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return r.getOne(ctx, q, query, id)
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, q, query, id)
}

func (r *loanRepository) GetActiveByUserForUpdate(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) (*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = $1 AND fully_paid = FALSE AND archived = FALSE
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE
	`
	return r.getOne(ctx, q, query, userID)
}

func (r *loanRepository) list(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, q, &loans, query, args...); err != nil {
		return nil, err
	}
	for _, loan := range loans {
		if err := r.loadInstallments(ctx, q, loan); err != nil {
			return nil, err
		}
	}
	return loans, nil
}

func (r *loanRepository) ListByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = $1 ORDER BY created_at`
	return r.list(ctx, q, query, userID)
}

func (r *loanRepository) ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE archived = FALSE ORDER BY created_at`
	return r.list(ctx, q, query)
}

func (r *loanRepository) ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Loan, error) {
	if cycleNumber != nil {
		query := `SELECT ` + loanColumns + ` FROM loans WHERE archived = TRUE AND cycle_number = $1 ORDER BY created_at`
		return r.list(ctx, q, query, *cycleNumber)
	}
	query := `SELECT ` + loanColumns + ` FROM loans WHERE archived = TRUE ORDER BY created_at`
	return r.list(ctx, q, query)
}

func (r *loanRepository) Update(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET amount = $2, duration_months = $3, interest_rate = $4, note = $5, fully_paid = $6, updated_at = $7
		WHERE id = $1
	`
	_, err := q.ExecContext(ctx, query,
		loan.ID,
		loan.Amount,
		loan.DurationMonths,
		loan.InterestRate,
		loan.Note,
		loan.FullyPaid,
		time.Now(),
	)
	return err
}

func (r *loanRepository) UpdateInstallment(ctx context.Context, q sqlx.ExtContext, inst *domain.Installment) error {
	query := `
		UPDATE loan_installments
		SET paid_amount = $2, status = $3, paid = $4, payment_date = $5,
		    late_interest = $6, overdue_fine = $7, early_payment_charge = $8
		WHERE id = $1
	`
	_, err := q.ExecContext(ctx, query,
		inst.ID,
		inst.PaidAmount,
		inst.Status,
		inst.Paid,
		inst.PaymentDate,
		inst.LateInterest,
		inst.OverdueFine,
		inst.EarlyPaymentCharge,
	)
	return err
}

func (r *loanRepository) ReplaceInstallments(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM loan_installments WHERE loan_id = $1`, loan.ID); err != nil {
		return err
	}
	query := `
		INSERT INTO loan_installments (id, loan_id, month, principal, interest, total, paid_amount, status, paid, late_interest, overdue_fine, early_payment_charge)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	for _, inst := range loan.Installments {
		_, err := q.ExecContext(ctx, query,
			inst.ID,
			inst.LoanID,
			inst.Month,
			inst.Principal,
			inst.Interest,
			inst.Total,
			inst.PaidAmount,
			inst.Status,
			inst.Paid,
			inst.LateInterest,
			inst.OverdueFine,
			inst.EarlyPaymentCharge,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *loanRepository) ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error {
	query := `
		UPDATE loans
		SET cycle_number = $1, cycle_end_date = $2, archived = TRUE
		WHERE archived = FALSE
	`
	_, err := q.ExecContext(ctx, query, cycleNumber, cycleEnd)
	return err
}

func (r *loanRepository) DeleteUnarchived(ctx context.Context, q sqlx.ExtContext) error {
	// Installments go with their loans via ON DELETE CASCADE.
	_, err := q.ExecContext(ctx, `DELETE FROM loans WHERE archived = FALSE`)
	return err
}
