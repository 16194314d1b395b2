package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/chisomo/villagebank/internal/domain"
)

// Every method takes a Queryer so the same repository works against the
// connection pool and inside a transaction started by Atomic.

// UserRepository defines the interface for member lookups
type UserRepository interface {
	// GetByUsername resolves a username to a member
	GetByUsername(ctx context.Context, q sqlx.ExtContext, username string) (*domain.User, error)

	// GetByID retrieves a member by id
	GetByID(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.User, error)

	// List retrieves all members
	List(ctx context.Context, q sqlx.ExtContext) ([]*domain.User, error)
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create inserts a loan together with its installment schedule
	Create(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error

	// GetByID retrieves a loan with installments in month order
	GetByID(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.Loan, error)

	// GetByIDForUpdate locks the loan row for the current transaction
	GetByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.Loan, error)

	// GetActiveByUserForUpdate locks the member's one live, unsettled loan
	GetActiveByUserForUpdate(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) (*domain.Loan, error)

	// ListByUser retrieves all loans of a member
	ListByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]*domain.Loan, error)

	// ListLive retrieves all non-archived loans
	ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Loan, error)

	// ListArchived retrieves archived loans, optionally for one cycle
	ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Loan, error)

	// Update writes loan-level fields
	Update(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error

	// UpdateInstallment writes one installment's payment state
	UpdateInstallment(ctx context.Context, q sqlx.ExtContext, inst *domain.Installment) error

	// ReplaceInstallments swaps the loan's schedule for a recomputed one
	ReplaceInstallments(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error

	// ArchiveAll tags every live loan with the closing cycle
	ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error

	// DeleteUnarchived removes any loan that escaped archival
	DeleteUnarchived(ctx context.Context, q sqlx.ExtContext) error
}

// SavingRepository defines the interface for savings entries
type SavingRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, saving *domain.Saving) error
	ListByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]*domain.Saving, error)
	ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Saving, error)
	ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Saving, error)
	ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error
	DeleteUnarchived(ctx context.Context, q sqlx.ExtContext) error
}

// FineRepository defines the interface for fine records
type FineRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, fine *domain.Fine) error
	GetByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.Fine, error)
	Update(ctx context.Context, q sqlx.ExtContext, fine *domain.Fine) error
	ListUnpaid(ctx context.Context, q sqlx.ExtContext) ([]*domain.Fine, error)
	ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Fine, error)
	ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Fine, error)
	ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error
	DeleteUnarchived(ctx context.Context, q sqlx.ExtContext) error

	// DeleteAll is the destructive administrative override
	DeleteAll(ctx context.Context, q sqlx.ExtContext) error
}

// TransactionRepository defines the interface for the append-only ledger
type TransactionRepository interface {
	// Append inserts one ledger entry; entries are never updated or deleted
	Append(ctx context.Context, q sqlx.ExtContext, txn *domain.Transaction) error

	ListByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]*domain.Transaction, error)
	ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Transaction, error)
	ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Transaction, error)

	// LatestCycleReset returns the newest cycle_reset entry, or nil
	LatestCycleReset(ctx context.Context, q sqlx.ExtContext) (*domain.Transaction, error)

	// SumSignedLive sums the signed effect of all non-archived entries
	SumSignedLive(ctx context.Context, q sqlx.ExtContext) (decimal.Decimal, error)

	// ArchiveAll tags every live ledger entry with the closing cycle
	ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error
}

// BalanceRepository manages the singleton bank balance row
type BalanceRepository interface {
	// Get returns the current balance, creating the zero row if absent
	Get(ctx context.Context, q sqlx.ExtContext) (decimal.Decimal, error)

	// Set overwrites the balance (administrative override)
	Set(ctx context.Context, q sqlx.ExtContext, balance decimal.Decimal) error

	// Adjust applies a signed delta atomically and returns the new balance
	Adjust(ctx context.Context, q sqlx.ExtContext, delta decimal.Decimal) (decimal.Decimal, error)
}

// ThresholdRepository defines the interface for cycle policy records
type ThresholdRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, threshold *domain.Threshold) error

	// GetLatest returns the newest threshold by creation date
	GetLatest(ctx context.Context, q sqlx.ExtContext) (*domain.Threshold, error)
}
