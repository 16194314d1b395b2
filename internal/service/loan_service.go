package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/repository"
	apperrors "github.com/chisomo/villagebank/pkg/errors"
	"github.com/chisomo/villagebank/pkg/loancalc"
)

// LoanService owns the loan lifecycle: disbursement, the deprecated
// single-shot repayment, reversal and edits.
type LoanService struct {
	db     sqlx.ExtContext
	atomic repository.Atomic
	users  repository.UserRepository
	loans  repository.LoanRepository
	ledger *Ledger
}

func NewLoanService(
	db sqlx.ExtContext,
	atomic repository.Atomic,
	users repository.UserRepository,
	loans repository.LoanRepository,
	ledger *Ledger,
) *LoanService {
	return &LoanService{
		db:     db,
		atomic: atomic,
		users:  users,
		loans:  loans,
		ledger: ledger,
	}
}

// Disburse creates a loan with its amortization schedule, debits the bank
// balance and logs the disbursement, as one transaction.
func (s *LoanService) Disburse(ctx context.Context, actor domain.Actor, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}
	if request.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WrapValidation("loan amount must be greater than zero", apperrors.ErrInvalidAmount)
	}

	user, err := s.users.GetByUsername(ctx, s.db, request.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapUserNotFound(request.Username)
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	loan := domain.NewLoan(user.ID, request.Amount, request.DurationMonths, time.Now())
	loan.Note = request.Note

	err = s.atomic.Do(ctx, func(q sqlx.ExtContext) error {
		if err := s.loans.Create(ctx, q, loan); err != nil {
			return err
		}
		refID := loan.ID
		return s.ledger.Post(ctx, q, &domain.Transaction{
			ID:          uuid.New(),
			UserID:      user.ID,
			Type:        domain.TransactionTypeLoan,
			Amount:      request.Amount,
			ReferenceID: &refID,
			Note:        fmt.Sprintf("Loan of K%s created.", request.Amount.StringFixed(2)),
			CreatedAt:   time.Now(),
		})
	})
	if err != nil {
		return nil, wrapAtomicErr(err)
	}
	s.ledger.InvalidateCache(ctx)

	logrus.WithFields(logrus.Fields{
		"loan_id":  loan.ID,
		"username": user.Username,
		"amount":   request.Amount.String(),
		"duration": loan.DurationMonths,
	}).Info("loan disbursed")

	return loan, nil
}

// RepayInstallment is the deprecated single-shot repayment: the payment
// must cover the named installment's outstanding amount in full. New
// callers should use PaymentService.AllocateRepayment.
func (s *LoanService) RepayInstallment(ctx context.Context, actor domain.Actor, request *domain.RepayInstallmentRequest) (*domain.Loan, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}
	if request.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WrapValidation("payment amount must be greater than zero", apperrors.ErrInvalidAmount)
	}

	user, err := s.users.GetByUsername(ctx, s.db, request.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapUserNotFound(request.Username)
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	when := time.Now()
	if request.PaymentDate != nil {
		when = *request.PaymentDate
	}

	var loan *domain.Loan
	err = s.atomic.Do(ctx, func(q sqlx.ExtContext) error {
		var err error
		loan, err = s.loans.GetByIDForUpdate(ctx, q, request.LoanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WrapLoanNotFound(request.LoanID.String())
			}
			return err
		}
		if loan.UserID != user.ID {
			return apperrors.WrapLoanNotFound(request.LoanID.String())
		}

		var inst *domain.Installment
		for _, candidate := range loan.Installments {
			if candidate.Month == request.Month {
				inst = candidate
				break
			}
		}
		if inst == nil {
			return apperrors.WrapInstallmentNotFound(loan.ID.String(), request.Month)
		}
		if inst.Paid {
			return apperrors.WrapConflict("installment already paid", apperrors.ErrInstallmentAlreadyPaid)
		}
		if request.Amount.LessThan(inst.Outstanding()) {
			return apperrors.WrapValidation(
				fmt.Sprintf("payment of K%s does not cover the K%s outstanding on installment %d",
					request.Amount.StringFixed(2), inst.Outstanding().StringFixed(2), inst.Month),
				apperrors.ErrInsufficientPayment,
			)
		}

		applied := loan.ApplyToInstallment(inst, inst.Outstanding(), when)
		if err := s.loans.UpdateInstallment(ctx, q, inst); err != nil {
			return err
		}
		if err := s.loans.Update(ctx, q, loan); err != nil {
			return err
		}

		refID := loan.ID
		return s.ledger.Post(ctx, q, &domain.Transaction{
			ID:          uuid.New(),
			UserID:      user.ID,
			Type:        domain.TransactionTypeLoanPayment,
			Amount:      applied,
			ReferenceID: &refID,
			Note:        fmt.Sprintf("Installment %d repaid on loan %s.", inst.Month, loan.ID),
			CreatedAt:   when,
		})
	})
	if err != nil {
		return nil, wrapAtomicErr(err)
	}
	s.ledger.InvalidateCache(ctx)

	return loan, nil
}

// ReverseInstallment undoes a settled installment. Only legal when the
// installment is currently paid. The ledger entry from the original payment
// stays; reversal is a loan-state correction, not a refund.
func (s *LoanService) ReverseInstallment(ctx context.Context, actor domain.Actor, loanID uuid.UUID, month int) (*domain.Loan, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}

	var loan *domain.Loan
	err := s.atomic.Do(ctx, func(q sqlx.ExtContext) error {
		var err error
		loan, err = s.loans.GetByIDForUpdate(ctx, q, loanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WrapLoanNotFound(loanID.String())
			}
			return err
		}

		var inst *domain.Installment
		for _, candidate := range loan.Installments {
			if candidate.Month == month {
				inst = candidate
				break
			}
		}
		if inst == nil {
			return apperrors.WrapInstallmentNotFound(loanID.String(), month)
		}
		if err := inst.Reverse(); err != nil {
			return err
		}
		loan.RecomputeFullyPaid()

		if err := s.loans.UpdateInstallment(ctx, q, inst); err != nil {
			return err
		}
		return s.loans.Update(ctx, q, loan)
	})
	if err != nil {
		return nil, wrapAtomicErr(err)
	}

	logrus.WithFields(logrus.Fields{"loan_id": loanID, "month": month}).Info("installment payment reversed")
	return loan, nil
}

// Update edits loan fields. Principal, interest rate and duration are
// locked once any installment has been settled; changing them before that
// regenerates the schedule. The note is always editable.
func (s *LoanService) Update(ctx context.Context, actor domain.Actor, loanID uuid.UUID, request *domain.UpdateLoanRequest) (*domain.Loan, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}

	var loan *domain.Loan
	err := s.atomic.Do(ctx, func(q sqlx.ExtContext) error {
		var err error
		loan, err = s.loans.GetByIDForUpdate(ctx, q, loanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WrapLoanNotFound(loanID.String())
			}
			return err
		}

		restrictedChange := (request.Amount != nil && !request.Amount.Equal(loan.Amount)) ||
			(request.InterestRate != nil && !request.InterestRate.Equal(loan.InterestRate)) ||
			(request.DurationMonths != nil && *request.DurationMonths != loan.DurationMonths)

		if restrictedChange && loan.RepaymentsStarted() {
			return apperrors.WrapValidation(
				"cannot edit amount, interest rate or duration after repayments have started",
				apperrors.ErrLoanFieldLocked,
			)
		}

		if restrictedChange {
			amount := loan.Amount
			if request.Amount != nil {
				amount = *request.Amount
			}
			if amount.LessThanOrEqual(decimal.Zero) {
				return apperrors.WrapValidation("loan amount must be greater than zero", apperrors.ErrInvalidAmount)
			}
			duration := 0
			if request.DurationMonths != nil {
				duration = *request.DurationMonths
			}

			rebuilt := domain.NewLoan(loan.UserID, amount, duration, loan.CreatedAt)
			loan.Amount = amount
			loan.DurationMonths = rebuilt.DurationMonths
			loan.Installments = rebuilt.Installments
			for _, inst := range loan.Installments {
				inst.LoanID = loan.ID
			}
			loan.FullyPaid = false
			if request.InterestRate != nil {
				loan.InterestRate = *request.InterestRate
			} else {
				loan.InterestRate = loancalc.MonthlyInterestRate
			}

			if err := s.loans.ReplaceInstallments(ctx, q, loan); err != nil {
				return err
			}
		}

		if request.Note != nil {
			loan.Note = *request.Note
		}
		return s.loans.Update(ctx, q, loan)
	})
	if err != nil {
		return nil, wrapAtomicErr(err)
	}
	return loan, nil
}

// GetByUser returns all loans of a member.
func (s *LoanService) GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	loans, err := s.loans.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return loans, nil
}

// GetByUsername resolves a username and returns the member's loans.
func (s *LoanService) GetByUsername(ctx context.Context, username string) ([]*domain.Loan, error) {
	user, err := s.users.GetByUsername(ctx, s.db, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapUserNotFound(username)
		}
		return nil, apperrors.WrapDatabaseError(err)
	}
	return s.GetByUser(ctx, user.ID)
}

// ListLive returns all non-archived loans.
func (s *LoanService) ListLive(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := s.loans.ListLive(ctx, s.db)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return loans, nil
}

// wrapAtomicErr keeps business errors intact and wraps anything else as a
// database failure.
func wrapAtomicErr(err error) error {
	var be *apperrors.BusinessError
	if errors.As(err, &be) {
		return err
	}
	return apperrors.WrapDatabaseError(err)
}
