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
)

// PaymentService moves money: the splitting repayment allocator, payouts,
// generic payments and the fine lifecycle.
type PaymentService struct {
	db     sqlx.ExtContext
	atomic repository.Atomic
	users  repository.UserRepository
	loans  repository.LoanRepository
	fines  repository.FineRepository
	ledger *Ledger
}

func NewPaymentService(
	db sqlx.ExtContext,
	atomic repository.Atomic,
	users repository.UserRepository,
	loans repository.LoanRepository,
	fines repository.FineRepository,
	ledger *Ledger,
) *PaymentService {
	return &PaymentService{
		db:     db,
		atomic: atomic,
		users:  users,
		loans:  loans,
		fines:  fines,
		ledger: ledger,
	}
}

// AllocationResult reports how a repayment was distributed.
type AllocationResult struct {
	Loan             *domain.Loan    `json:"loan"`
	AmountApplied    decimal.Decimal `json:"amount_applied"`
	Surplus          decimal.Decimal `json:"surplus"`
	MonthsTouched    []int           `json:"months_touched"`
	LoanFullySettled bool            `json:"loan_fully_settled"`
}

// AllocateRepayment applies a repayment across the member's active loan,
// walking installments in month order and splitting partial amounts. The
// loan row is locked for the duration so concurrent repayments serialize.
// The installment mutations, the bank balance credit and the ledger append
// commit together or not at all.
func (s *PaymentService) AllocateRepayment(ctx context.Context, actor domain.Actor, username string, amount decimal.Decimal, note string) (*AllocationResult, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WrapValidation("payment amount must be greater than zero", apperrors.ErrInvalidAmount)
	}

	user, err := s.users.GetByUsername(ctx, s.db, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapUserNotFound(username)
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	now := time.Now()
	result := &AllocationResult{}

	err = s.atomic.Do(ctx, func(q sqlx.ExtContext) error {
		loan, err := s.loans.GetActiveByUserForUpdate(ctx, q, user.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WrapNoActiveLoan(username)
			}
			return err
		}

		remaining := amount
		for _, inst := range loan.Installments {
			if remaining.LessThanOrEqual(decimal.Zero) {
				break
			}
			if inst.Paid {
				continue
			}
			applied := loan.ApplyToInstallment(inst, remaining, now)
			if applied.IsZero() {
				continue
			}
			remaining = remaining.Sub(applied)
			result.MonthsTouched = append(result.MonthsTouched, inst.Month)
			if err := s.loans.UpdateInstallment(ctx, q, inst); err != nil {
				return err
			}
		}

		loan.RecomputeFullyPaid()
		if err := s.loans.Update(ctx, q, loan); err != nil {
			return err
		}

		result.Loan = loan
		result.AmountApplied = amount.Sub(remaining)
		result.Surplus = remaining
		result.LoanFullySettled = loan.FullyPaid

		if note == "" {
			note = fmt.Sprintf("Repayment of K%s applied to loan %s.", result.AmountApplied.StringFixed(2), loan.ID)
		}
		refID := loan.ID
		return s.ledger.Post(ctx, q, &domain.Transaction{
			ID:          uuid.New(),
			UserID:      user.ID,
			Type:        domain.TransactionTypeLoanPayment,
			Amount:      result.AmountApplied,
			ReferenceID: &refID,
			Note:        note,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, wrapAtomicErr(err)
	}
	s.ledger.InvalidateCache(ctx)

	logrus.WithFields(logrus.Fields{
		"username": username,
		"applied":  result.AmountApplied.String(),
		"surplus":  result.Surplus.String(),
		"months":   result.MonthsTouched,
	}).Info("repayment allocated")

	return result, nil
}

// RecordPayment credits the bank with a generic member payment.
func (s *PaymentService) RecordPayment(ctx context.Context, actor domain.Actor, username string, amount decimal.Decimal, note string) error {
	return s.recordSimple(ctx, actor, username, amount, note, domain.TransactionTypePayment)
}

// Payout debits the bank with a distribution to a member.
func (s *PaymentService) Payout(ctx context.Context, actor domain.Actor, username string, amount decimal.Decimal, note string) error {
	return s.recordSimple(ctx, actor, username, amount, note, domain.TransactionTypePayout)
}

func (s *PaymentService) recordSimple(ctx context.Context, actor domain.Actor, username string, amount decimal.Decimal, note, txnType string) error {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return apperrors.WrapForbidden(actor.Role)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.WrapValidation("amount must be greater than zero", apperrors.ErrInvalidAmount)
	}

	user, err := s.users.GetByUsername(ctx, s.db, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.WrapUserNotFound(username)
		}
		return apperrors.WrapDatabaseError(err)
	}

	err = s.atomic.Do(ctx, func(q sqlx.ExtContext) error {
		return s.ledger.Post(ctx, q, &domain.Transaction{
			ID:        uuid.New(),
			UserID:    user.ID,
			Type:      txnType,
			Amount:    amount,
			Note:      note,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return wrapAtomicErr(err)
	}
	s.ledger.InvalidateCache(ctx)
	return nil
}

// IssueFine records a penalty against a member. No money moves until the
// fine is paid.
func (s *PaymentService) IssueFine(ctx context.Context, actor domain.Actor, request *domain.IssueFineRequest) (*domain.Fine, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}
	if request.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WrapValidation("fine amount must be greater than zero", apperrors.ErrInvalidAmount)
	}

	user, err := s.users.GetByUsername(ctx, s.db, request.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapUserNotFound(request.Username)
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	fine := &domain.Fine{
		ID:       uuid.New(),
		UserID:   user.ID,
		Username: user.Username,
		Amount:   request.Amount,
		Note:     request.Note,
		IssuedBy: actor.UserID,
		IssuedAt: time.Now(),
	}
	if err := s.fines.Create(ctx, s.db, fine); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return fine, nil
}

// PayFine settles an issued fine: marks it paid, credits the bank balance
// and links the fine to its ledger entry, all in one transaction. Paying an
// already-paid fine is a conflict.
func (s *PaymentService) PayFine(ctx context.Context, actor domain.Actor, fineID uuid.UUID) (*domain.Fine, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}

	var fine *domain.Fine
	err := s.atomic.Do(ctx, func(q sqlx.ExtContext) error {
		var err error
		fine, err = s.fines.GetByIDForUpdate(ctx, q, fineID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WrapFineNotFound(fineID.String())
			}
			return err
		}
		if fine.Paid {
			return apperrors.WrapConflict("fine is already paid", apperrors.ErrFineAlreadyPaid)
		}

		now := time.Now()
		txnID := uuid.New()
		refID := fine.ID
		if err := s.ledger.Post(ctx, q, &domain.Transaction{
			ID:          txnID,
			UserID:      fine.UserID,
			Type:        domain.TransactionTypeFine,
			Amount:      fine.Amount,
			ReferenceID: &refID,
			Note:        fmt.Sprintf("Fine of K%s paid.", fine.Amount.StringFixed(2)),
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		fine.Paid = true
		fine.PaidAt = &now
		fine.PaymentTransactionID = &txnID
		return s.fines.Update(ctx, q, fine)
	})
	if err != nil {
		return nil, wrapAtomicErr(err)
	}
	s.ledger.InvalidateCache(ctx)
	return fine, nil
}

// ListUnpaidFines returns all outstanding fines.
func (s *PaymentService) ListUnpaidFines(ctx context.Context, actor domain.Actor) ([]*domain.Fine, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}
	fines, err := s.fines.ListUnpaid(ctx, s.db)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return fines, nil
}

// DeleteAllFines is the destructive administrative override: every fine is
// removed with no archival. Admin only.
func (s *PaymentService) DeleteAllFines(ctx context.Context, actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.WrapForbidden(actor.Role)
	}
	if err := s.fines.DeleteAll(ctx, s.db); err != nil {
		return apperrors.WrapDatabaseError(err)
	}
	logrus.WithField("deleted_by", actor.Username).Warn("all fines deleted")
	return nil
}
