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

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/repository"
	apperrors "github.com/chisomo/villagebank/pkg/errors"
)

// SavingsService records member deposits with the minimum-contribution
// fine and flat interest rules.
type SavingsService struct {
	db      sqlx.ExtContext
	atomic  repository.Atomic
	users   repository.UserRepository
	savings repository.SavingRepository
	ledger  *Ledger
}

func NewSavingsService(
	db sqlx.ExtContext,
	atomic repository.Atomic,
	users repository.UserRepository,
	savings repository.SavingRepository,
	ledger *Ledger,
) *SavingsService {
	return &SavingsService{
		db:      db,
		atomic:  atomic,
		users:   users,
		savings: savings,
		ledger:  ledger,
	}
}

// Create records a deposit. The early-cycle cap rejects the whole entry;
// otherwise the entry, the ledger credit and the balance update commit as
// one transaction.
func (s *SavingsService) Create(ctx context.Context, actor domain.Actor, request *domain.CreateSavingRequest) (*domain.Saving, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}
	if request.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WrapValidation("savings amount must be greater than zero", apperrors.ErrInvalidAmount)
	}
	if request.Month <= 0 {
		return nil, apperrors.WrapValidation("month must be greater than zero", nil)
	}
	if domain.OverEarlyCycleCap(request.Month, request.Amount) {
		return nil, apperrors.WrapValidation(
			fmt.Sprintf("cannot save more than K%s in the first %d months",
				domain.EarlyCycleSavingsCap.StringFixed(0), domain.EarlyCycleCapFinalMonth),
			apperrors.ErrSavingsOverCap,
		)
	}

	user, err := s.users.GetByUsername(ctx, s.db, request.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapUserNotFound(request.Username)
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	date := time.Now()
	if request.Date != nil {
		date = *request.Date
	}

	saving := &domain.Saving{
		ID:             uuid.New(),
		UserID:         user.ID,
		Month:          request.Month,
		Amount:         request.Amount,
		Date:           date,
		Fine:           domain.ContributionFine(request.Month, request.Amount),
		InterestEarned: request.Amount.Mul(domain.SavingsInterestRate).Round(2),
		CreatedAt:      time.Now(),
	}

	err = s.atomic.Do(ctx, func(q sqlx.ExtContext) error {
		if err := s.savings.Create(ctx, q, saving); err != nil {
			return err
		}
		refID := saving.ID
		return s.ledger.Post(ctx, q, &domain.Transaction{
			ID:          uuid.New(),
			UserID:      user.ID,
			Type:        domain.TransactionTypeSaving,
			Amount:      request.Amount,
			ReferenceID: &refID,
			Note:        fmt.Sprintf("Savings of K%s for month %d.", request.Amount.StringFixed(2), request.Month),
			CreatedAt:   time.Now(),
		})
	})
	if err != nil {
		return nil, wrapAtomicErr(err)
	}
	s.ledger.InvalidateCache(ctx)

	return saving, nil
}

// GetByUser returns a member's savings entries.
func (s *SavingsService) GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Saving, error) {
	savings, err := s.savings.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return savings, nil
}
