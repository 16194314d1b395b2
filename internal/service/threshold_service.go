package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/repository"
	apperrors "github.com/chisomo/villagebank/pkg/errors"
)

// ThresholdService manages the per-cycle forced-savings policy record and
// the defaulter listing derived from it.
type ThresholdService struct {
	db         sqlx.ExtContext
	users      repository.UserRepository
	loans      repository.LoanRepository
	thresholds repository.ThresholdRepository
}

func NewThresholdService(
	db sqlx.ExtContext,
	users repository.UserRepository,
	loans repository.LoanRepository,
	thresholds repository.ThresholdRepository,
) *ThresholdService {
	return &ThresholdService{
		db:         db,
		users:      users,
		loans:      loans,
		thresholds: thresholds,
	}
}

// Create derives the per-member threshold and stores the policy record.
// Thresholds are read-only once created; the latest by date wins.
func (s *ThresholdService) Create(ctx context.Context, actor domain.Actor, request *domain.CreateThresholdRequest) (*domain.Threshold, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}
	if request.TotalMembers <= 0 {
		return nil, apperrors.WrapValidation("total members must be greater than zero", nil)
	}

	threshold := &domain.Threshold{
		ID:               uuid.New(),
		Cycle:            request.Cycle,
		StartMonth:       request.StartMonth,
		TotalBankBalance: request.TotalBankBalance,
		RetainedAmount:   request.RetainedAmount,
		PrepaidInterest:  request.PrepaidInterest,
		TotalMembers:     request.TotalMembers,
		ThresholdPerMember: domain.PerMemberThreshold(
			request.TotalBankBalance,
			request.RetainedAmount,
			request.PrepaidInterest,
			request.TotalMembers,
		),
		CreatedAt: time.Now(),
	}

	if err := s.thresholds.Create(ctx, s.db, threshold); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return threshold, nil
}

// Latest returns the newest threshold record.
func (s *ThresholdService) Latest(ctx context.Context) (*domain.Threshold, error) {
	threshold, err := s.thresholds.GetLatest(ctx, s.db)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "no threshold found", apperrors.ErrThresholdNotFound)
		}
		return nil, apperrors.WrapDatabaseError(err)
	}
	return threshold, nil
}

// Defaulters lists members whose total live borrowing falls short of the
// latest per-member threshold, with the forced loan they still owe.
func (s *ThresholdService) Defaulters(ctx context.Context) ([]domain.ThresholdDefaulter, error) {
	threshold, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx, s.db)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	loans, err := s.loans.ListLive(ctx, s.db)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	borrowed := make(map[uuid.UUID]decimal.Decimal, len(users))
	for _, loan := range loans {
		borrowed[loan.UserID] = borrowed[loan.UserID].Add(loan.Amount)
	}

	var defaulters []domain.ThresholdDefaulter
	for _, user := range users {
		total := borrowed[user.ID]
		forced := threshold.ThresholdPerMember.Sub(total).Round(2)
		if forced.LessThanOrEqual(decimal.Zero) {
			continue
		}
		defaulters = append(defaulters, domain.ThresholdDefaulter{
			UserID:            user.ID,
			Name:              user.Name,
			Username:          user.Username,
			Email:             user.Email,
			TotalLoanObtained: total,
			Threshold:         threshold.ThresholdPerMember,
			ForcedLoan:        forced,
		})
	}
	return defaulters, nil
}
