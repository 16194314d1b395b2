package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/repository"
	apperrors "github.com/chisomo/villagebank/pkg/errors"
)

// CycleService closes an operating period: it snapshots every live
// financial record, tags them with the closing cycle, wipes the working
// data, zeroes the bank balance and logs the boundary. All of it runs in
// one database transaction so a failure anywhere leaves the old cycle
// untouched.
type CycleService struct {
	db       sqlx.ExtContext
	atomic   repository.Atomic
	loans    repository.LoanRepository
	savings  repository.SavingRepository
	fines    repository.FineRepository
	entries  repository.TransactionRepository
	balances repository.BalanceRepository
	reports  *ReportService
	cache    *redis.Client
}

func NewCycleService(
	db sqlx.ExtContext,
	atomic repository.Atomic,
	loans repository.LoanRepository,
	savings repository.SavingRepository,
	fines repository.FineRepository,
	entries repository.TransactionRepository,
	balances repository.BalanceRepository,
	reports *ReportService,
	cache *redis.Client,
) *CycleService {
	return &CycleService{
		db:       db,
		atomic:   atomic,
		loans:    loans,
		savings:  savings,
		fines:    fines,
		entries:  entries,
		balances: balances,
		reports:  reports,
		cache:    cache,
	}
}

// CycleResult is what a completed reset returns to the caller.
type CycleResult struct {
	CycleNumber     int                   `json:"cycle_number"`
	CycleStartDate  time.Time             `json:"cycle_start_date"`
	BackupReports   *domain.CycleSnapshot `json:"backup_reports"`
	LoansArchived   bool                  `json:"loans_archived"`
	SavingsArchived bool                  `json:"savings_archived"`
	FinesArchived   bool                  `json:"fines_archived"`
	BalanceReset    bool                  `json:"balance_reset"`
}

// CurrentCycleNumber reads the newest cycle_reset ledger entry. Absent
// any, the bank is in its first cycle.
func (s *CycleService) CurrentCycleNumber(ctx context.Context) (int, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cycleCacheKey).Result(); err == nil {
			if n, convErr := strconv.Atoi(cached); convErr == nil {
				return n, nil
			}
		}
	}

	n, err := s.currentCycleNumber(ctx, s.db)
	if err != nil {
		return 0, apperrors.WrapDatabaseError(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cycleCacheKey, strconv.Itoa(n), time.Hour).Err(); err != nil {
			logrus.WithError(err).Warn("cycle number cache write failed")
		}
	}
	return n, nil
}

func (s *CycleService) currentCycleNumber(ctx context.Context, q sqlx.ExtContext) (int, error) {
	latest, err := s.entries.LatestCycleReset(ctx, q)
	if err != nil {
		return 0, err
	}
	if latest == nil || latest.CycleNumber == nil {
		return 1, nil
	}
	return *latest.CycleNumber, nil
}

// BeginNewCycle performs the end-of-cycle archival and reset. Roles:
// admin, treasurer, loan officer.
func (s *CycleService) BeginNewCycle(ctx context.Context, actor domain.Actor) (*CycleResult, error) {
	if !domain.RoleAllowed(actor.Role, domain.RoleAdmin, domain.RoleTreasurer, domain.RoleLoanOfficer) {
		return nil, apperrors.WrapForbidden(actor.Role)
	}

	var result *CycleResult
	err := s.atomic.Do(ctx, func(q sqlx.ExtContext) error {
		closingCycle, err := s.currentCycleNumber(ctx, q)
		if err != nil {
			return err
		}
		newCycle := closingCycle + 1
		cycleEnd := time.Now()

		// Point-in-time snapshot before anything is tagged or deleted.
		snapshot, err := s.reports.Snapshot(ctx, q)
		if err != nil {
			return err
		}

		// Archive everything live under the closing cycle number.
		if err := s.loans.ArchiveAll(ctx, q, closingCycle, cycleEnd); err != nil {
			return err
		}
		if err := s.savings.ArchiveAll(ctx, q, closingCycle, cycleEnd); err != nil {
			return err
		}
		if err := s.fines.ArchiveAll(ctx, q, closingCycle, cycleEnd); err != nil {
			return err
		}
		if err := s.entries.ArchiveAll(ctx, q, closingCycle, cycleEnd); err != nil {
			return err
		}

		// Safety sweep: archival covered everything, but anything that
		// slipped through must not leak into the new cycle. Transactions
		// are never deleted.
		if err := s.loans.DeleteUnarchived(ctx, q); err != nil {
			return err
		}
		if err := s.savings.DeleteUnarchived(ctx, q); err != nil {
			return err
		}
		if err := s.fines.DeleteUnarchived(ctx, q); err != nil {
			return err
		}
		if err := s.balances.Set(ctx, q, decimal.Zero); err != nil {
			return err
		}

		// The boundary entry opens the new cycle, so it stays live.
		cycle := newCycle
		if err := s.entries.Append(ctx, q, &domain.Transaction{
			ID:          uuid.New(),
			UserID:      actor.UserID,
			Type:        domain.TransactionTypeCycleReset,
			Amount:      decimal.Zero,
			Note:        fmt.Sprintf("New cycle %d initiated - all balances reset to zero", newCycle),
			CycleNumber: &cycle,
			CreatedAt:   cycleEnd,
		}); err != nil {
			return err
		}

		result = &CycleResult{
			CycleNumber:     newCycle,
			CycleStartDate:  cycleEnd,
			BackupReports:   snapshot,
			LoansArchived:   true,
			SavingsArchived: true,
			FinesArchived:   true,
			BalanceReset:    true,
		}
		return nil
	})
	if err != nil {
		return nil, wrapAtomicErr(err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, balanceCacheKey, cycleCacheKey).Err(); err != nil {
			logrus.WithError(err).Warn("cycle cache invalidation failed")
		}
	}

	logrus.WithFields(logrus.Fields{
		"cycle":      result.CycleNumber,
		"started_by": actor.Username,
	}).Info("new cycle initiated")

	return result, nil
}
