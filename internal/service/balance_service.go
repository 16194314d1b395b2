package service

import (
	"context"
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

// BalanceService reads and administratively overrides the bank balance
// singleton. Normal balance movement happens only through Ledger.Post.
type BalanceService struct {
	db       sqlx.ExtContext
	atomic   repository.Atomic
	balances repository.BalanceRepository
	entries  repository.TransactionRepository
	cache    *redis.Client
}

func NewBalanceService(
	db sqlx.ExtContext,
	atomic repository.Atomic,
	balances repository.BalanceRepository,
	entries repository.TransactionRepository,
	cache *redis.Client,
) *BalanceService {
	return &BalanceService{
		db:       db,
		atomic:   atomic,
		balances: balances,
		entries:  entries,
		cache:    cache,
	}
}

// Get returns the current balance, consulting the cache first.
func (s *BalanceService) Get(ctx context.Context) (decimal.Decimal, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, balanceCacheKey).Result(); err == nil {
			if balance, parseErr := decimal.NewFromString(cached); parseErr == nil {
				return balance, nil
			}
		}
	}

	balance, err := s.balances.Get(ctx, s.db)
	if err != nil {
		return decimal.Zero, apperrors.WrapDatabaseError(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, balanceCacheKey, balance.String(), time.Minute).Err(); err != nil {
			logrus.WithError(err).Warn("balance cache write failed")
		}
	}
	return balance, nil
}

// Set overwrites the balance. Admin only; intended for corrections.
func (s *BalanceService) Set(ctx context.Context, actor domain.Actor, balance decimal.Decimal) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.WrapForbidden(actor.Role)
	}

	err := s.atomic.Do(ctx, func(q sqlx.ExtContext) error {
		return s.balances.Set(ctx, q, balance)
	})
	if err != nil {
		return wrapAtomicErr(err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, balanceCacheKey).Err(); err != nil {
			logrus.WithError(err).Warn("balance cache invalidation failed")
		}
	}
	logrus.WithFields(logrus.Fields{"balance": balance.String(), "set_by": actor.Username}).Warn("bank balance overridden")
	return nil
}

// Reconcile compares the stored balance against the signed sum of all live
// ledger entries. A non-zero drift means the ledger and the accumulator
// have diverged and someone needs to look.
func (s *BalanceService) Reconcile(ctx context.Context) (stored, ledgerSum, drift decimal.Decimal, err error) {
	stored, err = s.balances.Get(ctx, s.db)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, apperrors.WrapDatabaseError(err)
	}
	ledgerSum, err = s.entries.SumSignedLive(ctx, s.db)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, apperrors.WrapDatabaseError(err)
	}
	return stored, ledgerSum, stored.Sub(ledgerSum), nil
}

// Transactions returns ledger entries for one member.
func (s *BalanceService) Transactions(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error) {
	txns, err := s.entries.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return txns, nil
}

// AllTransactions returns all live ledger entries.
func (s *BalanceService) AllTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	txns, err := s.entries.ListLive(ctx, s.db)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return txns, nil
}
