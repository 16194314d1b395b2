package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/repository"
)

// Redis cache keys
const (
	balanceCacheKey = "villagebank:balance"
	cycleCacheKey   = "villagebank:cycle"
)

// Ledger couples every money-moving write to the bank balance: the entity
// mutation, the balance delta and the ledger append all ride the same
// transaction the caller opened. The read cache is a secondary concern and
// never consulted inside a transaction.
type Ledger struct {
	balances repository.BalanceRepository
	entries  repository.TransactionRepository
	cache    *redis.Client
}

func NewLedger(balances repository.BalanceRepository, entries repository.TransactionRepository, cache *redis.Client) *Ledger {
	return &Ledger{
		balances: balances,
		entries:  entries,
		cache:    cache,
	}
}

// Post applies the entry's signed effect to the bank balance and appends it
// to the ledger, both within q. Callers run it inside an Atomic.Do so a
// failure of either write rolls back the whole operation.
func (l *Ledger) Post(ctx context.Context, q sqlx.ExtContext, txn *domain.Transaction) error {
	if _, err := l.balances.Adjust(ctx, q, txn.SignedAmount()); err != nil {
		return err
	}
	return l.entries.Append(ctx, q, txn)
}

// InvalidateCache drops the cached balance and cycle number after a commit.
// Best effort: a failed invalidation is logged, never surfaced, because the
// cache is repopulated from the database on the next read.
func (l *Ledger) InvalidateCache(ctx context.Context) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Del(ctx, balanceCacheKey, cycleCacheKey).Err(); err != nil {
		logrus.WithError(err).Warn("balance cache invalidation failed")
	}
}
