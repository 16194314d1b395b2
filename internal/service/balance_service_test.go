package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chisomo/villagebank/internal/domain"
	apperrors "github.com/chisomo/villagebank/pkg/errors"
)

func TestBalanceSet_AdminOnly(t *testing.T) {
	balances := &MockBalanceRepository{}
	service := NewBalanceService(nil, fakeAtomic{}, balances, &MockTransactionRepository{}, nil)

	treasurerActor := domain.Actor{UserID: uuid.New(), Role: domain.RoleTreasurer}
	err := service.Set(context.Background(), treasurerActor, decimal.NewFromInt(100))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.CodeOf(err))

	balances.On("Set", mock.Anything, mock.Anything, mock.MatchedBy(func(b decimal.Decimal) bool {
		return b.Equal(decimal.NewFromInt(100))
	})).Return(nil)

	admin := domain.Actor{UserID: uuid.New(), Username: "admin1", Role: domain.RoleAdmin}
	require.NoError(t, service.Set(context.Background(), admin, decimal.NewFromInt(100)))
	balances.AssertExpectations(t)
}

func TestReconcile_ReportsDrift(t *testing.T) {
	balances := &MockBalanceRepository{}
	entries := &MockTransactionRepository{}
	service := NewBalanceService(nil, fakeAtomic{}, balances, entries, nil)

	balances.On("Get", mock.Anything, mock.Anything).Return(decimal.NewFromInt(10500), nil)
	entries.On("SumSignedLive", mock.Anything, mock.Anything).Return(decimal.NewFromInt(10000), nil)

	stored, ledgerSum, drift, err := service.Reconcile(context.Background())

	require.NoError(t, err)
	assert.True(t, stored.Equal(decimal.NewFromInt(10500)))
	assert.True(t, ledgerSum.Equal(decimal.NewFromInt(10000)))
	assert.True(t, drift.Equal(decimal.NewFromInt(500)))
}

func TestReconcile_CleanLedgerHasZeroDrift(t *testing.T) {
	balances := &MockBalanceRepository{}
	entries := &MockTransactionRepository{}
	service := NewBalanceService(nil, fakeAtomic{}, balances, entries, nil)

	balances.On("Get", mock.Anything, mock.Anything).Return(decimal.NewFromInt(7200), nil)
	entries.On("SumSignedLive", mock.Anything, mock.Anything).Return(decimal.NewFromInt(7200), nil)

	_, _, drift, err := service.Reconcile(context.Background())

	require.NoError(t, err)
	assert.True(t, drift.IsZero())
}
