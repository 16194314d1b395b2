package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chisomo/villagebank/internal/domain"
	apperrors "github.com/chisomo/villagebank/pkg/errors"
)

func newPaymentServiceForTest(users *MockUserRepository, loans *MockLoanRepository, fines *MockFineRepository, balances *MockBalanceRepository, entries *MockTransactionRepository) *PaymentService {
	ledger := NewLedger(balances, entries, nil)
	return NewPaymentService(nil, fakeAtomic{}, users, loans, fines, ledger)
}

func treasurer() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Username: "treasurer1", Role: domain.RoleTreasurer}
}

func TestAllocateRepayment_SplitsAcrossInstallments(t *testing.T) {
	users := &MockUserRepository{}
	loans := &MockLoanRepository{}
	balances := &MockBalanceRepository{}
	entries := &MockTransactionRepository{}
	service := newPaymentServiceForTest(users, loans, &MockFineRepository{}, balances, entries)

	user := &domain.User{ID: uuid.New(), Username: "chisomo"}
	loan := domain.NewLoan(user.ID, decimal.NewFromInt(6000), 0, time.Now())

	users.On("GetByUsername", mock.Anything, mock.Anything, "chisomo").Return(user, nil)
	loans.On("GetActiveByUserForUpdate", mock.Anything, mock.Anything, user.ID).Return(loan, nil)
	loans.On("UpdateInstallment", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	loans.On("Update", mock.Anything, mock.Anything, loan).Return(nil)
	balances.On("Adjust", mock.Anything, mock.Anything, mock.MatchedBy(func(delta decimal.Decimal) bool {
		return delta.Equal(decimal.NewFromInt(3000))
	})).Return(decimal.NewFromInt(3000), nil)
	entries.On("Append", mock.Anything, mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
		return txn.Type == domain.TransactionTypeLoanPayment && txn.Amount.Equal(decimal.NewFromInt(3000))
	})).Return(nil)

	// K3000 against a 6000/3 schedule: month 1 (2600) settles, 400 lands
	// on month 2 as a partial.
	result, err := service.AllocateRepayment(context.Background(), treasurer(), "chisomo", decimal.NewFromInt(3000), "")

	require.NoError(t, err)
	assert.True(t, result.AmountApplied.Equal(decimal.NewFromInt(3000)))
	assert.True(t, result.Surplus.IsZero())
	assert.Equal(t, []int{1, 2}, result.MonthsTouched)
	assert.False(t, result.LoanFullySettled)

	first := loan.Installments[0]
	assert.True(t, first.Paid)
	assert.Equal(t, domain.InstallmentStatusPaid, first.Status)

	second := loan.Installments[1]
	assert.False(t, second.Paid)
	assert.Equal(t, domain.InstallmentStatusPartial, second.Status)
	assert.True(t, second.PaidAmount.Equal(decimal.NewFromInt(400)))

	loans.AssertExpectations(t)
	balances.AssertExpectations(t)
	entries.AssertExpectations(t)
}

func TestAllocateRepayment_SurplusReturnedNotBanked(t *testing.T) {
	users := &MockUserRepository{}
	loans := &MockLoanRepository{}
	balances := &MockBalanceRepository{}
	entries := &MockTransactionRepository{}
	service := newPaymentServiceForTest(users, loans, &MockFineRepository{}, balances, entries)

	user := &domain.User{ID: uuid.New(), Username: "chisomo"}
	loan := domain.NewLoan(user.ID, decimal.NewFromInt(1000), 0, time.Now())
	outstanding := loan.Outstanding() // 1100

	users.On("GetByUsername", mock.Anything, mock.Anything, "chisomo").Return(user, nil)
	loans.On("GetActiveByUserForUpdate", mock.Anything, mock.Anything, user.ID).Return(loan, nil)
	loans.On("UpdateInstallment", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	loans.On("Update", mock.Anything, mock.Anything, loan).Return(nil)
	// Only the applied portion reaches the bank.
	balances.On("Adjust", mock.Anything, mock.Anything, mock.MatchedBy(func(delta decimal.Decimal) bool {
		return delta.Equal(outstanding)
	})).Return(outstanding, nil)
	entries.On("Append", mock.Anything, mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
		return txn.Amount.Equal(outstanding)
	})).Return(nil)

	result, err := service.AllocateRepayment(context.Background(), treasurer(), "chisomo", decimal.NewFromInt(2000), "")

	require.NoError(t, err)
	assert.True(t, result.AmountApplied.Equal(outstanding))
	assert.True(t, result.Surplus.Equal(decimal.NewFromInt(2000).Sub(outstanding)))
	assert.True(t, result.LoanFullySettled)

	balances.AssertExpectations(t)
}

func TestAllocateRepayment_NoActiveLoan(t *testing.T) {
	users := &MockUserRepository{}
	loans := &MockLoanRepository{}
	service := newPaymentServiceForTest(users, loans, &MockFineRepository{}, &MockBalanceRepository{}, &MockTransactionRepository{})

	user := &domain.User{ID: uuid.New(), Username: "chisomo"}
	users.On("GetByUsername", mock.Anything, mock.Anything, "chisomo").Return(user, nil)
	loans.On("GetActiveByUserForUpdate", mock.Anything, mock.Anything, user.ID).Return(nil, sql.ErrNoRows)

	_, err := service.AllocateRepayment(context.Background(), treasurer(), "chisomo", decimal.NewFromInt(500), "")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveLoan)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestAllocateRepayment_MemberRoleForbidden(t *testing.T) {
	service := newPaymentServiceForTest(&MockUserRepository{}, &MockLoanRepository{}, &MockFineRepository{}, &MockBalanceRepository{}, &MockTransactionRepository{})

	member := domain.Actor{UserID: uuid.New(), Username: "m1", Role: domain.RoleMember}
	_, err := service.AllocateRepayment(context.Background(), member, "chisomo", decimal.NewFromInt(500), "")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.CodeOf(err))
}

func TestAllocateRepayment_RejectsNonPositiveAmount(t *testing.T) {
	service := newPaymentServiceForTest(&MockUserRepository{}, &MockLoanRepository{}, &MockFineRepository{}, &MockBalanceRepository{}, &MockTransactionRepository{})

	_, err := service.AllocateRepayment(context.Background(), treasurer(), "chisomo", decimal.Zero, "")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

func TestPayFine_SettlesAndLinksLedgerEntry(t *testing.T) {
	fines := &MockFineRepository{}
	balances := &MockBalanceRepository{}
	entries := &MockTransactionRepository{}
	service := newPaymentServiceForTest(&MockUserRepository{}, &MockLoanRepository{}, fines, balances, entries)

	fine := &domain.Fine{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Username: "chisomo",
		Amount:   decimal.NewFromInt(500),
	}

	fines.On("GetByIDForUpdate", mock.Anything, mock.Anything, fine.ID).Return(fine, nil)
	balances.On("Adjust", mock.Anything, mock.Anything, mock.MatchedBy(func(delta decimal.Decimal) bool {
		return delta.Equal(decimal.NewFromInt(500))
	})).Return(decimal.NewFromInt(500), nil)
	entries.On("Append", mock.Anything, mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
		return txn.Type == domain.TransactionTypeFine && txn.ReferenceID != nil && *txn.ReferenceID == fine.ID
	})).Return(nil)
	fines.On("Update", mock.Anything, mock.Anything, fine).Return(nil)

	paid, err := service.PayFine(context.Background(), treasurer(), fine.ID)

	require.NoError(t, err)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.PaymentTransactionID)

	fines.AssertExpectations(t)
	balances.AssertExpectations(t)
	entries.AssertExpectations(t)
}

func TestPayFine_AlreadyPaidIsConflict(t *testing.T) {
	fines := &MockFineRepository{}
	service := newPaymentServiceForTest(&MockUserRepository{}, &MockLoanRepository{}, fines, &MockBalanceRepository{}, &MockTransactionRepository{})

	fine := &domain.Fine{ID: uuid.New(), Amount: decimal.NewFromInt(500), Paid: true}
	fines.On("GetByIDForUpdate", mock.Anything, mock.Anything, fine.ID).Return(fine, nil)

	_, err := service.PayFine(context.Background(), treasurer(), fine.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrFineAlreadyPaid)
	assert.Equal(t, apperrors.ErrCodeConflict, apperrors.CodeOf(err))
}

func TestIssueFine_NoMoneyMoves(t *testing.T) {
	users := &MockUserRepository{}
	fines := &MockFineRepository{}
	balances := &MockBalanceRepository{}
	service := newPaymentServiceForTest(users, &MockLoanRepository{}, fines, balances, &MockTransactionRepository{})

	actor := treasurer()
	user := &domain.User{ID: uuid.New(), Username: "chisomo"}
	users.On("GetByUsername", mock.Anything, mock.Anything, "chisomo").Return(user, nil)
	fines.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(f *domain.Fine) bool {
		return f.UserID == user.ID && f.IssuedBy == actor.UserID && !f.Paid
	})).Return(nil)

	fine, err := service.IssueFine(context.Background(), actor, &domain.IssueFineRequest{
		Username: "chisomo",
		Amount:   decimal.NewFromInt(500),
		Note:     "missed meeting",
	})

	require.NoError(t, err)
	assert.False(t, fine.Paid)
	balances.AssertNotCalled(t, "Adjust", mock.Anything, mock.Anything, mock.Anything)
	fines.AssertExpectations(t)
}

func TestDeleteAllFines_AdminOnly(t *testing.T) {
	fines := &MockFineRepository{}
	service := newPaymentServiceForTest(&MockUserRepository{}, &MockLoanRepository{}, fines, &MockBalanceRepository{}, &MockTransactionRepository{})

	err := service.DeleteAllFines(context.Background(), treasurer())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.CodeOf(err))

	fines.On("DeleteAll", mock.Anything, mock.Anything).Return(nil)
	admin := domain.Actor{UserID: uuid.New(), Username: "admin1", Role: domain.RoleAdmin}
	require.NoError(t, service.DeleteAllFines(context.Background(), admin))
	fines.AssertExpectations(t)
}
