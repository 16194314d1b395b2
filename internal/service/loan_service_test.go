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

func newLoanServiceForTest(users *MockUserRepository, loans *MockLoanRepository, balances *MockBalanceRepository, entries *MockTransactionRepository) *LoanService {
	ledger := NewLedger(balances, entries, nil)
	return NewLoanService(nil, fakeAtomic{}, users, loans, ledger)
}

func TestDisburse_CreatesLoanAndDebitsBank(t *testing.T) {
	users := &MockUserRepository{}
	loans := &MockLoanRepository{}
	balances := &MockBalanceRepository{}
	entries := &MockTransactionRepository{}
	service := newLoanServiceForTest(users, loans, balances, entries)

	user := &domain.User{ID: uuid.New(), Username: "chisomo"}
	users.On("GetByUsername", mock.Anything, mock.Anything, "chisomo").Return(user, nil)
	loans.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
		return loan.UserID == user.ID && len(loan.Installments) == 3
	})).Return(nil)
	// A disbursement debits the bank.
	balances.On("Adjust", mock.Anything, mock.Anything, mock.MatchedBy(func(delta decimal.Decimal) bool {
		return delta.Equal(decimal.NewFromInt(-6000))
	})).Return(decimal.NewFromInt(-6000), nil)
	entries.On("Append", mock.Anything, mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
		return txn.Type == domain.TransactionTypeLoan && txn.Amount.Equal(decimal.NewFromInt(6000))
	})).Return(nil)

	actor := domain.Actor{UserID: uuid.New(), Username: "officer1", Role: domain.RoleLoanOfficer}
	loan, err := service.Disburse(context.Background(), actor, &domain.CreateLoanRequest{
		Username: "chisomo",
		Amount:   decimal.NewFromInt(6000),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, loan.DurationMonths)
	assert.True(t, loan.Installments[0].Total.Equal(decimal.NewFromInt(2600)))

	loans.AssertExpectations(t)
	balances.AssertExpectations(t)
	entries.AssertExpectations(t)
}

func TestDisburse_UnknownMember(t *testing.T) {
	users := &MockUserRepository{}
	service := newLoanServiceForTest(users, &MockLoanRepository{}, &MockBalanceRepository{}, &MockTransactionRepository{})

	users.On("GetByUsername", mock.Anything, mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	_, err := service.Disburse(context.Background(), actor, &domain.CreateLoanRequest{
		Username: "ghost",
		Amount:   decimal.NewFromInt(1000),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestDisburse_TreasurerCannotDisburse(t *testing.T) {
	service := newLoanServiceForTest(&MockUserRepository{}, &MockLoanRepository{}, &MockBalanceRepository{}, &MockTransactionRepository{})

	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleTreasurer}
	_, err := service.Disburse(context.Background(), actor, &domain.CreateLoanRequest{
		Username: "chisomo",
		Amount:   decimal.NewFromInt(1000),
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.CodeOf(err))
}

func TestRepayInstallment_InsufficientAmountRejected(t *testing.T) {
	users := &MockUserRepository{}
	loans := &MockLoanRepository{}
	service := newLoanServiceForTest(users, loans, &MockBalanceRepository{}, &MockTransactionRepository{})

	user := &domain.User{ID: uuid.New(), Username: "chisomo"}
	loan := domain.NewLoan(user.ID, decimal.NewFromInt(6000), 0, time.Now())

	users.On("GetByUsername", mock.Anything, mock.Anything, "chisomo").Return(user, nil)
	loans.On("GetByIDForUpdate", mock.Anything, mock.Anything, loan.ID).Return(loan, nil)

	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleTreasurer}
	_, err := service.RepayInstallment(context.Background(), actor, &domain.RepayInstallmentRequest{
		Username: "chisomo",
		LoanID:   loan.ID,
		Month:    1,
		Amount:   decimal.NewFromInt(2000), // needs 2600
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPayment)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
	// Nothing was written.
	loans.AssertNotCalled(t, "UpdateInstallment", mock.Anything, mock.Anything, mock.Anything)
}

func TestRepayInstallment_AlreadyPaidIsConflict(t *testing.T) {
	users := &MockUserRepository{}
	loans := &MockLoanRepository{}
	service := newLoanServiceForTest(users, loans, &MockBalanceRepository{}, &MockTransactionRepository{})

	user := &domain.User{ID: uuid.New(), Username: "chisomo"}
	loan := domain.NewLoan(user.ID, decimal.NewFromInt(1000), 0, time.Now())
	loan.ApplyToInstallment(loan.Installments[0], loan.Installments[0].Total, time.Now())

	users.On("GetByUsername", mock.Anything, mock.Anything, "chisomo").Return(user, nil)
	loans.On("GetByIDForUpdate", mock.Anything, mock.Anything, loan.ID).Return(loan, nil)

	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	_, err := service.RepayInstallment(context.Background(), actor, &domain.RepayInstallmentRequest{
		Username: "chisomo",
		LoanID:   loan.ID,
		Month:    1,
		Amount:   decimal.NewFromInt(5000),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInstallmentAlreadyPaid)
}

func TestReverseInstallment_RestoresSchedule(t *testing.T) {
	loans := &MockLoanRepository{}
	service := newLoanServiceForTest(&MockUserRepository{}, loans, &MockBalanceRepository{}, &MockTransactionRepository{})

	loan := domain.NewLoan(uuid.New(), decimal.NewFromInt(1000), 0, time.Now())
	loan.ApplyToInstallment(loan.Installments[0], loan.Installments[0].Total, time.Now())
	require.True(t, loan.FullyPaid)

	loans.On("GetByIDForUpdate", mock.Anything, mock.Anything, loan.ID).Return(loan, nil)
	loans.On("UpdateInstallment", mock.Anything, mock.Anything, loan.Installments[0]).Return(nil)
	loans.On("Update", mock.Anything, mock.Anything, loan).Return(nil)

	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleTreasurer}
	reversed, err := service.ReverseInstallment(context.Background(), actor, loan.ID, 1)

	require.NoError(t, err)
	assert.False(t, reversed.Installments[0].Paid)
	assert.False(t, reversed.FullyPaid)
	loans.AssertExpectations(t)
}

func TestUpdate_TermsLockedAfterRepaymentsStart(t *testing.T) {
	loans := &MockLoanRepository{}
	service := newLoanServiceForTest(&MockUserRepository{}, loans, &MockBalanceRepository{}, &MockTransactionRepository{})

	loan := domain.NewLoan(uuid.New(), decimal.NewFromInt(6000), 0, time.Now())
	loan.ApplyToInstallment(loan.Installments[0], loan.Installments[0].Total, time.Now())

	loans.On("GetByIDForUpdate", mock.Anything, mock.Anything, loan.ID).Return(loan, nil)

	newAmount := decimal.NewFromInt(8000)
	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	_, err := service.Update(context.Background(), actor, loan.ID, &domain.UpdateLoanRequest{Amount: &newAmount})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLoanFieldLocked)
	loans.AssertNotCalled(t, "ReplaceInstallments", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_BeforeRepaymentsRegeneratesSchedule(t *testing.T) {
	loans := &MockLoanRepository{}
	service := newLoanServiceForTest(&MockUserRepository{}, loans, &MockBalanceRepository{}, &MockTransactionRepository{})

	loan := domain.NewLoan(uuid.New(), decimal.NewFromInt(6000), 0, time.Now())

	loans.On("GetByIDForUpdate", mock.Anything, mock.Anything, loan.ID).Return(loan, nil)
	loans.On("ReplaceInstallments", mock.Anything, mock.Anything, loan).Return(nil)
	loans.On("Update", mock.Anything, mock.Anything, loan).Return(nil)

	newAmount := decimal.NewFromInt(25000)
	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleTreasurer}
	updated, err := service.Update(context.Background(), actor, loan.ID, &domain.UpdateLoanRequest{Amount: &newAmount})

	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(newAmount))
	assert.Equal(t, 4, updated.DurationMonths)
	assert.Len(t, updated.Installments, 4)
	for _, inst := range updated.Installments {
		assert.Equal(t, loan.ID, inst.LoanID)
		assert.Equal(t, domain.InstallmentStatusUnpaid, inst.Status)
	}
	loans.AssertExpectations(t)
}

func TestUpdate_NoteAlwaysEditable(t *testing.T) {
	loans := &MockLoanRepository{}
	service := newLoanServiceForTest(&MockUserRepository{}, loans, &MockBalanceRepository{}, &MockTransactionRepository{})

	loan := domain.NewLoan(uuid.New(), decimal.NewFromInt(6000), 0, time.Now())
	loan.ApplyToInstallment(loan.Installments[0], loan.Installments[0].Total, time.Now())

	loans.On("GetByIDForUpdate", mock.Anything, mock.Anything, loan.ID).Return(loan, nil)
	loans.On("Update", mock.Anything, mock.Anything, loan).Return(nil)

	note := "restructured after committee review"
	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	updated, err := service.Update(context.Background(), actor, loan.ID, &domain.UpdateLoanRequest{Note: &note})

	require.NoError(t, err)
	assert.Equal(t, note, updated.Note)
	loans.AssertExpectations(t)
}
