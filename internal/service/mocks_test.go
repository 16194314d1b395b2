package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/chisomo/villagebank/internal/domain"
)

// fakeAtomic runs the callback directly with no transaction; repositories
// under test ignore the queryer anyway.
type fakeAtomic struct{}

func (fakeAtomic) Do(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	return fn(nil)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, q sqlx.ExtContext, username string) (*domain.User, error) {
	args := m.Called(ctx, q, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, q sqlx.ExtContext) ([]*domain.User, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error {
	return m.Called(ctx, q, loan).Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetActiveByUserForUpdate(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]*domain.Loan, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Loan, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Loan, error) {
	args := m.Called(ctx, q, cycleNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error {
	return m.Called(ctx, q, loan).Error(0)
}

func (m *MockLoanRepository) UpdateInstallment(ctx context.Context, q sqlx.ExtContext, inst *domain.Installment) error {
	return m.Called(ctx, q, inst).Error(0)
}

func (m *MockLoanRepository) ReplaceInstallments(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error {
	return m.Called(ctx, q, loan).Error(0)
}

func (m *MockLoanRepository) ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error {
	return m.Called(ctx, q, cycleNumber, cycleEnd).Error(0)
}

func (m *MockLoanRepository) DeleteUnarchived(ctx context.Context, q sqlx.ExtContext) error {
	return m.Called(ctx, q).Error(0)
}

type MockSavingRepository struct {
	mock.Mock
}

func (m *MockSavingRepository) Create(ctx context.Context, q sqlx.ExtContext, saving *domain.Saving) error {
	return m.Called(ctx, q, saving).Error(0)
}

func (m *MockSavingRepository) ListByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]*domain.Saving, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Saving), args.Error(1)
}

func (m *MockSavingRepository) ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Saving, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Saving), args.Error(1)
}

func (m *MockSavingRepository) ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Saving, error) {
	args := m.Called(ctx, q, cycleNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Saving), args.Error(1)
}

func (m *MockSavingRepository) ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error {
	return m.Called(ctx, q, cycleNumber, cycleEnd).Error(0)
}

func (m *MockSavingRepository) DeleteUnarchived(ctx context.Context, q sqlx.ExtContext) error {
	return m.Called(ctx, q).Error(0)
}

type MockFineRepository struct {
	mock.Mock
}

func (m *MockFineRepository) Create(ctx context.Context, q sqlx.ExtContext, fine *domain.Fine) error {
	return m.Called(ctx, q, fine).Error(0)
}

func (m *MockFineRepository) GetByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.Fine, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Fine), args.Error(1)
}

func (m *MockFineRepository) Update(ctx context.Context, q sqlx.ExtContext, fine *domain.Fine) error {
	return m.Called(ctx, q, fine).Error(0)
}

func (m *MockFineRepository) ListUnpaid(ctx context.Context, q sqlx.ExtContext) ([]*domain.Fine, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Fine), args.Error(1)
}

func (m *MockFineRepository) ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Fine, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Fine), args.Error(1)
}

func (m *MockFineRepository) ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Fine, error) {
	args := m.Called(ctx, q, cycleNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Fine), args.Error(1)
}

func (m *MockFineRepository) ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error {
	return m.Called(ctx, q, cycleNumber, cycleEnd).Error(0)
}

func (m *MockFineRepository) DeleteUnarchived(ctx context.Context, q sqlx.ExtContext) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockFineRepository) DeleteAll(ctx context.Context, q sqlx.ExtContext) error {
	return m.Called(ctx, q).Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Append(ctx context.Context, q sqlx.ExtContext, txn *domain.Transaction) error {
	return m.Called(ctx, q, txn).Error(0)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]*domain.Transaction, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListLive(ctx context.Context, q sqlx.ExtContext) ([]*domain.Transaction, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListArchived(ctx context.Context, q sqlx.ExtContext, cycleNumber *int) ([]*domain.Transaction, error) {
	args := m.Called(ctx, q, cycleNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) LatestCycleReset(ctx context.Context, q sqlx.ExtContext) (*domain.Transaction, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SumSignedLive(ctx context.Context, q sqlx.ExtContext) (decimal.Decimal, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) ArchiveAll(ctx context.Context, q sqlx.ExtContext, cycleNumber int, cycleEnd time.Time) error {
	return m.Called(ctx, q, cycleNumber, cycleEnd).Error(0)
}

type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) Get(ctx context.Context, q sqlx.ExtContext) (decimal.Decimal, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBalanceRepository) Set(ctx context.Context, q sqlx.ExtContext, balance decimal.Decimal) error {
	return m.Called(ctx, q, balance).Error(0)
}

func (m *MockBalanceRepository) Adjust(ctx context.Context, q sqlx.ExtContext, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, q, delta)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockThresholdRepository struct {
	mock.Mock
}

func (m *MockThresholdRepository) Create(ctx context.Context, q sqlx.ExtContext, threshold *domain.Threshold) error {
	return m.Called(ctx, q, threshold).Error(0)
}

func (m *MockThresholdRepository) GetLatest(ctx context.Context, q sqlx.ExtContext) (*domain.Threshold, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Threshold), args.Error(1)
}
