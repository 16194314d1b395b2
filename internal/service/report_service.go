package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/repository"
	apperrors "github.com/chisomo/villagebank/pkg/errors"
)

// ReportService produces read-only tabular projections of the financial
// stores for the export layer. It does not render CSV or PDF itself.
type ReportService struct {
	db       sqlx.ExtContext
	users    repository.UserRepository
	loans    repository.LoanRepository
	savings  repository.SavingRepository
	fines    repository.FineRepository
	ledger   repository.TransactionRepository
	balances repository.BalanceRepository
}

func NewReportService(
	db sqlx.ExtContext,
	users repository.UserRepository,
	loans repository.LoanRepository,
	savings repository.SavingRepository,
	fines repository.FineRepository,
	ledger repository.TransactionRepository,
	balances repository.BalanceRepository,
) *ReportService {
	return &ReportService{
		db:       db,
		users:    users,
		loans:    loans,
		savings:  savings,
		fines:    fines,
		ledger:   ledger,
		balances: balances,
	}
}

func (s *ReportService) userIndex(ctx context.Context, q sqlx.ExtContext) (map[uuid.UUID]*domain.User, error) {
	users, err := s.users.List(ctx, q)
	if err != nil {
		return nil, err
	}
	index := make(map[uuid.UUID]*domain.User, len(users))
	for _, u := range users {
		index[u.ID] = u
	}
	return index, nil
}

// LoanRows flattens loans and their installments into report rows.
func (s *ReportService) LoanRows(ctx context.Context, filter domain.ReportFilter) ([]domain.LoanReportRow, error) {
	rows, err := s.loanRows(ctx, s.db, filter)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return rows, nil
}

func (s *ReportService) loanRows(ctx context.Context, q sqlx.ExtContext, filter domain.ReportFilter) ([]domain.LoanReportRow, error) {
	loans, err := s.selectLoans(ctx, q, filter)
	if err != nil {
		return nil, err
	}
	index, err := s.userIndex(ctx, q)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.LoanReportRow, 0, len(loans))
	for _, loan := range loans {
		username, name := "", ""
		if u, ok := index[loan.UserID]; ok {
			username, name = u.Username, u.Name
		}
		for _, inst := range loan.Installments {
			rows = append(rows, domain.LoanReportRow{
				CycleNumber:        loan.CycleNumber,
				Username:           username,
				Name:               name,
				LoanAmount:         loan.Amount,
				DurationMonths:     loan.DurationMonths,
				Month:              inst.Month,
				Principal:          inst.Principal,
				Interest:           inst.Interest,
				Total:              inst.Total,
				PaidAmount:         inst.PaidAmount,
				Remaining:          inst.Outstanding(),
				Paid:               inst.Paid,
				PaymentDate:        inst.PaymentDate,
				LateInterest:       inst.LateInterest,
				OverdueFine:        inst.OverdueFine,
				EarlyPaymentCharge: inst.EarlyPaymentCharge,
				FullyPaid:          loan.FullyPaid,
				LoanCreatedAt:      loan.CreatedAt,
			})
		}
	}
	return rows, nil
}

func (s *ReportService) selectLoans(ctx context.Context, q sqlx.ExtContext, filter domain.ReportFilter) ([]*domain.Loan, error) {
	if filter.CycleType == domain.CycleFilterHistorical {
		return s.loans.ListArchived(ctx, q, filter.CycleNumber)
	}
	return s.loans.ListLive(ctx, q)
}

// SavingRows projects savings entries.
func (s *ReportService) SavingRows(ctx context.Context, filter domain.ReportFilter) ([]domain.SavingReportRow, error) {
	rows, err := s.savingRows(ctx, s.db, filter)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return rows, nil
}

func (s *ReportService) savingRows(ctx context.Context, q sqlx.ExtContext, filter domain.ReportFilter) ([]domain.SavingReportRow, error) {
	var (
		savings []*domain.Saving
		err     error
	)
	if filter.CycleType == domain.CycleFilterHistorical {
		savings, err = s.savings.ListArchived(ctx, q, filter.CycleNumber)
	} else {
		savings, err = s.savings.ListLive(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	index, err := s.userIndex(ctx, q)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.SavingReportRow, 0, len(savings))
	for _, saving := range savings {
		username, name := "", ""
		if u, ok := index[saving.UserID]; ok {
			username, name = u.Username, u.Name
		}
		rows = append(rows, domain.SavingReportRow{
			CycleNumber:    saving.CycleNumber,
			Username:       username,
			Name:           name,
			Month:          saving.Month,
			Amount:         saving.Amount,
			Fine:           saving.Fine,
			InterestEarned: saving.InterestEarned,
			Date:           saving.Date,
		})
	}
	return rows, nil
}

// TransactionRows projects ledger entries.
func (s *ReportService) TransactionRows(ctx context.Context, filter domain.ReportFilter) ([]domain.TransactionReportRow, error) {
	rows, err := s.transactionRows(ctx, s.db, filter)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return rows, nil
}

func (s *ReportService) transactionRows(ctx context.Context, q sqlx.ExtContext, filter domain.ReportFilter) ([]domain.TransactionReportRow, error) {
	var (
		txns []*domain.Transaction
		err  error
	)
	if filter.CycleType == domain.CycleFilterHistorical {
		txns, err = s.ledger.ListArchived(ctx, q, filter.CycleNumber)
	} else {
		txns, err = s.ledger.ListLive(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	index, err := s.userIndex(ctx, q)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.TransactionReportRow, 0, len(txns))
	for _, txn := range txns {
		username, name := "", ""
		if u, ok := index[txn.UserID]; ok {
			username, name = u.Username, u.Name
		}
		rows = append(rows, domain.TransactionReportRow{
			CycleNumber: txn.CycleNumber,
			Username:    username,
			Name:        name,
			Type:        txn.Type,
			Amount:      txn.Amount,
			Note:        txn.Note,
			Date:        txn.CreatedAt,
		})
	}
	return rows, nil
}

// FineRows projects fine records.
func (s *ReportService) FineRows(ctx context.Context, filter domain.ReportFilter) ([]domain.FineReportRow, error) {
	rows, err := s.fineRows(ctx, s.db, filter)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return rows, nil
}

func (s *ReportService) fineRows(ctx context.Context, q sqlx.ExtContext, filter domain.ReportFilter) ([]domain.FineReportRow, error) {
	var (
		fines []*domain.Fine
		err   error
	)
	if filter.CycleType == domain.CycleFilterHistorical {
		fines, err = s.fines.ListArchived(ctx, q, filter.CycleNumber)
	} else {
		fines, err = s.fines.ListLive(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	index, err := s.userIndex(ctx, q)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.FineReportRow, 0, len(fines))
	for _, fine := range fines {
		name := ""
		if u, ok := index[fine.UserID]; ok {
			name = u.Name
		}
		issuedBy := ""
		if u, ok := index[fine.IssuedBy]; ok {
			issuedBy = u.Username
		}
		rows = append(rows, domain.FineReportRow{
			CycleNumber: fine.CycleNumber,
			Username:    fine.Username,
			Name:        name,
			Amount:      fine.Amount,
			Note:        fine.Note,
			IssuedBy:    issuedBy,
			IssuedAt:    fine.IssuedAt,
			Paid:        fine.Paid,
			PaidAt:      fine.PaidAt,
		})
	}
	return rows, nil
}

// Snapshot captures all live financial data plus the closing balance. The
// cycle manager calls it inside the reset transaction so the export sees a
// point-in-time view.
func (s *ReportService) Snapshot(ctx context.Context, q sqlx.ExtContext) (*domain.CycleSnapshot, error) {
	filter := domain.ReportFilter{CycleType: domain.CycleFilterCurrent}

	loanRows, err := s.loanRows(ctx, q, filter)
	if err != nil {
		return nil, err
	}
	savingRows, err := s.savingRows(ctx, q, filter)
	if err != nil {
		return nil, err
	}
	txnRows, err := s.transactionRows(ctx, q, filter)
	if err != nil {
		return nil, err
	}
	fineRows, err := s.fineRows(ctx, q, filter)
	if err != nil {
		return nil, err
	}
	closing, err := s.balances.Get(ctx, q)
	if err != nil {
		return nil, err
	}

	return &domain.CycleSnapshot{
		Loans:          loanRows,
		Savings:        savingRows,
		Transactions:   txnRows,
		Fines:          fineRows,
		ClosingBalance: closing,
		GeneratedAt:    time.Now(),
	}, nil
}
