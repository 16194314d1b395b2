package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/chisomo/villagebank/pkg/errors"
	"github.com/chisomo/villagebank/pkg/loancalc"
)

// Installment states
const (
	InstallmentStatusUnpaid  = "unpaid"
	InstallmentStatusPartial = "partial"
	InstallmentStatusPaid    = "paid"
)

// Fixed penalty policy
var (
	LatePaymentRate    = decimal.NewFromFloat(0.15)
	OverdueFineAmount  = decimal.NewFromInt(1000)
	EarlyPaymentCharge = decimal.NewFromInt(200)
)

// Loan represents one member loan with its embedded installment schedule.
type Loan struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	DurationMonths int             `json:"duration_months" db:"duration_months"`
	InterestRate   decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	Note           string          `json:"note" db:"note"`
	FullyPaid      bool            `json:"fully_paid" db:"fully_paid"`
	CycleNumber    *int            `json:"cycle_number,omitempty" db:"cycle_number"`
	CycleEndDate   *time.Time      `json:"cycle_end_date,omitempty" db:"cycle_end_date"`
	Archived       bool            `json:"archived" db:"archived"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`

	Installments []*Installment `json:"installments" db:"-"`
}

// Installment is one scheduled monthly repayment unit of a loan.
type Installment struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	LoanID             uuid.UUID       `json:"loan_id" db:"loan_id"`
	Month              int             `json:"month" db:"month"`
	Principal          decimal.Decimal `json:"principal" db:"principal"`
	Interest           decimal.Decimal `json:"interest" db:"interest"`
	Total              decimal.Decimal `json:"total" db:"total"`
	PaidAmount         decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Status             string          `json:"status" db:"status"`
	Paid               bool            `json:"paid" db:"paid"`
	PaymentDate        *time.Time      `json:"payment_date,omitempty" db:"payment_date"`
	LateInterest       decimal.Decimal `json:"late_interest" db:"late_interest"`
	OverdueFine        decimal.Decimal `json:"overdue_fine" db:"overdue_fine"`
	EarlyPaymentCharge decimal.Decimal `json:"early_payment_charge" db:"early_payment_charge"`
}

// Outstanding returns what is still owed on the installment.
func (i *Installment) Outstanding() decimal.Decimal {
	return i.Total.Sub(i.PaidAmount)
}

// Reverse resets a paid installment back to unpaid, clearing the payment
// date and penalties. Only legal on a paid installment.
func (i *Installment) Reverse() error {
	if !i.Paid {
		return apperrors.WrapConflict("installment is not marked as paid", apperrors.ErrInstallmentNotPaid)
	}
	i.Paid = false
	i.Status = InstallmentStatusUnpaid
	i.PaidAmount = decimal.Zero
	i.PaymentDate = nil
	i.LateInterest = decimal.Zero
	i.OverdueFine = decimal.Zero
	i.EarlyPaymentCharge = decimal.Zero
	return nil
}

// NewLoan builds a loan and its installment schedule from the calculator.
func NewLoan(userID uuid.UUID, amount decimal.Decimal, durationOverride int, now time.Time) *Loan {
	calc := loancalc.Calculate(amount, durationOverride)
	loan := &Loan{
		ID:             uuid.New(),
		UserID:         userID,
		Amount:         amount,
		DurationMonths: calc.Duration,
		InterestRate:   loancalc.MonthlyInterestRate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, entry := range calc.Schedule {
		loan.Installments = append(loan.Installments, &Installment{
			ID:                 uuid.New(),
			LoanID:             loan.ID,
			Month:              entry.Month,
			Principal:          entry.Principal,
			Interest:           entry.Interest,
			Total:              entry.Total,
			PaidAmount:         decimal.Zero,
			Status:             InstallmentStatusUnpaid,
			LateInterest:       decimal.Zero,
			OverdueFine:        decimal.Zero,
			EarlyPaymentCharge: decimal.Zero,
		})
	}
	return loan
}

// NextUnpaid returns the first installment that is not fully paid, in month
// order, or nil when the schedule is settled.
func (l *Loan) NextUnpaid() *Installment {
	for _, inst := range l.Installments {
		if !inst.Paid {
			return inst
		}
	}
	return nil
}

// AllUnpaid reports whether no installment has been paid yet.
func (l *Loan) AllUnpaid() bool {
	for _, inst := range l.Installments {
		if inst.Paid {
			return false
		}
	}
	return true
}

// Outstanding returns the total remaining across all installments.
func (l *Loan) Outstanding() decimal.Decimal {
	sum := decimal.Zero
	for _, inst := range l.Installments {
		sum = sum.Add(inst.Outstanding())
	}
	return sum
}

// ApplyToInstallment applies up to amount toward one installment and
// returns the portion actually consumed. When the installment reaches its
// total it is settled: marked paid, stamped with the payment date, and the
// penalty fields are computed once against the loan's due dates. Penalties
// are informational and never enter the sufficiency check.
func (l *Loan) ApplyToInstallment(inst *Installment, amount decimal.Decimal, when time.Time) decimal.Decimal {
	needed := inst.Outstanding()
	if needed.LessThanOrEqual(decimal.Zero) || amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	applied := decimal.Min(amount, needed)
	inst.PaidAmount = inst.PaidAmount.Add(applied)

	if inst.PaidAmount.GreaterThanOrEqual(inst.Total) {
		l.settle(inst, when)
	} else {
		inst.Status = InstallmentStatusPartial
	}
	return applied
}

func (l *Loan) settle(inst *Installment, when time.Time) {
	dueDate := loancalc.DueDate(l.CreatedAt, inst.Month)
	termEnd := loancalc.TermEnd(l.CreatedAt, l.DurationMonths)

	if when.After(dueDate) {
		inst.LateInterest = inst.Total.Mul(LatePaymentRate).Round(2)
	}
	if when.After(termEnd) {
		inst.OverdueFine = OverdueFineAmount
	}
	if inst.Month == 1 && when.Before(dueDate) && l.AllUnpaid() {
		inst.EarlyPaymentCharge = EarlyPaymentCharge
	}

	inst.Paid = true
	inst.Status = InstallmentStatusPaid
	paidAt := when
	inst.PaymentDate = &paidAt

	l.RecomputeFullyPaid()
}

// RecomputeFullyPaid re-derives the loan's fullyPaid flag from its
// installments. Invariant: fullyPaid iff every installment is paid.
func (l *Loan) RecomputeFullyPaid() {
	for _, inst := range l.Installments {
		if !inst.Paid {
			l.FullyPaid = false
			return
		}
	}
	l.FullyPaid = true
}

// RepaymentsStarted reports whether any installment has been settled, which
// locks the principal, rate and duration fields against edits.
func (l *Loan) RepaymentsStarted() bool {
	return !l.AllUnpaid()
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	Username       string          `json:"username" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	DurationMonths int             `json:"duration_months" validate:"omitempty,gt=0"`
	Note           string          `json:"note"`
}

type UpdateLoanRequest struct {
	Amount         *decimal.Decimal `json:"amount"`
	InterestRate   *decimal.Decimal `json:"interest_rate"`
	DurationMonths *int             `json:"duration_months"`
	Note           *string          `json:"note"`
}

type RepayInstallmentRequest struct {
	Username    string          `json:"username" validate:"required"`
	LoanID      uuid.UUID       `json:"loan_id" validate:"required"`
	Month       int             `json:"month" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PaymentDate *time.Time      `json:"payment_date"`
}
