package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Savings policy constants
var (
	SavingsInterestRate     = decimal.NewFromFloat(0.10)
	FirstMonthMinimum       = decimal.NewFromInt(3000)
	LaterMonthMinimum       = decimal.NewFromInt(1000)
	MinimumContributionFine = decimal.NewFromInt(500)
	EarlyCycleSavingsCap    = decimal.NewFromInt(5000)
	EarlyCycleCapFinalMonth = 3
)

// Saving is one member deposit for one month of the cycle.
type Saving struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	Month          int             `json:"month" db:"month"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Date           time.Time       `json:"date" db:"date"`
	Fine           decimal.Decimal `json:"fine" db:"fine"`
	InterestEarned decimal.Decimal `json:"interest_earned" db:"interest_earned"`
	CycleNumber    *int            `json:"cycle_number,omitempty" db:"cycle_number"`
	CycleEndDate   *time.Time      `json:"cycle_end_date,omitempty" db:"cycle_end_date"`
	Archived       bool            `json:"archived" db:"archived"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// ContributionFine returns the minimum-contribution fine for a deposit.
func ContributionFine(month int, amount decimal.Decimal) decimal.Decimal {
	if month == 1 && amount.LessThan(FirstMonthMinimum) {
		return MinimumContributionFine
	}
	if month > 1 && amount.LessThan(LaterMonthMinimum) {
		return MinimumContributionFine
	}
	return decimal.Zero
}

// OverEarlyCycleCap reports whether a deposit breaks the hard cap on
// early-cycle savings.
func OverEarlyCycleCap(month int, amount decimal.Decimal) bool {
	return month <= EarlyCycleCapFinalMonth && amount.GreaterThan(EarlyCycleSavingsCap)
}

type CreateSavingRequest struct {
	Username string          `json:"username" validate:"required"`
	Month    int             `json:"month" validate:"required,gt=0"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Date     *time.Time      `json:"date"`
}
