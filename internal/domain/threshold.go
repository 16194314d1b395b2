package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Threshold is the cycle-level forced-savings policy input. Read-only once
// created; the latest record by creation date wins.
type Threshold struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Cycle              string          `json:"cycle" db:"cycle"`
	StartMonth         string          `json:"start_month" db:"start_month"`
	TotalBankBalance   decimal.Decimal `json:"total_bank_balance" db:"total_bank_balance"`
	RetainedAmount     decimal.Decimal `json:"retained_amount" db:"retained_amount"`
	PrepaidInterest    decimal.Decimal `json:"prepaid_interest" db:"prepaid_interest"`
	TotalMembers       int             `json:"total_members" db:"total_members"`
	ThresholdPerMember decimal.Decimal `json:"threshold_per_member" db:"threshold_per_member"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// PerMemberThreshold derives the forced-loan threshold for one member.
func PerMemberThreshold(totalBankBalance, retainedAmount, prepaidInterest decimal.Decimal, totalMembers int) decimal.Decimal {
	return totalBankBalance.
		Sub(retainedAmount).
		Sub(prepaidInterest).
		Div(decimal.NewFromInt(int64(totalMembers))).
		Round(2)
}

type CreateThresholdRequest struct {
	Cycle            string          `json:"cycle" validate:"required"`
	StartMonth       string          `json:"start_month" validate:"required"`
	TotalBankBalance decimal.Decimal `json:"total_bank_balance" validate:"required"`
	RetainedAmount   decimal.Decimal `json:"retained_amount"`
	PrepaidInterest  decimal.Decimal `json:"prepaid_interest"`
	TotalMembers     int             `json:"total_members" validate:"required,gt=0"`
}

// ThresholdDefaulter is a member whose borrowed total falls short of the
// per-member threshold.
type ThresholdDefaulter struct {
	UserID            uuid.UUID       `json:"user_id"`
	Name              string          `json:"name"`
	Username          string          `json:"username"`
	Email             string          `json:"email"`
	TotalLoanObtained decimal.Decimal `json:"total_loan_obtained"`
	Threshold         decimal.Decimal `json:"threshold"`
	ForcedLoan        decimal.Decimal `json:"forced_loan"`
}
