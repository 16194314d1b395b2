package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fine is an independent penalty record issued against a member. The only
// transition is issue -> pay; there is no reversal path.
type Fine struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	UserID               uuid.UUID       `json:"user_id" db:"user_id"`
	Username             string          `json:"username" db:"username"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	Note                 string          `json:"note" db:"note"`
	IssuedBy             uuid.UUID       `json:"issued_by" db:"issued_by"`
	IssuedAt             time.Time       `json:"issued_at" db:"issued_at"`
	Paid                 bool            `json:"paid" db:"paid"`
	PaidAt               *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	PaymentTransactionID *uuid.UUID      `json:"payment_transaction_id,omitempty" db:"payment_transaction_id"`
	CycleNumber          *int            `json:"cycle_number,omitempty" db:"cycle_number"`
	CycleEndDate         *time.Time      `json:"cycle_end_date,omitempty" db:"cycle_end_date"`
	Archived             bool            `json:"archived" db:"archived"`
}

type IssueFineRequest struct {
	Username string          `json:"username" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Note     string          `json:"note"`
}

type PayFineRequest struct {
	FineID uuid.UUID `json:"fine_id" validate:"required"`
}
