package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger entry types
const (
	TransactionTypeLoan        = "loan"
	TransactionTypeSaving      = "saving"
	TransactionTypeFine        = "fine"
	TransactionTypePayment     = "payment"
	TransactionTypeLoanPayment = "loan_payment"
	TransactionTypePayout      = "payout"
	TransactionTypeCycleReset  = "cycle_reset"
)

// Transaction is one immutable, append-only ledger entry. Amounts are
// stored unsigned; the sign convention lives in SignedAmount. Cycle resets
// carry the new cycle number as structured data.
type Transaction struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	Type         string          `json:"type" db:"type"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	ReferenceID  *uuid.UUID      `json:"reference_id,omitempty" db:"reference_id"`
	Note         string          `json:"note" db:"note"`
	CycleNumber  *int            `json:"cycle_number,omitempty" db:"cycle_number"`
	CycleEndDate *time.Time      `json:"cycle_end_date,omitempty" db:"cycle_end_date"`
	Archived     bool            `json:"archived" db:"archived"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// SignedAmount returns the entry's effect on the bank balance. Loans and
// payouts take money out; savings, repayments and fines bring it in.
func (t *Transaction) SignedAmount() decimal.Decimal {
	switch t.Type {
	case TransactionTypeLoan, TransactionTypePayout:
		return t.Amount.Neg()
	case TransactionTypeSaving, TransactionTypeFine, TransactionTypePayment, TransactionTypeLoanPayment:
		return t.Amount
	default:
		return decimal.Zero
	}
}
