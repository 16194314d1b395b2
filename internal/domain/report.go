package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report filter selectors
const (
	ReportTypeLoans        = "loans"
	ReportTypeSavings      = "savings"
	ReportTypeTransactions = "transactions"
	ReportTypeFines        = "fines"

	CycleFilterCurrent    = "current"
	CycleFilterHistorical = "historical"
)

// ReportFilter selects live or archived records, optionally pinned to one
// cycle number.
type ReportFilter struct {
	CycleType   string
	CycleNumber *int
}

// LoanReportRow is one loan installment flattened with its member.
type LoanReportRow struct {
	CycleNumber        *int            `json:"cycle_number,omitempty"`
	Username           string          `json:"username"`
	Name               string          `json:"name"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	DurationMonths     int             `json:"duration_months"`
	Month              int             `json:"month"`
	Principal          decimal.Decimal `json:"principal"`
	Interest           decimal.Decimal `json:"interest"`
	Total              decimal.Decimal `json:"total"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	Remaining          decimal.Decimal `json:"remaining"`
	Paid               bool            `json:"paid"`
	PaymentDate        *time.Time      `json:"payment_date,omitempty"`
	LateInterest       decimal.Decimal `json:"late_interest"`
	OverdueFine        decimal.Decimal `json:"overdue_fine"`
	EarlyPaymentCharge decimal.Decimal `json:"early_payment_charge"`
	FullyPaid          bool            `json:"fully_paid"`
	LoanCreatedAt      time.Time       `json:"loan_created_at"`
}

type SavingReportRow struct {
	CycleNumber    *int            `json:"cycle_number,omitempty"`
	Username       string          `json:"username"`
	Name           string          `json:"name"`
	Month          int             `json:"month"`
	Amount         decimal.Decimal `json:"amount"`
	Fine           decimal.Decimal `json:"fine"`
	InterestEarned decimal.Decimal `json:"interest_earned"`
	Date           time.Time       `json:"date"`
}

type TransactionReportRow struct {
	CycleNumber *int            `json:"cycle_number,omitempty"`
	Username    string          `json:"username"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note"`
	Date        time.Time       `json:"date"`
}

type FineReportRow struct {
	CycleNumber *int            `json:"cycle_number,omitempty"`
	Username    string          `json:"username"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note"`
	IssuedBy    string          `json:"issued_by"`
	IssuedAt    time.Time       `json:"issued_at"`
	Paid        bool            `json:"paid"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

// CycleSnapshot is the exportable state captured before a cycle reset.
type CycleSnapshot struct {
	Loans          []LoanReportRow        `json:"loans"`
	Savings        []SavingReportRow      `json:"savings"`
	Transactions   []TransactionReportRow `json:"transactions"`
	Fines          []FineReportRow        `json:"fines"`
	ClosingBalance decimal.Decimal        `json:"closing_balance"`
	GeneratedAt    time.Time              `json:"generated_at"`
}
