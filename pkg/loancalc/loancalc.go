// Package loancalc computes amortization schedules for village-bank loans.
// Interest is a flat monthly rate applied to the declining principal balance,
// with equal principal installments.
package loancalc

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyInterestRate is the flat rate charged on the remaining principal
// balance each month.
var MonthlyInterestRate = decimal.NewFromFloat(0.10)

// Duration tier boundaries by principal amount.
var (
	tierFourMonths  = decimal.NewFromInt(20000)
	tierThreeMonths = decimal.NewFromInt(5000)
	tierTwoMonths   = decimal.NewFromInt(2000)
)

// Entry is one scheduled monthly repayment.
type Entry struct {
	Month     int
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Total     decimal.Decimal
}

// Result holds the computed duration and per-month schedule.
type Result struct {
	Duration int
	Schedule []Entry
}

// DurationFor returns the repayment term implied by the principal amount.
func DurationFor(amount decimal.Decimal) int {
	switch {
	case amount.GreaterThan(tierFourMonths):
		return 4
	case amount.GreaterThan(tierThreeMonths):
		return 3
	case amount.GreaterThan(tierTwoMonths):
		return 2
	default:
		return 1
	}
}

// Calculate builds the amortization schedule for a principal amount. A
// positive durationOverride skips the tiering rule. Callers are expected to
// reject non-positive amounts before calling.
func Calculate(amount decimal.Decimal, durationOverride int) Result {
	duration := durationOverride
	if duration <= 0 {
		duration = DurationFor(amount)
	}

	installmentPrincipal := amount.Div(decimal.NewFromInt(int64(duration))).Round(2)

	schedule := make([]Entry, 0, duration)
	principalBalance := amount
	for month := 1; month <= duration; month++ {
		interest := principalBalance.Mul(MonthlyInterestRate).Round(2)
		schedule = append(schedule, Entry{
			Month:     month,
			Principal: installmentPrincipal,
			Interest:  interest,
			Total:     installmentPrincipal.Add(interest).Round(2),
		})
		principalBalance = principalBalance.Sub(installmentPrincipal)
	}

	return Result{Duration: duration, Schedule: schedule}
}

// DueDate returns the due date of an installment: the loan creation date
// plus the installment's month offset.
func DueDate(loanCreatedAt time.Time, month int) time.Time {
	return loanCreatedAt.AddDate(0, month, 0)
}

// TermEnd returns the end of the full loan term.
func TermEnd(loanCreatedAt time.Time, durationMonths int) time.Time {
	return loanCreatedAt.AddDate(0, durationMonths, 0)
}
