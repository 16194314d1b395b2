package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrLoanNotFound           = errors.New("loan not found")
	ErrInstallmentNotFound    = errors.New("installment not found")
	ErrFineNotFound           = errors.New("fine not found")
	ErrNoActiveLoan           = errors.New("no active loan for member")
	ErrInstallmentNotPaid     = errors.New("installment is not marked as paid")
	ErrInstallmentAlreadyPaid = errors.New("installment already paid")
	ErrInsufficientPayment    = errors.New("payment does not cover the installment")
	ErrFineAlreadyPaid        = errors.New("fine is already paid")
	ErrLoanFieldLocked        = errors.New("loan field cannot be edited after repayments have started")
	ErrSavingsOverCap         = errors.New("savings amount exceeds the early-cycle cap")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrForbidden              = errors.New("insufficient permissions")
	ErrTransactionAborted     = errors.New("transaction aborted")
	ErrThresholdNotFound      = errors.New("no threshold found")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeTxAborted     = "TX_ABORTED"
	ErrCodeDatabaseError = "DATABASE_ERROR"
	ErrCodeCacheError    = "CACHE_ERROR"
)

// CodeOf extracts the business error code. Plain errors coming out of the
// storage layer map to DATABASE_ERROR.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ErrCodeDatabaseError
}

// Wrap common errors with business context

func WrapValidation(message string, err error) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, err)
}

func WrapUserNotFound(username string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("User %s not found", username),
		ErrUserNotFound,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapInstallmentNotFound(loanID string, month int) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("Loan %s has no installment for month %d", loanID, month),
		ErrInstallmentNotFound,
	)
}

func WrapNoActiveLoan(username string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("Member %s has no active loan", username),
		ErrNoActiveLoan,
	)
}

func WrapFineNotFound(fineID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("Fine with ID %s not found", fineID),
		ErrFineNotFound,
	)
}

func WrapForbidden(role string) *BusinessError {
	return NewBusinessError(
		ErrCodeForbidden,
		fmt.Sprintf("Role %s is not permitted to perform this operation", role),
		ErrForbidden,
	)
}

func WrapConflict(message string, err error) *BusinessError {
	return NewBusinessError(ErrCodeConflict, message, err)
}

func WrapTxAborted(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeTxAborted,
		"atomic operation failed, all writes rolled back",
		errors.Join(ErrTransactionAborted, err),
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
