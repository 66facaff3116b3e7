package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError carrying the same code, so callers can write
// errors.Is(err, errors.New(errors.ErrCodeAlreadyClaimed, "")).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternalError for foreign errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "something went wrong, please try again"
}

// IsPrecondition reports whether err is a business rule rejection rather
// than a store or transport failure. Precondition failures are final and
// must not be retried.
func IsPrecondition(err error) bool {
	switch CodeOf(err) {
	case "", ErrCodeInternalError:
		return false
	}
	return true
}

// Common error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeLedgerMismatch    = "LEDGER_MISMATCH"
)

// Point box claim rejections, in the order they are checked.
const (
	ErrCodeBoxNotFound    = "BOX_NOT_FOUND"
	ErrCodeSelfClaim      = "SELF_CLAIM"
	ErrCodeBoxClosed      = "BOX_CLOSED"
	ErrCodeAlreadyClaimed = "ALREADY_CLAIMED"
	ErrCodeBoxExpired     = "BOX_EXPIRED"
	ErrCodeSoldOut        = "SOLD_OUT"
	ErrCodePoolEmpty      = "POOL_EMPTY"
)
