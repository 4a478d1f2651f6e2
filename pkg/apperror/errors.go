package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a field-level validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidInstrumentType() *AppError {
	return New("VAL_002", "Instrument type must be EQUITY, LOAN or DONATION", http.StatusBadRequest)
}

func ErrDeadlineInPast() *AppError {
	return New("VAL_003", "Deadline must be in the future", http.StatusBadRequest)
}

// ---- Funding rounds (FUND) ----

func ErrFundingClosed() *AppError {
	return New("FUND_001", "Funding round is no longer accepting contributions", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("FUND_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Withdrawals (WDR) ----

func ErrInvalidAmount() *AppError {
	return New("WDR_001", "Invalid amount", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("WDR_002", "Amount exceeds available balance", http.StatusUnprocessableEntity)
}

func ErrRoundNotWithdrawable() *AppError {
	return New("WDR_003", "Round does not allow withdrawals", http.StatusUnprocessableEntity)
}

func ErrDuplicateWithdrawal() *AppError {
	return New("WDR_004", "A withdrawal request is already in flight for this round", http.StatusConflict)
}

func ErrInvalidTransition(from, to string) *AppError {
	return New("WDR_005", fmt.Sprintf("Cannot transition withdrawal from %s to %s", from, to), http.StatusConflict)
}

// ---- Authentication & authorization (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrNotAuthorized() *AppError {
	return New("AUTH_002", "Not permitted to perform this action", http.StatusForbidden)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// ErrConcurrencyConflict signals that the caller's state is unchanged and the
// request is safe to retry.
func ErrConcurrencyConflict(err error) *AppError {
	return Wrap("SYS_002", "Concurrent update conflict, retry the request", http.StatusServiceUnavailable, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}
