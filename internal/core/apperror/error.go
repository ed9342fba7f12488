// Package apperror provides the structured error surface of the ledger core.
// Callers branch on Kind, never on storage driver errors.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal       = "INTERNAL_ERROR"
	CodeInfrastructure = "INFRASTRUCTURE_FAILURE"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"
	CodeTxRequired = "TX_REQUIRED"

	// Business rule violations (422)
	CodeBusinessRule     = "BUSINESS_RULE_VIOLATION"
	CodeBalanceViolation = "BALANCE_VIOLATION"
	CodeInvalidStatus    = "INVALID_STATUS"
	CodePeriodClosed     = "PERIOD_CLOSED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeSerializationConflict  = "SERIALIZATION_CONFLICT"
)

// Kind is the closed classification callers switch on.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindBalanceViolation
	KindConcurrencyConflict
	KindSerializationConflict
	KindInfrastructure
	KindValidation
	KindInternal
)

// String returns a stable name for logs and JSON.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindBalanceViolation:
		return "balance_violation"
	case KindConcurrencyConflict:
		return "concurrency_conflict"
	case KindSerializationConflict:
		return "serialization_conflict"
	case KindInfrastructure:
		return "infrastructure_failure"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// AppError is the standard error type for the ledger core.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (totals, entity names, ids)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Kind classifies the error code.
func (e *AppError) Kind() Kind {
	switch e.Code {
	case CodeNotFound:
		return KindNotFound
	case CodeBalanceViolation:
		return KindBalanceViolation
	case CodeConcurrentModification:
		return KindConcurrencyConflict
	case CodeSerializationConflict:
		return KindSerializationConflict
	case CodeInfrastructure:
		return KindInfrastructure
	case CodeValidation, CodeTxRequired, CodeInvalidStatus, CodePeriodClosed, CodeBusinessRule:
		return KindValidation
	default:
		return KindInternal
	}
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewTxRequired is returned when an operation that must join the caller's
// transaction is invoked outside one, or at a too weak isolation level.
func NewTxRequired(operation, requirement string) *AppError {
	return &AppError{
		Code:       CodeTxRequired,
		Message:    fmt.Sprintf("%s requires %s", operation, requirement),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"operation": operation},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewBalanceViolation reports debit and credit totals that do not match.
// Amounts are passed as strings to keep full decimal precision in JSON.
func NewBalanceViolation(debit, credit, difference string) *AppError {
	return &AppError{
		Code:       CodeBalanceViolation,
		Message:    "Debit total does not equal credit total",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"debit_total":  debit,
			"credit_total": credit,
			"difference":   difference,
		},
	}
}

// NewNoLines rejects a posting without any lines.
func NewNoLines() *AppError {
	return &AppError{
		Code:       CodeBalanceViolation,
		Message:    "no lines to post",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvalidStatus rejects an illegal status transition.
func NewInvalidStatus(entity, from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidStatus,
		Message:    fmt.Sprintf("%s cannot move from %s to %s", entity, from, to),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "from": from, "to": to},
	}
}

// NewPeriodClosed creates error when trying to post into a closed fiscal year
func NewPeriodClosed(period string) *AppError {
	return &AppError{
		Code:       CodePeriodClosed,
		Message:    fmt.Sprintf("Period %s is closed for modifications", period),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"period": period},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewSerializationConflict reports a transaction aborted by the storage
// conflict detector. The whole use case should be restarted.
func NewSerializationConflict(err error) *AppError {
	return &AppError{
		Code:       CodeSerializationConflict,
		Message:    "Transaction conflicted with a concurrent transaction. Please retry.",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

// NewInfrastructure wraps a storage or network failure.
func NewInfrastructure(operation string, err error) *AppError {
	return &AppError{
		Code:       CodeInfrastructure,
		Message:    fmt.Sprintf("%s failed", operation),
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"operation": operation},
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns KindNone for nil and KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind()
	}
	return KindInternal
}

// IsRetryable reports whether re-running the whole use case may succeed.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindConcurrencyConflict, KindSerializationConflict, KindInfrastructure:
		return true
	default:
		return false
	}
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return KindOf(err) == KindConcurrencyConflict
}

// IsSerializationConflict checks if error is CodeSerializationConflict
func IsSerializationConflict(err error) bool {
	return KindOf(err) == KindSerializationConflict
}

// IsBalanceViolation checks if error is CodeBalanceViolation
func IsBalanceViolation(err error) bool {
	return KindOf(err) == KindBalanceViolation
}

// IsInfrastructure checks if error is CodeInfrastructure
func IsInfrastructure(err error) bool {
	return KindOf(err) == KindInfrastructure
}
