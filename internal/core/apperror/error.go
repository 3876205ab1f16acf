// Package apperror defines the errors the API turns into problem responses.
// Domain code returns *AppError for anything a client can act on; everything
// else surfaces as INTERNAL_ERROR.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine readable codes, grouped by response status.
const (
	// 400
	CodeValidation = "VALIDATION_ERROR"

	// 401
	CodeUnauthorized = "UNAUTHORIZED"

	// 404
	CodeNotFound = "NOT_FOUND"

	// 409
	CodeConflict         = "CONFLICT"
	CodeDuplicate        = "DUPLICATE_ENTRY"
	CodeIdempotency      = "IDEMPOTENCY_CONFLICT"
	CodeDuplicatePosting = "DUPLICATE_POSTING"

	// 422
	CodeBusinessRule       = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeInsufficientProfit = "INSUFFICIENT_PROFIT"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodePaymentMismatch    = "PAYMENT_MISMATCH"

	// 500
	CodeInternal = "INTERNAL_ERROR"
)

// AppError is an error with a stable code, a client facing message and the
// status the API answers with. Err is logged, never serialized.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail sets one details entry and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error and returns e.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return newError(http.StatusBadRequest, CodeValidation, message)
}

func NewUnauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, CodeUnauthorized, message)
}

// NewNotFound names the missing entity, e.g. NewNotFound("sale", id).
func NewNotFound(entity string, id any) *AppError {
	return newError(http.StatusNotFound, CodeNotFound, entity+" not found").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

func NewConflict(message string) *AppError {
	return newError(http.StatusConflict, CodeConflict, message)
}

func NewDuplicate(entity, field, value string) *AppError {
	return newError(http.StatusConflict, CodeDuplicate, fmt.Sprintf("%s with this %s already exists", entity, field)).
		WithDetail("entity", entity).
		WithDetail("field", field).
		WithDetail("value", value)
}

// NewDuplicatePosting reports a ledger row whose (reference, sub id) pair
// is already posted.
func NewDuplicatePosting(reference, subID string) *AppError {
	return newError(http.StatusConflict, CodeDuplicatePosting, "Transaction already posted").
		WithDetail("reference", reference).
		WithDetail("reference_sub_id", subID)
}

// NewIdempotencyConflict is returned while the first request with key is
// still running.
func NewIdempotencyConflict(key string) *AppError {
	return newError(http.StatusConflict, CodeIdempotency, "Operation already in progress or completed").
		WithDetail("idempotency_key", key)
}

// NewIdempotencyMismatch is returned when key is reused for another request.
func NewIdempotencyMismatch(key string) *AppError {
	return newError(http.StatusConflict, CodeIdempotency, "Idempotency key mismatch").
		WithDetail("idempotency_key", key)
}

// NewBusinessRule is a 422 with a caller chosen code.
func NewBusinessRule(code, message string) *AppError {
	return newError(http.StatusUnprocessableEntity, code, message)
}

func NewInsufficientStock(variantID string, requested, available int) *AppError {
	return NewBusinessRule(CodeInsufficientStock, "Insufficient stock").
		WithDetail("variant_id", variantID).
		WithDetail("requested", requested).
		WithDetail("available", available)
}

func NewInsufficientProfit(message string) *AppError {
	return NewBusinessRule(CodeInsufficientProfit, message)
}

func NewInsufficientFunds(wallet string, requested, available fmt.Stringer) *AppError {
	return NewBusinessRule(CodeInsufficientFunds, "Insufficient balance in "+wallet).
		WithDetail("wallet", wallet).
		WithDetail("requested", requested.String()).
		WithDetail("available", available.String())
}

// NewPaymentMismatch is returned when payments do not add up to the total.
func NewPaymentMismatch(expected, actual fmt.Stringer) *AppError {
	return NewBusinessRule(CodePaymentMismatch, "Sum of payments does not match the expected amount").
		WithDetail("expected", expected.String()).
		WithDetail("actual", actual.String())
}

// NewInternal hides err behind a generic message.
func NewInternal(err error) *AppError {
	return newError(http.StatusInternalServerError, CodeInternal, "Internal server error").WithCause(err)
}

// AsAppError finds the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus is 500 for anything that is not an *AppError.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err carries code.
func IsCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }

func IsDuplicatePosting(err error) bool { return IsCode(err, CodeDuplicatePosting) }
