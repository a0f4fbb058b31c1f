package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrVersionConflict   = errors.New("order was modified concurrently")
	ErrDuplicatePending  = errors.New("a pending notification already exists for this order and type")
	ErrOrderNotFound     = errors.New("order not found")
	ErrJobNotFound       = errors.New("notification job not found")
	ErrSequenceExhausted = errors.New("sequence did not return a value")
)

// Stable machine-readable error codes returned to API callers.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidClientData   = "INVALID_CLIENT_DATA"
	CodeInvalidItems        = "INVALID_ITEMS"
	CodeInvalidTotals       = "INVALID_TOTALS"
	CodeTotalMismatch       = "TOTAL_MISMATCH"
	CodeInvalidReceiptURL   = "INVALID_RECEIPT_URL"
	CodeInvalidCancellation = "INVALID_CANCELLATION_REASON"
	CodeInvalidRejection    = "INVALID_REJECTION_REASON"
	CodeInvalidRating       = "INVALID_RATING"
	CodeInvalidAddress      = "INVALID_ADDRESS"
	CodeInvalidStatus       = "INVALID_STATUS"

	CodeSameStatus        = "SAME_STATUS"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodePaymentNotPaid    = "PAYMENT_NOT_CONFIRMED"
	CodeAddressIncomplete = "ADDRESS_INCOMPLETE"
	CodeShipmentRequired  = "SHIPMENT_REQUIRED"
	CodeProofRequired     = "PAYMENT_PROOF_REQUIRED"
	CodePaymentValidated  = "PAYMENT_ALREADY_VALIDATED"
	CodeNotEditable       = "NOT_EDITABLE"
	CodeInvalidState      = "INVALID_STATE"
	CodeCannotDelete      = "CANNOT_DELETE"
	CodeDuplicatePending  = "DUPLICATE_PENDING"
	CodeVersionConflict   = "VERSION_CONFLICT"

	CodeNotFound          = "NOT_FOUND"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeBlocked           = "BLOCKED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
)

// ValidationError reports malformed input.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(code, field, message string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: message}
}

// StateError reports an action the order's current state does not allow.
type StateError struct {
	Code    string
	Message string
	From    OrderStatus
	To      OrderStatus
}

func (e *StateError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("%s (status %s)", e.Message, e.From)
	}
	return fmt.Sprintf("%s (%s -> %s)", e.Message, e.From, e.To)
}

type NotFoundError struct {
	Entity string
	ID     string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// TransientDeliveryError wraps render or dispatch failures in the
// notification path; the queue retries them up to the attempt cap.
type TransientDeliveryError struct {
	Stage string
	Err   error
}

func (e *TransientDeliveryError) Error() string {
	return fmt.Sprintf("notification %s failed: %v", e.Stage, e.Err)
}

func (e *TransientDeliveryError) Unwrap() error { return e.Err }

type AdmissionError struct {
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *AdmissionError) Error() string {
	return e.Message
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
