package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the service layer.
var (
	// ErrNotFound is returned when a product or an order does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the actor is neither the order owner nor an admin.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyPaid is returned when a payment confirmation arrives for an
	// order whose isPaid flag is already set.
	ErrAlreadyPaid = errors.New("order is already paid")

	// ErrInvalidState is returned when an operation is not allowed in the
	// order's current status, e.g. cancelling a shipped order.
	ErrInvalidState = errors.New("operation not allowed in current order state")
)

// ValidationError reports malformed input rejected before any side effect.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Msg
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ProductUnavailableError reports an inactive product in a checkout request.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return "product " + e.ProductID + " is unavailable"
}

// InsufficientStockError reports a product whose stock cannot cover the
// requested quantity. Available carries the stock observed at check time.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available,
	)
}

// ReservationConflictError reports a lost race on the atomic stock decrement.
// All decrements granted before the conflicting item have been compensated.
type ReservationConflictError struct {
	ProductID string
}

func (e *ReservationConflictError) Error() string {
	return "reservation conflict on product " + e.ProductID
}
