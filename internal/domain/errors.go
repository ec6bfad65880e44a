package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

// Shortfall describes one line item that could not be reserved.
type Shortfall struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStockError is returned when the reservation pre-flight fails.
// It carries every short line of the order, not just the first one found, so
// callers can present the full picture in one round trip.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = fmt.Sprintf("product %s size %s: requested %d, available %d",
			s.ProductID, s.Size, s.Requested, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error {
	return apperrors.ErrConflict
}

// InvariantViolationError is returned when applying a delta would break a
// counter invariant. Correctly sequenced calls never produce it; it is
// logged as a severe condition wherever it surfaces.
type InvariantViolationError struct {
	ProductID string
	Size      string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("stock invariant violated for product %s size %s: %s",
		e.ProductID, e.Size, e.Detail)
}

func (e *InvariantViolationError) Unwrap() error {
	return apperrors.ErrInternal
}

// IllegalTransitionError is returned when an order status change is not
// permitted from the current state.
type IllegalTransitionError struct {
	OrderID string
	From    string
	To      string
	Reason  string
}

func (e *IllegalTransitionError) Error() string {
	msg := fmt.Sprintf("order %s: illegal transition %s -> %s", e.OrderID, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *IllegalTransitionError) Unwrap() error {
	return apperrors.ErrConflict
}

// AlreadyPendingError is returned when a cancellation request is created
// while another one is still unresolved for the same order.
type AlreadyPendingError struct {
	OrderID string
}

func (e *AlreadyPendingError) Error() string {
	return fmt.Sprintf("order %s already has a pending cancellation request", e.OrderID)
}

func (e *AlreadyPendingError) Unwrap() error {
	return apperrors.ErrAlreadyExists
}

// TransitionFailedError wraps the underlying cause when a lifecycle
// transition's transaction is aborted. The order remains in its prior state.
type TransitionFailedError struct {
	OrderID string
	Target  string
	Cause   error
}

func (e *TransitionFailedError) Error() string {
	return fmt.Sprintf("order %s: transition to %s failed: %v", e.OrderID, e.Target, e.Cause)
}

func (e *TransitionFailedError) Unwrap() error {
	return e.Cause
}
