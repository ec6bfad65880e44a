package domain

import (
	"time"
)

// Variant is the stock-bearing unit: one (product, size) combination.
// AvailableQuantity is always derived from the two counters and never stored
// independently.
type Variant struct {
	ProductID        string    `json:"product_id"`
	Size             string    `json:"size"`
	StockQuantity    int       `json:"stock_quantity"`
	ReservedQuantity int       `json:"reserved_quantity"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Available returns the quantity purchasable right now.
func (v *Variant) Available() int {
	return v.StockQuantity - v.ReservedQuantity
}

// CheckInvariants verifies the non-negativity and ordering invariants that
// must hold after every counter mutation. A violation indicates a sequencing
// bug upstream, never a normal business condition.
func (v *Variant) CheckInvariants() error {
	switch {
	case v.ReservedQuantity < 0:
		return &InvariantViolationError{
			ProductID: v.ProductID,
			Size:      v.Size,
			Detail:    "reserved_quantity is negative",
		}
	case v.StockQuantity < v.ReservedQuantity:
		return &InvariantViolationError{
			ProductID: v.ProductID,
			Size:      v.Size,
			Detail:    "reserved_quantity exceeds stock_quantity",
		}
	}
	return nil
}

// Movement reasons recorded in the stock movements journal.
const (
	MovementReasonOrder        = "order"
	MovementReasonCancellation = "cancellation"
	MovementReasonReservation  = "reservation"
	MovementReasonRelease      = "release"
	MovementReasonAdjustment   = "adjustment"
	MovementReasonInitial      = "initial"
)

// IsValidMovementReason checks whether the given reason is recognized.
func IsValidMovementReason(reason string) bool {
	switch reason {
	case MovementReasonOrder, MovementReasonCancellation, MovementReasonReservation,
		MovementReasonRelease, MovementReasonAdjustment, MovementReasonInitial:
		return true
	}
	return false
}

// Movement is one journal entry describing a counter mutation. Every write to
// a variant's counters leaves exactly one of these behind.
type Movement struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	Size          string    `json:"size"`
	StockDelta    int       `json:"stock_delta"`
	ReservedDelta int       `json:"reserved_delta"`
	Reason        string    `json:"reason"`
	ReferenceID   *string   `json:"reference_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
