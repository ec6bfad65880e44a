package domain

import "time"

// Order kinds.
const (
	OrderKindRegular = "regular"
	OrderKindCustom  = "custom"
)

// Order lifecycle statuses.
const (
	OrderStatusDraft                 = "draft"
	OrderStatusPending               = "pending"
	OrderStatusConfirmed             = "confirmed"
	OrderStatusCancellationRequested = "cancellation_requested"
	OrderStatusDelivered             = "delivered"
	OrderStatusCancelled             = "cancelled"
	OrderStatusRejected              = "rejected"
)

// Payment statuses. Regular orders stay unpaid from this component's point of
// view (payment collection is outside its scope); custom orders walk
// unpaid -> submitted -> verified/rejected through the payment gate.
const (
	PaymentStatusUnpaid    = "unpaid"
	PaymentStatusSubmitted = "submitted"
	PaymentStatusVerified  = "verified"
	PaymentStatusRejected  = "rejected"
)

// Design statuses for custom orders.
const (
	DesignStatusPending  = "pending"
	DesignStatusApproved = "approved"
	DesignStatusRejected = "rejected"
)

// LineItem references one product variant and the quantity ordered.
type LineItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Order covers both regular and custom orders as a tagged union on Kind.
type Order struct {
	ID            string     `json:"id"`
	Kind          string     `json:"order_kind"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	DesignStatus  string     `json:"design_status,omitempty"`
	Items         []LineItem `json:"items"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PlacedAt      *time.Time `json:"placed_at,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	RejectedAt    *time.Time `json:"rejected_at,omitempty"`
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusDraft,
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusCancellationRequested,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRejected,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines the order lifecycle state machine. Terminal
// states are delivered, cancelled, and rejected.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusDraft:                 {OrderStatusPending},
		OrderStatusPending:               {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusRejected},
		OrderStatusConfirmed:             {OrderStatusDelivered, OrderStatusCancellationRequested},
		OrderStatusCancellationRequested: {OrderStatusCancelled, OrderStatusConfirmed},
		OrderStatusDelivered:             {},
		OrderStatusCancelled:             {},
		OrderStatusRejected:              {},
	}
}

// CanTransitionTo checks whether the order may move to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsCustom reports whether the order requires the payment verification gate.
func (o *Order) IsCustom() bool {
	return o.Kind == OrderKindCustom
}

// GateSatisfied reports whether a custom order's confirmation preconditions
// hold: design approved and payment verified. Regular orders have no gate.
func (o *Order) GateSatisfied() bool {
	if !o.IsCustom() {
		return true
	}
	return o.DesignStatus == DesignStatusApproved && o.PaymentStatus == PaymentStatusVerified
}
