package domain

import "time"

// Cancellation request statuses.
const (
	CancellationStatusPending  = "pending"
	CancellationStatusApproved = "approved"
	CancellationStatusRejected = "rejected"
)

// CancellationRequest is a first-class entity, not a flag on the order. At
// most one pending request may exist per order at a time; the persistence
// layer enforces this with a partial unique index. The UI's "Cancellation
// Requested" badge is a projection of an unresolved request existing.
type CancellationRequest struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// IsPending reports whether the request is still unresolved.
func (cr *CancellationRequest) IsPending() bool {
	return cr.Status == CancellationStatusPending
}
