package service

import (
	"context"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
)

// EventPublisher publishes domain events after a transaction commits.
// Implementations must be best-effort: committed state never rolls back over
// a publish failure.
type EventPublisher interface {
	StockUpdated(ctx context.Context, summary *domain.ProductSummary)
	OrderStatusChanged(ctx context.Context, order *domain.Order, from string)
	CancellationRequested(ctx context.Context, req *domain.CancellationRequest)
	PaymentVerified(ctx context.Context, orderID string)
}

// SummaryStore caches product stock summaries.
type SummaryStore interface {
	Get(ctx context.Context, productID string) (*domain.ProductSummary, error)
	Save(ctx context.Context, summary *domain.ProductSummary) error
	Invalidate(ctx context.Context, productIDs ...string) error
}
