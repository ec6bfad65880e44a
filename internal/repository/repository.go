package repository

import (
	"context"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
)

// StockRepository defines read access to the stock ledger tables. All counter
// mutations go through the StockLedger service, which is the only writer.
type StockRepository interface {
	// GetVariant retrieves the counters for one (product, size) variant.
	GetVariant(ctx context.Context, productID, size string) (*domain.Variant, error)

	// ListVariants returns all variants of a product.
	ListVariants(ctx context.Context, productID string) ([]domain.Variant, error)

	// GetProductSummary retrieves the rollup row for a product.
	GetProductSummary(ctx context.Context, productID string) (*domain.ProductSummary, error)

	// ListLowStock returns products whose available stock is at or below the
	// low threshold, most depleted first.
	ListLowStock(ctx context.Context, page, perPage int) ([]domain.ProductSummary, int, error)

	// ListMovements returns the movement journal for a variant, newest first.
	ListMovements(ctx context.Context, productID, size string, page, perPage int) ([]domain.Movement, int, error)
}

// OrderFilter narrows ListOrders results.
type OrderFilter struct {
	Status  string
	Kind    string
	Page    int
	PerPage int
}

// OrderRepository defines read access to orders. Status mutations happen
// inside lifecycle transactions owned by the service layer.
type OrderRepository interface {
	// GetByID retrieves an order with its line items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns a filtered, paginated list of orders without line items.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
}

// CancellationRepository defines read access to cancellation requests.
type CancellationRepository interface {
	// GetByID retrieves a cancellation request.
	GetByID(ctx context.Context, id string) (*domain.CancellationRequest, error)

	// GetPendingByOrder returns the unresolved request for an order, or
	// ErrNotFound when none exists.
	GetPendingByOrder(ctx context.Context, orderID string) (*domain.CancellationRequest, error)
}
