package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/database"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// fakePublisher records published events so tests can assert on them without
// a broker.
type fakePublisher struct {
	mu               sync.Mutex
	stockUpdates     []domain.ProductSummary
	statusChanges    []string
	cancellations    []string
	paymentsVerified []string
}

func (p *fakePublisher) StockUpdated(_ context.Context, summary *domain.ProductSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stockUpdates = append(p.stockUpdates, *summary)
}

func (p *fakePublisher) OrderStatusChanged(_ context.Context, order *domain.Order, from string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusChanges = append(p.statusChanges, from+"->"+order.Status)
}

func (p *fakePublisher) CancellationRequested(_ context.Context, req *domain.CancellationRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancellations = append(p.cancellations, req.OrderID)
}

func (p *fakePublisher) PaymentVerified(_ context.Context, orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paymentsVerified = append(p.paymentsVerified, orderID)
}

// fakeSummaryStore is an in-memory SummaryStore recording invalidations.
type fakeSummaryStore struct {
	mu          sync.Mutex
	entries     map[string]domain.ProductSummary
	invalidated []string
	getErr      error
	saveErr     error
}

func newFakeSummaryStore() *fakeSummaryStore {
	return &fakeSummaryStore{entries: make(map[string]domain.ProductSummary)}
}

func (s *fakeSummaryStore) Get(_ context.Context, productID string) (*domain.ProductSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	entry, ok := s.entries[productID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &entry, nil
}

func (s *fakeSummaryStore) Save(_ context.Context, summary *domain.ProductSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries[summary.ProductID] = *summary
	return nil
}

func (s *fakeSummaryStore) Invalidate(_ context.Context, productIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range productIDs {
		delete(s.entries, id)
		s.invalidated = append(s.invalidated, id)
	}
	return nil
}

var variantCols = []string{"product_id", "size", "stock_quantity", "reserved_quantity", "updated_at"}

var summaryCols = []string{"id", "total_stock", "total_available_stock", "total_reserved_stock", "stock_status", "updated_at"}

var orderCols = []string{
	"id", "order_kind", "status", "payment_status", "design_status", "notes",
	"created_at", "updated_at", "placed_at", "confirmed_at", "delivered_at", "cancelled_at", "rejected_at",
}

var itemCols = []string{"id", "order_id", "product_id", "size", "quantity"}
