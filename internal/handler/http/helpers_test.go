package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
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

// noopPublisher satisfies service.EventPublisher for handler tests.
type noopPublisher struct{}

func (noopPublisher) StockUpdated(context.Context, *domain.ProductSummary)        {}
func (noopPublisher) OrderStatusChanged(context.Context, *domain.Order, string)   {}
func (noopPublisher) CancellationRequested(context.Context, *domain.CancellationRequest) {}
func (noopPublisher) PaymentVerified(context.Context, string)                     {}

// noopStore satisfies service.SummaryStore for handler tests.
type noopStore struct{}

func (noopStore) Get(context.Context, string) (*domain.ProductSummary, error) {
	return nil, apperrors.ErrNotFound
}
func (noopStore) Save(context.Context, *domain.ProductSummary) error { return nil }
func (noopStore) Invalidate(context.Context, ...string) error        { return nil }

func doJSON(t *testing.T, router chi.Router, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func errorField(t *testing.T, rec *httptest.ResponseRecorder, field string) any {
	t.Helper()
	envelope := decodeEnvelope(t, rec)
	errObj, ok := envelope["error"].(map[string]any)
	require.True(t, ok, "response has no error object: %s", rec.Body.String())
	return errObj[field]
}

var testOrderCols = []string{
	"id", "order_kind", "status", "payment_status", "design_status", "notes",
	"created_at", "updated_at", "placed_at", "confirmed_at", "delivered_at", "cancelled_at", "rejected_at",
}

var testItemCols = []string{"id", "order_id", "product_id", "size", "quantity"}

var testVariantCols = []string{"product_id", "size", "stock_quantity", "reserved_quantity", "updated_at"}

func expectOrderLocked(mock pgxmock.PgxPoolIface, order *domain.Order) {
	now := time.Now()
	mock.ExpectQuery(`SELECT id, order_kind, status, payment_status, design_status, notes`).
		WithArgs(order.ID).
		WillReturnRows(pgxmock.NewRows(testOrderCols).AddRow(
			order.ID, order.Kind, order.Status, order.PaymentStatus, order.DesignStatus, order.Notes,
			now, now, nil, nil, nil, nil, nil,
		))

	itemRows := pgxmock.NewRows(testItemCols)
	for _, item := range order.Items {
		itemRows.AddRow(item.ID, order.ID, item.ProductID, item.Size, item.Quantity)
	}
	mock.ExpectQuery(`SELECT id, order_id, product_id, size, quantity`).
		WithArgs(order.ID).
		WillReturnRows(itemRows)
}
