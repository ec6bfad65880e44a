package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/internal/service"
)

func newPaymentRouter(t *testing.T) (chi.Router, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newMockPool(t)
	logger := newTestLogger()

	ledger := service.NewStockLedger(mock, domain.DefaultStockThresholds(), logger)
	engine := service.NewReservationEngine(mock, ledger, logger)
	payments := service.NewPaymentService(mock, engine, noopPublisher{}, noopStore{}, logger)
	handler := NewPaymentHandler(payments, logger)

	r := chi.NewRouter()
	r.Post("/api/v1/orders/{orderId}/design/review", handler.ReviewDesign)
	r.Post("/api/v1/orders/{orderId}/payment", handler.SubmitPayment)
	r.Post("/api/v1/orders/{orderId}/payment/verify", handler.VerifyPayment)
	return r, mock
}

func TestVerifyPayment_AcceptLeavesOrderPending(t *testing.T) {
	router, mock := newPaymentRouter(t)

	order := &domain.Order{
		ID: testOrderID, Kind: domain.OrderKindCustom, Status: domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusSubmitted, DesignStatus: domain.DesignStatusApproved,
		Items: []domain.LineItem{{ID: "line-1", ProductID: "3f1a0c2e-9d74-4b8e-9a31-1d2f4b6c8e01", Size: "M", Quantity: 1}},
	}

	mock.ExpectBegin()
	expectOrderLocked(mock, order)
	mock.ExpectExec(`UPDATE orders SET payment_status`).
		WithArgs(testOrderID, domain.PaymentStatusVerified).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders/"+testOrderID+"/payment/verify", map[string]any{
		"accept": true,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "verified", data["payment_status"])
	assert.Equal(t, "pending", data["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPayment_MissingDecision(t *testing.T) {
	router, mock := newPaymentRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders/"+testOrderID+"/payment/verify", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorField(t, rec, "code"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitPayment_RegularOrderRejected(t *testing.T) {
	router, mock := newPaymentRouter(t)

	order := &domain.Order{
		ID: testOrderID, Kind: domain.OrderKindRegular, Status: domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusUnpaid, DesignStatus: domain.DesignStatusPending,
	}

	mock.ExpectBegin()
	expectOrderLocked(mock, order)
	mock.ExpectRollback()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders/"+testOrderID+"/payment", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", errorField(t, rec, "code"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewDesign_InvalidUUID(t *testing.T) {
	router, mock := newPaymentRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders/not-a-uuid/design/review", map[string]any{
		"approve": true,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
