package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kurtadodoli/sevenfour-sub006/internal/service"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/httputil"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/validator"
)

// PaymentHandler handles the verification gate endpoints for custom orders.
type PaymentHandler struct {
	payments *service.PaymentService
	logger   *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(payments *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger,
	}
}

// ReviewDesignRequest is the JSON request body for a design review decision.
type ReviewDesignRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// VerifyPaymentRequest is the JSON request body for a payment verification decision.
type VerifyPaymentRequest struct {
	Accept *bool `json:"accept" validate:"required"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

// ReviewDesign handles POST /api/v1/orders/{orderId}/design/review
func (h *PaymentHandler) ReviewDesign(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	var req ReviewDesignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.payments.ReviewDesign(r.Context(), orderID.String(), *req.Approve)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// SubmitPayment handles POST /api/v1/orders/{orderId}/payment
func (h *PaymentHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	order, err := h.payments.SubmitPayment(r.Context(), orderID.String())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// VerifyPayment handles POST /api/v1/orders/{orderId}/payment/verify
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.payments.VerifyPayment(r.Context(), orderID.String(), *req.Accept)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
