package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kurtadodoli/sevenfour-sub006/internal/repository"
	"github.com/kurtadodoli/sevenfour-sub006/internal/service"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/httputil"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/validator"
)

// OrderHandler handles HTTP requests for order lifecycle endpoints.
type OrderHandler struct {
	orders        *service.OrderService
	cancellations *service.CancellationService
	logger        *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders *service.OrderService, cancellations *service.CancellationService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:        orders,
		cancellations: cancellations,
		logger:        logger,
	}
}

// --- Request DTOs ---

// TransitionRequest is the JSON request body for a lifecycle transition.
type TransitionRequest struct {
	Target string `json:"target" validate:"required"`
}

// CancellationRequestBody is the JSON request body for opening a cancellation request.
type CancellationRequestBody struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// ResolveCancellationRequest is the JSON request body for settling a cancellation request.
type ResolveCancellationRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// --- Handlers ---

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// GetOrder handles GET /api/v1/orders/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID.String())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)
	filter := repository.OrderFilter{
		Status:  r.URL.Query().Get("status"),
		Kind:    r.URL.Query().Get("order_kind"),
		Page:    page,
		PerPage: perPage,
	}

	orders, total, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, page, perPage))
}

// Transition handles POST /api/v1/orders/{orderId}/transition
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.Transition(r.Context(), orderID.String(), req.Target)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// RequestCancellation handles POST /api/v1/orders/{orderId}/cancellation
func (h *OrderHandler) RequestCancellation(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CancellationRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	request, err := h.cancellations.Request(r.Context(), orderID.String(), req.Reason)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: request})
}

// GetPendingCancellation handles GET /api/v1/orders/{orderId}/cancellation
func (h *OrderHandler) GetPendingCancellation(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	request, err := h.cancellations.GetPending(r.Context(), orderID.String())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: request})
}

// ResolveCancellation handles POST /api/v1/cancellations/{requestId}/resolve
func (h *OrderHandler) ResolveCancellation(w http.ResponseWriter, r *http.Request) {
	requestID, ok := httputil.ParseUUID(w, chi.URLParam(r, "requestId"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ResolveCancellationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	request, err := h.cancellations.Resolve(r.Context(), requestID.String(), *req.Approve)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: request})
}
