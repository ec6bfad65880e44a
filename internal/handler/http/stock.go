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

// StockHandler handles HTTP requests for stock endpoints.
type StockHandler struct {
	ledger  *service.StockLedger
	queries *service.StockQueryService
	logger  *slog.Logger
}

// NewStockHandler creates a new stock HTTP handler.
func NewStockHandler(ledger *service.StockLedger, queries *service.StockQueryService, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		ledger:  ledger,
		queries: queries,
		logger:  logger,
	}
}

// --- Request DTOs ---

// InitializeStockRequest is the JSON request body for loading stock into a variant.
type InitializeStockRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid"`
	Size        string `json:"size" validate:"required"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
}

// AdjustStockRequest is the JSON request body for a manual stock correction.
type AdjustStockRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,oneof=adjustment initial"`
}

// --- Handlers ---

// InitializeStock handles POST /api/v1/stock
func (h *StockHandler) InitializeStock(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req InitializeStockRequest
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

	variant, err := h.ledger.InitializeVariant(r.Context(), req.ProductID, req.Size, req.ProductName, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: variant})
}

// AdjustStock handles PUT /api/v1/stock/{productId}/variants/{size}
func (h *StockHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	size := chi.URLParam(r, "size")

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AdjustStockRequest
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

	variant, err := h.ledger.Adjust(r.Context(), productID.String(), size, req.Delta, req.Reason)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: variant})
}

// GetVariant handles GET /api/v1/stock/{productId}/variants/{size}
func (h *StockHandler) GetVariant(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	size := chi.URLParam(r, "size")

	variant, err := h.queries.GetVariant(r.Context(), productID.String(), size)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"product_id":         variant.ProductID,
		"size":               variant.Size,
		"stock_quantity":     variant.StockQuantity,
		"reserved_quantity":  variant.ReservedQuantity,
		"available_quantity": variant.Available(),
		"updated_at":         variant.UpdatedAt,
	}})
}

// ListVariants handles GET /api/v1/stock/{productId}/variants
func (h *StockHandler) ListVariants(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	variants, err := h.queries.ListVariants(r.Context(), productID.String())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	out := make([]map[string]any, len(variants))
	for i, v := range variants {
		out[i] = map[string]any{
			"product_id":         v.ProductID,
			"size":               v.Size,
			"stock_quantity":     v.StockQuantity,
			"reserved_quantity":  v.ReservedQuantity,
			"available_quantity": v.Available(),
			"updated_at":         v.UpdatedAt,
		}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: out})
}

// GetSummary handles GET /api/v1/stock/{productId}/summary
func (h *StockHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	summary, err := h.queries.GetProductSummary(r.Context(), productID.String())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// ListLowStock handles GET /api/v1/stock/low-stock
func (h *StockHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)

	summaries, total, err := h.queries.ListLowStock(r.Context(), page, perPage)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(summaries, total, page, perPage))
}

// ListMovements handles GET /api/v1/stock/{productId}/variants/{size}/movements
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	size := chi.URLParam(r, "size")
	page, perPage := parsePagination(r)

	movements, total, err := h.queries.ListMovements(r.Context(), productID.String(), size, page, perPage)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(movements, total, page, perPage))
}
