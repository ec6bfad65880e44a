package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/httputil"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/logger"
)

// writeDomainError maps the typed inventory errors onto specific response
// codes before falling back to the generic error writer. errors.As walks
// wrapped causes, so a shortfall inside a failed transition still produces
// the detailed payload.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:      "INSUFFICIENT_STOCK",
				Message:   "one or more items cannot be fulfilled",
				Details:   insufficient.Shortfalls,
				RequestID: requestID,
			},
		})
		return
	}

	var illegal *domain.IllegalTransitionError
	if errors.As(err, &illegal) {
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:      "ILLEGAL_TRANSITION",
				Message:   illegal.Error(),
				RequestID: requestID,
			},
		})
		return
	}

	var pending *domain.AlreadyPendingError
	if errors.As(err, &pending) {
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:      "CANCELLATION_ALREADY_PENDING",
				Message:   pending.Error(),
				RequestID: requestID,
			},
		})
		return
	}

	httputil.WriteError(w, r, err, fallback)
}

// parsePagination reads page and per_page query parameters with defaults.
func parsePagination(r *http.Request) (page, perPage int) {
	page = 1
	perPage = 20

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			perPage = n
		}
	}
	return page, perPage
}
