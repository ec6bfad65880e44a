package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kurtadodoli/sevenfour-sub006/internal/service"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/health"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/middleware"
)

// NewRouter creates a chi router with all inventory service routes registered.
func NewRouter(
	ledger *service.StockLedger,
	queries *service.StockQueryService,
	orders *service.OrderService,
	cancellations *service.CancellationService,
	payments *service.PaymentService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("inventory"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	stockHandler := NewStockHandler(ledger, queries, logger)
	orderHandler := NewOrderHandler(orders, cancellations, logger)
	paymentHandler := NewPaymentHandler(payments, logger)

	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", stockHandler.InitializeStock)
		r.Get("/low-stock", stockHandler.ListLowStock)
		r.Get("/{productId}/summary", stockHandler.GetSummary)
		r.Get("/{productId}/variants", stockHandler.ListVariants)
		r.Get("/{productId}/variants/{size}", stockHandler.GetVariant)
		r.Put("/{productId}/variants/{size}", stockHandler.AdjustStock)
		r.Get("/{productId}/variants/{size}/movements", stockHandler.ListMovements)
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", orderHandler.CreateOrder)
		r.Get("/", orderHandler.ListOrders)
		r.Get("/{orderId}", orderHandler.GetOrder)
		r.Post("/{orderId}/transition", orderHandler.Transition)

		// Cancellation workflow
		r.Post("/{orderId}/cancellation", orderHandler.RequestCancellation)
		r.Get("/{orderId}/cancellation", orderHandler.GetPendingCancellation)

		// Verification gate for custom orders
		r.Post("/{orderId}/design/review", paymentHandler.ReviewDesign)
		r.Post("/{orderId}/payment", paymentHandler.SubmitPayment)
		r.Post("/{orderId}/payment/verify", paymentHandler.VerifyPayment)
	})

	r.Route("/api/v1/cancellations", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/{requestId}/resolve", orderHandler.ResolveCancellation)
	})

	return r
}
