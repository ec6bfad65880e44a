package event

import (
	"context"
	"log/slog"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/kafka"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/logger"
)

// Kafka topics produced by the inventory service.
const (
	TopicStockUpdated          = "sevenfour.stock.updated"
	TopicLowStock              = "sevenfour.stock.low_stock"
	TopicOrderStatusChanged    = "sevenfour.order.status_changed"
	TopicCancellationRequested = "sevenfour.order.cancellation_requested"
	TopicPaymentVerified       = "sevenfour.payment.verified"
)

// Event types.
const (
	TypeStockUpdated          = "stock.updated"
	TypeLowStock              = "stock.low_stock"
	TypeOrderStatusChanged    = "order.status_changed"
	TypeCancellationRequested = "order.cancellation_requested"
	TypePaymentVerified       = "payment.verified"
)

const source = "inventory-service"

// StockUpdatedPayload describes a product rollup after a stock mutation.
type StockUpdatedPayload struct {
	ProductID           string `json:"product_id"`
	TotalStock          int    `json:"total_stock"`
	TotalAvailableStock int    `json:"total_available_stock"`
	TotalReservedStock  int    `json:"total_reserved_stock"`
	StockStatus         string `json:"stock_status"`
}

// OrderStatusChangedPayload describes one lifecycle transition.
type OrderStatusChangedPayload struct {
	OrderID    string `json:"order_id"`
	OrderKind  string `json:"order_kind"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// CancellationRequestedPayload announces a new pending cancellation request.
type CancellationRequestedPayload struct {
	RequestID string `json:"request_id"`
	OrderID   string `json:"order_id"`
	Reason    string `json:"reason,omitempty"`
}

// PaymentVerifiedPayload announces a verified payment on a custom order.
type PaymentVerifiedPayload struct {
	OrderID string `json:"order_id"`
}

// Producer publishes inventory domain events. Publishing happens after the
// owning transaction commits; a publish failure is logged and swallowed so it
// never rolls back state that is already durable.
type Producer struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewProducer wraps the shared Kafka producer for this service's topics.
func NewProducer(producer *kafka.Producer, log *slog.Logger) *Producer {
	return &Producer{producer: producer, logger: log}
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, payload any) {
	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	if err := p.producer.Publish(ctx, topic, evt); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_type", eventType),
			slog.String("aggregate_id", aggregateID),
			slog.String("error", err.Error()),
		)
	}
}

// StockUpdated publishes the new rollup for a product, plus a low-stock alert
// when the product has dropped out of the in_stock band.
func (p *Producer) StockUpdated(ctx context.Context, summary *domain.ProductSummary) {
	payload := StockUpdatedPayload{
		ProductID:           summary.ProductID,
		TotalStock:          summary.TotalStock,
		TotalAvailableStock: summary.TotalAvailableStock,
		TotalReservedStock:  summary.TotalReservedStock,
		StockStatus:         summary.StockStatus,
	}
	p.publish(ctx, TopicStockUpdated, TypeStockUpdated, summary.ProductID, "product", payload)

	if summary.StockStatus != domain.StockStatusInStock {
		p.publish(ctx, TopicLowStock, TypeLowStock, summary.ProductID, "product", payload)
	}
}

// OrderStatusChanged publishes a lifecycle transition.
func (p *Producer) OrderStatusChanged(ctx context.Context, order *domain.Order, from string) {
	p.publish(ctx, TopicOrderStatusChanged, TypeOrderStatusChanged, order.ID, "order", OrderStatusChangedPayload{
		OrderID:    order.ID,
		OrderKind:  order.Kind,
		FromStatus: from,
		ToStatus:   order.Status,
	})
}

// CancellationRequested publishes a newly created cancellation request.
func (p *Producer) CancellationRequested(ctx context.Context, req *domain.CancellationRequest) {
	p.publish(ctx, TopicCancellationRequested, TypeCancellationRequested, req.OrderID, "order", CancellationRequestedPayload{
		RequestID: req.ID,
		OrderID:   req.OrderID,
		Reason:    req.Reason,
	})
}

// PaymentVerified publishes a successful payment verification.
func (p *Producer) PaymentVerified(ctx context.Context, orderID string) {
	p.publish(ctx, TopicPaymentVerified, TypePaymentVerified, orderID, "order", PaymentVerifiedPayload{
		OrderID: orderID,
	})
}
