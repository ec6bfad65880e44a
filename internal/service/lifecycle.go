package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/internal/repository"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/database"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

const selectOrderForUpdate = `
	SELECT id, order_kind, status, payment_status, design_status, notes,
	       created_at, updated_at, placed_at, confirmed_at, delivered_at, cancelled_at, rejected_at
	FROM orders
	WHERE id = $1
	FOR UPDATE`

// lockOrderTx loads an order and its line items under FOR UPDATE, serializing
// concurrent lifecycle operations on the same order.
func lockOrderTx(ctx context.Context, tx pgx.Tx, orderID string) (*domain.Order, error) {
	var o domain.Order
	err := tx.QueryRow(ctx, selectOrderForUpdate, orderID).Scan(
		&o.ID, &o.Kind, &o.Status, &o.PaymentStatus, &o.DesignStatus, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt, &o.PlacedAt, &o.ConfirmedAt, &o.DeliveredAt, &o.CancelledAt, &o.RejectedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("order %s not found", orderID))
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, order_id, product_id, size, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id, size`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Size, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return &o, nil
}

// statusTimestampColumn maps a target status to the timestamp column stamped
// when the order first enters it.
func statusTimestampColumn(status string) string {
	switch status {
	case domain.OrderStatusPending:
		return "placed_at"
	case domain.OrderStatusConfirmed:
		return "confirmed_at"
	case domain.OrderStatusDelivered:
		return "delivered_at"
	case domain.OrderStatusCancelled:
		return "cancelled_at"
	case domain.OrderStatusRejected:
		return "rejected_at"
	}
	return ""
}

// setOrderStatusTx persists the new status and stamps its timestamp column.
// Timestamps record the first entry into a status; re-entering confirmed after
// a denied cancellation keeps the original confirmation time.
func setOrderStatusTx(ctx context.Context, tx pgx.Tx, order *domain.Order, target string) error {
	query := `UPDATE orders SET status = $2, updated_at = NOW()`
	if col := statusTimestampColumn(target); col != "" {
		query += `, ` + col + ` = COALESCE(` + col + `, NOW())`
	}
	query += ` WHERE id = $1 RETURNING updated_at`

	if err := tx.QueryRow(ctx, query, order.ID, target).Scan(&order.UpdatedAt); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	order.Status = target
	now := order.UpdatedAt
	switch target {
	case domain.OrderStatusPending:
		if order.PlacedAt == nil {
			order.PlacedAt = &now
		}
	case domain.OrderStatusConfirmed:
		if order.ConfirmedAt == nil {
			order.ConfirmedAt = &now
		}
	case domain.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	case domain.OrderStatusCancelled:
		if order.CancelledAt == nil {
			order.CancelledAt = &now
		}
	case domain.OrderStatusRejected:
		if order.RejectedAt == nil {
			order.RejectedAt = &now
		}
	}
	return nil
}

// opForTransition returns the reservation engine primitive a transition
// triggers, or false when the transition moves no stock.
func opForTransition(from, to string) (domain.StockOperation, bool) {
	switch {
	case from == domain.OrderStatusDraft && to == domain.OrderStatusPending:
		return domain.OpReserve, true
	case from == domain.OrderStatusPending && to == domain.OrderStatusConfirmed:
		return domain.OpCommit, true
	case from == domain.OrderStatusPending && (to == domain.OrderStatusCancelled || to == domain.OrderStatusRejected):
		return domain.OpRelease, true
	case from == domain.OrderStatusCancellationRequested && to == domain.OrderStatusCancelled:
		return domain.OpRestore, true
	}
	return "", false
}

// OrderService drives the order lifecycle state machine. Every transition
// runs in one transaction together with the stock operation it triggers, so
// the order status and the counters always move in lockstep.
type OrderService struct {
	db       database.DBTX
	orders   repository.OrderRepository
	engine   *ReservationEngine
	producer EventPublisher
	cache    SummaryStore
	logger   *slog.Logger
}

// NewOrderService creates an OrderService.
func NewOrderService(
	db database.DBTX,
	orders repository.OrderRepository,
	engine *ReservationEngine,
	producer EventPublisher,
	summaryCache SummaryStore,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		db:       db,
		orders:   orders,
		engine:   engine,
		producer: producer,
		cache:    summaryCache,
		logger:   logger,
	}
}

// CreateOrderItemInput is one requested line of a new order.
type CreateOrderItemInput struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Size      string `json:"size" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput carries the fields needed to create a draft order.
type CreateOrderInput struct {
	Kind  string                 `json:"order_kind" validate:"required,oneof=regular custom"`
	Notes string                 `json:"notes"`
	Items []CreateOrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder creates an order in draft. No stock moves until the order is
// placed; a draft holds nothing.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	seen := make(map[string]struct{}, len(input.Items))
	for _, item := range input.Items {
		key := item.ProductID + "/" + item.Size
		if _, dup := seen[key]; dup {
			return nil, apperrors.InvalidInput(fmt.Sprintf("duplicate line item for variant %s size %s", item.ProductID, item.Size))
		}
		seen[key] = struct{}{}
	}

	order := &domain.Order{
		ID:            uuid.New().String(),
		Kind:          input.Kind,
		Status:        domain.OrderStatusDraft,
		PaymentStatus: domain.PaymentStatusUnpaid,
		DesignStatus:  domain.DesignStatusPending,
		Notes:         input.Notes,
	}

	err := runInTx(ctx, s.db, s.logger, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders (id, order_kind, status, payment_status, design_status, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at`,
			order.ID, order.Kind, order.Status, order.PaymentStatus, order.DesignStatus, order.Notes,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range input.Items {
			line := domain.LineItem{
				ID:        uuid.New().String(),
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Size:      item.Size,
				Quantity:  item.Quantity,
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO order_items (id, order_id, product_id, size, quantity)
				VALUES ($1, $2, $3, $4, $5)`,
				line.ID, line.OrderID, line.ProductID, line.Size, line.Quantity,
			)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23503" {
					return apperrors.InvalidInput(fmt.Sprintf(
						"product %s size %s does not exist", item.ProductID, item.Size))
				}
				return fmt.Errorf("insert order item: %w", err)
			}
			order.Items = append(order.Items, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("order_kind", order.Kind),
		slog.Int("lines", len(order.Items)),
	)
	return order, nil
}

// Transition moves an order to the target status, applying whatever stock
// operation the transition triggers in the same transaction. When the
// transaction aborts, the order stays in its prior state and the returned
// error wraps the cause.
//
// Entering and leaving cancellation_requested is owned by the cancellation
// workflow and rejected here; use CancellationService instead.
func (s *OrderService) Transition(ctx context.Context, orderID, target string) (*domain.Order, error) {
	if !domain.IsValidStatus(target) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", target))
	}

	var (
		order     *domain.Order
		from      string
		summaries []*domain.ProductSummary
	)
	err := runInTx(ctx, s.db, s.logger, func(tx pgx.Tx) error {
		o, err := lockOrderTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		from = o.Status

		if target == domain.OrderStatusCancellationRequested || o.Status == domain.OrderStatusCancellationRequested {
			return &domain.IllegalTransitionError{
				OrderID: orderID, From: o.Status, To: target,
				Reason: "cancellation transitions go through the cancellation request workflow",
			}
		}
		if !o.CanTransitionTo(target) {
			return &domain.IllegalTransitionError{OrderID: orderID, From: o.Status, To: target}
		}
		if target == domain.OrderStatusConfirmed && !o.GateSatisfied() {
			return &domain.IllegalTransitionError{
				OrderID: orderID, From: o.Status, To: target,
				Reason: "custom order requires design approval and verified payment before confirmation",
			}
		}

		if op, ok := opForTransition(o.Status, target); ok {
			summaries, err = s.engine.ApplyTx(ctx, tx, o.ID, op, o.Items)
			if err != nil {
				return &domain.TransitionFailedError{OrderID: orderID, Target: target, Cause: err}
			}
		}

		if err := setOrderStatusTx(ctx, tx, o, target); err != nil {
			return &domain.TransitionFailedError{OrderID: orderID, Target: target, Cause: err}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order transitioned",
		slog.String("order_id", orderID),
		slog.String("from", from),
		slog.String("to", target),
	)
	s.publishStockChanges(ctx, summaries)
	s.producer.OrderStatusChanged(ctx, order, from)
	return order, nil
}

// publishStockChanges invalidates cached summaries and publishes stock events
// for products whose counters moved. Both are best-effort after commit.
func (s *OrderService) publishStockChanges(ctx context.Context, summaries []*domain.ProductSummary) {
	if len(summaries) == 0 {
		return
	}
	ids := make([]string, len(summaries))
	for i, summary := range summaries {
		ids[i] = summary.ProductID
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate summary cache",
			slog.String("error", err.Error()),
		)
	}
	for _, summary := range summaries {
		s.producer.StockUpdated(ctx, summary)
	}
}

// GetOrder retrieves an order with its line items.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListOrders returns a filtered page of orders.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Status != "" && !domain.IsValidStatus(filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", filter.Status))
	}
	if filter.Kind != "" && filter.Kind != domain.OrderKindRegular && filter.Kind != domain.OrderKindCustom {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown order kind %q", filter.Kind))
	}
	return s.orders.List(ctx, filter)
}
