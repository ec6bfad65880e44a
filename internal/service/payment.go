package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/database"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

// PaymentService runs the verification gate for custom orders: design review
// and payment proof verification. Passing the gate never confirms the order
// by itself; confirmation stays an explicit lifecycle transition. Failing
// either review rejects the order and releases its reservation in the same
// transaction.
type PaymentService struct {
	db       database.DBTX
	engine   *ReservationEngine
	producer EventPublisher
	cache    SummaryStore
	logger   *slog.Logger
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(
	db database.DBTX,
	engine *ReservationEngine,
	producer EventPublisher,
	summaryCache SummaryStore,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		db:       db,
		engine:   engine,
		producer: producer,
		cache:    summaryCache,
		logger:   logger,
	}
}

// lockCustomPendingOrder loads the order and checks it is a custom order
// still in pending, the only window where gate decisions apply.
func lockCustomPendingOrder(ctx context.Context, tx pgx.Tx, orderID string) (*domain.Order, error) {
	order, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsCustom() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("order %s is not a custom order", orderID))
	}
	if order.Status != domain.OrderStatusPending {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"order %s is %s; gate decisions apply to pending orders only", orderID, order.Status))
	}
	return order, nil
}

// rejectOrderTx rejects the order and releases its reservation.
func (s *PaymentService) rejectOrderTx(ctx context.Context, tx pgx.Tx, order *domain.Order) ([]*domain.ProductSummary, error) {
	summaries, err := s.engine.ApplyTx(ctx, tx, order.ID, domain.OpRelease, order.Items)
	if err != nil {
		return nil, &domain.TransitionFailedError{OrderID: order.ID, Target: domain.OrderStatusRejected, Cause: err}
	}
	if err := setOrderStatusTx(ctx, tx, order, domain.OrderStatusRejected); err != nil {
		return nil, &domain.TransitionFailedError{OrderID: order.ID, Target: domain.OrderStatusRejected, Cause: err}
	}
	return summaries, nil
}

func (s *PaymentService) publishStockChanges(ctx context.Context, summaries []*domain.ProductSummary) {
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

// ReviewDesign records the outcome of the design review on a pending custom
// order. Approval opens half the gate; rejection rejects the order outright
// and frees its reserved stock.
func (s *PaymentService) ReviewDesign(ctx context.Context, orderID string, approve bool) (*domain.Order, error) {
	var (
		order     *domain.Order
		from      string
		summaries []*domain.ProductSummary
	)
	err := runInTx(ctx, s.db, s.logger, func(tx pgx.Tx) error {
		o, err := lockCustomPendingOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.DesignStatus != domain.DesignStatusPending {
			return apperrors.Conflict(fmt.Sprintf("design for order %s already %s", orderID, o.DesignStatus))
		}
		from = o.Status

		designStatus := domain.DesignStatusRejected
		if approve {
			designStatus = domain.DesignStatusApproved
		}
		if _, err := tx.Exec(ctx, `
			UPDATE orders SET design_status = $2, updated_at = NOW() WHERE id = $1`,
			orderID, designStatus,
		); err != nil {
			return fmt.Errorf("update design status: %w", err)
		}
		o.DesignStatus = designStatus

		if !approve {
			summaries, err = s.rejectOrderTx(ctx, tx, o)
			if err != nil {
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "design reviewed",
		slog.String("order_id", orderID),
		slog.String("design_status", order.DesignStatus),
	)
	s.publishStockChanges(ctx, summaries)
	if order.Status != from {
		s.producer.OrderStatusChanged(ctx, order, from)
	}
	return order, nil
}

// SubmitPayment records that the customer has submitted payment proof for a
// pending custom order, moving payment from unpaid to submitted.
func (s *PaymentService) SubmitPayment(ctx context.Context, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := runInTx(ctx, s.db, s.logger, func(tx pgx.Tx) error {
		o, err := lockCustomPendingOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.PaymentStatus != domain.PaymentStatusUnpaid {
			return apperrors.Conflict(fmt.Sprintf("payment for order %s already %s", orderID, o.PaymentStatus))
		}

		if _, err := tx.Exec(ctx, `
			UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`,
			orderID, domain.PaymentStatusSubmitted,
		); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		o.PaymentStatus = domain.PaymentStatusSubmitted
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "payment proof submitted",
		slog.String("order_id", orderID),
	)
	return order, nil
}

// VerifyPayment settles a submitted payment. Acceptance marks the payment
// verified and, with an approved design, completes the gate; the order still
// waits for an explicit confirmation transition. Denial rejects the order and
// frees its reserved stock.
func (s *PaymentService) VerifyPayment(ctx context.Context, orderID string, accept bool) (*domain.Order, error) {
	var (
		order     *domain.Order
		from      string
		summaries []*domain.ProductSummary
	)
	err := runInTx(ctx, s.db, s.logger, func(tx pgx.Tx) error {
		o, err := lockCustomPendingOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.PaymentStatus != domain.PaymentStatusSubmitted {
			return apperrors.Conflict(fmt.Sprintf(
				"payment for order %s is %s; only submitted payments can be verified", orderID, o.PaymentStatus))
		}
		from = o.Status

		paymentStatus := domain.PaymentStatusRejected
		if accept {
			paymentStatus = domain.PaymentStatusVerified
		}
		if _, err := tx.Exec(ctx, `
			UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`,
			orderID, paymentStatus,
		); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		o.PaymentStatus = paymentStatus

		if !accept {
			summaries, err = s.rejectOrderTx(ctx, tx, o)
			if err != nil {
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "payment verification settled",
		slog.String("order_id", orderID),
		slog.String("payment_status", order.PaymentStatus),
	)
	s.publishStockChanges(ctx, summaries)
	if accept {
		s.producer.PaymentVerified(ctx, orderID)
	}
	if order.Status != from {
		s.producer.OrderStatusChanged(ctx, order, from)
	}
	return order, nil
}
