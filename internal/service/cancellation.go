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

// CancellationService owns the cancellation request workflow for confirmed
// orders. Requests are first-class records; the order's
// cancellation_requested status is entered when a request is created and left
// when the request is resolved, all within single transactions.
type CancellationService struct {
	db       database.DBTX
	requests repository.CancellationRepository
	engine   *ReservationEngine
	producer EventPublisher
	cache    SummaryStore
	logger   *slog.Logger
}

// NewCancellationService creates a CancellationService.
func NewCancellationService(
	db database.DBTX,
	requests repository.CancellationRepository,
	engine *ReservationEngine,
	producer EventPublisher,
	summaryCache SummaryStore,
	logger *slog.Logger,
) *CancellationService {
	return &CancellationService{
		db:       db,
		requests: requests,
		engine:   engine,
		producer: producer,
		cache:    summaryCache,
		logger:   logger,
	}
}

// Request opens a cancellation request for a confirmed order and moves the
// order to cancellation_requested. Committed stock stays deducted until the
// request is approved. A second request while one is pending fails with
// AlreadyPendingError.
func (s *CancellationService) Request(ctx context.Context, orderID, reason string) (*domain.CancellationRequest, error) {
	req := &domain.CancellationRequest{
		ID:      uuid.New().String(),
		OrderID: orderID,
		Reason:  reason,
		Status:  domain.CancellationStatusPending,
	}

	err := runInTx(ctx, s.db, s.logger, func(tx pgx.Tx) error {
		order, err := lockOrderTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status == domain.OrderStatusCancellationRequested {
			return &domain.AlreadyPendingError{OrderID: orderID}
		}
		if order.Status != domain.OrderStatusConfirmed {
			return &domain.IllegalTransitionError{
				OrderID: orderID, From: order.Status, To: domain.OrderStatusCancellationRequested,
				Reason: "only confirmed orders can request cancellation",
			}
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO cancellation_requests (id, order_id, reason, status)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at`,
			req.ID, req.OrderID, req.Reason, req.Status,
		).Scan(&req.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return &domain.AlreadyPendingError{OrderID: orderID}
			}
			return fmt.Errorf("insert cancellation request: %w", err)
		}

		return setOrderStatusTx(ctx, tx, order, domain.OrderStatusCancellationRequested)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cancellation requested",
		slog.String("order_id", orderID),
		slog.String("request_id", req.ID),
	)
	s.producer.CancellationRequested(ctx, req)
	return req, nil
}

// Resolve settles a pending cancellation request. Approval cancels the order
// and restores its committed stock to inventory; denial returns the order to
// confirmed with no stock movement. Either way the request leaves pending,
// which frees the order for a future request.
func (s *CancellationService) Resolve(ctx context.Context, requestID string, approve bool) (*domain.CancellationRequest, error) {
	var (
		req       *domain.CancellationRequest
		order     *domain.Order
		summaries []*domain.ProductSummary
	)

	err := runInTx(ctx, s.db, s.logger, func(tx pgx.Tx) error {
		var r domain.CancellationRequest
		err := tx.QueryRow(ctx, `
			SELECT id, order_id, reason, status, created_at, processed_at
			FROM cancellation_requests
			WHERE id = $1
			FOR UPDATE`,
			requestID,
		).Scan(&r.ID, &r.OrderID, &r.Reason, &r.Status, &r.CreatedAt, &r.ProcessedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound(fmt.Sprintf("cancellation request %s not found", requestID))
			}
			return fmt.Errorf("lock cancellation request: %w", err)
		}
		if !r.IsPending() {
			return apperrors.Conflict(fmt.Sprintf("cancellation request %s already %s", requestID, r.Status))
		}

		o, err := lockOrderTx(ctx, tx, r.OrderID)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusCancellationRequested {
			return &domain.IllegalTransitionError{
				OrderID: o.ID, From: o.Status, To: domain.OrderStatusCancelled,
				Reason: "order is not awaiting cancellation",
			}
		}

		target := domain.OrderStatusConfirmed
		resolution := domain.CancellationStatusRejected
		if approve {
			target = domain.OrderStatusCancelled
			resolution = domain.CancellationStatusApproved

			summaries, err = s.engine.ApplyTx(ctx, tx, o.ID, domain.OpRestore, o.Items)
			if err != nil {
				return &domain.TransitionFailedError{OrderID: o.ID, Target: target, Cause: err}
			}
		}

		if err := setOrderStatusTx(ctx, tx, o, target); err != nil {
			return &domain.TransitionFailedError{OrderID: o.ID, Target: target, Cause: err}
		}

		err = tx.QueryRow(ctx, `
			UPDATE cancellation_requests
			SET status = $2, processed_at = NOW()
			WHERE id = $1
			RETURNING processed_at`,
			requestID, resolution,
		).Scan(&r.ProcessedAt)
		if err != nil {
			return fmt.Errorf("resolve cancellation request: %w", err)
		}
		r.Status = resolution

		req = &r
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cancellation request resolved",
		slog.String("request_id", requestID),
		slog.String("order_id", req.OrderID),
		slog.String("resolution", req.Status),
	)
	if len(summaries) > 0 {
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
	s.producer.OrderStatusChanged(ctx, order, domain.OrderStatusCancellationRequested)
	return req, nil
}

// GetRequest retrieves a cancellation request by ID.
func (s *CancellationService) GetRequest(ctx context.Context, requestID string) (*domain.CancellationRequest, error) {
	return s.requests.GetByID(ctx, requestID)
}

// GetPending returns the unresolved request for an order, or ErrNotFound.
func (s *CancellationService) GetPending(ctx context.Context, orderID string) (*domain.CancellationRequest, error) {
	return s.requests.GetPendingByOrder(ctx, orderID)
}
