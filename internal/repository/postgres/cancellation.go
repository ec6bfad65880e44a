package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/database"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

// CancellationRepository implements repository.CancellationRepository using
// PostgreSQL.
type CancellationRepository struct {
	pool database.DBTX
}

// NewCancellationRepository creates a PostgreSQL-backed cancellation
// repository.
func NewCancellationRepository(pool database.DBTX) *CancellationRepository {
	return &CancellationRepository{pool: pool}
}

const cancellationColumns = `id, order_id, reason, status, created_at, processed_at`

// GetByID retrieves a cancellation request.
func (r *CancellationRepository) GetByID(ctx context.Context, id string) (*domain.CancellationRequest, error) {
	query := `SELECT ` + cancellationColumns + ` FROM cancellation_requests WHERE id = $1`

	var cr domain.CancellationRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&cr.ID,
		&cr.OrderID,
		&cr.Reason,
		&cr.Status,
		&cr.CreatedAt,
		&cr.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get cancellation request by id: %w", err)
	}

	return &cr, nil
}

// GetPendingByOrder returns the unresolved request for an order. The partial
// unique index guarantees at most one row qualifies.
func (r *CancellationRepository) GetPendingByOrder(ctx context.Context, orderID string) (*domain.CancellationRequest, error) {
	query := `SELECT ` + cancellationColumns + `
		FROM cancellation_requests
		WHERE order_id = $1 AND status = 'pending'`

	var cr domain.CancellationRequest
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&cr.ID,
		&cr.OrderID,
		&cr.Reason,
		&cr.Status,
		&cr.CreatedAt,
		&cr.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get pending cancellation request: %w", err)
	}

	return &cr, nil
}
