package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/internal/repository"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/database"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, order_kind, status, payment_status, design_status, notes,
		created_at, updated_at, placed_at, confirmed_at, delivered_at, cancelled_at, rejected_at`

func scanOrder(row pgx.Row, o *domain.Order) error {
	return row.Scan(
		&o.ID,
		&o.Kind,
		&o.Status,
		&o.PaymentStatus,
		&o.DesignStatus,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.PlacedAt,
		&o.ConfirmedAt,
		&o.DeliveredAt,
		&o.CancelledAt,
		&o.RejectedAt,
	)
}

// GetByID retrieves an order with its line items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o domain.Order
	if err := scanOrder(r.pool.QueryRow(ctx, query, id), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	items, err := r.getItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *OrderRepository) getItems(ctx context.Context, orderID string) ([]domain.LineItem, error) {
	query := `
		SELECT id, order_id, product_id, size, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id, size`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var it domain.LineItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Size, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order item rows: %w", err)
	}

	if items == nil {
		items = []domain.LineItem{}
	}

	return items, nil
}

// List returns a filtered, paginated list of orders without line items.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}

	var (
		conditions []string
		args       []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, "order_kind = $"+strconv.Itoa(len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.PerPage)
	limitArg := "$" + strconv.Itoa(len(args))
	args = append(args, (filter.Page-1)*filter.PerPage)
	offsetArg := "$" + strconv.Itoa(len(args))

	query := `SELECT ` + orderColumns + `, count(*) OVER() AS total_count
		FROM orders ` + where + `
		ORDER BY created_at DESC
		LIMIT ` + limitArg + ` OFFSET ` + offsetArg

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders     []domain.Order
		totalCount int
	)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.Kind,
			&o.Status,
			&o.PaymentStatus,
			&o.DesignStatus,
			&o.Notes,
			&o.CreatedAt,
			&o.UpdatedAt,
			&o.PlacedAt,
			&o.ConfirmedAt,
			&o.DeliveredAt,
			&o.CancelledAt,
			&o.RejectedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	return orders, totalCount, nil
}
