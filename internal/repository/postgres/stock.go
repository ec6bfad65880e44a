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

// StockRepository implements repository.StockRepository using PostgreSQL.
type StockRepository struct {
	pool database.DBTX
}

// NewStockRepository creates a PostgreSQL-backed stock repository.
func NewStockRepository(pool database.DBTX) *StockRepository {
	return &StockRepository{pool: pool}
}

// GetVariant retrieves the counters for one (product, size) variant.
func (r *StockRepository) GetVariant(ctx context.Context, productID, size string) (*domain.Variant, error) {
	query := `
		SELECT product_id, size, stock_quantity, reserved_quantity, updated_at
		FROM product_variants
		WHERE product_id = $1 AND size = $2`

	var v domain.Variant
	err := r.pool.QueryRow(ctx, query, productID, size).Scan(
		&v.ProductID,
		&v.Size,
		&v.StockQuantity,
		&v.ReservedQuantity,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}

	return &v, nil
}

// ListVariants returns all variants of a product ordered by size.
func (r *StockRepository) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	query := `
		SELECT product_id, size, stock_quantity, reserved_quantity, updated_at
		FROM product_variants
		WHERE product_id = $1
		ORDER BY size ASC`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ProductID, &v.Size, &v.StockQuantity, &v.ReservedQuantity, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan variant row: %w", err)
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant rows: %w", err)
	}

	if variants == nil {
		variants = []domain.Variant{}
	}

	return variants, nil
}

// GetProductSummary retrieves the rollup row for a product.
func (r *StockRepository) GetProductSummary(ctx context.Context, productID string) (*domain.ProductSummary, error) {
	query := `
		SELECT id, total_stock, total_available_stock, total_reserved_stock, stock_status, updated_at
		FROM products
		WHERE id = $1`

	var s domain.ProductSummary
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&s.ProductID,
		&s.TotalStock,
		&s.TotalAvailableStock,
		&s.TotalReservedStock,
		&s.StockStatus,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get product summary: %w", err)
	}

	return &s, nil
}

// ListLowStock returns products whose available stock is at or below the low
// threshold, most depleted first.
func (r *StockRepository) ListLowStock(ctx context.Context, page, perPage int) ([]domain.ProductSummary, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}

	offset := (page - 1) * perPage

	query := `
		SELECT id, total_stock, total_available_stock, total_reserved_stock, stock_status, updated_at,
		       count(*) OVER() AS total_count
		FROM products
		WHERE stock_status IN ('low_stock', 'critical_stock', 'out_of_stock')
		ORDER BY total_available_stock ASC, updated_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()

	var (
		summaries  []domain.ProductSummary
		totalCount int
	)

	for rows.Next() {
		var s domain.ProductSummary
		if err := rows.Scan(
			&s.ProductID,
			&s.TotalStock,
			&s.TotalAvailableStock,
			&s.TotalReservedStock,
			&s.StockStatus,
			&s.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan low stock row: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate low stock rows: %w", err)
	}

	if summaries == nil {
		summaries = []domain.ProductSummary{}
	}

	return summaries, totalCount, nil
}

// ListMovements returns the movement journal for a variant, newest first.
func (r *StockRepository) ListMovements(ctx context.Context, productID, size string, page, perPage int) ([]domain.Movement, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}

	offset := (page - 1) * perPage

	query := `
		SELECT id, product_id, size, stock_delta, reserved_delta, reason, reference_id, created_at,
		       count(*) OVER() AS total_count
		FROM stock_movements
		WHERE product_id = $1 AND size = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, productID, size, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var (
		movements  []domain.Movement
		totalCount int
	)

	for rows.Next() {
		var m domain.Movement
		if err := rows.Scan(
			&m.ID,
			&m.ProductID,
			&m.Size,
			&m.StockDelta,
			&m.ReservedDelta,
			&m.Reason,
			&m.ReferenceID,
			&m.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan movement row: %w", err)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate movement rows: %w", err)
	}

	if movements == nil {
		movements = []domain.Movement{}
	}

	return movements, totalCount, nil
}
