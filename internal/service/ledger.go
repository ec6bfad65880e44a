package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/database"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

// StockLedger owns every mutation of the stock counters. All writes to
// product_variants and the products rollup go through its transaction-scoped
// helpers, so callers compose them inside a single transaction and the
// counters, rollup, and movement journal can never drift apart.
type StockLedger struct {
	db         database.DBTX
	thresholds domain.StockThresholds
	logger     *slog.Logger
}

// NewStockLedger creates a StockLedger with the given classification thresholds.
func NewStockLedger(db database.DBTX, thresholds domain.StockThresholds, logger *slog.Logger) *StockLedger {
	return &StockLedger{
		db:         db,
		thresholds: thresholds,
		logger:     logger,
	}
}

// LockVariantTx loads a variant row under FOR UPDATE, serializing concurrent
// mutations of the same (product, size) pair for the remainder of tx.
func (l *StockLedger) LockVariantTx(ctx context.Context, tx pgx.Tx, productID, size string) (*domain.Variant, error) {
	query := `
		SELECT product_id, size, stock_quantity, reserved_quantity, updated_at
		FROM product_variants
		WHERE product_id = $1 AND size = $2
		FOR UPDATE`

	var v domain.Variant
	err := tx.QueryRow(ctx, query, productID, size).Scan(
		&v.ProductID, &v.Size, &v.StockQuantity, &v.ReservedQuantity, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("variant %s/%s not found", productID, size))
		}
		return nil, fmt.Errorf("lock variant: %w", err)
	}
	return &v, nil
}

// ApplyDeltaTx adds the delta pair to a variant's counters and verifies the
// invariants on the result. The caller must already hold the row lock. On an
// invariant violation the returned error aborts the surrounding transaction,
// so the counters are never left in an illegal state.
func (l *StockLedger) ApplyDeltaTx(ctx context.Context, tx pgx.Tx, productID, size string, stockDelta, reservedDelta int) (*domain.Variant, error) {
	query := `
		UPDATE product_variants
		SET stock_quantity = stock_quantity + $3,
		    reserved_quantity = reserved_quantity + $4,
		    updated_at = NOW()
		WHERE product_id = $1 AND size = $2
		RETURNING product_id, size, stock_quantity, reserved_quantity, updated_at`

	var v domain.Variant
	err := tx.QueryRow(ctx, query, productID, size, stockDelta, reservedDelta).Scan(
		&v.ProductID, &v.Size, &v.StockQuantity, &v.ReservedQuantity, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("variant %s/%s not found", productID, size))
		}
		return nil, fmt.Errorf("apply stock delta: %w", err)
	}

	if err := v.CheckInvariants(); err != nil {
		l.logger.ErrorContext(ctx, "stock invariant violated",
			slog.String("product_id", productID),
			slog.String("size", size),
			slog.Int("stock_delta", stockDelta),
			slog.Int("reserved_delta", reservedDelta),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return &v, nil
}

// RecordMovementTx appends one journal entry for a counter mutation.
func (l *StockLedger) RecordMovementTx(ctx context.Context, tx pgx.Tx, productID, size string, stockDelta, reservedDelta int, reason string, referenceID *string) error {
	query := `
		INSERT INTO stock_movements (id, product_id, size, stock_delta, reserved_delta, reason, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		uuid.New().String(), productID, size, stockDelta, reservedDelta, reason, referenceID,
	)
	if err != nil {
		return fmt.Errorf("record stock movement: %w", err)
	}
	return nil
}

// RecomputeRollupTx rebuilds the product rollup from its variant rows and
// reclassifies the stock status. Must run in the same transaction as the
// variant mutation it follows.
func (l *StockLedger) RecomputeRollupTx(ctx context.Context, tx pgx.Tx, productID string) (*domain.ProductSummary, error) {
	sumQuery := `
		SELECT COALESCE(SUM(stock_quantity), 0),
		       COALESCE(SUM(stock_quantity - reserved_quantity), 0),
		       COALESCE(SUM(reserved_quantity), 0)
		FROM product_variants
		WHERE product_id = $1`

	var total, available, reserved int
	if err := tx.QueryRow(ctx, sumQuery, productID).Scan(&total, &available, &reserved); err != nil {
		return nil, fmt.Errorf("sum variant counters: %w", err)
	}

	status := l.thresholds.ClassifyStock(available)

	updateQuery := `
		UPDATE products
		SET total_stock = $2,
		    total_available_stock = $3,
		    total_reserved_stock = $4,
		    stock_status = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, total_stock, total_available_stock, total_reserved_stock, stock_status, updated_at`

	var s domain.ProductSummary
	err := tx.QueryRow(ctx, updateQuery, productID, total, available, reserved, status).Scan(
		&s.ProductID, &s.TotalStock, &s.TotalAvailableStock, &s.TotalReservedStock, &s.StockStatus, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("product %s not found", productID))
		}
		return nil, fmt.Errorf("update product rollup: %w", err)
	}
	return &s, nil
}

// InitializeVariant creates or tops up a variant with an absolute stock
// quantity and journals the change as an initial load. The product row is
// created on first use.
func (l *StockLedger) InitializeVariant(ctx context.Context, productID, size, productName string, quantity int) (*domain.Variant, error) {
	if quantity < 0 {
		return nil, apperrors.InvalidInput("stock quantity must not be negative")
	}

	var variant *domain.Variant
	err := runInTx(ctx, l.db, l.logger, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO products (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING`,
			productID, productName,
		)
		if err != nil {
			return fmt.Errorf("ensure product row: %w", err)
		}

		query := `
			INSERT INTO product_variants (product_id, size, stock_quantity, reserved_quantity)
			VALUES ($1, $2, $3, 0)
			ON CONFLICT (product_id, size)
			DO UPDATE SET stock_quantity = product_variants.stock_quantity + EXCLUDED.stock_quantity,
			              updated_at = NOW()
			RETURNING product_id, size, stock_quantity, reserved_quantity, updated_at`

		var v domain.Variant
		if err := tx.QueryRow(ctx, query, productID, size, quantity).Scan(
			&v.ProductID, &v.Size, &v.StockQuantity, &v.ReservedQuantity, &v.UpdatedAt,
		); err != nil {
			return fmt.Errorf("upsert variant: %w", err)
		}

		if err := l.RecordMovementTx(ctx, tx, productID, size, quantity, 0, domain.MovementReasonInitial, nil); err != nil {
			return err
		}
		if _, err := l.RecomputeRollupTx(ctx, tx, productID); err != nil {
			return err
		}

		variant = &v
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "variant stock initialized",
		slog.String("product_id", productID),
		slog.String("size", size),
		slog.Int("quantity", quantity),
	)
	return variant, nil
}

// Adjust applies a manual correction to a variant's on-hand stock, for
// example after a physical recount. Reserved stock is never touched here.
func (l *StockLedger) Adjust(ctx context.Context, productID, size string, delta int, reason string) (*domain.Variant, error) {
	if delta == 0 {
		return nil, apperrors.InvalidInput("adjustment delta must not be zero")
	}
	if !domain.IsValidMovementReason(reason) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown movement reason %q", reason))
	}

	var variant *domain.Variant
	err := runInTx(ctx, l.db, l.logger, func(tx pgx.Tx) error {
		cur, err := l.LockVariantTx(ctx, tx, productID, size)
		if err != nil {
			return err
		}
		if cur.StockQuantity+delta < cur.ReservedQuantity {
			return apperrors.Conflict(fmt.Sprintf(
				"adjustment would drop stock below the %d units currently reserved", cur.ReservedQuantity))
		}
		v, err := l.ApplyDeltaTx(ctx, tx, productID, size, delta, 0)
		if err != nil {
			return err
		}
		if err := l.RecordMovementTx(ctx, tx, productID, size, delta, 0, reason, nil); err != nil {
			return err
		}
		if _, err := l.RecomputeRollupTx(ctx, tx, productID); err != nil {
			return err
		}
		variant = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "stock adjusted",
		slog.String("product_id", productID),
		slog.String("size", size),
		slog.Int("delta", delta),
		slog.String("reason", reason),
	)
	return variant, nil
}
