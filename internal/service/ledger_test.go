package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

func newTestLedger(t *testing.T) (*StockLedger, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newMockPool(t)
	ledger := NewStockLedger(mock, domain.DefaultStockThresholds(), newTestLogger())
	return ledger, mock
}

// expectRollup queues the two queries RecomputeRollupTx issues for productID.
func expectRollup(mock pgxmock.PgxPoolIface, productID string, total, available, reserved int, status string) {
	mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs(productID).
		WillReturnRows(pgxmock.NewRows([]string{"total", "available", "reserved"}).
			AddRow(total, available, reserved))
	mock.ExpectQuery(`UPDATE products`).
		WithArgs(productID, total, available, reserved, status).
		WillReturnRows(pgxmock.NewRows(summaryCols).
			AddRow(productID, total, available, reserved, status, time.Now()))
}

func TestStockLedger_InitializeVariant(t *testing.T) {
	ledger, mock := newTestLedger(t)
	productID := "3f1a0c2e-9d74-4b8e-9a31-1d2f4b6c8e01"

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO products`).
		WithArgs(productID, "Vintage Tee").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`INSERT INTO product_variants`).
		WithArgs(productID, "M", 25).
		WillReturnRows(pgxmock.NewRows(variantCols).
			AddRow(productID, "M", 25, 0, time.Now()))
	mock.ExpectExec(`INSERT INTO stock_movements`).
		WithArgs(pgxmock.AnyArg(), productID, "M", 25, 0, domain.MovementReasonInitial, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectRollup(mock, productID, 25, 25, 0, domain.StockStatusInStock)
	mock.ExpectCommit()

	variant, err := ledger.InitializeVariant(context.Background(), productID, "M", "Vintage Tee", 25)
	require.NoError(t, err)
	assert.Equal(t, 25, variant.StockQuantity)
	assert.Equal(t, 0, variant.ReservedQuantity)
	assert.Equal(t, 25, variant.Available())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_InitializeVariant_NegativeQuantity(t *testing.T) {
	ledger, mock := newTestLedger(t)

	_, err := ledger.InitializeVariant(context.Background(), "p1", "M", "Vintage Tee", -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_Adjust(t *testing.T) {
	ledger, mock := newTestLedger(t)
	productID := "3f1a0c2e-9d74-4b8e-9a31-1d2f4b6c8e01"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT product_id, size, stock_quantity, reserved_quantity, updated_at`).
		WithArgs(productID, "M").
		WillReturnRows(pgxmock.NewRows(variantCols).
			AddRow(productID, "M", 20, 4, time.Now()))
	mock.ExpectQuery(`UPDATE product_variants`).
		WithArgs(productID, "M", -3, 0).
		WillReturnRows(pgxmock.NewRows(variantCols).
			AddRow(productID, "M", 17, 4, time.Now()))
	mock.ExpectExec(`INSERT INTO stock_movements`).
		WithArgs(pgxmock.AnyArg(), productID, "M", -3, 0, domain.MovementReasonAdjustment, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectRollup(mock, productID, 17, 13, 4, domain.StockStatusLowStock)
	mock.ExpectCommit()

	variant, err := ledger.Adjust(context.Background(), productID, "M", -3, domain.MovementReasonAdjustment)
	require.NoError(t, err)
	assert.Equal(t, 17, variant.StockQuantity)
	assert.Equal(t, 13, variant.Available())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_Adjust_WouldDropBelowReserved(t *testing.T) {
	ledger, mock := newTestLedger(t)
	productID := "3f1a0c2e-9d74-4b8e-9a31-1d2f4b6c8e01"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT product_id, size, stock_quantity, reserved_quantity, updated_at`).
		WithArgs(productID, "M").
		WillReturnRows(pgxmock.NewRows(variantCols).
			AddRow(productID, "M", 10, 8, time.Now()))
	mock.ExpectRollback()

	_, err := ledger.Adjust(context.Background(), productID, "M", -5, domain.MovementReasonAdjustment)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_Adjust_Validation(t *testing.T) {
	ledger, mock := newTestLedger(t)

	_, err := ledger.Adjust(context.Background(), "p1", "M", 0, domain.MovementReasonAdjustment)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = ledger.Adjust(context.Background(), "p1", "M", 5, "shrinkage")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_Adjust_VariantNotFound(t *testing.T) {
	ledger, mock := newTestLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT product_id, size, stock_quantity, reserved_quantity, updated_at`).
		WithArgs("missing", "M").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := ledger.Adjust(context.Background(), "missing", "M", 5, domain.MovementReasonAdjustment)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
