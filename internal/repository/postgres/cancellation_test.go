package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/database"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

func setupCancellationRepo(t *testing.T) (*CancellationRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewCancellationRepository(mock)
	return repo, mock
}

var cancellationCols = []string{"id", "order_id", "reason", "status", "created_at", "processed_at"}

func TestCancellationRepository_GetByID_Success(t *testing.T) {
	repo, mock := setupCancellationRepo(t)
	defer mock.Close()

	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	processed := created.Add(2 * time.Hour)
	mock.ExpectQuery("SELECT .+ FROM cancellation_requests WHERE id =").
		WithArgs("req-1").
		WillReturnRows(
			pgxmock.NewRows(cancellationCols).
				AddRow("req-1", "order-1", "changed my mind", domain.CancellationStatusApproved, created, &processed),
		)

	req, err := repo.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", req.OrderID)
	assert.Equal(t, domain.CancellationStatusApproved, req.Status)
	assert.False(t, req.IsPending())
	require.NotNil(t, req.ProcessedAt)
	assert.Equal(t, processed, *req.ProcessedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancellationRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := setupCancellationRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM cancellation_requests WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	req, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancellationRepository_GetPendingByOrder_Success(t *testing.T) {
	repo, mock := setupCancellationRepo(t)
	defer mock.Close()

	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM cancellation_requests\\s+WHERE order_id = .+ AND status = 'pending'").
		WithArgs("order-1").
		WillReturnRows(
			pgxmock.NewRows(cancellationCols).
				AddRow("req-2", "order-1", "", domain.CancellationStatusPending, created, nil),
		)

	req, err := repo.GetPendingByOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.True(t, req.IsPending())
	assert.Nil(t, req.ProcessedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancellationRepository_GetPendingByOrder_NoneOpen(t *testing.T) {
	repo, mock := setupCancellationRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM cancellation_requests").
		WithArgs("order-1").
		WillReturnError(pgx.ErrNoRows)

	req, err := repo.GetPendingByOrder(context.Background(), "order-1")
	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
