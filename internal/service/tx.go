package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kurtadodoli/sevenfour-sub006/pkg/database"
)

const (
	txRetryAttempts = 3
	txRetryBaseWait = 50 * time.Millisecond
)

// isRetryableTxError reports whether the error is a transient transaction
// failure (deadlock or serialization failure) that is safe to retry, given
// that every engine operation is idempotent through the one-time-application
// ledger.
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// runInTx executes fn inside a transaction, committing on success and rolling
// back on error. Transient deadlock/serialization failures are retried with a
// short backoff; everything else aborts immediately and the database is left
// untouched.
func runInTx(ctx context.Context, db database.DBTX, logger *slog.Logger, fn func(tx pgx.Tx) error) error {
	var lastErr error

	for attempt := 0; attempt < txRetryAttempts; attempt++ {
		if attempt > 0 {
			wait := txRetryBaseWait << (attempt - 1)
			logger.WarnContext(ctx, "retrying transaction after transient failure",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("transaction retry: %w", ctx.Err())
			case <-time.After(wait):
			}
		}

		err := func() error {
			tx, err := db.Begin(ctx)
			if err != nil {
				return fmt.Errorf("begin transaction: %w", err)
			}
			defer func() { _ = tx.Rollback(ctx) }()

			if err := fn(tx); err != nil {
				return err
			}

			if err := tx.Commit(ctx); err != nil {
				return fmt.Errorf("commit transaction: %w", err)
			}
			return nil
		}()
		if err == nil {
			return nil
		}

		lastErr = err
		if !isRetryableTxError(err) {
			return err
		}
	}

	return lastErr
}
