package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/database"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

// ReservationEngine applies the four stock primitives to an order's line
// items. Each (order, operation) pair is applied at most once: a dedicated
// ledger table records applications, and a repeat call is a successful no-op.
type ReservationEngine struct {
	db     database.DBTX
	ledger *StockLedger
	logger *slog.Logger
}

// NewReservationEngine creates a ReservationEngine backed by the given ledger.
func NewReservationEngine(db database.DBTX, ledger *StockLedger, logger *slog.Logger) *ReservationEngine {
	return &ReservationEngine{
		db:     db,
		ledger: ledger,
		logger: logger,
	}
}

// ApplyTx applies op to every line item of the order inside the caller's
// transaction. When the operation was already applied for this order it is a
// no-op returning nil summaries; otherwise it returns the recomputed rollup
// of every affected product, which callers use for cache invalidation and
// event publishing after commit.
//
// Reserve performs an availability pre-flight across all lines before
// touching any counter, and reports every short line in a single
// InsufficientStockError. Any error aborts the whole transaction, so the
// operation is all-or-nothing across the order's lines.
func (e *ReservationEngine) ApplyTx(ctx context.Context, tx pgx.Tx, orderID string, op domain.StockOperation, items []domain.LineItem) ([]*domain.ProductSummary, error) {
	if !op.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown stock operation %q", op))
	}
	if len(items) == 0 {
		return nil, apperrors.InvalidInput("order has no line items")
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO applied_stock_operations (order_id, operation)
		VALUES ($1, $2)
		ON CONFLICT (order_id, operation) DO NOTHING`,
		orderID, string(op),
	)
	if err != nil {
		return nil, fmt.Errorf("record stock operation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		e.logger.InfoContext(ctx, "stock operation already applied, skipping",
			slog.String("order_id", orderID),
			slog.String("operation", string(op)),
		)
		return nil, nil
	}

	// Lock variants in a fixed order so two concurrent orders touching the
	// same variants cannot deadlock each other.
	sorted := make([]domain.LineItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return sorted[i].Size < sorted[j].Size
	})

	var shortfalls []domain.Shortfall
	for _, item := range sorted {
		v, err := e.ledger.LockVariantTx(ctx, tx, item.ProductID, item.Size)
		if err != nil {
			return nil, err
		}

		if op == domain.OpReserve && v.Available() < item.Quantity {
			shortfalls = append(shortfalls, domain.Shortfall{
				ProductID: item.ProductID,
				Size:      item.Size,
				Requested: item.Quantity,
				Available: v.Available(),
			})
		}
	}
	if len(shortfalls) > 0 {
		return nil, &domain.InsufficientStockError{Shortfalls: shortfalls}
	}

	reason := op.MovementReason()
	products := make(map[string]struct{}, len(sorted))
	for _, item := range sorted {
		stockDelta, reservedDelta := op.Deltas(item.Quantity)
		if _, err := e.ledger.ApplyDeltaTx(ctx, tx, item.ProductID, item.Size, stockDelta, reservedDelta); err != nil {
			return nil, err
		}
		ref := orderID
		if err := e.ledger.RecordMovementTx(ctx, tx, item.ProductID, item.Size, stockDelta, reservedDelta, reason, &ref); err != nil {
			return nil, err
		}
		products[item.ProductID] = struct{}{}
	}

	summaries := make([]*domain.ProductSummary, 0, len(products))
	for _, productID := range sortedKeys(products) {
		summary, err := e.ledger.RecomputeRollupTx(ctx, tx, productID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	e.logger.InfoContext(ctx, "stock operation applied",
		slog.String("order_id", orderID),
		slog.String("operation", string(op)),
		slog.Int("lines", len(sorted)),
	)
	return summaries, nil
}

// Apply runs ApplyTx in its own transaction. Lifecycle transitions embed the
// operation in their own transaction instead; this entry point serves callers
// that mutate stock without an accompanying order update.
func (e *ReservationEngine) Apply(ctx context.Context, orderID string, op domain.StockOperation, items []domain.LineItem) ([]*domain.ProductSummary, error) {
	var summaries []*domain.ProductSummary
	err := runInTx(ctx, e.db, e.logger, func(tx pgx.Tx) error {
		var err error
		summaries, err = e.ApplyTx(ctx, tx, orderID, op, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
