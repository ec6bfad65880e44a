package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	"github.com/kurtadodoli/sevenfour-sub006/internal/repository"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

// StockQueryService serves the read side of the stock ledger. Product
// summaries go through the Redis cache; everything else reads the database
// directly.
type StockQueryService struct {
	repo   repository.StockRepository
	cache  SummaryStore
	logger *slog.Logger
}

// NewStockQueryService creates a StockQueryService.
func NewStockQueryService(repo repository.StockRepository, summaryCache SummaryStore, logger *slog.Logger) *StockQueryService {
	return &StockQueryService{
		repo:   repo,
		cache:  summaryCache,
		logger: logger,
	}
}

// GetVariant returns the counters and derived availability for one variant.
func (s *StockQueryService) GetVariant(ctx context.Context, productID, size string) (*domain.Variant, error) {
	return s.repo.GetVariant(ctx, productID, size)
}

// ListVariants returns all variants of a product.
func (s *StockQueryService) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	return s.repo.ListVariants(ctx, productID)
}

// GetProductSummary returns the product rollup, reading through the cache.
// Cache failures fall back to the database and are logged, never surfaced.
func (s *StockQueryService) GetProductSummary(ctx context.Context, productID string) (*domain.ProductSummary, error) {
	summary, err := s.cache.Get(ctx, productID)
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "summary cache read failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	summary, err = s.repo.GetProductSummary(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Save(ctx, summary); err != nil {
		s.logger.WarnContext(ctx, "summary cache write failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
	return summary, nil
}

// ListLowStock returns products at or below the low stock threshold.
func (s *StockQueryService) ListLowStock(ctx context.Context, page, perPage int) ([]domain.ProductSummary, int, error) {
	return s.repo.ListLowStock(ctx, page, perPage)
}

// ListMovements returns a variant's movement journal, newest first.
func (s *StockQueryService) ListMovements(ctx context.Context, productID, size string, page, perPage int) ([]domain.Movement, int, error) {
	return s.repo.ListMovements(ctx, productID, size, page, perPage)
}
