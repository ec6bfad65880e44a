package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
)

const summaryKeyPrefix = "stock:summary:"

// SummaryCache is a read-through cache for product stock summaries. The
// database stays the source of truth; entries are invalidated whenever a
// transaction touches the product's counters, and expire on a TTL as a
// backstop.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache creates a SummaryCache with the given entry TTL.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func summaryKey(productID string) string {
	return summaryKeyPrefix + productID
}

// Get returns the cached summary, or ErrNotFound on a miss.
func (c *SummaryCache) Get(ctx context.Context, productID string) (*domain.ProductSummary, error) {
	data, err := c.client.Get(ctx, summaryKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get cached summary: %w", err)
	}

	var summary domain.ProductSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decode cached summary: %w", err)
	}
	return &summary, nil
}

// Save stores the summary under the product key.
func (c *SummaryCache) Save(ctx context.Context, summary *domain.ProductSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(summary.ProductID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache summary: %w", err)
	}
	return nil
}

// Invalidate drops the cached entries for the given products.
func (c *SummaryCache) Invalidate(ctx context.Context, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = summaryKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate cached summaries: %w", err)
	}
	return nil
}
