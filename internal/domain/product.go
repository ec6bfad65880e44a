package domain

import (
	"time"
)

// Stock status classifications for a product rollup.
const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusCritical   = "critical_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// StockThresholds holds the two configurable boundaries that classify a
// product's availability. Critical must not exceed Low.
type StockThresholds struct {
	Critical int
	Low      int
}

// DefaultStockThresholds returns the canonical threshold pair.
func DefaultStockThresholds() StockThresholds {
	return StockThresholds{Critical: 5, Low: 15}
}

// ClassifyStock returns the stock status for the given available quantity.
func (t StockThresholds) ClassifyStock(available int) string {
	switch {
	case available <= 0:
		return StockStatusOutOfStock
	case available <= t.Critical:
		return StockStatusCritical
	case available <= t.Low:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// ProductSummary is the product-level rollup of all its variants' counters.
// It is recomputed from the variant rows inside the same transaction as every
// variant mutation and is never edited independently.
type ProductSummary struct {
	ProductID           string    `json:"product_id"`
	TotalStock          int       `json:"total_stock"`
	TotalAvailableStock int       `json:"total_available_stock"`
	TotalReservedStock  int       `json:"total_reserved_stock"`
	StockStatus         string    `json:"stock_status"`
	UpdatedAt           time.Time `json:"updated_at"`
}
