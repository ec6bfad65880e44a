package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariant_Available(t *testing.T) {
	v := Variant{StockQuantity: 100, ReservedQuantity: 30}
	assert.Equal(t, 70, v.Available())

	v = Variant{StockQuantity: 5, ReservedQuantity: 5}
	assert.Equal(t, 0, v.Available())
}

func TestVariant_CheckInvariants(t *testing.T) {
	tests := []struct {
		name     string
		stock    int
		reserved int
		wantErr  bool
	}{
		{"healthy", 100, 30, false},
		{"fully reserved", 10, 10, false},
		{"empty", 0, 0, false},
		{"negative reserved", 10, -1, true},
		{"reserved exceeds stock", 5, 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Variant{ProductID: "prod-1", Size: "M", StockQuantity: tt.stock, ReservedQuantity: tt.reserved}
			err := v.CheckInvariants()
			if tt.wantErr {
				require.Error(t, err)
				var violation *InvariantViolationError
				assert.ErrorAs(t, err, &violation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClassifyStock_Boundaries(t *testing.T) {
	thresholds := DefaultStockThresholds()

	tests := []struct {
		available int
		want      string
	}{
		{-3, StockStatusOutOfStock},
		{0, StockStatusOutOfStock},
		{1, StockStatusCritical},
		{5, StockStatusCritical},
		{6, StockStatusLowStock},
		{15, StockStatusLowStock},
		{16, StockStatusInStock},
		{1000, StockStatusInStock},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, thresholds.ClassifyStock(tt.available), "available=%d", tt.available)
	}
}

// A product can be fully reserved and have zero available while plenty of
// stock is still on hand; classification follows availability, not on-hand.
func TestClassifyStock_FullyReservedIsOutOfStock(t *testing.T) {
	v := Variant{StockQuantity: 50, ReservedQuantity: 50}
	assert.Equal(t, StockStatusOutOfStock, DefaultStockThresholds().ClassifyStock(v.Available()))
}

func TestStockOperation_Deltas(t *testing.T) {
	const q = 7

	tests := []struct {
		op            StockOperation
		stockDelta    int
		reservedDelta int
	}{
		{OpReserve, 0, q},
		{OpCommit, -q, -q},
		{OpRelease, 0, -q},
		{OpRestore, q, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			sd, rd := tt.op.Deltas(q)
			assert.Equal(t, tt.stockDelta, sd)
			assert.Equal(t, tt.reservedDelta, rd)
		})
	}
}

// Reserve then release must return both counters to where they started, and
// the same holds for reserve, commit, restore.
func TestStockOperation_RoundTrips(t *testing.T) {
	apply := func(v *Variant, op StockOperation, q int) {
		sd, rd := op.Deltas(q)
		v.StockQuantity += sd
		v.ReservedQuantity += rd
	}

	v := &Variant{StockQuantity: 100, ReservedQuantity: 0}
	apply(v, OpReserve, 10)
	apply(v, OpRelease, 10)
	assert.Equal(t, 100, v.StockQuantity)
	assert.Equal(t, 0, v.ReservedQuantity)

	v = &Variant{StockQuantity: 100, ReservedQuantity: 0}
	apply(v, OpReserve, 10)
	apply(v, OpCommit, 10)
	assert.Equal(t, 90, v.StockQuantity)
	assert.Equal(t, 0, v.ReservedQuantity)
	apply(v, OpRestore, 10)
	assert.Equal(t, 100, v.StockQuantity)
	assert.Equal(t, 0, v.ReservedQuantity)
	assert.NoError(t, v.CheckInvariants())
}

// Walking a reservation to fulfilment: reserving holds availability without
// touching on-hand stock, committing burns both counters together.
func TestStockOperation_ReserveThenCommit(t *testing.T) {
	v := &Variant{StockQuantity: 20, ReservedQuantity: 0}

	sd, rd := OpReserve.Deltas(5)
	v.StockQuantity += sd
	v.ReservedQuantity += rd
	assert.Equal(t, 20, v.StockQuantity)
	assert.Equal(t, 5, v.ReservedQuantity)
	assert.Equal(t, 15, v.Available())

	sd, rd = OpCommit.Deltas(5)
	v.StockQuantity += sd
	v.ReservedQuantity += rd
	assert.Equal(t, 15, v.StockQuantity)
	assert.Equal(t, 0, v.ReservedQuantity)
	assert.Equal(t, 15, v.Available())
}

// A large reservation can push an in_stock product into critical territory
// even though on-hand stock is unchanged.
func TestClassifyStock_ReservationDrainsAvailability(t *testing.T) {
	thresholds := DefaultStockThresholds()
	v := &Variant{StockQuantity: 15, ReservedQuantity: 0}
	assert.Equal(t, StockStatusLowStock, thresholds.ClassifyStock(v.Available()))

	sd, rd := OpReserve.Deltas(13)
	v.StockQuantity += sd
	v.ReservedQuantity += rd
	assert.Equal(t, 2, v.Available())
	assert.Equal(t, StockStatusCritical, thresholds.ClassifyStock(v.Available()))
}

func TestStockOperation_Valid(t *testing.T) {
	assert.True(t, OpReserve.Valid())
	assert.True(t, OpCommit.Valid())
	assert.True(t, OpRelease.Valid())
	assert.True(t, OpRestore.Valid())
	assert.False(t, StockOperation("refund").Valid())
}
