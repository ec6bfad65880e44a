package domain

// StockOperation is one of the four reservation engine primitives. Each maps
// a line quantity to a pair of counter deltas; every higher-level stock
// mutation is expressed through exactly one of these.
type StockOperation string

const (
	// OpReserve places a soft hold: reserved increases, stock untouched.
	OpReserve StockOperation = "reserve"
	// OpCommit converts a hold into a permanent deduction: both decrease.
	OpCommit StockOperation = "commit"
	// OpRelease drops a hold that was never committed: reserved decreases.
	OpRelease StockOperation = "release"
	// OpRestore returns committed stock to inventory: stock increases.
	OpRestore StockOperation = "restore"
)

// Valid reports whether op is one of the four primitives.
func (op StockOperation) Valid() bool {
	switch op {
	case OpReserve, OpCommit, OpRelease, OpRestore:
		return true
	}
	return false
}

// Deltas returns the (stockDelta, reservedDelta) pair this operation applies
// for a line of the given quantity.
func (op StockOperation) Deltas(quantity int) (stockDelta, reservedDelta int) {
	switch op {
	case OpReserve:
		return 0, quantity
	case OpCommit:
		return -quantity, -quantity
	case OpRelease:
		return 0, -quantity
	case OpRestore:
		return quantity, 0
	}
	return 0, 0
}

// MovementReason returns the journal reason recorded for this operation.
func (op StockOperation) MovementReason() string {
	switch op {
	case OpReserve:
		return MovementReasonReservation
	case OpCommit:
		return MovementReasonOrder
	case OpRelease:
		return MovementReasonRelease
	case OpRestore:
		return MovementReasonCancellation
	}
	return MovementReasonAdjustment
}
