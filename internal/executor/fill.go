// Package executor places orders decided by a strategy and surfaces the
// resulting fills to the engine through a bounded lock-free queue.
package executor

import (
	"mmengine-go/internal/fixed"
	"mmengine-go/internal/order"
	"mmengine-go/internal/position"
)

// Fill is an execution report emitted by an executor. Immutable once
// created.
type Fill struct {
	OrderID     order.ID
	Side        order.Side
	Price       fixed.Point
	Size        fixed.Point
	Fee         fixed.Point
	TimestampNs int64
}

// Ledger converts the report into the form the position ledger consumes.
// The low half of the order ID is enough to correlate ledger entries back
// to the journal.
func (f Fill) Ledger() position.Fill {
	side := position.Buy
	if f.Side == order.Sell {
		side = position.Sell
	}
	return position.Fill{
		OrderID:     f.OrderID.Lo,
		Side:        side,
		Price:       f.Price,
		Size:        f.Size,
		Fee:         f.Fee,
		TimestampNs: f.TimestampNs,
	}
}

// Notional returns price*size.
func (f Fill) Notional() (fixed.Point, error) {
	return f.Price.CheckedMul(f.Size)
}
