package executor

import (
	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
	"mmengine-go/internal/signal"
)

// Executor turns signals into orders and reports the resulting fills.
// Implementations own their fill queue; the engine drains it once per
// tick and treats a non-zero dropped count as fatal.
type Executor interface {
	// Execute acts on one signal against the current book.
	Execute(sig signal.Signal, snap *marketdata.Snapshot) error
	// CheckFills matches resting orders against a new book, producing
	// fills for quotes the market has crossed.
	CheckFills(snap *marketdata.Snapshot)
	// Drain pops every pending fill in arrival order into fn and returns
	// how many were delivered.
	Drain(fn func(Fill)) int
	// DroppedFills returns the monotonic overflow counter.
	DroppedFills() uint64
	// QueueDepth returns the number of fills awaiting Drain.
	QueueDepth() int
	// OpenExposure returns the summed remaining size of working orders.
	OpenExposure() fixed.Point
	// CancelAll pulls every working order.
	CancelAll()
	// Name identifies the executor in logs and metrics.
	Name() string
}
