// Package strategy holds the quoting logic. Strategies are pure decision
// functions over a book snapshot and a ledger snapshot: they never talk
// to the executor or mutate the ledger, they just return a Signal.
package strategy

import (
	"strings"

	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
	"mmengine-go/internal/position"
	"mmengine-go/internal/signal"
)

// Strategy turns one (book, ledger) observation into at most one decision
// per tick. The bool result is false when the strategy has nothing to
// say, which the engine treats the same as signal.None().
type Strategy interface {
	OnTick(s *marketdata.Snapshot, pos position.Snapshot) (signal.Signal, bool)
	OnFill(f position.Fill)
	Name() string
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	SpreadBps       int64       // quoted spread width
	MinMarketBps    int64       // skip ticks whose market spread is tighter
	OrderSize       fixed.Point // size per quoted side
	TargetInventory fixed.Point
	RiskAversion    float64 // gamma for inventory skew
	Volatility      float64 // sigma estimate
	HorizonSecs     float64 // T for inventory skew
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) Strategy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "spread", "simple_spread":
		return NewSimpleSpread(params.SpreadBps, params.MinMarketBps, params.OrderSize)
	case "inventory", "inventory_skew":
		return NewInventorySkew(params.TargetInventory, params.RiskAversion,
			params.Volatility, params.HorizonSecs, params.OrderSize)
	default:
		return NewSimpleSpread(params.SpreadBps, params.MinMarketBps, params.OrderSize)
	}
}
