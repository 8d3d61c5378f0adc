package strategy

import (
	"github.com/shopspring/decimal"

	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
	"mmengine-go/internal/position"
	"mmengine-go/internal/signal"
)

// SimpleSpread quotes symmetrically around the mid at a fixed width.
// It stands aside when the market spread is already tighter than
// MinMarketBps, since there is no edge to capture inside it.
type SimpleSpread struct {
	spreadBps    int64
	minMarketBps int64
	orderSize    fixed.Point

	signals uint64
	fills   uint64
}

// NewSimpleSpread returns the fixed-width quoting strategy.
func NewSimpleSpread(spreadBps, minMarketBps int64, orderSize fixed.Point) *SimpleSpread {
	if spreadBps <= 0 {
		spreadBps = 10
	}
	return &SimpleSpread{spreadBps: spreadBps, minMarketBps: minMarketBps, orderSize: orderSize}
}

// Name implements Strategy.
func (s *SimpleSpread) Name() string { return "simple_spread" }

// OnTick quotes bid and ask half the configured spread either side of
// the mid, regardless of current position. Returns false on books too
// tight to quote into.
func (s *SimpleSpread) OnTick(snap *marketdata.Snapshot, _ position.Snapshot) (signal.Signal, bool) {
	mid := snap.Mid()
	if mid <= 0 {
		return signal.None(), false
	}
	if snap.SpreadBps() < s.minMarketBps {
		return signal.None(), false
	}

	bid, ask, ok := s.quotes(mid)
	if !ok {
		return signal.None(), false
	}
	s.signals++
	return signal.Both(bid, ask, s.orderSize), true
}

// quotes places bid and ask half the spread either side of mid.
func (s *SimpleSpread) quotes(mid fixed.Point) (fixed.Point, fixed.Point, bool) {
	half := decimal.NewFromInt(s.spreadBps).
		Div(decimal.NewFromInt(10_000)).
		Div(decimal.NewFromInt(2))
	m := mid.Decimal()
	bid, err := fixed.FromDecimal(m.Mul(decimal.NewFromInt(1).Sub(half)))
	if err != nil {
		return 0, 0, false
	}
	ask, err := fixed.FromDecimal(m.Mul(decimal.NewFromInt(1).Add(half)))
	if err != nil {
		return 0, 0, false
	}
	if bid <= 0 || ask <= bid {
		return 0, 0, false
	}
	return bid, ask, true
}

// OnFill implements Strategy. SimpleSpread is stateless with respect to
// inventory; only the counter moves.
func (s *SimpleSpread) OnFill(position.Fill) { s.fills++ }

// Signals returns the number of actionable decisions produced.
func (s *SimpleSpread) Signals() uint64 { return s.signals }

// Fills returns the number of executions observed.
func (s *SimpleSpread) Fills() uint64 { return s.fills }
