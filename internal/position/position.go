// Package position holds the single mutable ledger for one market:
// quantity, realized and daily PnL, and trade count. Every mutation is
// overflow-checked and all fields are independently atomic so a reporting
// thread can read consistent values while the tick loop writes.
package position

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"mmengine-go/internal/fixed"
)

// Field names a ledger field in overflow reports.
type Field string

const (
	FieldQuantity    Field = "quantity"
	FieldRealizedPnL Field = "realized_pnl"
	FieldDailyPnL    Field = "daily_pnl"
	FieldTradeCount  Field = "trade_count"
)

// OverflowError reports a checked ledger update that would wrap. The prior
// value and the attempted delta are preserved for operator logging.
type OverflowError struct {
	Field Field
	Old   int64
	Delta int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("position: %s overflow: %d + %d exceeds representable range", e.Field, e.Old, e.Delta)
}

// Side is the direction of a fill.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Fill is an immutable execution report. Produced exactly once by an
// executor and consumed exactly once by ProcessFill.
type Fill struct {
	OrderID     uint64
	Side        Side
	Price       fixed.Point
	Size        fixed.Point
	Fee         fixed.Point
	TimestampNs int64
}

// Notional returns price*size with a widened intermediate.
func (f Fill) Notional() (fixed.Point, error) {
	return f.Price.CheckedMul(f.Size)
}

// Position is the ledger for one market. Created once at process start;
// the tick loop is its sole writer. Fields are individual atomics guarded
// by a seqlock sequence for multi-field snapshot reads.
type Position struct {
	seq        atomic.Uint64 // odd while a write is in flight
	quantity   atomic.Int64
	realized   atomic.Int64
	daily      atomic.Int64
	entryPrice atomic.Int64
	trades     atomic.Uint64
	maxQty     atomic.Int64
	minQty     atomic.Int64
	updatedNs  atomic.Int64
}

// New returns an empty ledger.
func New() *Position {
	return &Position{}
}

// Quantity returns the current signed position quantity.
func (p *Position) Quantity() fixed.Point { return fixed.Point(p.quantity.Load()) }

// RealizedPnL returns cumulative realized PnL.
func (p *Position) RealizedPnL() fixed.Point { return fixed.Point(p.realized.Load()) }

// DailyPnL returns PnL accumulated since the last daily rollover.
func (p *Position) DailyPnL() fixed.Point { return fixed.Point(p.daily.Load()) }

// TradeCount returns the number of fills applied.
func (p *Position) TradeCount() uint64 { return p.trades.Load() }

// EntryPrice returns the volume-weighted average entry price, or zero when flat.
func (p *Position) EntryPrice() fixed.Point { return fixed.Point(p.entryPrice.Load()) }

// LastUpdate returns the unix-nano timestamp of the last accepted fill.
func (p *Position) LastUpdate() int64 { return p.updatedNs.Load() }

// UpdateQuantity applies a checked delta to quantity and returns the new
// value. On overflow nothing changes and the error carries (old, delta).
func (p *Position) UpdateQuantity(delta fixed.Point) (fixed.Point, error) {
	old := p.quantity.Load()
	next, err := fixed.Point(old).CheckedAdd(delta)
	if err != nil {
		return 0, &OverflowError{Field: FieldQuantity, Old: old, Delta: int64(delta)}
	}
	p.quantity.Store(int64(next))
	p.trackExtremes(int64(next))
	return next, nil
}

// UpdateRealizedPnL applies a checked delta to realized PnL.
func (p *Position) UpdateRealizedPnL(delta fixed.Point) error {
	old := p.realized.Load()
	next, err := fixed.Point(old).CheckedAdd(delta)
	if err != nil {
		return &OverflowError{Field: FieldRealizedPnL, Old: old, Delta: int64(delta)}
	}
	p.realized.Store(int64(next))
	return nil
}

// UpdateDailyPnL applies a checked delta to daily PnL.
func (p *Position) UpdateDailyPnL(delta fixed.Point) error {
	old := p.daily.Load()
	next, err := fixed.Point(old).CheckedAdd(delta)
	if err != nil {
		return &OverflowError{Field: FieldDailyPnL, Old: old, Delta: int64(delta)}
	}
	p.daily.Store(int64(next))
	return nil
}

// IncrementTrades bumps the trade count, reporting rather than wrapping.
func (p *Position) IncrementTrades() (uint64, error) {
	old := p.trades.Load()
	if old == ^uint64(0) {
		return 0, &OverflowError{Field: FieldTradeCount, Old: int64(old), Delta: 1}
	}
	next := old + 1
	p.trades.Store(next)
	return next, nil
}

// ProcessFill folds one fill into the ledger. The operation is
// all-or-nothing: every checked step is validated against a local copy of
// the ledger first, and only then are the new values published under the
// seqlock. A failure leaves every field at its pre-call value.
func (p *Position) ProcessFill(f Fill) error {
	oldQty := p.quantity.Load()
	oldRealized := p.realized.Load()
	oldDaily := p.daily.Load()
	oldTrades := p.trades.Load()

	qtyDelta := f.Size
	if f.Side == Sell {
		qtyDelta = f.Size.Neg()
	}
	newQty, err := fixed.Point(oldQty).CheckedAdd(qtyDelta)
	if err != nil {
		return &OverflowError{Field: FieldQuantity, Old: oldQty, Delta: int64(qtyDelta)}
	}

	notional, err := f.Price.CheckedMul(f.Size)
	if err != nil {
		return &OverflowError{Field: FieldRealizedPnL, Old: oldRealized, Delta: int64(f.Price)}
	}

	// Cash flow: buys pay notional plus fee, sells receive notional less fee.
	var cashFlow fixed.Point
	if f.Side == Buy {
		gross, err := notional.CheckedAdd(f.Fee)
		if err != nil {
			return &OverflowError{Field: FieldRealizedPnL, Old: oldRealized, Delta: int64(notional)}
		}
		cashFlow = gross.Neg()
	} else {
		net, err := notional.CheckedSub(f.Fee)
		if err != nil {
			return &OverflowError{Field: FieldRealizedPnL, Old: oldRealized, Delta: int64(notional)}
		}
		cashFlow = net
	}

	newRealized, err := fixed.Point(oldRealized).CheckedAdd(cashFlow)
	if err != nil {
		return &OverflowError{Field: FieldRealizedPnL, Old: oldRealized, Delta: int64(cashFlow)}
	}
	newDaily, err := fixed.Point(oldDaily).CheckedAdd(cashFlow)
	if err != nil {
		return &OverflowError{Field: FieldDailyPnL, Old: oldDaily, Delta: int64(cashFlow)}
	}
	if oldTrades == ^uint64(0) {
		return &OverflowError{Field: FieldTradeCount, Old: int64(oldTrades), Delta: 1}
	}

	// All checks passed; publish atomically under the seqlock.
	p.seq.Add(1)
	p.quantity.Store(int64(newQty))
	p.realized.Store(int64(newRealized))
	p.daily.Store(int64(newDaily))
	p.trades.Store(oldTrades + 1)
	p.updateEntryPrice(oldQty, int64(newQty), int64(qtyDelta), int64(f.Price))
	p.trackExtremes(int64(newQty))
	ts := f.TimestampNs
	if ts == 0 {
		ts = time.Now().UnixNano()
	}
	p.updatedNs.Store(ts)
	p.seq.Add(1)
	return nil
}

// updateEntryPrice keeps the volume-weighted average entry price current.
// Flips and flat-to-open transitions reset the average to the fill price.
func (p *Position) updateEntryPrice(oldQty, newQty, delta, price int64) {
	switch {
	case newQty == 0:
		p.entryPrice.Store(0)
	case oldQty == 0 || (oldQty > 0) != (newQty > 0):
		p.entryPrice.Store(price)
	case (newQty > 0) == (delta > 0):
		oldEntry := p.entryPrice.Load()
		if oldEntry == 0 {
			p.entryPrice.Store(price)
			return
		}
		oldNotional, err := fixed.Point(oldEntry).CheckedMul(fixed.Point(oldQty).Abs())
		if err != nil {
			return
		}
		addNotional, err := fixed.Point(price).CheckedMul(fixed.Point(delta).Abs())
		if err != nil {
			return
		}
		total, err := oldNotional.CheckedAdd(addNotional)
		if err != nil {
			return
		}
		totalQty := fixed.Point(newQty).Abs()
		if totalQty == 0 {
			return
		}
		avg := total.Decimal().Div(totalQty.Decimal())
		if avgFixed, err := fixed.FromDecimal(avg); err == nil {
			p.entryPrice.Store(int64(avgFixed))
		}
	}
}

func (p *Position) trackExtremes(qty int64) {
	if qty > p.maxQty.Load() {
		p.maxQty.Store(qty)
	}
	if qty < p.minQty.Load() {
		p.minQty.Store(qty)
	}
}

// Snapshot is a consistent point-in-time view of the ledger.
type Snapshot struct {
	Quantity    fixed.Point
	RealizedPnL fixed.Point
	DailyPnL    fixed.Point
	EntryPrice  fixed.Point
	TradeCount  uint64
	MaxQuantity fixed.Point
	MinQuantity fixed.Point
	UpdatedNs   int64
}

// Snapshot returns a seqlock-consistent copy of every field. Lock-free:
// the reader retries while a write is in flight.
func (p *Position) Snapshot() Snapshot {
	for {
		s1 := p.seq.Load()
		if s1%2 != 0 {
			runtime.Gosched()
			continue
		}
		snap := Snapshot{
			Quantity:    fixed.Point(p.quantity.Load()),
			RealizedPnL: fixed.Point(p.realized.Load()),
			DailyPnL:    fixed.Point(p.daily.Load()),
			EntryPrice:  fixed.Point(p.entryPrice.Load()),
			TradeCount:  p.trades.Load(),
			MaxQuantity: fixed.Point(p.maxQty.Load()),
			MinQuantity: fixed.Point(p.minQty.Load()),
			UpdatedNs:   p.updatedNs.Load(),
		}
		if p.seq.Load() == s1 {
			return snap
		}
		runtime.Gosched()
	}
}

// UnrealizedPnL marks the open quantity against the supplied mid price.
// Returns zero when flat or when the entry price is unknown.
func (p *Position) UnrealizedPnL(mark fixed.Point) fixed.Point {
	snap := p.Snapshot()
	if snap.Quantity == 0 || snap.EntryPrice == 0 {
		return 0
	}
	diff, err := mark.CheckedSub(snap.EntryPrice)
	if err != nil {
		return 0
	}
	pnl, err := diff.CheckedMul(snap.Quantity)
	if err != nil {
		return 0
	}
	return pnl
}

// ResetDaily zeroes the daily PnL field at rollover. The cumulative
// realized PnL is untouched.
func (p *Position) ResetDaily() {
	p.seq.Add(1)
	p.daily.Store(0)
	p.seq.Add(1)
}
