package executor

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
	"mmengine-go/internal/order"
	"mmengine-go/internal/risk"
	"mmengine-go/internal/signal"
)

// FillMode selects how the simulator decides when a resting quote fills.
type FillMode uint8

const (
	// FillImmediate fills every order in full at its limit price the
	// moment it is placed. Pessimistic for maker strategies but makes
	// behavior deterministic.
	FillImmediate FillMode = iota
	// FillOnCross rests quotes until the market trades through them:
	// a bid fills when the ask drops to or below it, an ask when the bid
	// rises to or above it.
	FillOnCross
)

// SimulatedConfig tunes the paper executor.
type SimulatedConfig struct {
	Mode          FillMode
	FeeBps        int64
	QueueCapacity int
	// Limits are checked before every order is admitted.
	Limits risk.Limits
}

// Simulated is the paper-trading executor. Orders run through the same
// lifecycle states a live executor would use; only the fill source is
// synthetic. Single goroutine: the engine owns it.
type Simulated struct {
	cfg   SimulatedConfig
	log   zerolog.Logger
	queue *FillQueue

	working []*order.Order // insertion order, active entries only after compaction

	totalOrders uint64
	totalFills  uint64
}

// NewSimulated returns a paper executor.
func NewSimulated(cfg SimulatedConfig, log zerolog.Logger) *Simulated {
	return &Simulated{
		cfg:   cfg,
		log:   log.With().Str("component", "sim_executor").Logger(),
		queue: NewFillQueue(cfg.QueueCapacity),
	}
}

// Name implements Executor.
func (e *Simulated) Name() string { return "simulated" }

// Execute implements Executor. Quote signals replace the previous quote
// set; TakePosition crosses at the far touch.
func (e *Simulated) Execute(sig signal.Signal, snap *marketdata.Snapshot) error {
	switch sig.Action {
	case signal.NoAction:
		return nil
	case signal.CancelAll:
		e.CancelAll()
		return nil
	case signal.QuoteBoth:
		e.CancelAll()
		if err := e.place(order.Buy, sig.BidPrice, sig.Size); err != nil {
			return err
		}
		return e.place(order.Sell, sig.AskPrice, sig.Size)
	case signal.QuoteBid:
		e.CancelAll()
		return e.place(order.Buy, sig.BidPrice, sig.Size)
	case signal.QuoteAsk:
		e.CancelAll()
		return e.place(order.Sell, sig.AskPrice, sig.Size)
	case signal.TakePosition:
		price := snap.BestAskPrice
		if sig.Side == order.Sell {
			price = snap.BestBidPrice
		}
		return e.take(sig.Side, price, sig.Size)
	default:
		return fmt.Errorf("executor: unknown action %d", sig.Action)
	}
}

// place admits one resting quote, filling it immediately in
// FillImmediate mode.
func (e *Simulated) place(side order.Side, price, size fixed.Point) error {
	if size <= 0 {
		return fmt.Errorf("executor: order size must be positive, got %d", size)
	}
	if price <= 0 {
		return fmt.Errorf("executor: order price must be positive, got %d", price)
	}
	if err := e.admit(price, size); err != nil {
		return err
	}

	open := order.NewPending(order.NewID(), side, price, size).Acknowledge()
	o := order.FromOpen(open)
	e.totalOrders++

	if e.cfg.Mode == FillImmediate {
		return e.fill(&o, o.Remaining(), o.Price)
	}

	e.working = append(e.working, &o)
	return nil
}

// admit applies the pre-trade limits.
func (e *Simulated) admit(price, size fixed.Point) error {
	if !e.cfg.Limits.AllowSize(size) {
		return fmt.Errorf("executor: size %s exceeds per-order limit %s",
			size, e.cfg.Limits.MaxOrderSize)
	}
	notional, err := price.CheckedMul(size)
	if err != nil {
		return fmt.Errorf("executor: notional overflow: %w", err)
	}
	if !e.cfg.Limits.AllowNotional(notional) {
		return fmt.Errorf("executor: notional %s exceeds per-trade limit %s",
			notional, e.cfg.Limits.MaxNotionalPerTrade)
	}
	return nil
}

// take executes an aggressive order at the given touch price.
func (e *Simulated) take(side order.Side, price, size fixed.Point) error {
	if price <= 0 {
		return fmt.Errorf("executor: no liquidity to take on %s", side)
	}
	if err := e.admit(price, size); err != nil {
		return err
	}
	open := order.NewPending(order.NewID(), side, price, size).Acknowledge()
	o := order.FromOpen(open)
	e.totalOrders++
	return e.fill(&o, size, price)
}

// fill applies an execution through the order lifecycle and queues the
// report. Queue overflow drops the report and advances the counter.
func (e *Simulated) fill(o *order.Order, qty, price fixed.Point) error {
	if err := o.ApplyFill(qty, price); err != nil {
		return fmt.Errorf("executor: fill rejected: %w", err)
	}
	e.totalFills++
	f := Fill{
		OrderID:     o.ID,
		Side:        o.Side,
		Price:       price,
		Size:        qty,
		Fee:         e.fee(price, qty),
		TimestampNs: time.Now().UnixNano(),
	}
	if !e.queue.Push(f) {
		e.log.Error().
			Str("order_id", o.ID.String()).
			Uint64("dropped_total", e.queue.Dropped()).
			Msg("fill queue overflow, fill dropped")
	}
	return nil
}

// fee charges FeeBps of notional, rounding toward zero.
func (e *Simulated) fee(price, size fixed.Point) fixed.Point {
	if e.cfg.FeeBps == 0 {
		return 0
	}
	notional, err := price.CheckedMul(size)
	if err != nil {
		return 0
	}
	return fixed.Point(int64(notional) / 10_000 * e.cfg.FeeBps)
}

// CheckFills implements Executor. In FillOnCross mode every resting quote
// the market has traded through fills in full at its limit price.
func (e *Simulated) CheckFills(snap *marketdata.Snapshot) {
	if e.cfg.Mode != FillOnCross || len(e.working) == 0 {
		return
	}
	remaining := e.working[:0]
	for _, o := range e.working {
		if !o.Active() {
			continue
		}
		crossed := (o.Side == order.Buy && snap.BestAskPrice > 0 && snap.BestAskPrice <= o.Price) ||
			(o.Side == order.Sell && snap.BestBidPrice > 0 && snap.BestBidPrice >= o.Price)
		if crossed {
			if err := e.fill(o, o.Remaining(), o.Price); err != nil {
				e.log.Error().Err(err).Str("order_id", o.ID.String()).Msg("cross fill failed")
			}
		}
		if o.Active() {
			remaining = append(remaining, o)
		}
	}
	e.working = remaining
}

// Drain implements Executor.
func (e *Simulated) Drain(fn func(Fill)) int {
	n := 0
	for {
		f, ok := e.queue.Pop()
		if !ok {
			return n
		}
		fn(f)
		n++
	}
}

// DroppedFills implements Executor.
func (e *Simulated) DroppedFills() uint64 { return e.queue.Dropped() }

// OpenExposure implements Executor.
func (e *Simulated) OpenExposure() fixed.Point {
	var total fixed.Point
	for _, o := range e.working {
		if o.Active() {
			total = total.SaturatingAdd(o.Remaining())
		}
	}
	return total
}

// CancelAll implements Executor.
func (e *Simulated) CancelAll() {
	for _, o := range e.working {
		if o.Active() {
			if err := o.Cancel(); err != nil {
				e.log.Error().Err(err).Str("order_id", o.ID.String()).Msg("cancel failed")
			}
		}
	}
	e.working = e.working[:0]
}

// WorkingOrders returns the count of live resting quotes.
func (e *Simulated) WorkingOrders() int {
	n := 0
	for _, o := range e.working {
		if o.Active() {
			n++
		}
	}
	return n
}

// TotalOrders returns how many orders have been placed.
func (e *Simulated) TotalOrders() uint64 { return e.totalOrders }

// TotalFills returns how many fills have been produced.
func (e *Simulated) TotalFills() uint64 { return e.totalFills }

// QueueDepth returns the pending fill count.
func (e *Simulated) QueueDepth() int { return e.queue.Len() }
