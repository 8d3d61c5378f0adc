// Package engine runs the per-tick decision pipeline: drain fills, gate
// on data quality and the market breaker, evaluate the strategy, execute.
// One Engine per market, driven by a single goroutine.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"mmengine-go/internal/breaker"
	"mmengine-go/internal/executor"
	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
	"mmengine-go/internal/metrics"
	"mmengine-go/internal/order"
	"mmengine-go/internal/position"
	"mmengine-go/internal/signal"
	"mmengine-go/internal/strategy"
)

// ErrFillQueueOverflow is returned once any fill has been lost to queue
// overflow. The ledger can no longer be trusted, so the engine cancels
// everything and refuses to continue.
var ErrFillQueueOverflow = errors.New("engine: fill dropped on queue overflow, ledger integrity lost")

// Outcome classifies what one tick did, for counters and tests.
type Outcome uint8

const (
	// Processed means the full pipeline ran.
	Processed Outcome = iota
	// Unchanged means the touch matched the previous tick and the
	// pipeline short-circuited after the fill drain.
	Unchanged
	// SkippedStale means data freshness gating stopped the tick.
	SkippedStale
	// SkippedHalted means the market breaker is latched.
	SkippedHalted
	// SkippedInvalid means snapshot validation rejected the tick.
	SkippedInvalid
	// NoSignal means the strategy chose not to act.
	NoSignal
)

func (o Outcome) String() string {
	switch o {
	case Processed:
		return "processed"
	case Unchanged:
		return "unchanged"
	case SkippedStale:
		return "stale"
	case SkippedHalted:
		return "halted"
	case SkippedInvalid:
		return "invalid"
	default:
		return "no_signal"
	}
}

// Config carries the engine's own knobs; component configs live with
// their components.
type Config struct {
	// Market labels logs and metrics.
	Market string
	// DailyLossFloor halts trading when daily PnL drops below it.
	// Must be negative to be meaningful; zero disables the check.
	DailyLossFloor fixed.Point
}

// Stats is a snapshot of the engine's tick accounting.
type Stats struct {
	Ticks         uint64
	Unchanged     uint64
	SkippedStale  uint64
	SkippedHalted uint64
	Invalid       uint64
	Signals       uint64
	FillsApplied  uint64
}

// Engine owns one market's ledger, breaker, strategy and executor.
type Engine struct {
	cfg       Config
	log       zerolog.Logger
	pos       *position.Position
	brk       *breaker.Market
	strat     strategy.Strategy
	exec      executor.Executor
	validator *marketdata.Validator
	stale     *marketdata.StaleDetector

	last    marketdata.Snapshot
	hasLast bool
	// set while the breaker is latched so cancel-all fires once
	cancelledOnHalt bool

	fillHooks []func(executor.Fill)
	drainErr  error
	stats     Stats
}

// New wires an engine from its components.
func New(cfg Config, pos *position.Position, brk *breaker.Market, strat strategy.Strategy,
	exec executor.Executor, validator *marketdata.Validator, stale *marketdata.StaleDetector,
	log zerolog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		log:       log.With().Str("component", "engine").Str("market", cfg.Market).Logger(),
		pos:       pos,
		brk:       brk,
		strat:     strat,
		exec:      exec,
		validator: validator,
		stale:     stale,
	}
}

// OnFill registers a hook invoked for every fill applied to the ledger,
// such as the journal writer.
func (e *Engine) OnFill(fn func(executor.Fill)) {
	e.fillHooks = append(e.fillHooks, fn)
}

// Position returns the engine's ledger.
func (e *Engine) Position() *position.Position { return e.pos }

// Breaker returns the market breaker, for operator reset.
func (e *Engine) Breaker() *breaker.Market { return e.brk }

// Stats returns a copy of the tick accounting.
func (e *Engine) Stats() Stats { return e.stats }

// ProcessTick runs the pipeline for one snapshot.
//
// Order matters: fills are drained before anything can skip the tick, so
// the ledger stays current even when quoting is suspended. The unchanged
// short-circuit runs after fill matching so resting quotes still see the
// new book.
func (e *Engine) ProcessTick(snap *marketdata.Snapshot) (Outcome, error) {
	e.stats.Ticks++

	// 0. Ledger upkeep happens unconditionally.
	e.exec.CheckFills(snap)
	if err := e.drainFills(); err != nil {
		return Processed, err
	}

	if err := e.validator.Validate(snap); err != nil {
		e.stats.Invalid++
		e.countTick(SkippedInvalid)
		e.log.Warn().Err(err).Uint64("seq", snap.Sequence).Msg("snapshot rejected")
		return SkippedInvalid, nil
	}

	// 1. Identical touch: nothing upstream of us changed.
	if e.hasLast && snap.TopUnchanged(&e.last) {
		e.stats.Unchanged++
		e.countTick(Unchanged)
		return Unchanged, nil
	}
	e.last = *snap
	e.hasLast = true

	// 2. Freshness gate.
	if !e.stale.IsFresh() {
		e.stats.SkippedStale++
		e.countTick(SkippedStale)
		return SkippedStale, nil
	}

	// 3. Safety gate: anomaly breaker plus the daily loss floor.
	if e.cfg.DailyLossFloor < 0 && e.pos.DailyPnL() < e.cfg.DailyLossFloor {
		e.brk.TripDailyLoss(e.pos.DailyPnL(), e.cfg.DailyLossFloor)
	}
	if e.brk.Check(snap) == breaker.Halted {
		if !e.cancelledOnHalt {
			e.exec.CancelAll()
			e.cancelledOnHalt = true
			e.log.Error().Str("reason", e.brk.Reason().String()).Msg("halted, quotes pulled")
		}
		e.stats.SkippedHalted++
		e.countTick(SkippedHalted)
		metrics.BreakerState.WithLabelValues(e.cfg.Market).Set(1)
		return SkippedHalted, nil
	}
	e.cancelledOnHalt = false
	metrics.BreakerState.WithLabelValues(e.cfg.Market).Set(0)

	// 4. Decide.
	sig, ok := e.strat.OnTick(snap, e.pos.Snapshot())
	if !ok || !sig.RequiresAction() {
		e.countTick(NoSignal)
		return NoSignal, nil
	}
	e.stats.Signals++
	metrics.SignalsTotal.WithLabelValues(e.cfg.Market, sig.Action.String()).Inc()

	// 5. Act, then pick up anything that filled synchronously.
	if err := e.exec.Execute(sig, snap); err != nil {
		return Processed, fmt.Errorf("engine: execute: %w", err)
	}
	e.countOrders(sig)
	if err := e.drainFills(); err != nil {
		return Processed, err
	}

	e.countTick(Processed)
	e.publishGauges()
	return Processed, nil
}

// drainFills moves every pending fill into the ledger. Any ledger
// rejection or queue overflow is fatal: quotes are pulled and the error
// propagates to stop the engine.
func (e *Engine) drainFills() error {
	metrics.FillQueueDepth.WithLabelValues(e.cfg.Market).Set(float64(e.exec.QueueDepth()))
	e.drainErr = nil
	n := e.exec.Drain(func(f executor.Fill) {
		if e.drainErr != nil {
			return
		}
		if err := e.pos.ProcessFill(f.Ledger()); err != nil {
			e.drainErr = fmt.Errorf("engine: ledger rejected fill %s: %w", f.OrderID, err)
			return
		}
		e.stats.FillsApplied++
		metrics.FillsTotal.WithLabelValues(e.cfg.Market, f.Side.String()).Inc()
		e.strat.OnFill(f.Ledger())
		for _, hook := range e.fillHooks {
			hook(f)
		}
	})
	if e.drainErr != nil {
		e.exec.CancelAll()
		return e.drainErr
	}
	if n > 0 {
		e.log.Debug().Int("fills", n).Msg("fills applied")
	}

	if dropped := e.exec.DroppedFills(); dropped > 0 {
		e.exec.CancelAll()
		e.brk.TripManual()
		metrics.DroppedFillsTotal.WithLabelValues(e.cfg.Market).Add(float64(dropped))
		e.log.Error().Uint64("dropped", dropped).Msg("fill queue overflow")
		return ErrFillQueueOverflow
	}
	return nil
}

// countOrders credits the order counters for a signal the executor
// accepted.
func (e *Engine) countOrders(sig signal.Signal) {
	switch sig.Action {
	case signal.QuoteBoth:
		metrics.OrdersTotal.WithLabelValues(e.cfg.Market, order.Buy.String()).Inc()
		metrics.OrdersTotal.WithLabelValues(e.cfg.Market, order.Sell.String()).Inc()
	case signal.QuoteBid:
		metrics.OrdersTotal.WithLabelValues(e.cfg.Market, order.Buy.String()).Inc()
	case signal.QuoteAsk:
		metrics.OrdersTotal.WithLabelValues(e.cfg.Market, order.Sell.String()).Inc()
	case signal.TakePosition:
		metrics.OrdersTotal.WithLabelValues(e.cfg.Market, sig.Side.String()).Inc()
	}
}

func (e *Engine) countTick(o Outcome) {
	metrics.TicksTotal.WithLabelValues(e.cfg.Market, o.String()).Inc()
}

func (e *Engine) publishGauges() {
	tel := e.pos.Telemetry()
	metrics.PositionQuantity.WithLabelValues(e.cfg.Market).Set(tel.QuantityFloat())
	metrics.RealizedPnL.WithLabelValues(e.cfg.Market).Set(tel.RealizedPnLFloat())
	metrics.DailyPnL.WithLabelValues(e.cfg.Market).Set(tel.DailyPnLFloat())
}

// PollFunc fetches the next snapshot. The bool result is false on an
// empty poll; both false and nil snapshot mean nothing arrived.
type PollFunc func(ctx context.Context) (*marketdata.Snapshot, bool, error)

// Run drives the engine from a poll source until the context ends or a
// fatal error surfaces. The first valid snapshot arms the pipeline;
// everything before it is discarded quietly.
func (e *Engine) Run(ctx context.Context, poll PollFunc) error {
	e.log.Info().Str("strategy", e.strat.Name()).Str("executor", e.exec.Name()).Msg("engine started")
	for {
		select {
		case <-ctx.Done():
			e.exec.CancelAll()
			if err := e.drainFills(); err != nil {
				return err
			}
			e.log.Info().Msg("engine stopped")
			return nil
		default:
		}

		snap, ok, err := poll(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			return fmt.Errorf("engine: poll: %w", err)
		}
		if !ok || snap == nil {
			e.stale.MarkEmptyPoll()
			if err := e.drainFills(); err != nil {
				return err
			}
			continue
		}
		e.stale.MarkFresh()

		if _, err := e.ProcessTick(snap); err != nil {
			e.exec.CancelAll()
			return err
		}
	}
}
