package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mmengine-go/internal/breaker"
	"mmengine-go/internal/executor"
	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
	"mmengine-go/internal/position"
	"mmengine-go/internal/signal"
	"mmengine-go/internal/strategy"
)

func pt(t *testing.T, s string) fixed.Point {
	t.Helper()
	p, err := fixed.FromString(s)
	if err != nil {
		t.Fatalf("FromString(%s): %v", s, err)
	}
	return p
}

func snap(t *testing.T, seq uint64, bid, ask string) *marketdata.Snapshot {
	t.Helper()
	now := time.Now().UnixNano()
	return &marketdata.Snapshot{
		MarketID:       1,
		Sequence:       seq,
		ExchangeTimeNs: now,
		LocalRecvNs:    now,
		BestBidPrice:   pt(t, bid),
		BestBidSize:    pt(t, "1"),
		BestAskPrice:   pt(t, ask),
		BestAskSize:    pt(t, "1"),
	}
}

func newTestEngine(t *testing.T, cfg Config, strat strategy.Strategy, exec executor.Executor) *Engine {
	t.Helper()
	if cfg.Market == "" {
		cfg.Market = "TEST"
	}
	stale := marketdata.NewStaleDetector(marketdata.DefaultStaleConfig())
	stale.MarkFresh()
	return New(cfg,
		position.New(),
		breaker.NewMarket(breaker.DefaultMarketConfig(), zerolog.Nop()),
		strat,
		exec,
		marketdata.NewValidator(),
		stale,
		zerolog.Nop())
}

func quoter(t *testing.T) *strategy.SimpleSpread {
	t.Helper()
	return strategy.NewSimpleSpread(20, 1, pt(t, "1"))
}

func simExec() *executor.Simulated {
	return executor.NewSimulated(executor.SimulatedConfig{Mode: executor.FillImmediate}, zerolog.Nop())
}

func TestProcessTickQuotesAndFills(t *testing.T) {
	exec := simExec()
	e := newTestEngine(t, Config{}, quoter(t), exec)

	out, err := e.ProcessTick(snap(t, 1, "100", "100.5"))
	if err != nil {
		t.Fatalf("ProcessTick: %v", err)
	}
	if out != Processed {
		t.Fatalf("outcome = %s, want processed", out)
	}
	// Immediate mode fills both quotes on placement and the same tick
	// drains them into the ledger.
	ps := e.Position().Snapshot()
	if ps.TradeCount != 2 {
		t.Fatalf("trade count = %d, want 2", ps.TradeCount)
	}
	if ps.Quantity != 0 {
		t.Fatalf("quantity = %v, want flat after matched quotes", ps.Quantity)
	}
	st := e.Stats()
	if st.Signals != 1 || st.FillsApplied != 2 {
		t.Fatalf("stats = %+v, want 1 signal, 2 fills", st)
	}
}

func TestUnchangedTouchShortCircuits(t *testing.T) {
	exec := simExec()
	e := newTestEngine(t, Config{}, quoter(t), exec)

	if _, err := e.ProcessTick(snap(t, 1, "100", "100.5")); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	fills := e.Stats().FillsApplied

	// Same touch, new sequence: heartbeat re-send.
	out, err := e.ProcessTick(snap(t, 2, "100", "100.5"))
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if out != Unchanged {
		t.Fatalf("outcome = %s, want unchanged", out)
	}
	if got := e.Stats().FillsApplied; got != fills {
		t.Fatalf("fills applied moved %d -> %d on unchanged tick", fills, got)
	}
}

func TestInvalidSnapshotSkipped(t *testing.T) {
	e := newTestEngine(t, Config{}, quoter(t), simExec())

	crossed := snap(t, 1, "100.5", "100")
	out, err := e.ProcessTick(crossed)
	if err != nil {
		t.Fatalf("ProcessTick: %v", err)
	}
	if out != SkippedInvalid {
		t.Fatalf("outcome = %s, want invalid", out)
	}
	if e.Stats().Invalid != 1 {
		t.Fatalf("invalid counter = %d, want 1", e.Stats().Invalid)
	}
}

func TestStaleDataSkipsSignal(t *testing.T) {
	exec := simExec()
	e := newTestEngine(t, Config{}, quoter(t), exec)

	// Force offline via empty polls.
	cfg := marketdata.StaleConfig{MaxAge: time.Hour, MaxEmptyPolls: 0}
	e.stale = marketdata.NewStaleDetector(cfg)
	e.stale.MarkEmptyPoll()

	out, err := e.ProcessTick(snap(t, 1, "100", "100.5"))
	if err != nil {
		t.Fatalf("ProcessTick: %v", err)
	}
	if out != SkippedStale {
		t.Fatalf("outcome = %s, want stale", out)
	}
	if got := exec.TotalOrders(); got != 0 {
		t.Fatalf("orders placed on stale data: %d", got)
	}
}

func TestDailyLossFloorHaltsAndCancels(t *testing.T) {
	exec := simExec()
	floor := pt(t, "-1000")
	e := newTestEngine(t, Config{DailyLossFloor: floor}, quoter(t), exec)

	// First tick quotes normally.
	if _, err := e.ProcessTick(snap(t, 1, "100", "100.5")); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	// Breach the floor out of band, then tick.
	if err := e.Position().UpdateDailyPnL(pt(t, "-1500")); err != nil {
		t.Fatalf("UpdateDailyPnL: %v", err)
	}
	out, err := e.ProcessTick(snap(t, 2, "101", "101.5"))
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if out != SkippedHalted {
		t.Fatalf("outcome = %s, want halted", out)
	}
	if e.Breaker().Reason() != breaker.HaltDailyLossLimit {
		t.Fatalf("halt reason = %s", e.Breaker().Reason())
	}
	if n := exec.WorkingOrders(); n != 0 {
		t.Fatalf("%d working orders after halt, want 0", n)
	}

	// Halt is sticky across further ticks.
	out, err = e.ProcessTick(snap(t, 3, "102", "102.5"))
	if err != nil {
		t.Fatalf("third tick: %v", err)
	}
	if out != SkippedHalted {
		t.Fatalf("outcome = %s, want halted to stick", out)
	}
}

// stubExec lets tests force executor conditions the simulator cannot
// produce deterministically, such as a dropped fill.
type stubExec struct {
	dropped   uint64
	cancelled int
}

func (s *stubExec) Execute(signal.Signal, *marketdata.Snapshot) error { return nil }
func (s *stubExec) CheckFills(*marketdata.Snapshot)                   {}
func (s *stubExec) Drain(func(executor.Fill)) int                     { return 0 }
func (s *stubExec) DroppedFills() uint64                              { return s.dropped }
func (s *stubExec) QueueDepth() int                                   { return 0 }
func (s *stubExec) OpenExposure() fixed.Point                         { return 0 }
func (s *stubExec) CancelAll()                                        { s.cancelled++ }
func (s *stubExec) Name() string                                      { return "stub" }

func TestDroppedFillIsFatal(t *testing.T) {
	exec := &stubExec{dropped: 3}
	e := newTestEngine(t, Config{}, quoter(t), exec)

	_, err := e.ProcessTick(snap(t, 1, "100", "100.5"))
	if !errors.Is(err, ErrFillQueueOverflow) {
		t.Fatalf("err = %v, want ErrFillQueueOverflow", err)
	}
	if exec.cancelled == 0 {
		t.Fatal("expected cancel-all on overflow")
	}
	// Breaker latches so a restart cannot quietly resume.
	if e.Breaker().Check(snap(t, 2, "100", "100.5")) != breaker.Halted {
		t.Fatal("breaker not latched after overflow")
	}
}

func TestRunStopsOnFatalPollError(t *testing.T) {
	e := newTestEngine(t, Config{}, quoter(t), simExec())

	boom := errors.New("feed exploded")
	err := e.Run(context.Background(), func(ctx context.Context) (*marketdata.Snapshot, bool, error) {
		return nil, false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run err = %v, want wrapped poll error", err)
	}
}
