package breaker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
)

func snap(t *testing.T, bid, ask string) marketdata.Snapshot {
	t.Helper()
	b, err := fixed.FromString(bid)
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	a, err := fixed.FromString(ask)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	one, _ := fixed.FromString("1")
	return marketdata.Snapshot{
		Sequence:       1,
		ExchangeTimeNs: time.Now().UnixNano(),
		BestBidPrice:   b,
		BestBidSize:    one,
		BestAskPrice:   a,
		BestAskSize:    one,
	}
}

func newMarket(t *testing.T) *Market {
	t.Helper()
	return NewMarket(DefaultMarketConfig(), zerolog.Nop())
}

func TestMarketNormalOperation(t *testing.T) {
	m := newMarket(t)
	s := snap(t, "50000", "50005")
	for i := 0; i < 10; i++ {
		if got := m.Check(&s); got != Normal {
			t.Fatalf("tick %d: state = %v", i, got)
		}
	}
	if m.Halted() || m.TotalTrips() != 0 {
		t.Fatalf("halted=%v trips=%d", m.Halted(), m.TotalTrips())
	}
}

func TestMarketExcessiveSpreadTrips(t *testing.T) {
	m := newMarket(t)
	wide := snap(t, "50000", "51000") // 200 bps

	// Two violations warn, the third latches.
	if got := m.Check(&wide); got != Normal {
		t.Fatalf("violation 1: state = %v", got)
	}
	if got := m.Check(&wide); got != Normal {
		t.Fatalf("violation 2: state = %v", got)
	}
	if got := m.Check(&wide); got != Halted {
		t.Fatalf("violation 3: state = %v", got)
	}
	if m.Reason() != HaltExcessiveSpread {
		t.Fatalf("reason = %v", m.Reason())
	}
	if m.TotalTrips() != 1 {
		t.Fatalf("trips = %d", m.TotalTrips())
	}
}

func TestMarketViolationStreakResetsOnCleanTick(t *testing.T) {
	m := newMarket(t)
	wide := snap(t, "50000", "51000")
	clean := snap(t, "50000", "50005")

	m.Check(&wide)
	m.Check(&wide)
	m.Check(&clean) // streak cleared
	m.Check(&wide)
	m.Check(&wide)
	if got := m.Check(&clean); got != Normal {
		t.Fatalf("state = %v, want normal", got)
	}
	if m.Halted() {
		t.Fatal("breaker latched despite streak resets")
	}
}

func TestMarketExcessiveMoveTrips(t *testing.T) {
	m := newMarket(t)
	base := snap(t, "50000", "50005")
	if got := m.Check(&base); got != Normal {
		t.Fatalf("baseline: %v", got)
	}
	// Mid jumps ~20% in one tick.
	jump := snap(t, "60000", "60006")
	m.Check(&jump)
	m.Check(&jump)
	if got := m.Check(&jump); got != Halted {
		t.Fatalf("state = %v, want halted", got)
	}
	if m.Reason() != HaltExcessivePriceMove {
		t.Fatalf("reason = %v", m.Reason())
	}
}

func TestMarketHaltIsSticky(t *testing.T) {
	m := newMarket(t)
	m.TripManual()
	if !m.Halted() || m.Reason() != HaltManual {
		t.Fatalf("halted=%v reason=%v", m.Halted(), m.Reason())
	}
	clean := snap(t, "50000", "50005")
	for i := 0; i < 5; i++ {
		if got := m.Check(&clean); got != Halted {
			t.Fatalf("tick %d cleared the latch: %v", i, got)
		}
	}
	// Repeated trips while halted are no-ops.
	trips := m.TotalTrips()
	m.TripManual()
	m.TripDailyLoss(0, 0)
	if m.TotalTrips() != trips {
		t.Fatalf("trips advanced while halted: %d -> %d", trips, m.TotalTrips())
	}

	m.Reset()
	if m.Halted() || m.Reason() != HaltNone {
		t.Fatalf("reset failed: halted=%v reason=%v", m.Halted(), m.Reason())
	}
	if got := m.Check(&clean); got != Normal {
		t.Fatalf("post-reset state = %v", got)
	}
}

func TestMarketDailyLossTripsImmediately(t *testing.T) {
	m := newMarket(t)
	loss, _ := fixed.FromString("-1500")
	floor, _ := fixed.FromString("-1000")
	m.TripDailyLoss(loss, floor)
	if !m.Halted() || m.Reason() != HaltDailyLossLimit {
		t.Fatalf("halted=%v reason=%v", m.Halted(), m.Reason())
	}
}

func TestMarketIgnoresStructurallyInvalidBooks(t *testing.T) {
	m := newMarket(t)
	crossed := snap(t, "50005", "50000")
	crossed.BestBidPrice = crossed.BestAskPrice
	for i := 0; i < 5; i++ {
		if got := m.Check(&crossed); got != Normal {
			t.Fatalf("invalid book changed state: %v", got)
		}
	}
	if m.Halted() {
		t.Fatal("invalid book latched the breaker")
	}
}

func newConn(t *testing.T, clock *time.Time) *Connection {
	t.Helper()
	c := NewConnection(ConnConfig{FailureThreshold: 3, SuccessThreshold: 2, Cooldown: 10 * time.Second}, zerolog.Nop())
	c.now = func() time.Time { return *clock }
	return c
}

func TestConnectionOpensAfterFailures(t *testing.T) {
	clock := time.Unix(0, 0)
	c := newConn(t, &clock)

	if !c.Allow() {
		t.Fatal("closed breaker refused attempt")
	}
	c.RecordFailure()
	c.RecordFailure()
	if c.State() != Closed {
		t.Fatalf("state = %v after 2 failures", c.State())
	}
	c.RecordFailure()
	if c.State() != Open {
		t.Fatalf("state = %v after 3 failures", c.State())
	}
	if c.Allow() {
		t.Fatal("open breaker allowed attempt before cooldown")
	}
}

func TestConnectionHalfOpenProbe(t *testing.T) {
	clock := time.Unix(0, 0)
	c := newConn(t, &clock)
	for i := 0; i < 3; i++ {
		c.RecordFailure()
	}

	clock = clock.Add(11 * time.Second)
	if !c.Allow() {
		t.Fatal("cooldown elapsed but attempt refused")
	}
	if c.State() != HalfOpen {
		t.Fatalf("state = %v, want half-open", c.State())
	}

	c.RecordSuccess()
	if c.State() != HalfOpen {
		t.Fatalf("state = %v after 1 success", c.State())
	}
	c.RecordSuccess()
	if c.State() != Closed {
		t.Fatalf("state = %v after 2 successes", c.State())
	}
	if c.Failures() != 0 {
		t.Fatalf("failures = %d after close", c.Failures())
	}
}

func TestConnectionHalfOpenFailureReopens(t *testing.T) {
	clock := time.Unix(0, 0)
	c := newConn(t, &clock)
	for i := 0; i < 3; i++ {
		c.RecordFailure()
	}

	clock = clock.Add(11 * time.Second)
	if !c.Allow() {
		t.Fatal("probe refused")
	}
	c.RecordSuccess()
	c.RecordFailure() // one failure mid-probe reopens
	if c.State() != Open {
		t.Fatalf("state = %v, want open", c.State())
	}
	// Cooldown restarts from the reopen.
	clock = clock.Add(5 * time.Second)
	if c.Allow() {
		t.Fatal("allowed before restarted cooldown elapsed")
	}
	clock = clock.Add(6 * time.Second)
	if !c.Allow() {
		t.Fatal("refused after restarted cooldown")
	}
}

func TestConnectionSuccessClearsClosedFailures(t *testing.T) {
	clock := time.Unix(0, 0)
	c := newConn(t, &clock)
	c.RecordFailure()
	c.RecordFailure()
	c.RecordSuccess()
	c.RecordFailure()
	c.RecordFailure()
	if c.State() != Closed {
		t.Fatalf("state = %v, want closed", c.State())
	}
}
