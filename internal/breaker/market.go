// Package breaker implements the two trading safety interlocks: a binary
// market-anomaly breaker that latches Halted until an operator resets it,
// and a three-state connection breaker that gates reconnect attempts to a
// failing upstream.
package breaker

import (
	"fmt"

	"github.com/rs/zerolog"

	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
)

// Defaults for the market breaker thresholds.
const (
	// DefaultMaxSpreadBps halts when the touch spread exceeds 1%.
	DefaultMaxSpreadBps int64 = 100
	// DefaultMaxMovePct halts on a >10% mid move in a single tick.
	DefaultMaxMovePct int64 = 10
	// DefaultViolationThreshold is how many consecutive anomalous ticks
	// are tolerated before the breaker latches.
	DefaultViolationThreshold uint32 = 3
)

// HaltReason identifies why the market breaker latched.
type HaltReason uint8

const (
	HaltNone HaltReason = iota
	HaltExcessiveSpread
	HaltExcessivePriceMove
	HaltDailyLossLimit
	HaltManual
)

func (r HaltReason) String() string {
	switch r {
	case HaltExcessiveSpread:
		return "EXCESSIVE_SPREAD"
	case HaltExcessivePriceMove:
		return "EXCESSIVE_PRICE_MOVE"
	case HaltDailyLossLimit:
		return "DAILY_LOSS_LIMIT"
	case HaltManual:
		return "MANUAL"
	default:
		return "NONE"
	}
}

// MarketState is Normal or Halted; there is no intermediate state.
type MarketState uint8

const (
	Normal MarketState = iota
	Halted
)

func (s MarketState) String() string {
	if s == Normal {
		return "NORMAL"
	}
	return "HALTED"
}

// MarketConfig holds the anomaly thresholds.
type MarketConfig struct {
	MaxSpreadBps       int64
	MaxMovePct         int64
	ViolationThreshold uint32
}

// DefaultMarketConfig returns the production thresholds.
func DefaultMarketConfig() MarketConfig {
	return MarketConfig{
		MaxSpreadBps:       DefaultMaxSpreadBps,
		MaxMovePct:         DefaultMaxMovePct,
		ViolationThreshold: DefaultViolationThreshold,
	}
}

// Market is the binary anomaly breaker. It watches each tick for spread
// blowouts and single-tick price dislocations, latching Halted after
// enough consecutive violations. Halted is sticky: only Reset returns to
// Normal. Single goroutine only.
type Market struct {
	cfg        MarketConfig
	log        zerolog.Logger
	state      MarketState
	reason     HaltReason
	lastMid    fixed.Point
	hasLastMid bool
	violations uint32
	totalTrips uint64
}

// NewMarket returns a breaker in the Normal state.
func NewMarket(cfg MarketConfig, log zerolog.Logger) *Market {
	if cfg.MaxSpreadBps <= 0 {
		cfg.MaxSpreadBps = DefaultMaxSpreadBps
	}
	if cfg.MaxMovePct <= 0 {
		cfg.MaxMovePct = DefaultMaxMovePct
	}
	if cfg.ViolationThreshold == 0 {
		cfg.ViolationThreshold = DefaultViolationThreshold
	}
	return &Market{cfg: cfg, log: log.With().Str("component", "market_breaker").Logger()}
}

// Check inspects one tick and returns the resulting state. A Halted
// breaker stays Halted without re-inspecting anything. Structurally
// invalid books (zero or crossed) are the validator's job and are passed
// through as Normal without counting toward violations.
func (m *Market) Check(s *marketdata.Snapshot) MarketState {
	if m.state == Halted {
		return Halted
	}

	bid, ask := s.BestBidPrice, s.BestAskPrice
	if bid <= 0 || ask <= 0 || ask <= bid {
		return Normal
	}

	if bps := fixed.SpreadBps(bid, ask); bps > m.cfg.MaxSpreadBps {
		return m.trip(HaltExcessiveSpread, fmt.Sprintf("spread %dbps > %dbps", bps, m.cfg.MaxSpreadBps))
	}

	mid := fixed.Mid(bid, ask)
	if m.hasLastMid && m.lastMid > 0 {
		if pct := movePct(m.lastMid, mid); pct > m.cfg.MaxMovePct {
			return m.trip(HaltExcessivePriceMove, fmt.Sprintf("mid moved %d%% > %d%%", pct, m.cfg.MaxMovePct))
		}
	}

	// Clean tick: record it and clear the violation streak.
	m.lastMid = mid
	m.hasLastMid = true
	m.violations = 0
	return Normal
}

// movePct returns the absolute mid change as whole percent of the prior
// mid, computed in the 128-bit domain.
func movePct(last, current fixed.Point) int64 {
	diff := current.SaturatingSub(last).Abs()
	scaled, err := diff.CheckedMul(fixed.FromInt(100))
	if err != nil {
		return int64(^uint64(0) >> 1)
	}
	return int64(scaled / last)
}

func (m *Market) trip(reason HaltReason, detail string) MarketState {
	m.violations++
	if m.violations < m.cfg.ViolationThreshold {
		m.log.Warn().
			Str("reason", reason.String()).
			Str("detail", detail).
			Uint32("violations", m.violations).
			Uint32("threshold", m.cfg.ViolationThreshold).
			Msg("breaker violation")
		return Normal
	}
	m.latch(reason, detail)
	return Halted
}

func (m *Market) latch(reason HaltReason, detail string) {
	m.state = Halted
	m.reason = reason
	m.totalTrips++
	m.log.Error().
		Str("reason", reason.String()).
		Str("detail", detail).
		Uint64("total_trips", m.totalTrips).
		Msg("trading halted")
}

// TripDailyLoss latches the breaker immediately when the daily PnL floor
// is breached. No violation streak applies; losing money is not noise.
func (m *Market) TripDailyLoss(dailyPnL, floor fixed.Point) {
	if m.state == Halted {
		return
	}
	m.latch(HaltDailyLossLimit, fmt.Sprintf("daily pnl %s below floor %s", dailyPnL, floor))
}

// TripManual latches the breaker on operator command.
func (m *Market) TripManual() {
	if m.state == Halted {
		return
	}
	m.latch(HaltManual, "operator halt")
}

// Reset returns a Halted breaker to Normal. A Normal breaker is left
// untouched.
func (m *Market) Reset() {
	if m.state != Halted {
		return
	}
	m.log.Warn().Str("was", m.reason.String()).Msg("breaker reset")
	m.state = Normal
	m.reason = HaltNone
	m.violations = 0
	m.hasLastMid = false
}

// State returns the current state.
func (m *Market) State() MarketState { return m.state }

// Halted reports whether trading is latched off.
func (m *Market) Halted() bool { return m.state == Halted }

// Reason returns why the breaker latched, HaltNone when Normal.
func (m *Market) Reason() HaltReason { return m.reason }

// TotalTrips returns the number of times the breaker has latched.
func (m *Market) TotalTrips() uint64 { return m.totalTrips }
