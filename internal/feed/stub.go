package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
)

// StubConfig shapes the synthetic book.
type StubConfig struct {
	// StartMid is the first midpoint, in integer price units.
	StartMid int64
	// SpreadBps is the synthetic touch spread.
	SpreadBps int64
	// StepBps is how far the mid drifts per snapshot, alternating
	// direction every Cycle snapshots.
	StepBps int64
	Cycle   int
	// Interval throttles Poll. Zero means no wait, which tests use.
	Interval time.Duration
}

// DefaultStubConfig is a slow random-walk-looking book around 100.
func DefaultStubConfig() StubConfig {
	return StubConfig{StartMid: 100, SpreadBps: 10, StepBps: 2, Cycle: 40, Interval: 250 * time.Millisecond}
}

// Stub is a deterministic synthetic source. Same config, same sequence of
// snapshots, every run. Single goroutine.
type Stub struct {
	cfg StubConfig
	log zerolog.Logger

	mid fixed.Point
	seq uint64
	n   int
	up  bool
}

// NewStub returns a stub source at the configured starting mid.
func NewStub(cfg StubConfig, log zerolog.Logger) *Stub {
	if cfg.StartMid <= 0 {
		cfg.StartMid = 100
	}
	if cfg.SpreadBps <= 0 {
		cfg.SpreadBps = 10
	}
	if cfg.Cycle <= 0 {
		cfg.Cycle = 40
	}
	return &Stub{
		cfg: cfg,
		log: log.With().Str("component", "stub_feed").Logger(),
		mid: fixed.FromInt(cfg.StartMid),
		up:  true,
	}
}

// Name implements Source.
func (s *Stub) Name() string { return ProviderStub }

// Close implements Source.
func (s *Stub) Close() error { return nil }

// Poll implements Source. Never returns an empty poll: the stub is the
// one feed that cannot go stale.
func (s *Stub) Poll(ctx context.Context) (*marketdata.Snapshot, bool, error) {
	if s.cfg.Interval > 0 {
		timer := time.NewTimer(s.cfg.Interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-timer.C:
		}
	}

	s.advance()
	s.seq++

	half := fixed.Point(int64(s.mid) / 10000 * s.cfg.SpreadBps / 2)
	now := time.Now().UnixNano()
	snap := &marketdata.Snapshot{
		MarketID:       1,
		Sequence:       s.seq,
		ExchangeTimeNs: now,
		LocalRecvNs:    now,
		BestBidPrice:   s.mid - half,
		BestBidSize:    fixed.FromInt(5),
		BestAskPrice:   s.mid + half,
		BestAskSize:    fixed.FromInt(5),
	}
	return snap, true, nil
}

// advance drifts the mid one step, reversing direction every Cycle steps
// so the walk stays bounded.
func (s *Stub) advance() {
	s.n++
	if s.n%s.cfg.Cycle == 0 {
		s.up = !s.up
	}
	step := fixed.Point(int64(s.mid) / 10000 * s.cfg.StepBps)
	if s.up {
		s.mid += step
	} else {
		s.mid -= step
	}
}
