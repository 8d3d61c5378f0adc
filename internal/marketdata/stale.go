package marketdata

import "time"

// Freshness is the state of the stale-data tracker.
type Freshness uint8

const (
	// Fresh means data is recent and trading may proceed.
	Fresh Freshness = iota
	// Stale means the age bound was exceeded; stop quoting.
	Stale
	// Offline means the feed stopped delivering entirely.
	Offline
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "FRESH"
	case Stale:
		return "STALE"
	default:
		return "OFFLINE"
	}
}

// StaleConfig bounds how long the tracker tolerates silence.
type StaleConfig struct {
	// MaxAge is the longest gap since the last update before data is
	// considered stale.
	MaxAge time.Duration
	// MaxEmptyPolls is the number of consecutive empty polls tolerated
	// before the feed is declared offline.
	MaxEmptyPolls uint64
}

// DefaultStaleConfig mirrors the feed-loss tolerances used in production:
// 5 seconds of silence is stale, a thousand empty polls is offline.
func DefaultStaleConfig() StaleConfig {
	return StaleConfig{MaxAge: 5 * time.Second, MaxEmptyPolls: 1000}
}

// StaleDetector tracks data freshness from the poll loop's perspective.
// MarkFresh on every delivered snapshot, MarkEmptyPoll on every empty
// poll; IsFresh gates the hot path. Single goroutine only.
type StaleDetector struct {
	cfg        StaleConfig
	state      Freshness
	lastUpdate time.Time
	emptyPolls uint64
	now        func() time.Time
}

// NewStaleDetector returns a tracker in the Fresh state.
func NewStaleDetector(cfg StaleConfig) *StaleDetector {
	d := &StaleDetector{cfg: cfg, state: Fresh, now: time.Now}
	d.lastUpdate = d.now()
	return d
}

// IsFresh reports whether trading on current data is allowed.
func (d *StaleDetector) IsFresh() bool { return d.state == Fresh }

// State returns the current freshness state.
func (d *StaleDetector) State() Freshness { return d.state }

// MarkFresh records a delivered update, clearing any stale condition.
func (d *StaleDetector) MarkFresh() {
	d.lastUpdate = d.now()
	d.emptyPolls = 0
	d.state = Fresh
}

// MarkEmptyPoll records a poll that delivered nothing. Enough of them in
// a row means Offline; otherwise age alone can degrade Fresh to Stale.
func (d *StaleDetector) MarkEmptyPoll() {
	d.emptyPolls++
	if d.emptyPolls > d.cfg.MaxEmptyPolls {
		d.state = Offline
		return
	}
	if d.now().Sub(d.lastUpdate) > d.cfg.MaxAge {
		d.state = Stale
	}
}

// TimeSinceUpdate returns the elapsed time since the last fresh update.
func (d *StaleDetector) TimeSinceUpdate() time.Duration {
	return d.now().Sub(d.lastUpdate)
}

// EmptyPolls returns the current consecutive empty poll count.
func (d *StaleDetector) EmptyPolls() uint64 { return d.emptyPolls }

// Reset restores the Fresh state after recovery.
func (d *StaleDetector) Reset() {
	d.lastUpdate = d.now()
	d.emptyPolls = 0
	d.state = Fresh
}
