package breaker

import (
	"time"

	"github.com/rs/zerolog"
)

// ConnState is a connection breaker state.
type ConnState uint8

const (
	// Closed: traffic flows normally.
	Closed ConnState = iota
	// Open: the upstream is failing; all attempts are refused until the
	// cooldown elapses.
	Open
	// HalfOpen: probing. A limited number of attempts are allowed; enough
	// successes close the breaker, any failure reopens it.
	HalfOpen
)

func (s ConnState) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	default:
		return "HALF_OPEN"
	}
}

// ConnConfig tunes the connection breaker.
type ConnConfig struct {
	// FailureThreshold is the consecutive failure count that opens the
	// breaker from Closed.
	FailureThreshold uint32
	// SuccessThreshold is the consecutive success count that closes the
	// breaker from HalfOpen.
	SuccessThreshold uint32
	// Cooldown is how long the breaker stays Open before probing.
	Cooldown time.Duration
}

// DefaultConnConfig matches the feed reconnect tolerances: five straight
// failures open the breaker, two probe successes close it, 30s cooldown.
func DefaultConnConfig() ConnConfig {
	return ConnConfig{FailureThreshold: 5, SuccessThreshold: 2, Cooldown: 30 * time.Second}
}

// Connection is the three-state breaker wrapped around an unreliable
// upstream such as an exchange websocket. Callers ask Allow before each
// attempt and report the outcome with RecordSuccess or RecordFailure.
// Single goroutine only; the feed loop owns it.
type Connection struct {
	cfg       ConnConfig
	log       zerolog.Logger
	state     ConnState
	failures  uint32
	successes uint32
	openedAt  time.Time
	now       func() time.Time
}

// NewConnection returns a breaker in the Closed state.
func NewConnection(cfg ConnConfig, log zerolog.Logger) *Connection {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Connection{
		cfg: cfg,
		log: log.With().Str("component", "conn_breaker").Logger(),
		now: time.Now,
	}
}

// Allow reports whether an attempt may proceed. An Open breaker whose
// cooldown has elapsed moves to HalfOpen and allows the probe.
func (c *Connection) Allow() bool {
	switch c.state {
	case Closed, HalfOpen:
		return true
	default: // Open
		if c.now().Sub(c.openedAt) >= c.cfg.Cooldown {
			c.transition(HalfOpen)
			c.successes = 0
			return true
		}
		return false
	}
}

// RecordSuccess reports a successful attempt.
func (c *Connection) RecordSuccess() {
	switch c.state {
	case Closed:
		c.failures = 0
	case HalfOpen:
		c.successes++
		if c.successes >= c.cfg.SuccessThreshold {
			c.transition(Closed)
			c.failures = 0
			c.successes = 0
		}
	}
}

// RecordFailure reports a failed attempt. From HalfOpen a single failure
// reopens the breaker and restarts the cooldown.
func (c *Connection) RecordFailure() {
	switch c.state {
	case Closed:
		c.failures++
		if c.failures >= c.cfg.FailureThreshold {
			c.open()
		}
	case HalfOpen:
		c.open()
	case Open:
		// Already open; attempts should have been refused.
	}
}

func (c *Connection) open() {
	c.openedAt = c.now()
	c.successes = 0
	c.transition(Open)
}

func (c *Connection) transition(next ConnState) {
	if next == c.state {
		return
	}
	c.log.Warn().
		Str("from", c.state.String()).
		Str("to", next.String()).
		Uint32("failures", c.failures).
		Msg("connection breaker transition")
	c.state = next
}

// State returns the current state.
func (c *Connection) State() ConnState { return c.state }

// Failures returns the current consecutive failure count.
func (c *Connection) Failures() uint32 { return c.failures }

// Reset forces the breaker back to Closed, clearing all counters.
func (c *Connection) Reset() {
	c.state = Closed
	c.failures = 0
	c.successes = 0
}
