package marketdata

import "math"

// GapDetector finds holes in a monotonically increasing sequence number
// stream, surviving wraparound at the top of the uint64 range. Single
// consumer; not safe for concurrent use.
type GapDetector struct {
	lastSequence uint64
	lastGapSize  uint64
	gapDetected  bool
	ready        bool
}

// NewGapDetector returns a detector awaiting its first sequence number.
func NewGapDetector() *GapDetector {
	return &GapDetector{}
}

// Check records a sequence number and returns the number of messages
// missed since the previous one. The first observation and exact
// duplicates return zero.
func (g *GapDetector) Check(seq uint64) uint64 {
	if !g.ready {
		g.lastSequence = seq
		g.ready = true
		g.gapDetected = false
		g.lastGapSize = 0
		return 0
	}
	if seq == g.lastSequence {
		return 0
	}

	gap := gapBetween(g.lastSequence, seq)
	g.lastSequence = seq
	if gap > 0 {
		g.gapDetected = true
		g.lastGapSize = gap
	} else {
		g.gapDetected = false
		g.lastGapSize = 0
	}
	return gap
}

// gapBetween counts the sequence numbers missing strictly between last
// and current. When current < last the counter wrapped: the hole spans
// (last, MaxUint64] plus [0, current).
func gapBetween(last, current uint64) uint64 {
	if current > last {
		return current - last - 1
	}
	if current < last {
		return math.MaxUint64 - last + current
	}
	return 0
}

// GapDetected reports whether the most recent Check found a hole.
func (g *GapDetector) GapDetected() bool { return g.gapDetected }

// LastGapSize returns the size of the most recent hole, zero if none.
func (g *GapDetector) LastGapSize() uint64 { return g.lastGapSize }

// Ready reports whether a first sequence number has been seen.
func (g *GapDetector) Ready() bool { return g.ready }

// LastSequence returns the most recently recorded sequence number.
func (g *GapDetector) LastSequence() uint64 { return g.lastSequence }

// Reset clears all state, as after a full reconnect.
func (g *GapDetector) Reset() {
	*g = GapDetector{}
}

// ResetAt primes the detector to continue from a recovered sequence
// number, as after applying a recovery snapshot at seq.
func (g *GapDetector) ResetAt(seq uint64) {
	g.lastSequence = seq
	g.lastGapSize = 0
	g.gapDetected = false
	g.ready = true
}
