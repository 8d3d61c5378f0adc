// Package marketdata defines the book snapshot consumed by the tick loop
// and the stream-integrity guards around it: structural validation,
// sequence gap detection and freshness tracking.
package marketdata

import "mmengine-go/internal/fixed"

// DepthLevels is the number of book levels carried on each side of a
// snapshot beyond the touch.
const DepthLevels = 10

// FlagFull marks a snapshot carrying a complete book image. Unset means
// an incremental top-of-book update whose depth arrays may be partially
// or entirely empty.
const FlagFull uint8 = 1 << 0

// Snapshot is one observation of the book. Value type; the feed layer
// produces them and the engine consumes them without sharing.
type Snapshot struct {
	MarketID       uint64
	Sequence       uint64
	ExchangeTimeNs int64
	LocalRecvNs    int64

	BestBidPrice fixed.Point
	BestBidSize  fixed.Point
	BestAskPrice fixed.Point
	BestAskSize  fixed.Point

	BidPrices [DepthLevels]fixed.Point
	BidSizes  [DepthLevels]fixed.Point
	AskPrices [DepthLevels]fixed.Point
	AskSizes  [DepthLevels]fixed.Point

	Flags uint8
}

// IsFull reports whether the snapshot carries a complete book image.
// Only bit 0 is inspected; the remaining flag bits are reserved.
func (s *Snapshot) IsFull() bool { return s.Flags&FlagFull != 0 }

// IsIncremental reports whether the snapshot is a top-of-book update.
func (s *Snapshot) IsIncremental() bool { return !s.IsFull() }

// Mid returns the midpoint of the touch.
func (s *Snapshot) Mid() fixed.Point {
	return fixed.Mid(s.BestBidPrice, s.BestAskPrice)
}

// SpreadBps returns the touch spread in basis points of the bid.
func (s *Snapshot) SpreadBps() int64 {
	return fixed.SpreadBps(s.BestBidPrice, s.BestAskPrice)
}

// Crossed reports a bid at or through the ask.
func (s *Snapshot) Crossed() bool { return s.BestBidPrice >= s.BestAskPrice }

// TopUnchanged reports whether two snapshots agree on everything a
// quoting decision depends on: the touch prices and sizes. Sequence and
// timestamps are deliberately ignored so heartbeat re-sends short-circuit
// the pipeline.
func (s *Snapshot) TopUnchanged(prev *Snapshot) bool {
	return s.BestBidPrice == prev.BestBidPrice &&
		s.BestAskPrice == prev.BestAskPrice &&
		s.BestBidSize == prev.BestBidSize &&
		s.BestAskSize == prev.BestAskSize
}
