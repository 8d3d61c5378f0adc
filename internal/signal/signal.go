// Package signal defines the value type strategies hand to executors.
// A Signal is a small copyable struct: no heap, no interfaces, so the
// strategy-to-executor handoff stays allocation-free on the tick path.
package signal

import (
	"fmt"

	"mmengine-go/internal/fixed"
	"mmengine-go/internal/order"
)

// Action is what the executor should do with this tick.
type Action uint8

const (
	// NoAction means hold current quotes.
	NoAction Action = iota
	// QuoteBoth places a bid and an ask.
	QuoteBoth
	// QuoteBid places only a bid.
	QuoteBid
	// QuoteAsk places only an ask.
	QuoteAsk
	// CancelAll pulls every working quote.
	CancelAll
	// TakePosition crosses the spread aggressively on Side.
	TakePosition
)

func (a Action) String() string {
	switch a {
	case NoAction:
		return "NO_ACTION"
	case QuoteBoth:
		return "QUOTE_BOTH"
	case QuoteBid:
		return "QUOTE_BID"
	case QuoteAsk:
		return "QUOTE_ASK"
	case CancelAll:
		return "CANCEL_ALL"
	default:
		return "TAKE_POSITION"
	}
}

// Signal is one strategy decision. The zero value is NoAction.
type Signal struct {
	Action   Action
	Side     order.Side // meaningful only for TakePosition
	BidPrice fixed.Point
	AskPrice fixed.Point
	Size     fixed.Point // per-side size
}

// None returns a hold signal.
func None() Signal { return Signal{} }

// Both quotes bid and ask at the given prices with size per side.
func Both(bid, ask, size fixed.Point) Signal {
	return Signal{Action: QuoteBoth, BidPrice: bid, AskPrice: ask, Size: size}
}

// Bid quotes the bid side only.
func Bid(price, size fixed.Point) Signal {
	return Signal{Action: QuoteBid, Side: order.Buy, BidPrice: price, Size: size}
}

// Ask quotes the ask side only.
func Ask(price, size fixed.Point) Signal {
	return Signal{Action: QuoteAsk, Side: order.Sell, AskPrice: price, Size: size}
}

// Cancel pulls all working quotes.
func Cancel() Signal { return Signal{Action: CancelAll} }

// Take crosses the spread on side for size.
func Take(side order.Side, size fixed.Point) Signal {
	return Signal{Action: TakePosition, Side: side, Size: size}
}

// RequiresAction reports whether the executor has anything to do.
func (s Signal) RequiresAction() bool { return s.Action != NoAction }

// TotalSize returns the summed order size the signal would place.
// Two-sided quotes count both sides; cancels and holds are zero.
func (s Signal) TotalSize() fixed.Point {
	switch s.Action {
	case QuoteBoth:
		return s.Size.SaturatingAdd(s.Size)
	case QuoteBid, QuoteAsk, TakePosition:
		return s.Size
	default:
		return 0
	}
}

// NetPositionChange returns the signed position impact assuming the
// signal executes. Symmetric quotes are treated as neutral; only
// TakePosition moves inventory deterministically.
func (s Signal) NetPositionChange() fixed.Point {
	if s.Action != TakePosition {
		return 0
	}
	if s.Side == order.Buy {
		return s.Size
	}
	return s.Size.Neg()
}

func (s Signal) String() string {
	switch s.Action {
	case QuoteBoth:
		return fmt.Sprintf("QuoteBoth{bid: %s, ask: %s, size: %s}", s.BidPrice, s.AskPrice, s.Size)
	case QuoteBid:
		return fmt.Sprintf("QuoteBid{price: %s, size: %s}", s.BidPrice, s.Size)
	case QuoteAsk:
		return fmt.Sprintf("QuoteAsk{price: %s, size: %s}", s.AskPrice, s.Size)
	case CancelAll:
		return "CancelAll"
	case TakePosition:
		return fmt.Sprintf("TakePosition{side: %s, size: %s}", s.Side, s.Size)
	default:
		return "NoAction"
	}
}
