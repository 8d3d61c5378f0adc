// Package order implements the order lifecycle state machine. The typed
// states (Pending, Open, PartiallyFilled and the terminals) make invalid
// transitions unrepresentable: each state exposes only its legal
// transitions, so "fill a cancelled order" is not a runtime branch, it is
// a method that does not exist. A tagged runtime form (Order) is provided
// for storage and journal replay, where state arrives as data.
package order

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"mmengine-go/internal/fixed"
)

// Side is the order direction.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Type is the order execution style.
type Type uint8

const (
	Limit Type = iota
	Market
	PostOnly
)

func (t Type) String() string {
	switch t {
	case Limit:
		return "LIMIT"
	case Market:
		return "MARKET"
	default:
		return "POST_ONLY"
	}
}

// Status is the lifecycle state tag used by the runtime Order form.
type Status uint8

const (
	StatusPending Status = iota
	StatusOpen
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
	StatusRejected
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusOpen:
		return "OPEN"
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusRejected:
		return "REJECTED"
	case StatusExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions exist from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Active reports whether the order can still receive fills or be cancelled.
func (s Status) Active() bool { return !s.Terminal() }

var idCounter atomic.Uint32

// ID is a 128-bit order identifier laid out as
// [timestamp ns:64][random:32][counter:32], unique across restarts and
// roughly sortable by creation time.
type ID struct {
	Hi uint64
	Lo uint64
}

// NewID generates a fresh identifier.
func NewID() ID {
	return ID{
		Hi: uint64(time.Now().UnixNano()),
		Lo: uint64(rand.Uint32())<<32 | uint64(idCounter.Add(1)),
	}
}

func (id ID) String() string {
	return fmt.Sprintf("%016x%016x", id.Hi, id.Lo)
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id.Hi == 0 && id.Lo == 0 }

// FillError rejects a fill that would corrupt order accounting. The order
// is left unchanged when one of these is returned.
type FillError struct {
	Reason    FillErrorReason
	Quantity  fixed.Point
	Remaining fixed.Point
	Total     fixed.Point
}

// FillErrorReason discriminates fill validation failures.
type FillErrorReason uint8

const (
	// FillZeroQuantity rejects a fill with no quantity.
	FillZeroQuantity FillErrorReason = iota
	// FillZeroPrice rejects a fill at price zero.
	FillZeroPrice
	// FillExceedsRemaining rejects a fill larger than the unfilled quantity.
	FillExceedsRemaining
)

func (e *FillError) Error() string {
	switch e.Reason {
	case FillZeroQuantity:
		return "order: fill quantity cannot be zero"
	case FillZeroPrice:
		return "order: fill price cannot be zero"
	default:
		return fmt.Sprintf("order: fill quantity %d exceeds remaining %d (total %d)",
			e.Quantity, e.Remaining, e.Total)
	}
}

// TransitionError rejects an event that is not legal from the order's
// current state. Only the runtime Order form can produce one; the typed
// states cannot express the transition at all.
type TransitionError struct {
	From  Status
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order: cannot %s from %s", e.Event, e.From)
}

// Data is the record shared by every lifecycle state.
type Data struct {
	ID             ID
	Side           Side
	Type           Type
	Price          fixed.Point
	Quantity       fixed.Point
	FilledQuantity fixed.Point
	CreatedNs      int64
	UpdatedNs      int64
	AcknowledgedNs int64 // zero until acknowledged
	CompletedNs    int64 // zero until terminal
	RejectReason   string
}

// Remaining returns the unfilled quantity.
func (d *Data) Remaining() fixed.Point {
	return d.Quantity.SaturatingSub(d.FilledQuantity)
}

// FullyFilled reports whether no quantity remains.
func (d *Data) FullyFilled() bool { return d.FilledQuantity >= d.Quantity }

// FillPercent returns filled/total scaled to 0-100 fixed-point. Zero-total
// orders report zero.
func (d *Data) FillPercent() fixed.Point {
	if d.Quantity == 0 {
		return 0
	}
	hundred := fixed.FromInt(100)
	part, err := d.FilledQuantity.CheckedMul(hundred)
	if err != nil {
		return hundred
	}
	pct := part.Decimal().Div(d.Quantity.Decimal())
	p, err := fixed.FromDecimal(pct)
	if err != nil {
		return hundred
	}
	return p
}

// validateFill applies the shared fill checks without mutating d.
func (d *Data) validateFill(qty, price fixed.Point) *FillError {
	if qty == 0 {
		return &FillError{Reason: FillZeroQuantity}
	}
	if price == 0 {
		return &FillError{Reason: FillZeroPrice}
	}
	remaining := d.Remaining()
	if qty > remaining {
		return &FillError{
			Reason:    FillExceedsRemaining,
			Quantity:  qty,
			Remaining: remaining,
			Total:     d.Quantity,
		}
	}
	return nil
}

func (d *Data) applyFill(qty fixed.Point, now int64) {
	d.FilledQuantity = d.FilledQuantity.SaturatingAdd(qty)
	d.UpdatedNs = now
	if d.FullyFilled() {
		d.CompletedNs = now
	}
}

func nowNs() int64 { return time.Now().UnixNano() }
