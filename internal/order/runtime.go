package order

import "mmengine-go/internal/fixed"

// Order is the type-erased runtime form: the shared record plus a status
// tag. Use it where state arrives as data, such as journal replay or a
// map of working orders. Transitions are validated at runtime and return
// *TransitionError when illegal; prefer the typed states when the state
// is known at compile time.
type Order struct {
	Data
	State Status
}

// FromPending erases a typed Pending order.
func FromPending(o Pending) Order { return Order{Data: o.data, State: StatusPending} }

// FromOpen erases a typed Open order.
func FromOpen(o Open) Order { return Order{Data: o.data, State: StatusOpen} }

// FromPartiallyFilled erases a typed PartiallyFilled order.
func FromPartiallyFilled(o PartiallyFilled) Order {
	return Order{Data: o.data, State: StatusPartiallyFilled}
}

// FromFilled erases a typed Filled order.
func FromFilled(o Filled) Order { return Order{Data: o.data, State: StatusFilled} }

// FromCancelled erases a typed Cancelled order.
func FromCancelled(o Cancelled) Order { return Order{Data: o.data, State: StatusCancelled} }

// FromRejected erases a typed Rejected order.
func FromRejected(o Rejected) Order { return Order{Data: o.data, State: StatusRejected} }

// FromExpired erases a typed Expired order.
func FromExpired(o Expired) Order { return Order{Data: o.data, State: StatusExpired} }

// Terminal reports whether the order admits no further transitions.
func (o *Order) Terminal() bool { return o.State.Terminal() }

// Active reports whether the order can still change state.
func (o *Order) Active() bool { return o.State.Active() }

// Acknowledge replays an exchange ack. Legal only from Pending.
func (o *Order) Acknowledge() error {
	if o.State != StatusPending {
		return &TransitionError{From: o.State, Event: "acknowledge"}
	}
	now := nowNs()
	o.AcknowledgedNs = now
	o.UpdatedNs = now
	o.State = StatusOpen
	return nil
}

// Reject replays an exchange rejection. Legal only from Pending.
func (o *Order) Reject(reason string) error {
	if o.State != StatusPending {
		return &TransitionError{From: o.State, Event: "reject"}
	}
	now := nowNs()
	o.CompletedNs = now
	o.UpdatedNs = now
	o.RejectReason = reason
	o.State = StatusRejected
	return nil
}

// ApplyFill replays an execution. Legal from Open and PartiallyFilled
// under the same validation rules as the typed states.
func (o *Order) ApplyFill(qty, price fixed.Point) error {
	if o.State != StatusOpen && o.State != StatusPartiallyFilled {
		return &TransitionError{From: o.State, Event: "fill"}
	}
	if ferr := o.Data.validateFill(qty, price); ferr != nil {
		return ferr
	}
	o.Data.applyFill(qty, nowNs())
	if o.Data.FullyFilled() {
		o.State = StatusFilled
	} else {
		o.State = StatusPartiallyFilled
	}
	return nil
}

// Cancel replays a cancellation. Legal from Open and PartiallyFilled.
func (o *Order) Cancel() error {
	if o.State != StatusOpen && o.State != StatusPartiallyFilled {
		return &TransitionError{From: o.State, Event: "cancel"}
	}
	now := nowNs()
	o.CompletedNs = now
	o.UpdatedNs = now
	o.State = StatusCancelled
	return nil
}

// Expire replays a time-in-force expiry. Legal only from Open.
func (o *Order) Expire() error {
	if o.State != StatusOpen {
		return &TransitionError{From: o.State, Event: "expire"}
	}
	now := nowNs()
	o.CompletedNs = now
	o.UpdatedNs = now
	o.State = StatusExpired
	return nil
}
