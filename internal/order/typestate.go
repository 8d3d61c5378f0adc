package order

import "mmengine-go/internal/fixed"

// Pending is an order submitted but not yet acknowledged.
// Transitions: Acknowledge -> Open, Reject -> Rejected.
type Pending struct {
	data Data
}

// NewPending creates a limit order in the Pending state.
func NewPending(id ID, side Side, price, quantity fixed.Point) Pending {
	return NewPendingTyped(id, side, Limit, price, quantity)
}

// NewPendingTyped creates a pending order with an explicit execution style.
func NewPendingTyped(id ID, side Side, typ Type, price, quantity fixed.Point) Pending {
	now := nowNs()
	return Pending{data: Data{
		ID:        id,
		Side:      side,
		Type:      typ,
		Price:     price,
		Quantity:  quantity,
		CreatedNs: now,
		UpdatedNs: now,
	}}
}

// Data returns the underlying record.
func (o Pending) Data() Data { return o.data }

// Status returns StatusPending.
func (o Pending) Status() Status { return StatusPending }

// Acknowledge moves the order onto the book.
func (o Pending) Acknowledge() Open {
	now := nowNs()
	o.data.AcknowledgedNs = now
	o.data.UpdatedNs = now
	return Open{data: o.data}
}

// Reject terminates the order before it reaches the book.
func (o Pending) Reject(reason string) Rejected {
	now := nowNs()
	o.data.CompletedNs = now
	o.data.UpdatedNs = now
	o.data.RejectReason = reason
	return Rejected{data: o.data}
}

// Open is an acknowledged order resting on the book.
// Transitions: Fill -> Filled | PartiallyFilled, Cancel -> Cancelled,
// Expire -> Expired.
type Open struct {
	data Data
}

// Data returns the underlying record.
func (o Open) Data() Data { return o.data }

// Status returns StatusOpen.
func (o Open) Status() Status { return StatusOpen }

// Fill applies an execution. A quantity equal to the remainder yields a
// Filled terminal; less yields PartiallyFilled. Zero quantity, zero price
// or quantity over the remainder is an error and the order is unchanged.
func (o Open) Fill(qty, price fixed.Point) (FillResult, error) {
	if ferr := o.data.validateFill(qty, price); ferr != nil {
		return FillResult{}, ferr
	}
	o.data.applyFill(qty, nowNs())
	return fillResultFor(o.data), nil
}

// Cancel terminates the order with nothing further executed.
func (o Open) Cancel() Cancelled {
	now := nowNs()
	o.data.CompletedNs = now
	o.data.UpdatedNs = now
	return Cancelled{data: o.data}
}

// Expire terminates the order on time-in-force expiry.
func (o Open) Expire() Expired {
	now := nowNs()
	o.data.CompletedNs = now
	o.data.UpdatedNs = now
	return Expired{data: o.data}
}

// PartiallyFilled is an order with some quantity executed and some
// remaining. Transitions: Fill -> Filled | PartiallyFilled,
// Cancel -> Cancelled.
type PartiallyFilled struct {
	data Data
}

// Data returns the underlying record.
func (o PartiallyFilled) Data() Data { return o.data }

// Status returns StatusPartiallyFilled.
func (o PartiallyFilled) Status() Status { return StatusPartiallyFilled }

// FilledQuantity returns the executed quantity so far.
func (o PartiallyFilled) FilledQuantity() fixed.Point { return o.data.FilledQuantity }

// Remaining returns the unfilled quantity.
func (o PartiallyFilled) Remaining() fixed.Point { return o.data.Remaining() }

// Fill applies a further execution under the same validation as Open.Fill.
func (o PartiallyFilled) Fill(qty, price fixed.Point) (FillResult, error) {
	if ferr := o.data.validateFill(qty, price); ferr != nil {
		return FillResult{}, ferr
	}
	o.data.applyFill(qty, nowNs())
	return fillResultFor(o.data), nil
}

// Cancel terminates the order, keeping any quantity already executed.
func (o PartiallyFilled) Cancel() Cancelled {
	now := nowNs()
	o.data.CompletedNs = now
	o.data.UpdatedNs = now
	return Cancelled{data: o.data}
}

// Filled is the fully-executed terminal state. No transitions.
type Filled struct {
	data Data
}

// Data returns the underlying record.
func (o Filled) Data() Data { return o.data }

// Status returns StatusFilled.
func (o Filled) Status() Status { return StatusFilled }

// FilledQuantity always equals the order quantity.
func (o Filled) FilledQuantity() fixed.Point { return o.data.FilledQuantity }

// Cancelled is a terminal state. No transitions.
type Cancelled struct {
	data Data
}

// Data returns the underlying record.
func (o Cancelled) Data() Data { return o.data }

// Status returns StatusCancelled.
func (o Cancelled) Status() Status { return StatusCancelled }

// FilledQuantity returns what executed before the cancel, if anything.
func (o Cancelled) FilledQuantity() fixed.Point { return o.data.FilledQuantity }

// WasPartiallyFilled reports whether any quantity executed before the cancel.
func (o Cancelled) WasPartiallyFilled() bool { return o.data.FilledQuantity > 0 }

// Rejected is a terminal state reached only from Pending. No transitions.
type Rejected struct {
	data Data
}

// Data returns the underlying record.
func (o Rejected) Data() Data { return o.data }

// Status returns StatusRejected.
func (o Rejected) Status() Status { return StatusRejected }

// Reason returns the exchange rejection reason.
func (o Rejected) Reason() string { return o.data.RejectReason }

// Expired is a terminal state for time-in-force expiry. No transitions.
type Expired struct {
	data Data
}

// Data returns the underlying record.
func (o Expired) Data() Data { return o.data }

// Status returns StatusExpired.
func (o Expired) Status() Status { return StatusExpired }

// FillResult is the outcome of a successful fill: exactly one of Filled
// or Partial is set.
type FillResult struct {
	filled  *Filled
	partial *PartiallyFilled
}

func fillResultFor(d Data) FillResult {
	if d.FullyFilled() {
		return FillResult{filled: &Filled{data: d}}
	}
	return FillResult{partial: &PartiallyFilled{data: d}}
}

// IsFilled reports whether the fill completed the order.
func (r FillResult) IsFilled() bool { return r.filled != nil }

// IsPartiallyFilled reports whether quantity remains after the fill.
func (r FillResult) IsPartiallyFilled() bool { return r.partial != nil }

// Filled returns the terminal order when the fill completed it.
func (r FillResult) Filled() (Filled, bool) {
	if r.filled == nil {
		return Filled{}, false
	}
	return *r.filled, true
}

// PartiallyFilled returns the still-working order when quantity remains.
func (r FillResult) PartiallyFilled() (PartiallyFilled, bool) {
	if r.partial == nil {
		return PartiallyFilled{}, false
	}
	return *r.partial, true
}
