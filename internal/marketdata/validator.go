package marketdata

import (
	"fmt"
	"time"
)

// ValidationError reports why a snapshot was rejected.
type ValidationError struct {
	Rule   string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("marketdata: %s", e.Rule)
	}
	return fmt.Sprintf("marketdata: %s: %s", e.Rule, e.Detail)
}

// Validator applies the structural rules every snapshot must satisfy
// before the engine acts on it. One instance per feed; not safe for
// concurrent use.
type Validator struct {
	// MaxAge bounds how old an exchange timestamp may be. Zero disables
	// the age check.
	MaxAge time.Duration
	// now is swapped in tests.
	now func() int64
}

// NewValidator returns a validator with a 5 second age bound.
func NewValidator() *Validator {
	return &Validator{MaxAge: 5 * time.Second, now: func() int64 { return time.Now().UnixNano() }}
}

// NewValidatorMaxAge returns a validator with a custom age bound.
func NewValidatorMaxAge(maxAge time.Duration) *Validator {
	v := NewValidator()
	v.MaxAge = maxAge
	return v
}

// Validate checks s against every rule and returns the first violation.
//
// Rules applied to all snapshots: non-zero sequence, positive touch
// prices, bid strictly below ask, exchange timestamp not in the future
// and within MaxAge. Depth arrays are checked only on full snapshots;
// incremental updates legitimately carry empty depth.
func (v *Validator) Validate(s *Snapshot) error {
	if s.Sequence == 0 {
		return &ValidationError{Rule: "zero sequence"}
	}
	if s.BestBidPrice <= 0 {
		return &ValidationError{Rule: "non-positive bid", Detail: fmt.Sprintf("bid=%d", s.BestBidPrice)}
	}
	if s.BestAskPrice <= 0 {
		return &ValidationError{Rule: "non-positive ask", Detail: fmt.Sprintf("ask=%d", s.BestAskPrice)}
	}
	if s.BestBidPrice >= s.BestAskPrice {
		return &ValidationError{
			Rule:   "crossed book",
			Detail: fmt.Sprintf("bid=%d ask=%d", s.BestBidPrice, s.BestAskPrice),
		}
	}

	now := v.now()
	if s.ExchangeTimeNs > now {
		return &ValidationError{Rule: "future timestamp", Detail: fmt.Sprintf("skew=%dns", s.ExchangeTimeNs-now)}
	}
	if v.MaxAge > 0 && now-s.ExchangeTimeNs > int64(v.MaxAge) {
		return &ValidationError{
			Rule:   "stale snapshot",
			Detail: fmt.Sprintf("age=%s max=%s", time.Duration(now-s.ExchangeTimeNs), v.MaxAge),
		}
	}

	if s.IsFull() {
		if err := v.validateDepth(s); err != nil {
			return err
		}
	}
	return nil
}

// validateDepth requires every populated level of a full snapshot to be
// internally consistent: positive prices and sizes, bids strictly
// descending, asks strictly ascending.
func (v *Validator) validateDepth(s *Snapshot) error {
	for i := 0; i < DepthLevels; i++ {
		if s.BidPrices[i] == 0 && s.AskPrices[i] == 0 {
			break // remaining levels unpopulated
		}
		if s.BidPrices[i] <= 0 || s.BidSizes[i] <= 0 {
			return &ValidationError{Rule: "invalid bid depth", Detail: fmt.Sprintf("level=%d", i)}
		}
		if s.AskPrices[i] <= 0 || s.AskSizes[i] <= 0 {
			return &ValidationError{Rule: "invalid ask depth", Detail: fmt.Sprintf("level=%d", i)}
		}
		if i > 0 {
			if s.BidPrices[i] >= s.BidPrices[i-1] {
				return &ValidationError{Rule: "bid depth not descending", Detail: fmt.Sprintf("level=%d", i)}
			}
			if s.AskPrices[i] <= s.AskPrices[i-1] {
				return &ValidationError{Rule: "ask depth not ascending", Detail: fmt.Sprintf("level=%d", i)}
			}
		}
	}
	return nil
}

// Valid is the boolean form of Validate.
func (v *Validator) Valid(s *Snapshot) bool { return v.Validate(s) == nil }
