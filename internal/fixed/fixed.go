// Package fixed implements exact scaled-integer arithmetic for prices and
// sizes. All money-affecting math in the engine happens on Point values;
// float64 exists only at the display/metrics boundary.
package fixed

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/shopspring/decimal"
)

// Point is a signed decimal quantity scaled by Scale (9 decimal places).
type Point int64

// Scale is the fixed-point scaling factor (10^9).
const Scale int64 = 1_000_000_000

const (
	// MaxSafeFloat is the largest float64 magnitude FromFloat accepts.
	MaxSafeFloat = float64(math.MaxInt64 / Scale)
	// MinSafeFloat is the most negative float64 magnitude FromFloat accepts.
	MinSafeFloat = float64(math.MinInt64 / Scale)

	// Max and Min are the representable bounds.
	Max Point = math.MaxInt64
	Min Point = math.MinInt64
)

// ConversionKind classifies why a float could not become a Point.
type ConversionKind uint8

const (
	// KindNaN marks a not-a-number input.
	KindNaN ConversionKind = iota
	// KindInfinite marks a positive or negative infinity input.
	KindInfinite
	// KindOutOfRange marks a finite input outside the safe range.
	KindOutOfRange
)

// ConversionError reports a rejected float-to-fixed conversion.
type ConversionError struct {
	Kind  ConversionKind
	Value float64
}

func (e *ConversionError) Error() string {
	switch e.Kind {
	case KindNaN:
		return "fixed: cannot convert NaN"
	case KindInfinite:
		if e.Value > 0 {
			return "fixed: cannot convert positive infinity"
		}
		return "fixed: cannot convert negative infinity"
	default:
		return fmt.Sprintf("fixed: value %g outside representable range", e.Value)
	}
}

// ErrOverflow is returned by the checked arithmetic operations.
type ErrOverflow struct {
	Op   string
	A, B Point
}

func (e *ErrOverflow) Error() string {
	return fmt.Sprintf("fixed: %s overflow: %d %s %d exceeds int64", e.Op, int64(e.A), e.Op, int64(e.B))
}

// FromFloat converts a float64 to a Point, rejecting NaN, infinities and
// magnitudes outside the safe range instead of producing garbage.
func FromFloat(v float64) (Point, error) {
	if math.IsNaN(v) {
		return 0, &ConversionError{Kind: KindNaN, Value: v}
	}
	if math.IsInf(v, 0) {
		return 0, &ConversionError{Kind: KindInfinite, Value: v}
	}
	if v > MaxSafeFloat || v < MinSafeFloat {
		return 0, &ConversionError{Kind: KindOutOfRange, Value: v}
	}
	return Point(v * float64(Scale)), nil
}

// FromInt converts whole units (e.g. dollars) to a Point.
// Values outside the safe integer range saturate; callers converting
// untrusted input should go through FromDecimal instead.
func FromInt(v int64) Point {
	if v > math.MaxInt64/Scale {
		return Max
	}
	if v < math.MinInt64/Scale {
		return Min
	}
	return Point(v * Scale)
}

// FromDecimal converts an exact decimal value to a Point.
func FromDecimal(d decimal.Decimal) (Point, error) {
	scaled := d.Mul(decimal.New(Scale, 0))
	if !scaled.IsInteger() {
		scaled = scaled.Truncate(0)
	}
	bi := scaled.BigInt()
	if !bi.IsInt64() {
		f, _ := d.Float64()
		return 0, &ConversionError{Kind: KindOutOfRange, Value: f}
	}
	return Point(bi.Int64()), nil
}

// FromString parses a decimal string (e.g. "50000.25") exactly, without
// passing through float64.
func FromString(s string) (Point, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("fixed: parse %q: %w", s, err)
	}
	return FromDecimal(d)
}

// Float converts a Point to float64. Lossy; display and metrics only.
func (p Point) Float() float64 {
	return float64(p) / float64(Scale)
}

// Decimal converts a Point to an exact decimal value.
func (p Point) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -9)
}

// String renders the value with full 9-decimal precision trimmed.
func (p Point) String() string {
	return p.Decimal().String()
}

// CheckedAdd returns p+q or an overflow error; the inputs are untouched.
func (p Point) CheckedAdd(q Point) (Point, error) {
	sum := p + q
	if (q > 0 && sum < p) || (q < 0 && sum > p) {
		return 0, &ErrOverflow{Op: "+", A: p, B: q}
	}
	return sum, nil
}

// CheckedSub returns p-q or an overflow error.
func (p Point) CheckedSub(q Point) (Point, error) {
	diff := p - q
	if (q < 0 && diff < p) || (q > 0 && diff > p) {
		return 0, &ErrOverflow{Op: "-", A: p, B: q}
	}
	return diff, nil
}

// CheckedMul multiplies two scaled values and rescales the 128-bit
// intermediate, so e.g. 50000.0 * 0.1 does not spuriously overflow.
func (p Point) CheckedMul(q Point) (Point, error) {
	r, ok := mulDivScale(int64(p), int64(q))
	if !ok {
		return 0, &ErrOverflow{Op: "*", A: p, B: q}
	}
	return Point(r), nil
}

// SaturatingAdd clamps at the representable bounds. Telemetry paths only;
// the ledger and fill pipeline must use the checked variants.
func (p Point) SaturatingAdd(q Point) Point {
	sum, err := p.CheckedAdd(q)
	if err == nil {
		return sum
	}
	if q > 0 {
		return Max
	}
	return Min
}

// SaturatingSub clamps at the representable bounds. Telemetry paths only.
func (p Point) SaturatingSub(q Point) Point {
	diff, err := p.CheckedSub(q)
	if err == nil {
		return diff
	}
	if q > 0 {
		return Min
	}
	return Max
}

// Neg returns -p; negating Min saturates to Max.
func (p Point) Neg() Point {
	if p == Min {
		return Max
	}
	return -p
}

// Abs returns the magnitude; Min saturates to Max.
func (p Point) Abs() Point {
	if p < 0 {
		return p.Neg()
	}
	return p
}

// IsPositive reports p > 0.
func (p Point) IsPositive() bool { return p > 0 }

// IsNegative reports p < 0.
func (p Point) IsNegative() bool { return p < 0 }

// SpreadBps returns (ask-bid)/bid in basis points, the sign-free integer
// form used by the anomaly breaker. Returns 0 when bid is not positive.
func SpreadBps(bid, ask Point) int64 {
	if bid <= 0 || ask <= bid {
		return 0
	}
	spread := uint64(ask - bid)
	hi, lo := bits.Mul64(spread, 10_000)
	if hi >= uint64(bid) {
		return math.MaxInt64
	}
	quo, _ := bits.Div64(hi, lo, uint64(bid))
	if quo > uint64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(quo)
}

// Mid returns the midpoint of bid and ask without intermediate overflow.
func Mid(bid, ask Point) Point {
	return bid/2 + ask/2 + (bid%2+ask%2)/2
}

// mulDivScale computes a*b/Scale with a 128-bit intermediate.
// Reports false when the rescaled result does not fit in int64.
func mulDivScale(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	neg := (a < 0) != (b < 0)
	ua := absU64(a)
	ub := absU64(b)
	hi, lo := bits.Mul64(ua, ub)
	if hi >= uint64(Scale) {
		return 0, false
	}
	quo, _ := bits.Div64(hi, lo, uint64(Scale))
	if neg {
		if quo > uint64(math.MaxInt64)+1 {
			return 0, false
		}
		if quo == uint64(math.MaxInt64)+1 {
			return math.MinInt64, true
		}
		return -int64(quo), true
	}
	if quo > uint64(math.MaxInt64) {
		return 0, false
	}
	return int64(quo), true
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}
