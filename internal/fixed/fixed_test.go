package fixed

import (
	"errors"
	"math"
	"testing"
)

func TestFromFloatRejectsNaN(t *testing.T) {
	if _, err := FromFloat(math.NaN()); err == nil {
		t.Fatalf("expected conversion error for NaN")
	}
	var convErr *ConversionError
	_, err := FromFloat(math.NaN())
	if !errors.As(err, &convErr) || convErr.Kind != KindNaN {
		t.Fatalf("expected KindNaN, got %v", err)
	}
}

func TestFromFloatRejectsInfinities(t *testing.T) {
	for _, v := range []float64{math.Inf(1), math.Inf(-1)} {
		_, err := FromFloat(v)
		var convErr *ConversionError
		if !errors.As(err, &convErr) || convErr.Kind != KindInfinite {
			t.Fatalf("expected KindInfinite for %v, got %v", v, err)
		}
	}
}

func TestFromFloatRejectsOutOfRange(t *testing.T) {
	for _, v := range []float64{1e20, -1e20, MaxSafeFloat * 2} {
		_, err := FromFloat(v)
		var convErr *ConversionError
		if !errors.As(err, &convErr) || convErr.Kind != KindOutOfRange {
			t.Fatalf("expected KindOutOfRange for %v, got %v", v, err)
		}
	}
}

func TestFromFloatRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, -1, 50000.123456789, 0.000000001, -987654.321} {
		p, err := FromFloat(v)
		if err != nil {
			t.Fatalf("unexpected error converting %v: %v", v, err)
		}
		back := p.Float()
		if math.Abs(back-v) >= 1e-9*math.Max(1, math.Abs(v)) {
			t.Fatalf("round trip of %v drifted to %v", v, back)
		}
	}
}

func TestFromStringExact(t *testing.T) {
	p, err := FromString("50000.25")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if int64(p) != 50_000_250_000_000 {
		t.Fatalf("expected 50000.25 scaled, got %d", int64(p))
	}
	if _, err := FromString("not-a-price"); err == nil {
		t.Fatalf("expected parse failure")
	}
}

func TestCheckedAddExact(t *testing.T) {
	a, b := FromInt(1234), FromInt(-234)
	sum, err := a.CheckedAdd(b)
	if err != nil {
		t.Fatalf("unexpected overflow: %v", err)
	}
	if sum != FromInt(1000) {
		t.Fatalf("expected exact 1000, got %s", sum)
	}
}

func TestCheckedAddOverflow(t *testing.T) {
	if _, err := Max.CheckedAdd(1); err == nil {
		t.Fatalf("expected overflow on Max+1")
	}
	if _, err := Min.CheckedAdd(-1); err == nil {
		t.Fatalf("expected overflow on Min-1")
	}
	if _, err := Min.CheckedSub(1); err == nil {
		t.Fatalf("expected overflow on Min-1 via sub")
	}
}

func TestCheckedMulWideIntermediate(t *testing.T) {
	price := FromInt(50_000)
	size, _ := FromFloat(0.1)
	got, err := price.CheckedMul(size)
	if err != nil {
		t.Fatalf("unexpected overflow: %v", err)
	}
	if got != FromInt(5_000) {
		t.Fatalf("expected 5000, got %s", got)
	}

	// Two large-but-valid operands must not overflow the intermediate.
	big := FromInt(3_000_000_000) // 3e9 units
	small, _ := FromFloat(0.000001)
	got, err = big.CheckedMul(small)
	if err != nil {
		t.Fatalf("unexpected overflow on wide intermediate: %v", err)
	}
	if got != FromInt(3_000) {
		t.Fatalf("expected 3000, got %s", got)
	}
}

func TestCheckedMulOverflow(t *testing.T) {
	if _, err := Max.CheckedMul(FromInt(2)); err == nil {
		t.Fatalf("expected multiply overflow")
	}
}

func TestSaturatingClampsAtBounds(t *testing.T) {
	if got := Max.SaturatingAdd(FromInt(1)); got != Max {
		t.Fatalf("expected clamp at Max, got %s", got)
	}
	if got := Min.SaturatingAdd(FromInt(-1)); got != Min {
		t.Fatalf("expected clamp at Min, got %s", got)
	}
	if got := Min.SaturatingSub(FromInt(1)); got != Min {
		t.Fatalf("expected clamp at Min, got %s", got)
	}
	if got := FromInt(1).SaturatingAdd(FromInt(2)); got != FromInt(3) {
		t.Fatalf("expected plain add, got %s", got)
	}
}

func TestSpreadBps(t *testing.T) {
	bid := FromInt(50_000)
	ask, _ := FromFloat(50_005)
	if got := SpreadBps(bid, ask); got != 1 {
		t.Fatalf("expected 1bps, got %d", got)
	}
	wide, _ := FromFloat(52_500)
	if got := SpreadBps(bid, wide); got != 500 {
		t.Fatalf("expected 500bps, got %d", got)
	}
	if got := SpreadBps(0, ask); got != 0 {
		t.Fatalf("expected 0 for zero bid, got %d", got)
	}
}

func TestMidAvoidsOverflow(t *testing.T) {
	if got := Mid(Max-1, Max-1); got != Max-1 {
		t.Fatalf("expected midpoint of equal operands, got %d", int64(got))
	}
	if got := Mid(FromInt(100), FromInt(102)); got != FromInt(101) {
		t.Fatalf("expected 101, got %s", got)
	}
}

func TestNegAbsSaturateAtMin(t *testing.T) {
	if Min.Neg() != Max {
		t.Fatalf("expected Min negation to saturate")
	}
	if Min.Abs() != Max {
		t.Fatalf("expected Min abs to saturate")
	}
	if FromInt(-5).Abs() != FromInt(5) {
		t.Fatalf("expected |−5| = 5")
	}
}
