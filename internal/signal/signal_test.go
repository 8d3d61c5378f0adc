package signal

import (
	"testing"

	"mmengine-go/internal/fixed"
	"mmengine-go/internal/order"
)

func pt(t *testing.T, s string) fixed.Point {
	t.Helper()
	p, err := fixed.FromString(s)
	if err != nil {
		t.Fatalf("FromString(%q): %v", s, err)
	}
	return p
}

func TestZeroValueIsNoAction(t *testing.T) {
	var s Signal
	if s.RequiresAction() {
		t.Fatal("zero value requires action")
	}
	if s.TotalSize() != 0 || s.NetPositionChange() != 0 {
		t.Fatalf("size=%d net=%d", s.TotalSize(), s.NetPositionChange())
	}
	if s != None() {
		t.Fatal("zero value differs from None()")
	}
}

func TestQuoteBothAccounting(t *testing.T) {
	s := Both(pt(t, "49990"), pt(t, "50010"), pt(t, "0.5"))
	if !s.RequiresAction() {
		t.Fatal("quote both requires action")
	}
	if got, want := s.TotalSize(), pt(t, "1"); got != want {
		t.Fatalf("total size = %d, want %d", got, want)
	}
	if s.NetPositionChange() != 0 {
		t.Fatalf("symmetric quote net change = %d", s.NetPositionChange())
	}
}

func TestOneSidedQuotes(t *testing.T) {
	b := Bid(pt(t, "49990"), pt(t, "0.5"))
	if b.Action != QuoteBid || b.TotalSize() != pt(t, "0.5") {
		t.Fatalf("bid: action=%v size=%d", b.Action, b.TotalSize())
	}
	if b.NetPositionChange() != 0 {
		t.Fatalf("resting bid net change = %d", b.NetPositionChange())
	}

	a := Ask(pt(t, "50010"), pt(t, "0.5"))
	if a.Action != QuoteAsk || a.AskPrice != pt(t, "50010") {
		t.Fatalf("ask: %+v", a)
	}
}

func TestTakePositionNetChange(t *testing.T) {
	buy := Take(order.Buy, pt(t, "2"))
	if got, want := buy.NetPositionChange(), pt(t, "2"); got != want {
		t.Fatalf("buy net = %d, want %d", got, want)
	}
	sell := Take(order.Sell, pt(t, "2"))
	if got, want := sell.NetPositionChange(), pt(t, "-2"); got != want {
		t.Fatalf("sell net = %d, want %d", got, want)
	}
	if buy.TotalSize() != pt(t, "2") {
		t.Fatalf("take size = %d", buy.TotalSize())
	}
}

func TestCancelAll(t *testing.T) {
	c := Cancel()
	if !c.RequiresAction() {
		t.Fatal("cancel requires action")
	}
	if c.TotalSize() != 0 || c.NetPositionChange() != 0 {
		t.Fatalf("cancel size=%d net=%d", c.TotalSize(), c.NetPositionChange())
	}
}
