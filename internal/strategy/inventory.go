package strategy

import (
	"github.com/shopspring/decimal"

	"mmengine-go/internal/fixed"
	"mmengine-go/internal/marketdata"
	"mmengine-go/internal/position"
	"mmengine-go/internal/signal"
)

// InventorySkew quotes around a reservation price instead of the mid,
// shading quotes away from the side that would grow an unwanted position
// (Avellaneda-Stoikov in the high-frequency limit):
//
//	r     = mid - q*gamma*sigma^2*T
//	delta = gamma*sigma^2*T
//
// where q is inventory relative to target.
type InventorySkew struct {
	target       fixed.Point
	riskAversion float64
	volatility   float64
	horizonSecs  float64
	orderSize    fixed.Point

	lastQuantity fixed.Point
	signals      uint64
	fills        uint64
}

// NewInventorySkew returns the inventory-sensitive quoting strategy.
func NewInventorySkew(target fixed.Point, gamma, sigma, horizonSecs float64, orderSize fixed.Point) *InventorySkew {
	if gamma <= 0 {
		gamma = 0.1
	}
	if horizonSecs <= 0 {
		horizonSecs = 1
	}
	return &InventorySkew{
		target:       target,
		riskAversion: gamma,
		volatility:   sigma,
		horizonSecs:  horizonSecs,
		orderSize:    orderSize,
	}
}

// Name implements Strategy.
func (s *InventorySkew) Name() string { return "inventory_skew" }

// OnTick quotes around the reservation price computed from the ledger's
// current quantity. Books where the skew pushes the quotes negative or
// inverted are skipped.
func (s *InventorySkew) OnTick(snap *marketdata.Snapshot, pos position.Snapshot) (signal.Signal, bool) {
	s.lastQuantity = pos.Quantity
	mid := snap.Mid()
	if mid <= 0 {
		return signal.None(), false
	}

	r := s.reservationPrice(mid, pos.Quantity)
	halfSpread := decimal.NewFromFloat(s.optimalSpread() / 2)

	bid, err := fixed.FromDecimal(r.Sub(halfSpread))
	if err != nil {
		return signal.None(), false
	}
	ask, err := fixed.FromDecimal(r.Add(halfSpread))
	if err != nil {
		return signal.None(), false
	}
	if bid <= 0 || ask <= bid {
		return signal.None(), false
	}

	s.signals++
	return signal.Both(bid, ask, s.orderSize), true
}

// reservationPrice shifts the mid against the current inventory excess.
func (s *InventorySkew) reservationPrice(mid, quantity fixed.Point) decimal.Decimal {
	q := quantity.SaturatingSub(s.target).Float()
	adj := q * s.riskAversion * s.volatility * s.volatility * s.horizonSecs
	return mid.Decimal().Sub(decimal.NewFromFloat(adj))
}

// optimalSpread is gamma*sigma^2*T, the high-frequency-limit width.
func (s *InventorySkew) optimalSpread() float64 {
	return s.riskAversion * s.volatility * s.volatility * s.horizonSecs
}

// OnFill implements Strategy. Inventory comes from the ledger snapshot
// on each tick, so fills only move the counter here.
func (s *InventorySkew) OnFill(position.Fill) { s.fills++ }

// Inventory returns the quantity observed on the last tick.
func (s *InventorySkew) Inventory() fixed.Point { return s.lastQuantity }

// InventoryRiskHigh reports whether the last observed position has
// drifted more than ten order sizes from target.
func (s *InventorySkew) InventoryRiskHigh() bool {
	distance := s.lastQuantity.SaturatingSub(s.target).Abs()
	threshold, err := s.orderSize.CheckedMul(fixed.FromInt(10))
	if err != nil {
		return false
	}
	return distance > threshold
}
