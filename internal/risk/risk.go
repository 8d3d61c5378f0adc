// Package risk holds pre-trade sizing limits, checked before an order
// reaches the book.
package risk

import "mmengine-go/internal/fixed"

// Limits caps how much a single order may commit. Zero values disable
// the corresponding check.
type Limits struct {
	MaxNotionalPerTrade fixed.Point
	MaxOrderSize        fixed.Point
}

// AllowNotional reports whether a trade of the given notional fits.
func (l Limits) AllowNotional(notional fixed.Point) bool {
	return l.MaxNotionalPerTrade <= 0 || notional <= l.MaxNotionalPerTrade
}

// AllowSize reports whether a single order of the given size fits.
func (l Limits) AllowSize(size fixed.Point) bool {
	return l.MaxOrderSize <= 0 || size <= l.MaxOrderSize
}
