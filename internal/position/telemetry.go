package position

import "mmengine-go/internal/fixed"

// Telemetry is a read-only projection of a ledger for dashboards and
// metrics exporters. Its accessors saturate instead of erroring: a gauge
// pinned at the representable extreme is preferable to a failed scrape,
// and the checked write path has already rejected anything that would
// corrupt the ledger itself.
type Telemetry struct {
	p *Position
}

// Telemetry returns the read-only projection of this ledger.
func (p *Position) Telemetry() Telemetry {
	return Telemetry{p: p}
}

// NetExposure returns quantity marked at the given price, saturating on
// overflow rather than reporting an error.
func (t Telemetry) NetExposure(mark fixed.Point) fixed.Point {
	qty := t.p.Quantity()
	v, err := qty.CheckedMul(mark)
	if err != nil {
		if (qty < 0) != (mark < 0) {
			return fixed.Min
		}
		return fixed.Max
	}
	return v
}

// TotalPnL returns realized plus unrealized PnL at the mark, saturating.
func (t Telemetry) TotalPnL(mark fixed.Point) fixed.Point {
	return t.p.RealizedPnL().SaturatingAdd(t.p.UnrealizedPnL(mark))
}

// QuantityFloat returns the position quantity as a float64 for gauge
// export. Precision loss beyond 2^53 is acceptable here.
func (t Telemetry) QuantityFloat() float64 { return t.p.Quantity().Float() }

// DailyPnLFloat returns the daily PnL as a float64 for gauge export.
func (t Telemetry) DailyPnLFloat() float64 { return t.p.DailyPnL().Float() }

// RealizedPnLFloat returns the cumulative realized PnL as a float64.
func (t Telemetry) RealizedPnLFloat() float64 { return t.p.RealizedPnL().Float() }
