package execution

import "strconv"

// TickPrecision is the fixed-point scale: one tick is 1e-5 of the
// quoted unit.
const TickPrecision = 100_000

// Price is a fixed-point price expressed as a signed tick count.
// Arithmetic is exact integer math on ticks; conversions from float
// truncate toward zero. Callers are responsible for keeping tick
// counts inside the int64 range, overflow is not checked.
type Price struct {
	ticks int64
}

// PriceFromFloat converts a real value to a Price, truncating past the
// fifth decimal place.
func PriceFromFloat(v float64) Price {
	return Price{ticks: int64(v * TickPrecision)}
}

// PriceFromTicks wraps a raw tick count.
func PriceFromTicks(ticks int64) Price {
	return Price{ticks: ticks}
}

// Ticks returns the raw tick count.
func (p Price) Ticks() int64 { return p.ticks }

// Float64 converts back to a real value. Lossless only up to the
// precision boundary.
func (p Price) Float64() float64 {
	return float64(p.ticks) / TickPrecision
}

// Add returns p + other, exact on ticks.
func (p Price) Add(other Price) Price {
	return Price{ticks: p.ticks + other.ticks}
}

// Sub returns p - other, exact on ticks.
func (p Price) Sub(other Price) Price {
	return Price{ticks: p.ticks - other.ticks}
}

// Scale multiplies the tick count by a real factor and truncates. Used
// by the simulator's random walk; not required to round-trip.
func (p Price) Scale(factor float64) Price {
	return Price{ticks: int64(float64(p.ticks) * factor)}
}

func (p Price) LessThan(other Price) bool           { return p.ticks < other.ticks }
func (p Price) LessThanOrEqual(other Price) bool    { return p.ticks <= other.ticks }
func (p Price) GreaterThan(other Price) bool        { return p.ticks > other.ticks }
func (p Price) GreaterThanOrEqual(other Price) bool { return p.ticks >= other.ticks }
func (p Price) Equal(other Price) bool              { return p.ticks == other.ticks }

// IsZero reports whether the price holds no ticks.
func (p Price) IsZero() bool { return p.ticks == 0 }

// MidPrice returns the integer mean of two prices in ticks, ties
// truncated toward zero.
func MidPrice(a, b Price) Price {
	return Price{ticks: (a.ticks + b.ticks) / 2}
}

func (p Price) String() string {
	return strconv.FormatFloat(p.Float64(), 'f', -1, 64)
}
