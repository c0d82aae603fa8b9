// Package money provides deterministic currency rounding helpers.
//
// Every derived monetary value in the engine (subtotals, discount amounts,
// post-discount totals, remaining balances, production costs) passes through
// Round2 before being compared, stored, or displayed so that floating-point
// drift never trips an invariant check.
package money

import "math"

// Round2 rounds x to the nearest hundredth, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Equal reports whether two rounded amounts represent the same value.
func Equal(a, b float64) bool {
	return math.Abs(Round2(a)-Round2(b)) < 0.005
}
