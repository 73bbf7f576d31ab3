// Package geometry provides small float helpers for the layout engine.
package geometry

import "math"

// Min returns the minimum of two floats.
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two floats.
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Clamp restricts x to the range [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Finite returns x when finite, otherwise the fallback.
func Finite(x, fallback float64) float64 {
	if IsFinite(x) {
		return x
	}
	return fallback
}
