package mathutil

import "math"

// Abs64 returns the absolute value of an int64.
// math.MinInt64 saturates to math.MaxInt64 instead of wrapping back to a negative value.
func Abs64(n int64) int64 {
	if n == math.MinInt64 {
		return math.MaxInt64
	}
	if n < 0 {
		return -n
	}
	return n
}

// Midpoint64 returns (a+b)/2 truncated toward zero without overflowing int64.
func Midpoint64(a, b int64) int64 {
	if a > b {
		a, b = b, a
	}
	// Opposite signs cannot overflow
	if (a < 0) != (b < 0) {
		return (a + b) / 2
	}
	if a >= 0 {
		return a + (b-a)/2
	}
	return b - (b-a)/2
}

// MidpointFloat64 returns the arithmetic mean of two int64 values as a float64
func MidpointFloat64(a, b int64) float64 {
	return float64(a)/2 + float64(b)/2
}

// Minutes converts whole seconds to whole minutes, truncating toward zero
func Minutes(seconds int64) int64 {
	return seconds / 60
}
