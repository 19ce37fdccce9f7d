// Package normalize maps raw metric values onto the [0,1] progress scale.
package normalize

import "math"

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SafeRatio returns num/den, or 0 when den is zero or the result is not finite.
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Normalize returns the share of the baseline-to-target distance covered by
// current, clamped to [0,1]. It is 0 when target equals baseline.
func Normalize(current, baseline, target float64) float64 {
	if target == baseline {
		return 0
	}
	return Clamp(SafeRatio(current-baseline, target-baseline), 0, 1)
}

// NormalizeInverted is Normalize for metrics where lower is better; target is
// expected below baseline.
func NormalizeInverted(current, baseline, target float64) float64 {
	if target == baseline {
		return 0
	}
	return Clamp(SafeRatio(baseline-current, baseline-target), 0, 1)
}
