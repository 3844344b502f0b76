// sim/metrics_utils.go
package sim

import "math"

// Clamp bounds x to [lo, hi]. NaN maps to lo.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}

// Round1 rounds to one decimal place, the precision scores are reported at.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// SanitizeNonNegative returns x, or 0 when x is negative, NaN or infinite.
// The second return reports whether a clamp happened so callers can log it.
func SanitizeNonNegative(x float64) (float64, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0, true
	}
	return x, false
}
