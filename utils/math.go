package utils

import (
	"math"
)

// Float64AlmostEqual compares two float64s and returns if the difference between them is less
// than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// WrapToPi maps an angle in radians onto (-pi, pi].
func WrapToPi(theta float64) float64 {
	wrapped := math.Mod(theta+math.Pi, 2*math.Pi)
	if wrapped <= 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

// AngleDiff returns the shortest signed angular difference b - a in radians.
func AngleDiff(a, b float64) float64 {
	return WrapToPi(b - a)
}

// IsFinite reports whether every element of the vector is neither NaN nor infinite.
func IsFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
