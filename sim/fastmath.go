package sim

import "math"

// Fast math helpers for hot-path physics calculations.
// These avoid float32->float64 conversions that Go's math package requires.

// fastSqrt approximates sqrt(x) using fast inverse sqrt with one Newton step.
func fastSqrt(x float32) float32 {
	if x <= 0 {
		return 0
	}
	i := math.Float32bits(x)
	i = 0x5f375a86 - (i >> 1)
	y := math.Float32frombits(i)
	y = y * (1.5 - 0.5*x*y*y)
	return x * y
}

// fastExp approximates exp(x) for x in [-4, 4] via a Padé approximation.
func fastExp(x float32) float32 {
	if x > 4 {
		return 54.6
	}
	if x < -4 {
		return 0
	}
	x2 := x * x
	return (12 + 6*x + x2) / (12 - 6*x + x2)
}

// powf raises a non-negative base to an arbitrary exponent.
func powf(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}

// mod returns positive modulo (Go's % can return negative).
func mod(a, b float32) float32 {
	m := float32(math.Mod(float64(a), float64(b)))
	if m < 0 {
		m += b
	}
	return m
}

// clampf clamps a float32 value between min and max.
func clampf(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// absf returns |x|.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// isFinite reports whether x is neither NaN nor infinite.
func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}
