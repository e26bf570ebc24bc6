package util

import "math"

// EMA is an exponential moving average. The first sample seeds the state.
type EMA struct {
	alpha, prev float64
	ok          bool
}

func NewEMA(alpha float64) *EMA { return &EMA{alpha: alpha} }

func (e *EMA) Next(v float64) float64 {
	if !e.ok {
		e.prev, e.ok = v, true
		return v
	}
	e.prev = e.alpha*v + (1-e.alpha)*e.prev
	return e.prev
}

// Value returns the last smoothed value, or 0 before the first sample.
func (e *EMA) Value() float64 { return e.prev }

func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	// guard against NaN
	if math.IsNaN(x) {
		return 0
	}
	return x
}

// Pow is a^b for a > 0 and 0 otherwise. b == 1 short-circuits so the common
// unweighted case does not lose precision through exp/log.
func Pow(a, b float64) float64 {
	if a <= 0 {
		return 0
	}
	if b == 1 {
		return a
	}
	return math.Exp(b * math.Log(a))
}
