package heuristic

import "math"

// Roulette picks an index from weights with probability weight/sum, using r
// drawn uniformly from [0,1). It returns the first index whose cumulative
// probability reaches r. Zero weights are never picked unless everything is
// zero. When the total is zero, NaN or infinite, or rounding leaves the
// cumulative sum short of r, it falls back to the last index.
func Roulette(weights []float64, r float64) int {
	last := len(weights) - 1
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return last
	}

	cumulative := 0.0
	for j, w := range weights {
		p := w / total
		cumulative += p
		if p > 0 && r <= cumulative {
			return j
		}
	}
	return last
}
