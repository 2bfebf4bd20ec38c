package forecast

import "math"

// Small-series helpers. The forecaster needs nothing beyond means, variances
// and an OLS slope, so no numeric dependency is carried for them.

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mu := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 { return math.Sqrt(variance(xs)) }

// olsSlope fits a least-squares line over the index and returns its slope.
func olsSlope(xs []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return 0
	}
	tMean := (n - 1) / 2
	xMean := mean(xs)
	num, den := 0.0, 0.0
	for i, x := range xs {
		dt := float64(i) - tMean
		num += dt * (x - xMean)
		den += dt * dt
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// intervalConfidence normalizes a 95% prediction interval half-width against
// the mean forecast level into [0,1]: a tight interval relative to the
// forecast scores near 1, an interval as wide as the forecast itself scores 0.
func intervalConfidence(curve []float64, residualStd float64) float64 {
	level := mean(curve)
	if level <= 0 {
		return 0
	}
	halfWidth := 1.96 * residualStd
	return clamp01(1 - halfWidth/level)
}

func clamp01(x float64) float64 { return math.Max(0, math.Min(1, x)) }
