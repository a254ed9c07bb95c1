package usecase

import "math"

// The rolling helpers below treat math.NaN() as "missing": a window that is
// incomplete or contains a missing value yields NaN, so leading rows of a
// series stay undefined until enough history has accumulated.

// pctChange returns the element-over-previous-element relative change.
// The first element is always NaN.
func pctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 || xs[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i]/xs[i-1] - 1
	}
	return out
}

// rollingMean returns the n-period rolling mean of xs.
func rollingMean(xs []float64, n int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		out[i] = windowStat(xs, i, n, mean)
	}
	return out
}

// rollingStd returns the n-period rolling sample standard deviation of xs.
func rollingStd(xs []float64, n int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		out[i] = windowStat(xs, i, n, sampleStd)
	}
	return out
}

// windowStat applies fn to the n-element window ending at index i, or
// returns NaN when the window is incomplete or contains a NaN.
func windowStat(xs []float64, i, n int, fn func([]float64) float64) float64 {
	if i+1 < n {
		return math.NaN()
	}
	w := xs[i+1-n : i+1]
	for _, v := range w {
		if math.IsNaN(v) {
			return math.NaN()
		}
	}
	return fn(w)
}

func mean(w []float64) float64 {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	return sum / float64(len(w))
}

func sampleStd(w []float64) float64 {
	if len(w) < 2 {
		return math.NaN()
	}
	m := mean(w)
	ss := 0.0
	for _, v := range w {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(w)-1))
}

// wilderRSI computes the relative strength index over closes using Wilder's
// exponential smoothing (alpha = 1/period). The first period-1 elements are
// NaN, as is any element where the smoothed loss is zero.
func wilderRSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(closes) == 0 {
		return out
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := range closes {
		gain, loss := 0.0, 0.0
		if i > 0 {
			delta := closes[i] - closes[i-1]
			if delta > 0 {
				gain = delta
			} else {
				loss = -delta
			}
		}
		if i == 0 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = (1-alpha)*avgGain + alpha*gain
			avgLoss = (1-alpha)*avgLoss + alpha*loss
		}
		// The smoothed averages need period observations before the
		// ratio is meaningful.
		if i+1 < period {
			continue
		}
		if avgLoss == 0 {
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
