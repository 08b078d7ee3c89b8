// Package indicator implements the technical indicators used by the
// trend confirmation pipeline. All functions operate on slices ordered
// oldest first and tolerate short inputs instead of panicking.
package indicator

import "math"

// SafeDiv divides num by den, returning fallback when the denominator is
// zero or non-finite. All ratio computations go through this helper.
func SafeDiv(num, den, fallback float64) float64 {
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return fallback
	}
	res := num / den
	if math.IsNaN(res) || math.IsInf(res, 0) {
		return fallback
	}
	return res
}

// EMASeries computes an exponential moving average over the full series,
// seeded at the first sample so it is defined for any non-empty input.
func EMASeries(values []float64, span int) []float64 {
	if len(values) == 0 || span <= 0 {
		return nil
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// EMA returns the latest exponential moving average value, or 0 for an
// empty series.
func EMA(values []float64, span int) float64 {
	s := EMASeries(values, span)
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// SMA returns the simple moving average over the trailing window. When
// fewer than period values exist the average covers what is available.
func SMA(values []float64, period int) float64 {
	if len(values) == 0 || period <= 0 {
		return 0
	}
	if period > len(values) {
		period = len(values)
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// MACD computes the 12/26 moving average convergence divergence with a
// 9-period signal line. Returns the latest macd, signal and histogram.
func MACD(values []float64) (macd, signal, histogram float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	fast := EMASeries(values, 12)
	slow := EMASeries(values, 26)
	macdSeries := make([]float64, len(values))
	for i := range values {
		macdSeries[i] = fast[i] - slow[i]
	}
	signalSeries := EMASeries(macdSeries, 9)
	macd = macdSeries[len(macdSeries)-1]
	signal = signalSeries[len(signalSeries)-1]
	return macd, signal, macd - signal
}

// RSI computes the relative strength index over the trailing period using
// simple rolling means of gains and losses. Returns 50 when there is not
// enough data and 100 when the window has gains but no losses.
func RSI(values []float64, period int) float64 {
	if len(values) < period+1 || period <= 0 {
		return 50
	}
	gains := 0.0
	losses := 0.0
	for i := len(values) - period; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// VolumeRatio compares the latest volume against its simple moving
// average over the trailing period (current bar included). Returns 1 when
// the average is zero.
func VolumeRatio(volumes []float64, period int) float64 {
	if len(volumes) == 0 {
		return 1
	}
	return SafeDiv(volumes[len(volumes)-1], SMA(volumes, period), 1)
}

// AvgRange returns the mean high-low range over the trailing period, a
// cheap volatility proxy.
func AvgRange(high, low []float64, period int) float64 {
	n := len(high)
	if n == 0 || len(low) != n || period <= 0 {
		return 0
	}
	if period > n {
		period = n
	}
	sum := 0.0
	for i := n - period; i < n; i++ {
		sum += high[i] - low[i]
	}
	return sum / float64(period)
}
