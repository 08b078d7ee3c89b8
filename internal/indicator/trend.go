package indicator

// TrendDirection classifies a series as trending up, down or sideways.
type TrendDirection string

const (
	TrendUp       TrendDirection = "UPTREND"
	TrendDown     TrendDirection = "DOWNTREND"
	TrendSideways TrendDirection = "SIDEWAYS"
)

// DetectTrend compares a fast and a slow EMA of the closes. A difference
// inside a 0.5% band of the slow EMA counts as sideways.
func DetectTrend(closes []float64, fastPeriod, slowPeriod int) TrendDirection {
	if len(closes) < slowPeriod {
		return TrendSideways
	}

	fastEMA := EMA(closes, fastPeriod)
	slowEMA := EMA(closes, slowPeriod)
	if slowEMA == 0 {
		return TrendSideways
	}

	diff := (fastEMA - slowEMA) / slowEMA
	switch {
	case diff > 0.005:
		return TrendUp
	case diff < -0.005:
		return TrendDown
	default:
		return TrendSideways
	}
}
