package mtf

import (
	"math"
	"strings"
)

// MarketContext is an optional market-wide snapshot supplied by the
// caller. All change fields are fractional (0.02 = +2%). A nil context is
// valid and scores neutral.
type MarketContext struct {
	BTCChange12h float64 `json:"btc_change_12h"`
	ETHChange12h float64 `json:"eth_change_12h"`
	SOLChange12h float64 `json:"sol_change_12h"`
	MarketRegime string  `json:"market_regime"` // BULL_TREND / BEAR_TREND / NEUTRAL
	OverallTrend string  `json:"overall_trend"` // BULLISH / BEARISH / NEUTRAL
}

// tierAdjust maps a 12h fractional change onto the additive momentum
// adjustment for one reference asset. The dead zone between -2% and +1%
// contributes nothing. NaN fails every comparison and also scores zero.
func tierAdjust(change, strong, mid, weak float64) float64 {
	switch {
	case change > 0.04:
		return strong
	case change > 0.02:
		return mid
	case change > 0.01:
		return weak
	case change < -0.04:
		return -strong
	case change < -0.02:
		return -mid
	}
	return 0
}

// MarketMomentum converts a market context into a momentum score in
// [0,1]. Absent context returns the neutral 0.5. BTC carries full weight,
// ETH 30% and SOL 20%; the regime label adds a flat +/-0.30.
func MarketMomentum(ctx *MarketContext) float64 {
	if ctx == nil {
		return 0.5
	}

	score := 0.5
	score += tierAdjust(ctx.BTCChange12h, 0.40, 0.20, 0.10)
	score += tierAdjust(ctx.ETHChange12h, 0.30, 0.15, 0.08)
	score += tierAdjust(ctx.SOLChange12h, 0.20, 0.10, 0.05)

	regime := strings.ToUpper(ctx.MarketRegime)
	trend := strings.ToUpper(ctx.OverallTrend)
	if regime == "BULL_TREND" || trend == "BULLISH" {
		score += 0.30
	} else if regime == "BEAR_TREND" || trend == "BEARISH" {
		score -= 0.30
	}

	if math.IsNaN(score) {
		return 0.5
	}
	return math.Max(0, math.Min(1, score))
}
