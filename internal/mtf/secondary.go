package mtf

import (
	"fmt"
	"math"

	"mtf-confirmation-service/internal/indicator"
	"mtf-confirmation-service/internal/series"
)

type secondaryOutcome struct {
	Strength float64
	Details  SecondaryDetails
}

// evaluateSecondary scores the faster timeframe: EMA 9/21/50 stacking,
// RSI(14) and volume. It is a compensating signal, not a gatekeeper, so
// unusable input scores the neutral 0.5 instead of failing.
func (e *Evaluator) evaluateSecondary(symbol string, signal SignalType, s *series.PriceSeries) secondaryOutcome {
	label := fmt.Sprintf("%s %s", symbol, e.cfg.SecondaryTimeframe)
	if !series.Validate(e.logger, s, MinSecondaryRows, label) {
		return secondaryOutcome{
			Strength: 0.5,
			Details:  SecondaryDetails{Error: ErrInsufficientSecondary},
		}
	}

	closes := s.Close
	price := closes[len(closes)-1]
	ema9 := indicator.EMA(closes, 9)
	ema21 := indicator.EMA(closes, 21)
	ema50 := indicator.EMA(closes, 50)
	rsi := indicator.RSI(closes, 14)
	volRatio := indicator.VolumeRatio(s.Volume, 20)
	atrPct := indicator.SafeDiv(indicator.AvgRange(s.High, s.Low, 14), price, 0)

	d := SecondaryDetails{
		EMA9:        ema9,
		EMA21:       ema21,
		EMA50:       ema50,
		RSI:         rsi,
		VolumeRatio: volRatio,
		ATRPct:      atrPct,
	}

	if signal == SignalShort {
		d.PriceAligned = price < ema9
		d.FastMidAligned = ema9 < ema21
		d.MidSlowAligned = ema21 < ema50
		d.RSIAligned = rsi < 50
		d.RSIStrong = rsi < 40
	} else {
		d.PriceAligned = price > ema9
		d.FastMidAligned = ema9 > ema21
		d.MidSlowAligned = ema21 > ema50
		d.RSIAligned = rsi > 50
		d.RSIStrong = rsi > 60
	}

	score := 0.0
	if d.PriceAligned {
		score += 1.0
	}
	if d.FastMidAligned {
		score += 1.0
	}
	if d.MidSlowAligned {
		score += 1.0
	}
	if d.RSIAligned {
		score += 1.0
	}
	if d.RSIStrong {
		score += 0.5
	}
	strength := score / 5.0

	// High relative volume amplifies whatever the trend score says.
	if volRatio > 1.5 {
		strength = math.Min(1.0, strength+0.20)
	} else if volRatio > 1.2 {
		strength = math.Min(1.0, strength+0.10)
	}

	return secondaryOutcome{Strength: strength, Details: d}
}
