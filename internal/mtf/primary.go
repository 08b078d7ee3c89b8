package mtf

import (
	"fmt"
	"math"

	"mtf-confirmation-service/internal/indicator"
	"mtf-confirmation-service/internal/series"
)

type primaryOutcome struct {
	Confirmed  bool
	Confidence float64
	Details    PrimaryDetails
}

// evaluatePrimary scores the slower timeframe with an EMA(8)/EMA(21)
// crossover tier and a MACD(12,26,9) adjustment.
func (e *Evaluator) evaluatePrimary(symbol string, signal SignalType, s *series.PriceSeries) primaryOutcome {
	tf := e.cfg.PrimaryTimeframe
	label := fmt.Sprintf("%s %s", symbol, tf)
	if !series.Validate(e.logger, s, MinPrimaryRows, label) {
		return primaryOutcome{
			Details: PrimaryDetails{
				Reason: "insufficient primary data",
				Error:  ErrInsufficientPrimary,
			},
		}
	}

	closes := s.Close
	price := closes[len(closes)-1]
	emaFast := indicator.EMA(closes, 8)
	emaSlow := indicator.EMA(closes, 21)
	macd, signalLine, hist := indicator.MACD(closes)

	var confidence float64
	var tierOK bool
	var reason string

	if signal == SignalShort {
		switch {
		case price < emaFast && emaFast < emaSlow:
			confidence, tierOK, reason = 0.85, true, tf+" strong bearish trend"
		case price < emaSlow && emaFast < emaSlow:
			confidence, tierOK, reason = 0.75, true, tf+" bearish trend"
		case price < emaSlow:
			confidence, tierOK, reason = 0.65, true, tf+" price below slow EMA"
		default:
			confidence, tierOK, reason = 0.40, false, tf+" not bearish"
		}
		if macd < signalLine && hist < 0 {
			confidence = math.Min(1.0, confidence+0.15)
			reason += " + MACD bearish"
		} else if macd > signalLine {
			confidence = math.Max(0.0, confidence-0.10)
			reason += " - MACD bullish"
		}
	} else {
		switch {
		case price > emaFast && emaFast > emaSlow:
			confidence, tierOK, reason = 0.85, true, tf+" strong bullish trend"
		case price > emaSlow && emaFast > emaSlow:
			confidence, tierOK, reason = 0.75, true, tf+" bullish trend"
		case price > emaSlow:
			confidence, tierOK, reason = 0.65, true, tf+" price above slow EMA"
		default:
			confidence, tierOK, reason = 0.40, false, tf+" not bullish"
		}
		if macd > signalLine && hist > 0 {
			confidence = math.Min(1.0, confidence+0.15)
			reason += " + MACD bullish"
		} else if macd < signalLine {
			confidence = math.Max(0.0, confidence-0.10)
			reason += " - MACD bearish"
		}
	}

	return primaryOutcome{
		Confirmed:  tierOK && confidence >= e.cfg.MinPrimaryConfidence,
		Confidence: confidence,
		Details: PrimaryDetails{
			Price:      price,
			EMAFast:    emaFast,
			EMASlow:    emaSlow,
			MACD:       macd,
			MACDSignal: signalLine,
			MACDHist:   hist,
			Reason:     reason,
		},
	}
}
