package mtf

import (
	"fmt"
	"strings"
)

// SignalType is the direction of a proposed trade signal.
type SignalType string

const (
	SignalLong  SignalType = "LONG"
	SignalShort SignalType = "SHORT"
)

// ParseSignalType normalizes a direction string. BUY/SELL are accepted as
// aliases since upstream signal generators use both vocabularies.
func ParseSignalType(s string) (SignalType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return SignalLong, nil
	case "SHORT", "SELL":
		return SignalShort, nil
	default:
		return "", fmt.Errorf("invalid signal type: %q", s)
	}
}

// ErrorKind classifies evaluation failures. All kinds are non-fatal to the
// caller; a Result is always returned.
type ErrorKind string

const (
	ErrNone                  ErrorKind = ""
	ErrInsufficientPrimary   ErrorKind = "insufficient_primary_data"
	ErrInsufficientSecondary ErrorKind = "insufficient_secondary_data"
	ErrComputation           ErrorKind = "computation_error"
)

// PrimaryDetails carries the intermediate values of the primary-timeframe
// trend evaluation.
type PrimaryDetails struct {
	Price      float64   `json:"price"`
	EMAFast    float64   `json:"ema_fast"`
	EMASlow    float64   `json:"ema_slow"`
	MACD       float64   `json:"macd"`
	MACDSignal float64   `json:"macd_signal"`
	MACDHist   float64   `json:"macd_histogram"`
	Reason     string    `json:"reason"`
	Error      ErrorKind `json:"error,omitempty"`
}

// SecondaryDetails carries the intermediate values of the secondary
// momentum evaluation. The aligned flags are direction-relative: for LONG
// they mean "above", for SHORT "below".
type SecondaryDetails struct {
	PriceAligned   bool      `json:"price_aligned"`
	FastMidAligned bool      `json:"fast_mid_aligned"`
	MidSlowAligned bool      `json:"mid_slow_aligned"`
	RSIAligned     bool      `json:"rsi_aligned"`
	RSIStrong      bool      `json:"rsi_strong"`
	EMA9           float64   `json:"ema_9"`
	EMA21          float64   `json:"ema_21"`
	EMA50          float64   `json:"ema_50"`
	RSI            float64   `json:"rsi"`
	VolumeRatio    float64   `json:"volume_ratio"`
	ATRPct         float64   `json:"atr_pct"`
	Error          ErrorKind `json:"error,omitempty"`
}

// Result is the immutable outcome of one confirmation check.
type Result struct {
	Symbol    string     `json:"symbol"`
	Signal    SignalType `json:"signal_type"`
	Confirmed bool       `json:"confirmed"`
	// Confidence is the final boosted confidence in [0,1].
	Confidence float64 `json:"confidence"`

	PrimaryConfirmed  bool    `json:"primary_confirmed"`
	PrimaryConfidence float64 `json:"primary_confidence"`
	SecondaryStrength float64 `json:"secondary_strength"`
	MarketMomentum    float64 `json:"market_momentum"`
	// Boost is the total compensation applied, capped at MaxHybridBoost.
	Boost float64 `json:"boost"`

	Reason string    `json:"reason"`
	Error  ErrorKind `json:"error,omitempty"`

	Primary   PrimaryDetails   `json:"primary"`
	Secondary SecondaryDetails `json:"secondary"`
}

// DetailsMap flattens the result into a generic map for structured logging
// and persistence.
func (r Result) DetailsMap() map[string]interface{} {
	m := map[string]interface{}{
		"symbol":             r.Symbol,
		"signal_type":        string(r.Signal),
		"confirmed":          r.Confirmed,
		"confidence":         r.Confidence,
		"primary_confirmed":  r.PrimaryConfirmed,
		"primary_confidence": r.PrimaryConfidence,
		"secondary_strength": r.SecondaryStrength,
		"market_momentum":    r.MarketMomentum,
		"boost":              r.Boost,
		"reason":             r.Reason,
	}
	if r.Error != ErrNone {
		m["error"] = string(r.Error)
	}
	return m
}
