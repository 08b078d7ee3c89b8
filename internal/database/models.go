package database

import (
	"encoding/json"
	"time"
)

// Evaluation is a persisted confirmation check.
type Evaluation struct {
	ID                int64           `json:"id"`
	Symbol            string          `json:"symbol"`
	SignalType        string          `json:"signal_type"`
	Confirmed         bool            `json:"confirmed"`
	Confidence        float64         `json:"confidence"`
	PrimaryConfirmed  bool            `json:"primary_confirmed"`
	PrimaryConfidence float64         `json:"primary_confidence"`
	SecondaryStrength float64         `json:"secondary_strength"`
	MarketMomentum    float64         `json:"market_momentum"`
	Boost             float64         `json:"boost"`
	Reason            string          `json:"reason"`
	ErrorKind         string          `json:"error_kind,omitempty"`
	Details           json.RawMessage `json:"details,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// EvaluationStats aggregates persisted evaluations over a time window.
type EvaluationStats struct {
	Total         int64   `json:"total"`
	Confirmed     int64   `json:"confirmed"`
	LongCount     int64   `json:"long_count"`
	ShortCount    int64   `json:"short_count"`
	AvgConfidence float64 `json:"avg_confidence"`
	AvgBoost      float64 `json:"avg_boost"`
}
