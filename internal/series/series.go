// Package series holds OHLCV candle data in columnar form for indicator math.
package series

import (
	"fmt"
	"log/slog"
	"math"

	"mtf-confirmation-service/internal/binance"
)

// PriceSeries is a columnar view of candles ordered oldest first.
type PriceSeries struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// FromKlines converts exchange candles into a PriceSeries.
func FromKlines(klines []binance.Kline) *PriceSeries {
	s := &PriceSeries{
		Open:   make([]float64, len(klines)),
		High:   make([]float64, len(klines)),
		Low:    make([]float64, len(klines)),
		Close:  make([]float64, len(klines)),
		Volume: make([]float64, len(klines)),
	}
	for i, k := range klines {
		s.Open[i] = k.Open
		s.High[i] = k.High
		s.Low[i] = k.Low
		s.Close[i] = k.Close
		s.Volume[i] = k.Volume
	}
	return s
}

// Len returns the number of rows in the series.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Close)
}

// LastClose returns the most recent closing price, or 0 for an empty series.
func (s *PriceSeries) LastClose() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Close[len(s.Close)-1]
}

// Validate reports whether the series is usable for indicator computation.
// Every rejection is logged as a warning with the given label so a skipped
// evaluation can be traced back to its input.
func Validate(logger *slog.Logger, s *PriceSeries, minRows int, label string) bool {
	if s == nil {
		logger.Warn(fmt.Sprintf("[MTF-DATA] %s: series is nil", label))
		return false
	}
	if s.Len() == 0 {
		if len(s.Open) > 0 || len(s.High) > 0 || len(s.Low) > 0 || len(s.Volume) > 0 {
			logger.Warn(fmt.Sprintf("[MTF-DATA] %s: close column missing", label))
		} else {
			logger.Warn(fmt.Sprintf("[MTF-DATA] %s: series is empty", label))
		}
		return false
	}
	if s.Len() < minRows {
		logger.Warn(fmt.Sprintf("[MTF-DATA] %s: %d rows, need %d", label, s.Len(), minRows))
		return false
	}
	for i, c := range s.Close {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			logger.Warn(fmt.Sprintf("[MTF-DATA] %s: non-finite close at row %d", label, i))
			return false
		}
		if c <= 0 {
			logger.Warn(fmt.Sprintf("[MTF-DATA] %s: non-positive close %.8f at row %d", label, c, i))
			return false
		}
	}
	return true
}
