// Package mtf implements hybrid multi-timeframe trend confirmation: a
// pure, stateless check that decides whether the higher-timeframe trend
// supports a proposed LONG/SHORT signal, with the faster timeframe and
// market-wide momentum compensating for the primary timeframe's lag.
package mtf

import (
	"fmt"
	"log/slog"

	"mtf-confirmation-service/internal/series"
)

// Evaluator runs the confirmation pipeline. It holds no mutable state, so
// a single instance is safe for concurrent use across symbols.
type Evaluator struct {
	cfg    Config
	logger *slog.Logger
}

func NewEvaluator(cfg Config, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{cfg: cfg.withDefaults(), logger: logger}
}

// Config returns the effective configuration after defaulting.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// Check runs the full confirmation pipeline for one signal candidate.
// It never panics across this boundary: an unexpected failure degrades to
// a primary-only evaluation, then to a typed failure result, so one bad
// symbol cannot abort a batch.
func (e *Evaluator) Check(symbol string, signal SignalType, primary, secondary *series.PriceSeries, market *MarketContext) Result {
	if res, ok := e.tryFull(symbol, signal, primary, secondary, market); ok {
		return res
	}
	if res, ok := e.tryPrimaryOnly(symbol, signal, primary); ok {
		return res
	}
	e.logger.Error(fmt.Sprintf("[MTF] %s %s: evaluation failed on both hybrid and primary-only paths", symbol, signal))
	return Result{
		Symbol: symbol,
		Signal: signal,
		Reason: "evaluation failed",
		Error:  ErrComputation,
	}
}

func (e *Evaluator) tryFull(symbol string, signal SignalType, primary, secondary *series.PriceSeries, market *MarketContext) (res Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(fmt.Sprintf("[MTF] %s %s: hybrid evaluation panic: %v", symbol, signal, r))
			ok = false
		}
	}()
	res = e.evaluate(symbol, signal, primary, secondary, market)
	return res, true
}

func (e *Evaluator) tryPrimaryOnly(symbol string, signal SignalType, primary *series.PriceSeries) (res Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(fmt.Sprintf("[MTF] %s %s: primary-only evaluation panic: %v", symbol, signal, r))
			ok = false
		}
	}()

	prim := e.evaluatePrimary(symbol, signal, primary)
	res = Result{
		Symbol:            symbol,
		Signal:            signal,
		Confirmed:         prim.Confirmed,
		Confidence:        prim.Confidence,
		PrimaryConfirmed:  prim.Confirmed,
		PrimaryConfidence: prim.Confidence,
		SecondaryStrength: 0.5,
		MarketMomentum:    0.5,
		Reason:            prim.Details.Reason + " (primary only)",
		Error:             prim.Details.Error,
		Primary:           prim.Details,
	}
	return res, true
}

func (e *Evaluator) evaluate(symbol string, signal SignalType, primary, secondary *series.PriceSeries, market *MarketContext) Result {
	prim := e.evaluatePrimary(symbol, signal, primary)
	if prim.Details.Error != ErrNone {
		return Result{
			Symbol:  symbol,
			Signal:  signal,
			Reason:  prim.Details.Reason,
			Error:   prim.Details.Error,
			Primary: prim.Details,
		}
	}

	sec := e.evaluateSecondary(symbol, signal, secondary)
	momentum := MarketMomentum(market)
	comp := e.compensate(prim, sec.Strength, momentum)

	res := Result{
		Symbol:            symbol,
		Signal:            signal,
		Confirmed:         comp.Confirmed,
		Confidence:        comp.Confidence,
		PrimaryConfirmed:  prim.Confirmed,
		PrimaryConfidence: prim.Confidence,
		SecondaryStrength: sec.Strength,
		MarketMomentum:    momentum,
		Boost:             comp.Boost,
		Reason:            comp.Reason,
		Primary:           prim.Details,
		Secondary:         sec.Details,
	}

	e.logger.Info(fmt.Sprintf("[MTF] %s %s: primary=%.2f secondary=%.2f market=%.2f boost=%.2f final=%.2f confirmed=%v",
		symbol, signal, prim.Confidence, sec.Strength, momentum, comp.Boost, comp.Confidence, comp.Confirmed))

	return res
}
