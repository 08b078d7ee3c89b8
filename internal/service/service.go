// Package service orchestrates the confirmation pipeline: cache lookup,
// market-data fetch, evaluation, then best-effort persistence.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mtf-confirmation-service/internal/database"
	"mtf-confirmation-service/internal/marketdata"
	"mtf-confirmation-service/internal/mtf"
)

// EvaluationStore persists finished evaluations. Optional.
type EvaluationStore interface {
	SaveEvaluation(ctx context.Context, eval *database.Evaluation) error
}

// ResultCache serves recent results so repeated checks within the same
// candle are free. Optional.
type ResultCache interface {
	Get(ctx context.Context, symbol string, signal mtf.SignalType) (*mtf.Result, bool)
	Set(ctx context.Context, result mtf.Result)
}

// Config controls what the service fetches and how often it sweeps.
type Config struct {
	PrimaryInterval   string
	SecondaryInterval string
	CandleLimit       int
	Watchlist         []string
	SweepInterval     time.Duration
}

func (c Config) withDefaults() Config {
	if c.PrimaryInterval == "" {
		c.PrimaryInterval = "4h"
	}
	if c.SecondaryInterval == "" {
		c.SecondaryInterval = "1h"
	}
	if c.CandleLimit <= 0 {
		c.CandleLimit = 100
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
	return c
}

// Service ties the evaluator to its data sources and sinks.
type Service struct {
	evaluator *mtf.Evaluator
	fetcher   *marketdata.Fetcher
	market    *marketdata.ContextProvider
	store     EvaluationStore
	cache     ResultCache
	cfg       Config
	logger    *slog.Logger
}

// New creates the service. Store and cache may be nil; the pipeline then
// runs without persistence or result caching.
func New(evaluator *mtf.Evaluator, fetcher *marketdata.Fetcher, market *marketdata.ContextProvider,
	store EvaluationStore, cache ResultCache, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		evaluator: evaluator,
		fetcher:   fetcher,
		market:    market,
		store:     store,
		cache:     cache,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Evaluate runs one confirmation check. The primary series must be
// fetchable; the secondary series and market context are best-effort and
// degrade to their neutral defaults when unavailable.
func (s *Service) Evaluate(ctx context.Context, symbol string, signal mtf.SignalType) (mtf.Result, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, symbol, signal); ok {
			s.logger.Debug(fmt.Sprintf("[SERVICE] %s %s: cache hit", symbol, signal))
			return *cached, nil
		}
	}

	primary, err := s.fetcher.Series(symbol, s.cfg.PrimaryInterval, s.cfg.CandleLimit)
	if err != nil {
		return mtf.Result{}, fmt.Errorf("failed to fetch %s %s candles: %w", symbol, s.cfg.PrimaryInterval, err)
	}

	secondary, err := s.fetcher.Series(symbol, s.cfg.SecondaryInterval, s.cfg.CandleLimit)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[SERVICE] %s %s candles unavailable, evaluating without secondary: %v",
			symbol, s.cfg.SecondaryInterval, err))
		secondary = nil
	}

	var market *mtf.MarketContext
	if s.market != nil {
		market, err = s.market.Snapshot()
		if err != nil {
			s.logger.Warn(fmt.Sprintf("[SERVICE] market context unavailable, evaluating without it: %v", err))
			market = nil
		}
	}

	result := s.evaluator.Check(symbol, signal, primary, secondary, market)

	if s.cache != nil {
		s.cache.Set(ctx, result)
	}
	s.persist(ctx, result)

	return result, nil
}

// EvaluateWatchlist checks every configured symbol in both directions.
func (s *Service) EvaluateWatchlist(ctx context.Context) []mtf.Result {
	results := make([]mtf.Result, 0, len(s.cfg.Watchlist)*2)
	for _, symbol := range s.cfg.Watchlist {
		for _, signal := range []mtf.SignalType{mtf.SignalLong, mtf.SignalShort} {
			if ctx.Err() != nil {
				return results
			}
			result, err := s.Evaluate(ctx, symbol, signal)
			if err != nil {
				s.logger.Warn(fmt.Sprintf("[SERVICE] %s %s: evaluation skipped: %v", symbol, signal, err))
				continue
			}
			results = append(results, result)
		}
	}
	return results
}

// Run sweeps the watchlist on a fixed interval until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) {
	if len(s.cfg.Watchlist) == 0 {
		s.logger.Info("[SERVICE] Watchlist empty, background sweeps disabled")
		return
	}

	s.logger.Info(fmt.Sprintf("[SERVICE] Starting watchlist sweeps: %d symbols every %s",
		len(s.cfg.Watchlist), s.cfg.SweepInterval))

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("[SERVICE] Watchlist sweeps stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	results := s.EvaluateWatchlist(ctx)
	confirmed := 0
	for _, r := range results {
		if r.Confirmed {
			confirmed++
		}
	}
	s.logger.Info(fmt.Sprintf("[SERVICE] Sweep complete: %d evaluations, %d confirmed", len(results), confirmed))
}

func (s *Service) persist(ctx context.Context, result mtf.Result) {
	if s.store == nil {
		return
	}

	details, err := json.Marshal(map[string]interface{}{
		"primary":   result.Primary,
		"secondary": result.Secondary,
	})
	if err != nil {
		details = []byte("{}")
	}

	eval := &database.Evaluation{
		Symbol:            result.Symbol,
		SignalType:        string(result.Signal),
		Confirmed:         result.Confirmed,
		Confidence:        result.Confidence,
		PrimaryConfirmed:  result.PrimaryConfirmed,
		PrimaryConfidence: result.PrimaryConfidence,
		SecondaryStrength: result.SecondaryStrength,
		MarketMomentum:    result.MarketMomentum,
		Boost:             result.Boost,
		Reason:            result.Reason,
		ErrorKind:         string(result.Error),
		Details:           details,
	}
	if err := s.store.SaveEvaluation(ctx, eval); err != nil {
		s.logger.Warn(fmt.Sprintf("[SERVICE] Failed to persist evaluation for %s: %v", result.Symbol, err))
	}
}
