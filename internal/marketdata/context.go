package marketdata

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mtf-confirmation-service/internal/indicator"
	"mtf-confirmation-service/internal/mtf"
)

const (
	contextTTL      = 5 * time.Minute
	changeBars      = 13  // 12 full hourly bars plus the current one
	regimeBars      = 100 // enough history for the slow regime EMA
	regimeFastEMA   = 20
	regimeSlowEMA   = 50
	btcSymbol       = "BTCUSDT"
	ethSymbol       = "ETHUSDT"
	solSymbol       = "SOLUSDT"
	contextInterval = "1h"
)

// ContextProvider builds the market-wide context snapshot from the
// reference assets. Snapshots are cached so a watchlist sweep reuses a
// single set of API calls.
type ContextProvider struct {
	fetcher *Fetcher
	logger  *slog.Logger

	mu        sync.RWMutex
	snapshot  *mtf.MarketContext
	expiresAt time.Time
}

func NewContextProvider(fetcher *Fetcher, logger *slog.Logger) *ContextProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextProvider{fetcher: fetcher, logger: logger}
}

// Snapshot returns the current market context, refreshing it when the
// cached one has expired. A nil context with nil error is never returned;
// on failure the caller should evaluate without context.
func (p *ContextProvider) Snapshot() (*mtf.MarketContext, error) {
	p.mu.RLock()
	if p.snapshot != nil && time.Now().Before(p.expiresAt) {
		snap := p.snapshot
		p.mu.RUnlock()
		return snap, nil
	}
	p.mu.RUnlock()

	snap, err := p.build()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.snapshot = snap
	p.expiresAt = time.Now().Add(contextTTL)
	p.mu.Unlock()

	return snap, nil
}

func (p *ContextProvider) build() (*mtf.MarketContext, error) {
	btcKlines, err := p.fetcher.Candles(btcSymbol, contextInterval, regimeBars)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s context data: %w", btcSymbol, err)
	}

	btcCloses := make([]float64, len(btcKlines))
	for i, k := range btcKlines {
		btcCloses[i] = k.Close
	}

	ctx := &mtf.MarketContext{
		BTCChange12h: change12h(btcCloses),
		MarketRegime: regimeLabel(indicator.DetectTrend(btcCloses, regimeFastEMA, regimeSlowEMA)),
	}

	// ETH and SOL changes are best-effort enrichment. A failed fetch
	// leaves the field at zero, which scores in the dead zone.
	if closes, err := p.closes(ethSymbol); err == nil {
		ctx.ETHChange12h = change12h(closes)
	} else {
		p.logger.Warn(fmt.Sprintf("[MARKET-CTX] %s unavailable: %v", ethSymbol, err))
	}
	if closes, err := p.closes(solSymbol); err == nil {
		ctx.SOLChange12h = change12h(closes)
	} else {
		p.logger.Warn(fmt.Sprintf("[MARKET-CTX] %s unavailable: %v", solSymbol, err))
	}

	p.logger.Info(fmt.Sprintf("[MARKET-CTX] btc=%.2f%% eth=%.2f%% sol=%.2f%% regime=%s",
		ctx.BTCChange12h*100, ctx.ETHChange12h*100, ctx.SOLChange12h*100, ctx.MarketRegime))

	return ctx, nil
}

func (p *ContextProvider) closes(symbol string) ([]float64, error) {
	klines, err := p.fetcher.Candles(symbol, contextInterval, changeBars)
	if err != nil {
		return nil, err
	}
	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
	}
	return closes, nil
}

// change12h computes the fractional change between the close 12 hourly
// bars ago and the latest close.
func change12h(closes []float64) float64 {
	if len(closes) < changeBars {
		return 0
	}
	base := closes[len(closes)-changeBars]
	last := closes[len(closes)-1]
	return indicator.SafeDiv(last-base, base, 0)
}

func regimeLabel(trend indicator.TrendDirection) string {
	switch trend {
	case indicator.TrendUp:
		return "BULL_TREND"
	case indicator.TrendDown:
		return "BEAR_TREND"
	default:
		return "NEUTRAL"
	}
}
