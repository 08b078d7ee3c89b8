// Package marketdata supplies the evaluation pipeline with candle series
// and the market-wide context snapshot, with short-lived in-memory caching
// so watchlist sweeps do not hammer the exchange API.
package marketdata

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mtf-confirmation-service/internal/binance"
	"mtf-confirmation-service/internal/series"
)

// Fetcher fetches candle series with per-interval TTL caching.
type Fetcher struct {
	client binance.MarketDataClient
	cache  *candleCache
	logger *slog.Logger
}

func NewFetcher(client binance.MarketDataClient, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: client,
		cache:  newCandleCache(),
		logger: logger,
	}
}

// Series fetches a price series for one symbol and interval.
func (f *Fetcher) Series(symbol, interval string, limit int) (*series.PriceSeries, error) {
	klines, err := f.Candles(symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	return series.FromKlines(klines), nil
}

// SeriesPair fetches the primary and secondary series in parallel.
func (f *Fetcher) SeriesPair(symbol, primaryInterval, secondaryInterval string, limit int) (*series.PriceSeries, *series.PriceSeries, error) {
	var wg sync.WaitGroup
	var primary, secondary *series.PriceSeries
	var primaryErr, secondaryErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		primary, primaryErr = f.Series(symbol, primaryInterval, limit)
	}()
	go func() {
		defer wg.Done()
		secondary, secondaryErr = f.Series(symbol, secondaryInterval, limit)
	}()
	wg.Wait()

	if primaryErr != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s %s: %w", symbol, primaryInterval, primaryErr)
	}
	if secondaryErr != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s %s: %w", symbol, secondaryInterval, secondaryErr)
	}
	return primary, secondary, nil
}

// Candles fetches raw klines with caching.
func (f *Fetcher) Candles(symbol, interval string, limit int) ([]binance.Kline, error) {
	cacheKey := fmt.Sprintf("%s:%s:%d", symbol, interval, limit)

	if cached := f.cache.Get(cacheKey); cached != nil {
		return cached, nil
	}

	klines, err := f.client.GetKlines(symbol, interval, limit)
	if err != nil {
		return nil, err
	}

	f.cache.Set(cacheKey, klines, cacheTTL(interval))
	return klines, nil
}

// cacheTTL returns the cache lifetime for an interval. Slower timeframes
// change rarely and can be held longer.
func cacheTTL(interval string) time.Duration {
	switch interval {
	case "1m":
		return 30 * time.Second
	case "5m":
		return 2 * time.Minute
	case "15m":
		return 5 * time.Minute
	case "1h":
		return 30 * time.Minute
	case "4h":
		return 2 * time.Hour
	case "1d":
		return 12 * time.Hour
	default:
		return 1 * time.Minute
	}
}

type candleCache struct {
	data map[string]*cacheEntry
	mu   sync.RWMutex
}

type cacheEntry struct {
	candles   []binance.Kline
	expiresAt time.Time
}

func newCandleCache() *candleCache {
	return &candleCache{data: make(map[string]*cacheEntry)}
}

func (c *candleCache) Get(key string) []binance.Kline {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.candles
}

func (c *candleCache) Set(key string, candles []binance.Kline, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{
		candles:   candles,
		expiresAt: time.Now().Add(ttl),
	}
}
