package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"mtf-confirmation-service/internal/binance"
	"mtf-confirmation-service/internal/database"
	"mtf-confirmation-service/internal/marketdata"
	"mtf-confirmation-service/internal/mtf"
)

// ==================== MOCKS ====================

type fakeClient struct {
	klines    map[string][]binance.Kline
	klinesErr map[string]error
	mu        sync.Mutex
	calls     int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		klines:    make(map[string][]binance.Kline),
		klinesErr: make(map[string]error),
	}
}

func (f *fakeClient) GetKlines(symbol, interval string, limit int) ([]binance.Kline, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	key := symbol + ":" + interval
	if err, ok := f.klinesErr[key]; ok {
		return nil, err
	}
	return f.klines[key], nil
}

func (f *fakeClient) Get24hrTicker(symbol string) (*binance.Ticker24hr, error) {
	return &binance.Ticker24hr{Symbol: symbol}, nil
}

func (f *fakeClient) GetCurrentPrice(symbol string) (float64, error) {
	return 0, errors.New("not implemented")
}

var _ binance.MarketDataClient = (*fakeClient)(nil)

type memStore struct {
	mu    sync.Mutex
	saved []*database.Evaluation
	err   error
}

func (s *memStore) SaveEvaluation(ctx context.Context, eval *database.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, eval)
	return nil
}

type memCache struct {
	mu      sync.Mutex
	results map[string]mtf.Result
	hits    int
}

func newMemCache() *memCache {
	return &memCache{results: make(map[string]mtf.Result)}
}

func (c *memCache) Get(ctx context.Context, symbol string, signal mtf.SignalType) (*mtf.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[symbol+":"+string(signal)]
	if !ok {
		return nil, false
	}
	c.hits++
	return &r, true
}

func (c *memCache) Set(ctx context.Context, result mtf.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[result.Symbol+":"+string(result.Signal)] = result
}

// ==================== HELPERS ====================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func uptrendKlines(n int, base float64) []binance.Kline {
	klines := make([]binance.Kline, n)
	for i := 0; i < n; i++ {
		price := base * (1 + float64(i)*0.005)
		klines[i] = binance.Kline{
			OpenTime: int64(i * 3600000),
			Open:     price,
			High:     price + 1,
			Low:      price - 1,
			Close:    price,
			Volume:   1000,
		}
	}
	return klines
}

func newTestService(client binance.MarketDataClient, store EvaluationStore, cache ResultCache, watchlist []string) *Service {
	fetcher := marketdata.NewFetcher(client, testLogger())
	evaluator := mtf.NewEvaluator(mtf.DefaultConfig(), testLogger())
	cfg := Config{Watchlist: watchlist, CandleLimit: 100}
	return New(evaluator, fetcher, nil, store, cache, cfg, testLogger())
}

// ==================== TESTS ====================

func TestEvaluate_ConfirmsUptrendLong(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT:4h"] = uptrendKlines(100, 50000)
	client.klines["BTCUSDT:1h"] = uptrendKlines(100, 50000)
	svc := newTestService(client, nil, nil, nil)

	result, err := svc.Evaluate(context.Background(), "BTCUSDT", mtf.SignalLong)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Confirmed {
		t.Errorf("expected confirmation: %+v", result)
	}
	if result.Symbol != "BTCUSDT" || result.Signal != mtf.SignalLong {
		t.Errorf("identity fields wrong: %+v", result)
	}
}

func TestEvaluate_PrimaryFetchFailureIsFatal(t *testing.T) {
	client := newFakeClient()
	client.klinesErr["BTCUSDT:4h"] = errors.New("upstream down")
	svc := newTestService(client, nil, nil, nil)

	if _, err := svc.Evaluate(context.Background(), "BTCUSDT", mtf.SignalLong); err == nil {
		t.Fatal("expected error when primary candles are unavailable")
	}
}

func TestEvaluate_SecondaryFetchFailureDegrades(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT:4h"] = uptrendKlines(100, 50000)
	client.klinesErr["BTCUSDT:1h"] = errors.New("upstream down")
	svc := newTestService(client, nil, nil, nil)

	result, err := svc.Evaluate(context.Background(), "BTCUSDT", mtf.SignalLong)
	if err != nil {
		t.Fatalf("secondary failure must not fail the evaluation: %v", err)
	}
	if result.SecondaryStrength != 0.5 {
		t.Errorf("missing secondary should score neutral 0.5, got %.4f", result.SecondaryStrength)
	}
	if result.Secondary.Error != mtf.ErrInsufficientSecondary {
		t.Errorf("expected secondary error tag, got %q", result.Secondary.Error)
	}
}

func TestEvaluate_UsesResultCache(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT:4h"] = uptrendKlines(100, 50000)
	client.klines["BTCUSDT:1h"] = uptrendKlines(100, 50000)
	cache := newMemCache()
	svc := newTestService(client, nil, cache, nil)

	first, err := svc.Evaluate(context.Background(), "BTCUSDT", mtf.SignalLong)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Evaluate(context.Background(), "BTCUSDT", mtf.SignalLong)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("expected one cache hit, got %d", cache.hits)
	}
	if first.Confidence != second.Confidence || first.Confirmed != second.Confirmed {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
}

func TestEvaluate_PersistsToStore(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT:4h"] = uptrendKlines(100, 50000)
	client.klines["BTCUSDT:1h"] = uptrendKlines(100, 50000)
	store := &memStore{}
	svc := newTestService(client, store, nil, nil)

	result, err := svc.Evaluate(context.Background(), "BTCUSDT", mtf.SignalLong)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 persisted evaluation, got %d", len(store.saved))
	}
	eval := store.saved[0]
	if eval.Symbol != "BTCUSDT" || eval.SignalType != "LONG" {
		t.Errorf("persisted identity wrong: %+v", eval)
	}
	if eval.Confirmed != result.Confirmed || eval.Confidence != result.Confidence {
		t.Errorf("persisted scores differ from result: %+v vs %+v", eval, result)
	}
	if len(eval.Details) == 0 {
		t.Error("expected serialized details")
	}
}

func TestEvaluate_StoreFailureIsNonFatal(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT:4h"] = uptrendKlines(100, 50000)
	client.klines["BTCUSDT:1h"] = uptrendKlines(100, 50000)
	store := &memStore{err: errors.New("db down")}
	svc := newTestService(client, store, nil, nil)

	if _, err := svc.Evaluate(context.Background(), "BTCUSDT", mtf.SignalLong); err != nil {
		t.Fatalf("persistence failure must not fail the evaluation: %v", err)
	}
}

func TestEvaluateWatchlist_BothDirectionsPerSymbol(t *testing.T) {
	client := newFakeClient()
	for _, symbol := range []string{"BTCUSDT", "ETHUSDT"} {
		client.klines[symbol+":4h"] = uptrendKlines(100, 50000)
		client.klines[symbol+":1h"] = uptrendKlines(100, 50000)
	}
	svc := newTestService(client, nil, nil, []string{"BTCUSDT", "ETHUSDT"})

	results := svc.EvaluateWatchlist(context.Background())
	if len(results) != 4 {
		t.Fatalf("expected 4 results (2 symbols x 2 directions), got %d", len(results))
	}

	longs, shorts := 0, 0
	for _, r := range results {
		switch r.Signal {
		case mtf.SignalLong:
			longs++
		case mtf.SignalShort:
			shorts++
		}
	}
	if longs != 2 || shorts != 2 {
		t.Errorf("expected 2 LONG and 2 SHORT, got %d and %d", longs, shorts)
	}
}

func TestEvaluateWatchlist_SkipsFailedSymbols(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT:4h"] = uptrendKlines(100, 50000)
	client.klines["BTCUSDT:1h"] = uptrendKlines(100, 50000)
	client.klinesErr["BADUSDT:4h"] = errors.New("unknown symbol")
	svc := newTestService(client, nil, nil, []string{"BADUSDT", "BTCUSDT"})

	results := svc.EvaluateWatchlist(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results from the healthy symbol, got %d", len(results))
	}
	for _, r := range results {
		if r.Symbol != "BTCUSDT" {
			t.Errorf("unexpected symbol %s", r.Symbol)
		}
	}
}

func TestEvaluateWatchlist_StopsOnCancelledContext(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT:4h"] = uptrendKlines(100, 50000)
	client.klines["BTCUSDT:1h"] = uptrendKlines(100, 50000)
	svc := newTestService(client, nil, nil, []string{"BTCUSDT"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := svc.EvaluateWatchlist(ctx)
	if len(results) != 0 {
		t.Errorf("cancelled context should stop the sweep, got %d results", len(results))
	}
}
