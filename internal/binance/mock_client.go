package binance

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// MockClient provides simulated market data for development/testing
type MockClient struct {
	prices     map[string]float64
	lastUpdate time.Time
	mu         sync.RWMutex // Protects prices map and lastUpdate
}

// NewMockClient creates a new mock client
func NewMockClient() *MockClient {
	mc := &MockClient{
		lastUpdate: time.Now(),
	}

	// Initialize with realistic base prices
	mc.prices = map[string]float64{
		"BTCUSDT":  104500.00,
		"ETHUSDT":  3900.00,
		"BNBUSDT":  710.00,
		"SOLUSDT":  220.00,
		"XRPUSDT":  2.35,
		"ADAUSDT":  1.05,
		"DOGEUSDT": 0.40,
		"AVAXUSDT": 50.00,
		"DOTUSDT":  9.50,
		"LINKUSDT": 28.00,
		"LTCUSDT":  115.00,
		"NEARUSDT": 7.00,
		"APTUSDT":  13.50,
		"ARBUSDT":  1.10,
		"OPUSDT":   2.80,
	}

	return mc
}

// updatePrices adds small random variations to simulate market movement
func (mc *MockClient) updatePrices() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if time.Since(mc.lastUpdate) < time.Second {
		return
	}

	for symbol, price := range mc.prices {
		// Random walk: -0.5% to +0.5% change
		change := (rand.Float64() - 0.5) * 0.01
		mc.prices[symbol] = price * (1 + change)
	}
	mc.lastUpdate = time.Now()
}

// GetKlines returns simulated candlestick data
func (mc *MockClient) GetKlines(symbol, interval string, limit int) ([]Kline, error) {
	mc.updatePrices()

	mc.mu.RLock()
	basePrice, ok := mc.prices[symbol]
	mc.mu.RUnlock()
	if !ok {
		basePrice = 100.0
	}

	var intervalDuration time.Duration
	switch interval {
	case "1m":
		intervalDuration = time.Minute
	case "5m":
		intervalDuration = 5 * time.Minute
	case "15m":
		intervalDuration = 15 * time.Minute
	case "1h":
		intervalDuration = time.Hour
	case "4h":
		intervalDuration = 4 * time.Hour
	case "1d":
		intervalDuration = 24 * time.Hour
	default:
		intervalDuration = time.Minute
	}

	klines := make([]Kline, limit)
	now := time.Now()

	// Generate historical klines working backwards
	currentPrice := basePrice
	for i := limit - 1; i >= 0; i-- {
		openTime := now.Add(-time.Duration(limit-i) * intervalDuration)
		closeTime := openTime.Add(intervalDuration)

		volatility := 0.02
		open := currentPrice
		change := (rand.Float64() - 0.5) * volatility * 2
		close := open * (1 + change)

		high := math.Max(open, close) * (1 + rand.Float64()*volatility*0.5)
		low := math.Min(open, close) * (1 - rand.Float64()*volatility*0.5)

		volume := basePrice * (1000 + rand.Float64()*5000)

		klines[i] = Kline{
			OpenTime:         openTime.UnixMilli(),
			Open:             open,
			High:             high,
			Low:              low,
			Close:            close,
			Volume:           volume / basePrice,
			CloseTime:        closeTime.UnixMilli(),
			QuoteAssetVolume: volume,
			NumberOfTrades:   int(100 + rand.Float64()*1000),
		}

		currentPrice = close
	}

	return klines, nil
}

// Get24hrTicker returns simulated 24hr ticker data
func (mc *MockClient) Get24hrTicker(symbol string) (*Ticker24hr, error) {
	mc.updatePrices()

	mc.mu.RLock()
	price, ok := mc.prices[symbol]
	mc.mu.RUnlock()
	if !ok {
		price = 100.0
	}

	now := time.Now()
	priceChange := (rand.Float64() - 0.5) * price * 0.1
	priceChangePercent := (priceChange / price) * 100

	return &Ticker24hr{
		Symbol:             symbol,
		PriceChange:        priceChange,
		PriceChangePercent: priceChangePercent,
		LastPrice:          price,
		Volume:             1000000 + rand.Float64()*10000000,
		QuoteVolume:        price * (1000000 + rand.Float64()*10000000),
		OpenTime:           now.Add(-24 * time.Hour).UnixMilli(),
		CloseTime:          now.UnixMilli(),
	}, nil
}

// GetCurrentPrice returns simulated current price
func (mc *MockClient) GetCurrentPrice(symbol string) (float64, error) {
	mc.updatePrices()

	mc.mu.RLock()
	price, ok := mc.prices[symbol]
	mc.mu.RUnlock()

	if ok {
		return price, nil
	}
	return 100.0, nil
}
