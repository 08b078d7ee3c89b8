package binance

// MarketDataClient defines the read-only market data operations used by
// the evaluation pipeline.
type MarketDataClient interface {
	GetKlines(symbol, interval string, limit int) ([]Kline, error)
	Get24hrTicker(symbol string) (*Ticker24hr, error)
	GetCurrentPrice(symbol string) (float64, error)
}

// Ensure both Client and MockClient implement MarketDataClient
var _ MarketDataClient = (*Client)(nil)
var _ MarketDataClient = (*MockClient)(nil)
