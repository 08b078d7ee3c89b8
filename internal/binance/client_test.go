package binance

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetKlines_ParsesExchangeFormat(t *testing.T) {
	// Binance returns klines as positional arrays with string prices.
	payload := `[
		[1700000000000, "50000.10", "50500.00", "49800.50", "50250.75", "1234.56", 1700003599999, "62000000.00", 4521, "600.00", "30200000.00", "0"],
		[1700003600000, "50250.75", "50600.00", "50100.00", "50400.25", "980.12", 1700007199999, "49300000.00", 3876, "500.00", "25100000.00", "0"]
	]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %q", got)
		}
		if got := r.URL.Query().Get("interval"); got != "4h" {
			t.Errorf("interval = %q", got)
		}
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	klines, err := client.GetKlines("BTCUSDT", "4h", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(klines) != 2 {
		t.Fatalf("expected 2 klines, got %d", len(klines))
	}

	first := klines[0]
	if first.OpenTime != 1700000000000 || first.CloseTime != 1700003599999 {
		t.Errorf("timestamps wrong: %+v", first)
	}
	if first.Open != 50000.10 || first.High != 50500.00 || first.Low != 49800.50 || first.Close != 50250.75 {
		t.Errorf("prices wrong: %+v", first)
	}
	if first.Volume != 1234.56 || first.NumberOfTrades != 4521 {
		t.Errorf("volume fields wrong: %+v", first)
	}
	if klines[1].Close != 50400.25 {
		t.Errorf("second close = %.2f", klines[1].Close)
	}
}

func TestGetKlines_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"code":-1003,"msg":"Too many requests."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.GetKlines("BTCUSDT", "4h", 100); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestGet24hrTicker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","priceChange":"-500.00","priceChangePercent":"-0.98","lastPrice":"50250.75","volume":"12345.67","quoteVolume":"620000000.00","openTime":1700000000000,"closeTime":1700086400000}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ticker, err := client.Get24hrTicker("BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticker.Symbol != "BTCUSDT" || ticker.LastPrice != 50250.75 || ticker.PriceChangePercent != -0.98 {
		t.Errorf("ticker wrong: %+v", ticker)
	}
}

func TestGetCurrentPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"ETHUSDT","price":"3050.42"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	price, err := client.GetCurrentPrice("ETHUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 3050.42 {
		t.Errorf("price = %.2f, want 3050.42", price)
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
	}{
		{"123.45", 123.45},
		{float64(9.5), 9.5},
		{nil, 0},
		{"garbage", 0},
	}
	for _, tc := range tests {
		if got := parseFloat(tc.in); got != tc.want {
			t.Errorf("parseFloat(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMockClient_ProducesUsableKlines(t *testing.T) {
	mock := NewMockClient()
	klines, err := mock.GetKlines("BTCUSDT", "4h", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(klines) != 100 {
		t.Fatalf("expected 100 klines, got %d", len(klines))
	}
	for i, k := range klines {
		if k.Close <= 0 || k.High < k.Low {
			t.Fatalf("invalid kline at %d: %+v", i, k)
		}
	}
}
