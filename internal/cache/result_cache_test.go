package cache

import (
	"context"
	"testing"
	"time"

	"mtf-confirmation-service/internal/mtf"
)

// newDegradedCache builds a cache whose Redis endpoint does not exist, so
// the circuit breaker starts open.
func newDegradedCache() *ResultCache {
	return NewResultCache(Options{Address: "127.0.0.1:1", TTL: time.Minute})
}

func TestNewResultCache_StartsDegradedWithoutRedis(t *testing.T) {
	rc := newDegradedCache()
	defer rc.Close()

	if rc.IsHealthy() {
		t.Error("cache should start unhealthy when Redis is unreachable")
	}
}

func TestGet_DegradedModeIsAlwaysMiss(t *testing.T) {
	rc := newDegradedCache()
	defer rc.Close()

	if _, ok := rc.Get(context.Background(), "BTCUSDT", mtf.SignalLong); ok {
		t.Error("degraded cache must report a miss")
	}
}

func TestSet_DegradedModeIsNoop(t *testing.T) {
	rc := newDegradedCache()
	defer rc.Close()

	// Must not block or panic.
	rc.Set(context.Background(), mtf.Result{Symbol: "BTCUSDT", Signal: mtf.SignalLong, Confidence: 0.83})
	rc.Invalidate(context.Background(), "BTCUSDT", mtf.SignalLong)
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	rc := newDegradedCache()
	defer rc.Close()

	rc.recordSuccess()
	if !rc.IsHealthy() {
		t.Fatal("recordSuccess should close the circuit")
	}

	for i := 0; i < rc.maxFailures-1; i++ {
		rc.recordFailure()
		if !rc.IsHealthy() {
			t.Fatalf("circuit opened after only %d failures", i+1)
		}
	}
	rc.recordFailure()
	if rc.IsHealthy() {
		t.Error("circuit should open at the failure threshold")
	}

	rc.recordSuccess()
	if !rc.IsHealthy() {
		t.Error("a success should close the circuit again")
	}
}

func TestOptions_Defaults(t *testing.T) {
	rc := NewResultCache(Options{Address: "127.0.0.1:1"})
	defer rc.Close()

	if rc.ttl != DefaultResultTTL {
		t.Errorf("ttl = %v, want %v", rc.ttl, DefaultResultTTL)
	}
}
