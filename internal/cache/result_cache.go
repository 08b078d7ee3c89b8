// Package cache provides Redis-based caching of evaluation results with
// graceful degradation: when Redis is unavailable every lookup is a miss
// and the pipeline recomputes, so Redis is never a hard dependency.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"mtf-confirmation-service/internal/mtf"
)

const evaluationKeyPrefix = "mtf:eval:%s:%s"

// DefaultResultTTL keeps cached results short-lived; a confirmation is
// only meaningful for the candle it was computed on.
const DefaultResultTTL = 2 * time.Minute

// ResultCache caches evaluation results keyed by symbol and direction.
type ResultCache struct {
	client       *redis.Client
	ttl          time.Duration
	mu           sync.RWMutex
	healthy      bool
	failureCount int
	lastCheck    time.Time

	// Circuit breaker settings
	maxFailures   int
	checkInterval time.Duration
}

// Options configures the Redis connection for the result cache.
type Options struct {
	Address  string
	Password string
	DB       int
	PoolSize int
	TTL      time.Duration
}

// NewResultCache connects to Redis. A failed initial connection is not an
// error: the cache starts in degraded mode and recovers on its own.
func NewResultCache(opts Options) *ResultCache {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultResultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	rc := &ResultCache{
		client:        client,
		ttl:           opts.TTL,
		maxFailures:   3,
		checkInterval: 30 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[CACHE] Initial Redis connection failed: %v", err)
		return rc
	}

	rc.healthy = true
	rc.lastCheck = time.Now()
	log.Printf("[CACHE] Redis connected successfully at %s", opts.Address)

	return rc
}

// IsHealthy returns whether Redis is currently available.
func (rc *ResultCache) IsHealthy() bool {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.healthy
}

func (rc *ResultCache) recordFailure() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.failureCount++
	if rc.failureCount >= rc.maxFailures {
		if rc.healthy {
			log.Printf("[CACHE] Circuit breaker OPEN: Redis marked unhealthy after %d failures", rc.failureCount)
		}
		rc.healthy = false
	}
}

func (rc *ResultCache) recordSuccess() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.healthy {
		log.Printf("[CACHE] Circuit breaker CLOSED: Redis recovered")
	}
	rc.healthy = true
	rc.failureCount = 0
	rc.lastCheck = time.Now()
}

// checkHealth pings Redis when the circuit has been open long enough.
func (rc *ResultCache) checkHealth(ctx context.Context) {
	rc.mu.RLock()
	shouldCheck := !rc.healthy && time.Since(rc.lastCheck) >= rc.checkInterval
	rc.mu.RUnlock()

	if !shouldCheck {
		return
	}

	rc.mu.Lock()
	rc.lastCheck = time.Now()
	rc.mu.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rc.client.Ping(pingCtx).Err(); err == nil {
		rc.recordSuccess()
	}
}

// Get retrieves a cached result. A miss (or an unhealthy Redis) returns
// ok=false; the caller recomputes.
func (rc *ResultCache) Get(ctx context.Context, symbol string, signal mtf.SignalType) (*mtf.Result, bool) {
	rc.checkHealth(ctx)
	if !rc.IsHealthy() {
		return nil, false
	}

	key := fmt.Sprintf(evaluationKeyPrefix, symbol, signal)
	data, err := rc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		rc.recordSuccess()
		return nil, false
	}
	if err != nil {
		rc.recordFailure()
		return nil, false
	}
	rc.recordSuccess()

	var result mtf.Result
	if err := json.Unmarshal(data, &result); err != nil {
		log.Printf("[CACHE] Corrupt cached result for %s: %v", key, err)
		return nil, false
	}
	return &result, true
}

// Set stores a result. Failures only trip the circuit breaker; caching is
// best-effort.
func (rc *ResultCache) Set(ctx context.Context, result mtf.Result) {
	if !rc.IsHealthy() {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}

	key := fmt.Sprintf(evaluationKeyPrefix, result.Symbol, result.Signal)
	if err := rc.client.Set(ctx, key, data, rc.ttl).Err(); err != nil {
		rc.recordFailure()
		return
	}
	rc.recordSuccess()
}

// Invalidate removes a cached result for one symbol and direction.
func (rc *ResultCache) Invalidate(ctx context.Context, symbol string, signal mtf.SignalType) {
	if !rc.IsHealthy() {
		return
	}
	key := fmt.Sprintf(evaluationKeyPrefix, symbol, signal)
	if err := rc.client.Del(ctx, key).Err(); err != nil {
		rc.recordFailure()
	}
}

// Close releases the Redis connection.
func (rc *ResultCache) Close() error {
	return rc.client.Close()
}
