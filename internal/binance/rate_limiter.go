package binance

import (
	"sync"
	"time"
)

// Binance allows 1200 request weight per rolling minute on the spot API.
// We stop well short of that so bursts from parallel fetches cannot trip
// an IP ban.
const (
	weightBudgetPerMinute = 1200
	weightSafetyMargin    = 0.8
)

// Request weights per endpoint, from the exchange documentation.
const (
	weightKlines      = 2
	weightTicker24hr  = 2
	weightTickerPrice = 2
)

// WeightLimiter tracks API request weight over a rolling one-minute
// window and blocks callers that would exceed the safety budget.
type WeightLimiter struct {
	mu      sync.Mutex
	entries []weightEntry
	budget  int
}

type weightEntry struct {
	at     time.Time
	weight int
}

func NewWeightLimiter() *WeightLimiter {
	return &WeightLimiter{
		budget: int(weightBudgetPerMinute * weightSafetyMargin),
	}
}

// Acquire blocks until the given weight fits inside the rolling budget,
// then records it.
func (l *WeightLimiter) Acquire(weight int) {
	for {
		if wait := l.tryAcquire(weight); wait <= 0 {
			return
		} else {
			time.Sleep(wait)
		}
	}
}

// tryAcquire records the weight if it fits, otherwise returns how long to
// wait before the oldest entry leaves the window.
func (l *WeightLimiter) tryAcquire(weight int) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	kept := l.entries[:0]
	used := 0
	for _, e := range l.entries {
		if e.at.After(cutoff) {
			kept = append(kept, e)
			used += e.weight
		}
	}
	l.entries = kept

	if used+weight <= l.budget {
		l.entries = append(l.entries, weightEntry{at: now, weight: weight})
		return 0
	}

	wait := l.entries[0].at.Sub(cutoff)
	if wait <= 0 {
		wait = 50 * time.Millisecond
	}
	return wait
}

// Used returns the weight consumed inside the current window.
func (l *WeightLimiter) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-time.Minute)
	used := 0
	for _, e := range l.entries {
		if e.at.After(cutoff) {
			used += e.weight
		}
	}
	return used
}
