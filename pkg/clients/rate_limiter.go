// Package clients provides the page-fetch throttling primitives shared
// by extraction runs. The rate budget is process-wide: every run in the
// process draws from the same token bucket so concurrent runs cannot
// exceed the configured requests-per-second toward the source.
package clients

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is the pacing capability the orchestrator draws on
// before every page fetch.
type RateLimiter interface {
	// Allow checks if a request is allowed immediately
	Allow() bool

	// Wait blocks until a request is allowed
	Wait(ctx context.Context) error

	// SetRate updates the rate limit
	SetRate(rate float64)
}

// NewRateLimiter creates a new rate limiter with the specified rate
// (requests per second) and burst size.
func NewRateLimiter(rate float64, burst int) RateLimiter {
	return NewTokenBucketRateLimiter(rate, burst)
}

// TokenBucketRateLimiter implements the token bucket algorithm.
// Tokens are added at a constant rate and consumed by requests; a
// request arriving before a token is available is delayed in Wait,
// never rejected.
type TokenBucketRateLimiter struct {
	rate     float64
	burst    int
	tokens   float64
	lastTime time.Time

	mu sync.Mutex
}

// NewTokenBucketRateLimiter creates a new token bucket rate limiter with
// the specified rate (tokens per second) and burst capacity.
func NewTokenBucketRateLimiter(rate float64, burst int) *TokenBucketRateLimiter {
	return &TokenBucketRateLimiter{
		rate:     rate,
		burst:    burst,
		tokens:   float64(burst),
		lastTime: time.Now(),
	}
}

// Allow checks if a request is allowed immediately.
// Returns true if a token is available and consumes it, false otherwise.
func (tb *TokenBucketRateLimiter) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens >= 1.0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a request is allowed
func (tb *TokenBucketRateLimiter) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		tb.refill()

		if tb.tokens >= 1.0 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}

		deficit := 1.0 - tb.tokens
		waitTime := time.Duration(deficit / tb.rate * float64(time.Second))
		tb.mu.Unlock()

		timer := time.NewTimer(waitTime)

		select {
		case <-timer.C:
			continue
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// refill adds tokens based on elapsed time
func (tb *TokenBucketRateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastTime).Seconds()

	tb.tokens += elapsed * tb.rate
	if tb.tokens > float64(tb.burst) {
		tb.tokens = float64(tb.burst)
	}

	tb.lastTime = now
}

// SetRate updates the rate limit
func (tb *TokenBucketRateLimiter) SetRate(rate float64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.rate = rate
}

// adaptInterval is the minimum gap between adaptive rate changes.
const adaptInterval = 5 * time.Second

// AdaptiveRateLimiter adjusts the fetch rate based on how the source
// is responding. Repeated slow or failed pages shrink the budget; a
// healthy window grows it back toward twice the configured base rate.
type AdaptiveRateLimiter struct {
	baseRate    float64
	currentRate float64
	minRate     float64
	maxRate     float64

	increaseMultiplier float64
	decreaseMultiplier float64

	window           *ResponseTimeWindow
	errorThreshold   float64
	latencyThreshold time.Duration

	limiter RateLimiter

	lastAdaptation time.Time

	mu sync.Mutex
}

// NewAdaptiveRateLimiter creates an adaptive limiter around a token
// bucket started at baseRate.
func NewAdaptiveRateLimiter(baseRate float64, burst int) *AdaptiveRateLimiter {
	return &AdaptiveRateLimiter{
		baseRate:           baseRate,
		currentRate:        baseRate,
		minRate:            baseRate * 0.1,
		maxRate:            baseRate * 2.0,
		increaseMultiplier: 1.1,
		decreaseMultiplier: 0.9,
		errorThreshold:     0.05,
		latencyThreshold:   time.Second,
		window:             NewResponseTimeWindow(60 * time.Second),
		limiter:            NewTokenBucketRateLimiter(baseRate, burst),
		lastAdaptation:     time.Now(),
	}
}

// Allow checks if a request is allowed
func (ar *AdaptiveRateLimiter) Allow() bool {
	ar.maybeAdapt()
	return ar.limiter.Allow()
}

// Wait blocks until a request is allowed
func (ar *AdaptiveRateLimiter) Wait(ctx context.Context) error {
	ar.maybeAdapt()
	return ar.limiter.Wait(ctx)
}

// RecordResponse records a page-fetch outcome for adaptation
func (ar *AdaptiveRateLimiter) RecordResponse(latency time.Duration, success bool) {
	ar.window.Record(latency, success)
}

// CurrentRate returns the rate currently in effect.
func (ar *AdaptiveRateLimiter) CurrentRate() float64 {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return ar.currentRate
}

// maybeAdapt nudges the rate down when the window looks unhealthy and
// back up when it recovers, at most once per adaptInterval.
func (ar *AdaptiveRateLimiter) maybeAdapt() {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if time.Since(ar.lastAdaptation) < adaptInterval {
		return
	}

	stats := ar.window.GetStats()
	if stats.Count == 0 {
		return
	}

	newRate := ar.currentRate
	if stats.ErrorRate > ar.errorThreshold || stats.P95Latency > ar.latencyThreshold {
		newRate = ar.currentRate * ar.decreaseMultiplier
		if newRate < ar.minRate {
			newRate = ar.minRate
		}
	} else if stats.ErrorRate < ar.errorThreshold/2 && stats.P95Latency < ar.latencyThreshold/2 {
		newRate = ar.currentRate * ar.increaseMultiplier
		if newRate > ar.maxRate {
			newRate = ar.maxRate
		}
	}

	if newRate != ar.currentRate {
		ar.currentRate = newRate
		ar.limiter.SetRate(newRate)
		ar.lastAdaptation = time.Now()
	}
}

// SetRate updates the base rate and resets the adaptation band around it.
func (ar *AdaptiveRateLimiter) SetRate(rate float64) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	ar.baseRate = rate
	ar.currentRate = rate
	ar.minRate = rate * 0.1
	ar.maxRate = rate * 2.0
	ar.limiter.SetRate(rate)
}

// ResponseTimeWindow tracks page-fetch outcomes in a sliding window
type ResponseTimeWindow struct {
	latencies  []time.Duration
	successes  []bool
	timestamps []time.Time
	size       int
	duration   time.Duration
	index      int
	mu         sync.RWMutex
}

// NewResponseTimeWindow creates a window covering the given duration,
// keeping at most the last 1000 samples.
func NewResponseTimeWindow(duration time.Duration) *ResponseTimeWindow {
	size := 1000
	return &ResponseTimeWindow{
		latencies:  make([]time.Duration, size),
		successes:  make([]bool, size),
		timestamps: make([]time.Time, size),
		size:       size,
		duration:   duration,
	}
}

// Record records a response
func (rtw *ResponseTimeWindow) Record(latency time.Duration, success bool) {
	rtw.mu.Lock()
	defer rtw.mu.Unlock()

	rtw.latencies[rtw.index] = latency
	rtw.successes[rtw.index] = success
	rtw.timestamps[rtw.index] = time.Now()
	rtw.index = (rtw.index + 1) % rtw.size
}

// GetStats returns window statistics
func (rtw *ResponseTimeWindow) GetStats() ResponseTimeStats {
	rtw.mu.RLock()
	defer rtw.mu.RUnlock()

	cutoff := time.Now().Add(-rtw.duration)

	var validLatencies []time.Duration
	var errorCount, totalCount int

	for i := 0; i < rtw.size; i++ {
		if !rtw.timestamps[i].IsZero() && rtw.timestamps[i].After(cutoff) {
			validLatencies = append(validLatencies, rtw.latencies[i])
			totalCount++
			if !rtw.successes[i] {
				errorCount++
			}
		}
	}

	errorRate := float64(0)
	if totalCount > 0 {
		errorRate = float64(errorCount) / float64(totalCount)
	}

	return ResponseTimeStats{
		Count:       totalCount,
		ErrorRate:   errorRate,
		P95Latency:  calculatePercentile(validLatencies, 0.95),
		MeanLatency: calculateMean(validLatencies),
	}
}

// calculatePercentile calculates a percentile from latencies
func calculatePercentile(latencies []time.Duration, percentile float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}

	index := int(float64(len(latencies)-1) * percentile)
	return latencies[index]
}

// calculateMean calculates mean latency
func calculateMean(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}

	var sum time.Duration
	for _, latency := range latencies {
		sum += latency
	}

	return sum / time.Duration(len(latencies))
}

// ResponseTimeStats represents response time statistics
type ResponseTimeStats struct {
	Count       int           `json:"count"`
	ErrorRate   float64       `json:"error_rate"`
	P95Latency  time.Duration `json:"p95_latency"`
	MeanLatency time.Duration `json:"mean_latency"`
}
