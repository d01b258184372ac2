package clients

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTokenBucketAllow(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(10, 2)

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	// Bucket drained, next immediate request is denied
	assert.False(t, limiter.Allow())
}

func TestTokenBucketWaitDelaysInsteadOfRejecting(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(50, 1)
	require.True(t, limiter.Allow())

	start := time.Now()
	err := limiter.Wait(context.Background())
	require.NoError(t, err)
	// 50 rps means roughly 20ms per token
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestTokenBucketWaitCancellation(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(0.1, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAdaptiveRateLimiterBacksOffOnFailures(t *testing.T) {
	ar := NewAdaptiveRateLimiter(10, 5)
	for i := 0; i < 20; i++ {
		ar.RecordResponse(10*time.Millisecond, false)
	}
	ar.lastAdaptation = time.Time{} // window already elapsed

	assert.True(t, ar.Allow())
	assert.Less(t, ar.CurrentRate(), 10.0)
}

func TestAdaptiveRateLimiterRecoversOnHealthyWindow(t *testing.T) {
	ar := NewAdaptiveRateLimiter(10, 5)
	ar.currentRate = 5
	ar.limiter.SetRate(5)
	for i := 0; i < 20; i++ {
		ar.RecordResponse(10*time.Millisecond, true)
	}
	ar.lastAdaptation = time.Time{}

	assert.True(t, ar.Allow())
	assert.Greater(t, ar.CurrentRate(), 5.0)
}

func TestAdaptiveRateLimiterHoldsWithoutSamples(t *testing.T) {
	ar := NewAdaptiveRateLimiter(10, 5)
	ar.lastAdaptation = time.Time{}

	assert.True(t, ar.Allow())
	assert.Equal(t, 10.0, ar.CurrentRate())
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := NewFetchCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
	}, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}

	assert.False(t, cb.Allow())
	assert.Equal(t, "open", cb.GetState().State)

	// After the timeout the breaker probes in half-open state
	time.Sleep(60 * time.Millisecond)
	assert.True(t, cb.Allow())

	cb.RecordSuccess()
	cb.RecordSuccess()
	assert.Equal(t, "closed", cb.GetState().State)
}

func TestCircuitBreakerToleratesIsolatedFailures(t *testing.T) {
	cb := NewFetchCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          time.Minute,
	}, zaptest.NewLogger(t))

	// A lone failure is a 100% windowed rate, but far below the
	// threshold and the rate trigger's sample minimum.
	cb.RecordFailure()
	assert.True(t, cb.Allow())
	assert.Equal(t, "closed", cb.GetState().State)

	// Alternating outcomes keep resetting the consecutive count.
	for i := 0; i < 4; i++ {
		cb.RecordFailure()
		cb.RecordSuccess()
	}
	assert.True(t, cb.Allow())
	assert.Equal(t, "closed", cb.GetState().State)
}

func TestCircuitBreakerRateTriggerNeedsSamples(t *testing.T) {
	cb := NewFetchCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 50,
		SuccessThreshold: 2,
		Timeout:          time.Minute,
	}, zaptest.NewLogger(t))

	// Below the sample minimum the rate trigger stays quiet even at
	// a 100% failure rate.
	for i := 0; i < minRateSamples-1; i++ {
		cb.RecordFailure()
	}
	assert.Equal(t, "closed", cb.GetState().State)

	// One more pushes the window past the minimum with the rate
	// still at 100%.
	cb.RecordFailure()
	assert.Equal(t, "open", cb.GetState().State)
}

func TestCircuitBreakerSuccessWhileOpenProbes(t *testing.T) {
	cb := NewFetchCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          time.Hour,
	}, zaptest.NewLogger(t))

	cb.RecordFailure()
	require.Equal(t, "open", cb.GetState().State)

	// A retry sequence got through and succeeded: the breaker probes
	// instead of blocking for the full timeout.
	cb.RecordSuccess()
	assert.Equal(t, "half_open", cb.GetState().State)
	assert.True(t, cb.Allow())

	cb.RecordSuccess()
	assert.Equal(t, "closed", cb.GetState().State)
}
