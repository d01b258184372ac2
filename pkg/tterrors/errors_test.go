package tterrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeStorage, "write failed")
	assert.Equal(t, ErrorTypeStorage, err.Type)
	assert.Equal(t, "storage: write failed", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(cause, ErrorTypeTransient, "page fetch failed")
	require.NotNil(t, err)

	assert.Equal(t, "transient: page fetch failed: connection reset", err.Error())
	assert.True(t, errors.Is(err, cause))

	assert.Nil(t, Wrap(nil, ErrorTypeTransient, "ignored"))
}

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeValidation, "missing id")
	outer := Wrap(inner, ErrorTypeStorage, "row rejected")
	assert.Equal(t, inner.Stack, outer.Stack)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"transient", New(ErrorTypeTransient, "http 503"), true},
		{"rate limit", New(ErrorTypeRateLimit, "throttled"), true},
		{"timeout", New(ErrorTypeTimeout, "deadline"), true},
		{"blocked", New(ErrorTypeBlocked, "captcha"), false},
		{"validation", New(ErrorTypeValidation, "bad record"), false},
		{"retry exhausted", New(ErrorTypeRetryExhausted, "gave up"), false},
		{"plain error", errors.New("oops"), false},
		{"wrapped transient", fmt.Errorf("outer: %w", New(ErrorTypeTransient, "inner")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeBlocked, "verification page")
	assert.True(t, IsType(err, ErrorTypeBlocked))
	assert.False(t, IsType(err, ErrorTypeTransient))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeBlocked))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeStorage, "read failed").
		WithDetail("path", "data/videos.ttc").
		WithDetail("row_group", 3)

	assert.Equal(t, "data/videos.ttc", err.Details["path"])
	assert.Equal(t, 3, err.Details["row_group"])
}
