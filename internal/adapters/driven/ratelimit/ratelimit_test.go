package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledIsNil(t *testing.T) {
	assert.Nil(t, New(0))
	assert.Nil(t, New(-1))

	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
	assert.True(t, l.Allow())
	l.Backoff(time.Second)
	l.Observe(&http.Response{StatusCode: http.StatusTooManyRequests})
}

func TestNew_BurstRoundsUp(t *testing.T) {
	l := New(2.5)
	require.NotNil(t, l)
	assert.Equal(t, 3, l.limiter.Burst())

	assert.Equal(t, 1, New(0.2).limiter.Burst())
}

func TestAllow_ExhaustsBurst(t *testing.T) {
	l := New(1)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestBackoff_BlocksAllow(t *testing.T) {
	l := New(100)
	l.Backoff(time.Hour)
	assert.False(t, l.Allow())
}

func TestWait_RespectsContextDuringBackoff(t *testing.T) {
	l := New(100)
	l.Backoff(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestWait_CancelledContextWhenDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var l *Limiter
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestObserve_OnlyOn429(t *testing.T) {
	l := New(100)
	l.Observe(&http.Response{StatusCode: http.StatusOK, Header: http.Header{}})
	assert.True(t, l.Allow())

	h := http.Header{}
	h.Set("Retry-After", "120")
	l.Observe(&http.Response{StatusCode: http.StatusTooManyRequests, Header: h})
	assert.False(t, l.Allow())
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, time.Duration(0), RetryAfter(h))

	h.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, RetryAfter(h))

	h.Set("Retry-After", "soon")
	assert.Equal(t, time.Duration(0), RetryAfter(h))

	h.Set("Retry-After", time.Now().Add(time.Minute).UTC().Format(http.TimeFormat))
	d := RetryAfter(h)
	assert.Greater(t, d, 50*time.Second)
	assert.LessOrEqual(t, d, time.Minute)
}
