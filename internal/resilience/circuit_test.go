package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: threshold,
		ResetTimeout:     reset,
	})
	cb.nowFunc = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, 30*time.Second)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		require.NoError(t, cb.Allow())
		cb.Record(boom)
		assert.Equal(t, CircuitClosed, cb.State())
	}

	require.NoError(t, cb.Allow())
	cb.Record(boom)
	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsCounter(t *testing.T) {
	cb, _ := newTestBreaker(2, 30*time.Second)
	boom := errors.New("boom")

	cb.Record(boom)
	cb.Record(nil)
	cb.Record(boom)
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb, now := newTestBreaker(1, 10*time.Second)
	boom := errors.New("boom")

	cb.Record(boom)
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	*now = now.Add(11 * time.Second)
	require.NoError(t, cb.Allow()) // probe allowed

	// A failed probe reopens immediately.
	cb.Record(boom)
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	*now = now.Add(11 * time.Second)
	require.NoError(t, cb.Allow())
	cb.Record(nil)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_ShouldTripFilter(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		ShouldTrip:       IsTransient,
	})

	// Permanent errors never trip the breaker.
	cb.Record(errors.New("401 unauthorized"))
	assert.Equal(t, CircuitClosed, cb.State())

	cb.Record(NewTransientError(errors.New("503"), 503))
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)
	cb.Record(errors.New("boom"))
	require.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	cb.Reset()
	assert.NoError(t, cb.Allow())
}
