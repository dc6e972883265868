package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct{ from, to CircuitState }

func newTestBreaker(cfg CircuitBreakerConfig, now *time.Time, changes *[]transition) *CircuitBreaker {
	b := NewCircuitBreaker(cfg)
	b.now = func() time.Time { return *now }
	b.onChange = func(from, to CircuitState) {
		*changes = append(*changes, transition{from, to})
	}
	return b
}

func TestCircuitBreaker_OpensRetriesAndCloses(t *testing.T) {
	now := time.Date(2026, 9, 6, 17, 0, 0, 0, time.UTC)
	var changes []transition
	b := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenMaxReq: 1}, &now, &changes)

	require.NoError(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, CircuitStateClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, CircuitStateOpen, b.State())
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	now = now.Add(6 * time.Second)
	assert.Equal(t, CircuitStateHalfOpen, b.State(), "reported half-open before the trial call")
	require.NoError(t, b.Allow())

	b.RecordSuccess()
	assert.Equal(t, CircuitStateClosed, b.State())
	assert.Equal(t, []transition{
		{CircuitStateClosed, CircuitStateOpen},
		{CircuitStateOpen, CircuitStateHalfOpen},
		{CircuitStateHalfOpen, CircuitStateClosed},
	}, changes)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 10, 3, 18, 0, 0, 0, time.UTC)
	var changes []transition
	b := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second, HalfOpenMaxReq: 1}, &now, &changes)

	b.RecordFailure()
	now = now.Add(2 * time.Second)
	require.NoError(t, b.Allow())
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen, "trial budget is spent")

	b.RecordFailure()
	assert.Equal(t, CircuitStateOpen, b.State())
	assert.Equal(t, CircuitStateOpen, changes[len(changes)-1].to)
}

func TestCircuitBreaker_SuccessResetsConsecutiveFailures(t *testing.T) {
	now := time.Date(2026, 10, 3, 18, 0, 0, 0, time.UTC)
	var changes []transition
	b := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2}, &now, &changes)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, CircuitStateClosed, b.State())
	assert.Empty(t, changes)
}

func TestNormalizeCircuitBreakerConfig(t *testing.T) {
	got := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{Enabled: true})
	assert.Equal(t, CircuitBreakerConfig{Enabled: true, FailureThreshold: 5, OpenTimeout: 15 * time.Second, HalfOpenMaxReq: 2}, got)
}
