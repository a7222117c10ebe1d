package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRemote = errors.New("remote unavailable")

func failing(b *Breaker) error {
	_, err := b.Execute(func() (interface{}, error) { return nil, errRemote })
	return err
}

func succeeding(b *Breaker) error {
	_, err := b.Execute(func() (interface{}, error) { return "ok", nil })
	return err
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := New("test", Settings{
		Timeout:     time.Hour,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
	})
	require.Equal(t, StateClosed, b.State())

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, failing(b), errRemote)
	}
	assert.Equal(t, StateOpen, b.State())

	// Open circuit sheds calls without invoking the function.
	called := false
	_, err := b.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsStreak(t *testing.T) {
	b := New("test", Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
	})

	failing(b)
	failing(b)
	require.NoError(t, succeeding(b))
	failing(b)
	failing(b)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := New("test", Settings{
		MaxRequests: 1,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	failing(b)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	t.Run("successful probe closes", func(t *testing.T) {
		require.NoError(t, succeeding(b))
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b := New("test", Settings{
		MaxRequests: 1,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	failing(b)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	failing(b)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerCounts(t *testing.T) {
	b := New("test", Settings{})
	succeeding(b)
	succeeding(b)
	failing(b)

	counts := b.Counts()
	assert.EqualValues(t, 3, counts.Requests)
	assert.EqualValues(t, 2, counts.TotalSuccesses)
	assert.EqualValues(t, 1, counts.TotalFailures)
	assert.EqualValues(t, 1, counts.ConsecutiveFailures)
}
