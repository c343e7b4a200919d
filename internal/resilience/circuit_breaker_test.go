// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time { return m.now }

var errBackend = errors.New("backend down")

func fail() error    { return errBackend }
func succeed() error { return nil }

func TestCircuitBreaker_TripsAtThreshold(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 3, 30*time.Second, WithClock(clock))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errBackend)
	}
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open breaker must not run fn")
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Second)

	_ = cb.Execute(fail)
	require.NoError(t, cb.Execute(succeed))
	_ = cb.Execute(fail)
	assert.Equal(t, StateClosed, cb.State(), "failures are consecutive only")
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 10*time.Second, WithClock(clock))

	_ = cb.Execute(fail)
	require.Equal(t, StateOpen, cb.State())

	clock.now = clock.now.Add(11 * time.Second)

	// A second caller is refused while the probe is in flight.
	err := cb.Execute(func() error {
		assert.Equal(t, StateHalfOpen, cb.State())
		assert.ErrorIs(t, cb.Execute(succeed), ErrCircuitOpen)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 10*time.Second, WithClock(clock))

	_ = cb.Execute(fail)
	clock.now = clock.now.Add(11 * time.Second)
	_ = cb.Execute(fail)

	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(succeed), ErrCircuitOpen)
}

func TestCircuitBreaker_CancellationIsNotAFailure(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Second)

	err := cb.Execute(func() error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_CustomPredicate(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Second, WithFailurePredicate(func(error) bool { return false }))

	_ = cb.Execute(fail)
	assert.Equal(t, StateClosed, cb.State())
}
