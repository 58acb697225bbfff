package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/logrelay/internal/domain/shared"
)

var errSend = errors.New("send failed")

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	cb := NewCircuitBreaker(3, 30*time.Second, clock)

	// Act
	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errSend })
	}

	// Assert
	assert.Equal(t, CircuitOpen, cb.State())
	assert.Equal(t, 3, cb.FailureCount())
	assert.ErrorIs(t, cb.Call(func() error { return nil }), ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenAfterCooldown(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	cb := NewCircuitBreaker(1, 30*time.Second, clock)
	_ = cb.Call(func() error { return errSend })
	clock.Advance(31 * time.Second)

	// Act
	err := cb.Call(func() error { return nil })

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, 0, cb.FailureCount())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	clock := shared.NewMockClock(time.Time{})
	cb := NewCircuitBreaker(5, 30*time.Second, clock)
	for i := 0; i < 5; i++ {
		_ = cb.Call(func() error { return errSend })
	}
	clock.Advance(time.Minute)

	err := cb.Call(func() error { return errSend })

	assert.ErrorIs(t, err, errSend)
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Hour, nil)
	_ = cb.Call(func() error { return errSend })

	cb.Reset()

	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, "closed", cb.State().String())
}
