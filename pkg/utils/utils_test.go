package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	base := 100 * time.Millisecond

	assert.Equal(t, 100*time.Millisecond, BackoffDelay(base, 0))
	assert.Equal(t, 200*time.Millisecond, BackoffDelay(base, 1))
	assert.Equal(t, 400*time.Millisecond, BackoffDelay(base, 2))
	assert.Equal(t, 100*time.Millisecond, BackoffDelay(base, -3), "negative attempts clamp to the base delay")
}

func TestBackoffSchedule(t *testing.T) {
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
		BackoffSchedule(time.Second, 3))
	assert.Empty(t, BackoffSchedule(time.Second, 0))
}

func TestGenerateSessionID(t *testing.T) {
	tests := []struct {
		product string
		pattern string
	}{
		{"Dev Console", `^dev-console-[0-9a-f]{8}$`},
		{"  logrelay!! ", `^logrelay-[0-9a-f]{8}$`},
		{"", `^[0-9a-f]{8}$`},
	}

	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			id := GenerateSessionID(tt.product)
			assert.Regexp(t, regexp.MustCompile(tt.pattern), id)
		})
	}

	assert.NotEqual(t, GenerateSessionID("x"), GenerateSessionID("x"))
}

func TestMin(t *testing.T) {
	assert.Equal(t, 2, Min(2, 5))
	assert.Equal(t, 2, Min(5, 2))
}
