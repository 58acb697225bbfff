package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewDiagnostics_WarnThresholdByDefault(t *testing.T) {
	var buf bytes.Buffer
	log := For(NewDiagnostics(Options{Out: &buf}), ComponentQueue)

	log.Info("not shown")
	log.Warn("queue overflow", zap.String("dropped_level", "debug"))

	out := buf.String()
	assert.NotContains(t, out, "not shown")
	assert.Contains(t, out, "W")
	assert.Contains(t, out, "[QUEUE]")
	assert.Contains(t, out, "queue overflow")
	assert.Contains(t, out, "debug")
}

func TestNewDiagnostics_Verbose(t *testing.T) {
	var buf bytes.Buffer
	log := NewDiagnostics(Options{Out: &buf, Verbose: true})

	log.Debug("flush started")

	assert.Contains(t, buf.String(), "flush started")
	assert.NotContains(t, buf.String(), "\033[", "colors are off unless requested")
}

func TestFor_NilBase(t *testing.T) {
	assert.NotPanics(t, func() {
		For(nil, ComponentLogger).Error("dropped silently")
	})
}
