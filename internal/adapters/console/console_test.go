package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

func sampleEntry(level logging.Level) logging.Entry {
	return logging.Entry{
		Timestamp: "2026-10-17T09:30:00.000Z",
		Level:     level,
		Message:   "Test message",
		Source:    "frontend",
		Component: "popup",
	}
}

func TestFormat(t *testing.T) {
	entry := sampleEntry(logging.LevelInfo)
	entry.Context = logging.Fields{"userId": "123"}

	assert.Equal(t,
		`[2026-10-17T09:30:00.000Z] [INFO] [FRONTEND] [POPUP] Test message {"userId":"123"}`,
		Format(entry))
}

func TestFormat_NoContextWithStack(t *testing.T) {
	entry := sampleEntry(logging.LevelError)
	entry.StackTrace = "Error: boom\n  at main"

	assert.Equal(t,
		"[2026-10-17T09:30:00.000Z] [ERROR] [FRONTEND] [POPUP] Test message\nError: boom\n  at main",
		Format(entry))
}

func TestWriter_RoutesByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	w := New(&stdout, &stderr)

	w.Write(sampleEntry(logging.LevelDebug))
	w.Write(sampleEntry(logging.LevelInfo))
	w.Write(sampleEntry(logging.LevelWarn))
	w.Write(sampleEntry(logging.LevelError))
	w.Marker("Falling back to console logging")

	assert.Contains(t, stdout.String(), "[DEBUG]")
	assert.Contains(t, stdout.String(), "[INFO]")
	assert.NotContains(t, stdout.String(), "[WARN]")
	assert.Contains(t, stderr.String(), "[WARN] [FRONTEND]")
	assert.Contains(t, stderr.String(), "[ERROR]")
	assert.Contains(t, stderr.String(), "[WARN] Falling back to console logging\n")
}
