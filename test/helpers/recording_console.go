package helpers

import (
	"sync"

	"github.com/andrescamacho/logrelay/internal/adapters/console"
	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

// RecordingConsole captures console output in memory
type RecordingConsole struct {
	mu      sync.Mutex
	Entries []logging.Entry
	Markers []string
}

// NewRecordingConsole creates an empty recording console
func NewRecordingConsole() *RecordingConsole {
	return &RecordingConsole{}
}

// Write records an entry
func (c *RecordingConsole) Write(entry logging.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries = append(c.Entries, entry)
}

// Marker records an operational notice
func (c *RecordingConsole) Marker(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Markers = append(c.Markers, message)
}

// Messages returns the message of every written entry
func (c *RecordingConsole) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, e.Message)
	}
	return out
}

// Lines returns every written entry rendered in the console format
func (c *RecordingConsole) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, console.Format(e))
	}
	return out
}

// MarkerCount returns how many markers were written
func (c *RecordingConsole) MarkerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Markers)
}

// MarkerMessages returns a copy of every marker written
func (c *RecordingConsole) MarkerMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Markers...)
}
