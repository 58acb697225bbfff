package logging

import (
	"strings"
	"time"
)

const (
	// TimestampLayout matches the ISO-8601 form browsers produce (millisecond precision, UTC).
	TimestampLayout = "2006-01-02T15:04:05.000Z"

	// SourceFrontend tags entries produced by client-side loggers.
	SourceFrontend = "frontend"

	// DefaultComponent is used when a caller does not attribute an entry.
	DefaultComponent = "general"

	// StackNotAvailable is recorded when an exception carries no stack.
	StackNotAvailable = "Stack trace not available"

	emptyMessage = "(empty message)"
)

// Entry is one observed event. Entries are values: once built they are not
// mutated, and the queue owns its copies.
type Entry struct {
	Timestamp  string `json:"timestamp"`
	Level      Level  `json:"level"`
	Message    string `json:"message"`
	Source     string `json:"source"`
	Context    Fields `json:"context,omitempty"`
	StackTrace string `json:"stackTrace,omitempty"`
	Component  string `json:"component,omitempty"`
}

// EntryParams carries everything needed to build an Entry.
type EntryParams struct {
	Time       time.Time
	Level      Level
	Message    string
	Source     string
	Component  string
	Context    Fields
	StackTrace string
}

// NewEntry builds an Entry, sanitizing the context and filling defaults for
// the source and component tags.
func NewEntry(p EntryParams) Entry {
	msg := p.Message
	if strings.TrimSpace(msg) == "" {
		msg = emptyMessage
	}
	source := p.Source
	if source == "" {
		source = SourceFrontend
	}
	component := p.Component
	if component == "" {
		component = DefaultComponent
	}

	return Entry{
		Timestamp:  FormatTimestamp(p.Time),
		Level:      p.Level,
		Message:    msg,
		Source:     source,
		Context:    Sanitize(p.Context),
		StackTrace: p.StackTrace,
		Component:  component,
	}
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
