package logging

import "context"

// Transport delivers one batch to the backend collaborator.
// A nil error means every entry in the batch was accepted.
type Transport interface {
	Send(ctx context.Context, endpoint string, entries []Entry) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, endpoint string, entries []Entry) error

func (f TransportFunc) Send(ctx context.Context, endpoint string, entries []Entry) error {
	return f(ctx, endpoint, entries)
}

// Console is the local output used for fallback delivery and mirroring.
type Console interface {
	// Write prints one entry through the console method matching its level.
	Write(entry Entry)
	// Marker prints an operational notice on the warning channel.
	Marker(message string)
}

// FlushOutcome labels how a flush ended.
type FlushOutcome string

const (
	FlushDelivered FlushOutcome = "delivered"
	FlushFallback  FlushOutcome = "fallback"
)

// Recorder receives queue observability events. Implementations must be
// safe for concurrent use.
type Recorder interface {
	RecordEnqueued(level Level)
	RecordDropped(level Level)
	RecordSendAttempt(success bool)
	RecordRetry()
	RecordFlush(outcome FlushOutcome, size int)
	RecordFallback(entries int)
	SetQueueSize(size int)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) RecordEnqueued(Level) {}
func (NopRecorder) RecordDropped(Level) {}
func (NopRecorder) RecordSendAttempt(bool) {}
func (NopRecorder) RecordRetry() {}
func (NopRecorder) RecordFlush(FlushOutcome, int) {}
func (NopRecorder) RecordFallback(int) {}
func (NopRecorder) SetQueueSize(int) {}
