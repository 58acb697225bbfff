package helpers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

// ErrMockSendFailed is returned by MockTransport while it is configured to fail.
var ErrMockSendFailed = errors.New("mock transport: send failed")

// MockTransport is an in-memory implementation of logging.Transport for testing
type MockTransport struct {
	mu sync.Mutex

	// Batches holds every batch passed to Send, successful or not
	Batches   [][]logging.Entry
	Endpoints []string

	// FailFirst makes the first n calls fail; FailAlways overrides it
	FailFirst  int
	FailAlways bool
	SendErr    error

	// Delay blocks each call until it elapses or the context is done
	Delay time.Duration

	// Block, when non-nil, holds every call until it is closed
	Block chan struct{}

	started chan struct{}
}

// NewMockTransport creates a transport that accepts everything
func NewMockTransport() *MockTransport {
	return &MockTransport{started: make(chan struct{}, 64)}
}

// NewFailingTransport creates a transport whose every call fails
func NewFailingTransport() *MockTransport {
	m := NewMockTransport()
	m.FailAlways = true
	return m
}

// Send records the batch and fails or succeeds according to configuration
func (m *MockTransport) Send(ctx context.Context, endpoint string, entries []logging.Entry) error {
	m.mu.Lock()
	batch := make([]logging.Entry, len(entries))
	copy(batch, entries)
	m.Batches = append(m.Batches, batch)
	m.Endpoints = append(m.Endpoints, endpoint)
	call := len(m.Batches)
	fail := m.FailAlways || call <= m.FailFirst
	sendErr := m.SendErr
	delay := m.Delay
	block := m.Block
	m.mu.Unlock()

	select {
	case m.started <- struct{}{}:
	default:
	}

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if fail {
		if sendErr != nil {
			return sendErr
		}
		return ErrMockSendFailed
	}
	return nil
}

// Started is signalled each time Send is entered
func (m *MockTransport) Started() <-chan struct{} {
	return m.started
}

// Calls returns how many times Send was invoked
func (m *MockTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Batches)
}

// Delivered returns every entry from successful calls, in send order
func (m *MockTransport) Delivered() []logging.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []logging.Entry
	for i, batch := range m.Batches {
		if m.FailAlways || i+1 <= m.FailFirst {
			continue
		}
		out = append(out, batch...)
	}
	return out
}

// SentMessages returns the message of every entry ever passed to Send
func (m *MockTransport) SentMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, batch := range m.Batches {
		for _, e := range batch {
			out = append(out, e.Message)
		}
	}
	return out
}

// SetFailAlways switches failure mode at runtime
func (m *MockTransport) SetFailAlways(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailAlways = fail
}
