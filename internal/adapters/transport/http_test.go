package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/logrelay/internal/adapters/transport"
	"github.com/andrescamacho/logrelay/internal/domain/logging"
	"github.com/andrescamacho/logrelay/test/helpers"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *[]byte) {
	t.Helper()
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &received
}

func TestSend_BodyShape(t *testing.T) {
	// Arrange
	server, received := newServer(t, http.StatusOK, `{"status":"success","count":1}`)
	tr := transport.NewHTTPTransport()
	entry := logging.NewEntry(logging.EntryParams{
		Time:      helpers.FixedTime,
		Level:     logging.LevelWarn,
		Message:   "disk almost full",
		Component: "storage",
		Context:   logging.Fields{"free": 3},
	})

	// Act
	err := tr.Send(context.Background(), server.URL+"/api/logs", []logging.Entry{entry})

	// Assert
	require.NoError(t, err)
	var body struct {
		Entries []map[string]any `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(*received, &body))
	require.Len(t, body.Entries, 1)
	got := body.Entries[0]
	assert.Equal(t, "2024-01-01T12:00:00.000Z", got["timestamp"])
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "disk almost full", got["message"])
	assert.Equal(t, "frontend", got["source"])
	assert.Equal(t, "storage", got["component"])
	assert.Equal(t, map[string]any{"free": float64(3)}, got["context"])
	assert.NotContains(t, got, "stackTrace")
}

func TestSend_ResponseClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		ok      bool
	}{
		{name: "empty 200", status: http.StatusOK, body: "", ok: true},
		{name: "204 no content", status: http.StatusNoContent, body: "", ok: true},
		{name: "success status", status: http.StatusOK, body: `{"status":"success"}`, ok: true},
		{name: "json without status", status: http.StatusOK, body: `{"count":3}`, ok: true},
		{name: "error status in body", status: http.StatusOK, body: `{"status":"error","message":"quota"}`, wantErr: logging.ErrRejectedByBackend},
		{name: "unparseable body", status: http.StatusOK, body: `<html>`},
		{name: "server error", status: http.StatusInternalServerError, body: "oops"},
		{name: "client error", status: http.StatusBadRequest, body: `{"error":"bad"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newServer(t, tt.status, tt.body)
			tr := transport.NewHTTPTransport()

			err := tr.Send(context.Background(), server.URL, helpers.NewTestEntries("m", 1))

			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSend_Non2xxIsHTTPStatusError(t *testing.T) {
	server, _ := newServer(t, http.StatusServiceUnavailable, "down for maintenance")
	tr := transport.NewHTTPTransport()

	err := tr.Send(context.Background(), server.URL, helpers.NewTestEntries("m", 1))

	var statusErr *logging.HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "down for maintenance", statusErr.Body)
}

func TestSend_NetworkError(t *testing.T) {
	server, _ := newServer(t, http.StatusOK, "")
	url := server.URL
	server.Close()

	err := transport.NewHTTPTransport().Send(context.Background(), url, helpers.NewTestEntries("m", 1))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "network error")
}

func TestSend_ContextTimeout(t *testing.T) {
	// Arrange
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Act
	err := transport.NewHTTPTransport().Send(ctx, server.URL, helpers.NewTestEntries("m", 1))

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSend_RoundTripperWrapping(t *testing.T) {
	server, _ := newServer(t, http.StatusOK, "")
	var seen int32
	tr := transport.NewHTTPTransport(transport.WithRoundTripper(func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(req *http.Request) (*http.Response, error) {
			atomic.AddInt32(&seen, 1)
			if next == nil {
				next = http.DefaultTransport
			}
			return next.RoundTrip(req)
		})
	}))

	require.NoError(t, tr.Send(context.Background(), server.URL, helpers.NewTestEntries("m", 1)))
	assert.Equal(t, int32(1), atomic.LoadInt32(&seen))
}

func TestSend_CircuitBreakerOpensAfterFailures(t *testing.T) {
	// Arrange
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	breaker := transport.NewCircuitBreaker(2, time.Minute, nil)
	tr := transport.NewHTTPTransport(transport.WithCircuitBreaker(breaker))

	// Act
	for i := 0; i < 2; i++ {
		_ = tr.Send(context.Background(), server.URL, helpers.NewTestEntries("m", 1))
	}
	err := tr.Send(context.Background(), server.URL, helpers.NewTestEntries("m", 1))

	// Assert
	assert.ErrorIs(t, err, transport.ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, transport.CircuitOpen, breaker.State())
}

func TestHealth(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"healthy","service":"log-ingest"}`))
	}))
	defer server.Close()

	// Act
	status, err := transport.NewHTTPTransport().Health(context.Background(), server.URL+"/api/logs")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "log-ingest", status.Service)
}

func TestHealth_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer server.Close()

	status, err := transport.NewHTTPTransport().Health(context.Background(), server.URL)

	require.Error(t, err)
	assert.Equal(t, "degraded", status.Status)
}

func TestHealthURL(t *testing.T) {
	got, err := transport.HealthURL("https://logs.example.com:8443/api/logs?x=1")
	require.NoError(t, err)
	assert.Equal(t, "https://logs.example.com:8443/health", got)

	_, err = transport.HealthURL("/relative")
	assert.Error(t, err)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestSend_ReportsRateLimitWait(t *testing.T) {
	// Arrange
	server, _ := newServer(t, http.StatusOK, "")
	var waits []time.Duration
	tr := transport.NewHTTPTransport(
		transport.WithRateLimit(1000, 1),
		transport.WithRateLimitObserver(func(d time.Duration) { waits = append(waits, d) }),
	)
	entries := helpers.NewTestEntries("wait", 1)

	// Act
	require.NoError(t, tr.Send(context.Background(), server.URL, entries))
	require.NoError(t, tr.Send(context.Background(), server.URL, entries))

	// Assert
	require.Len(t, waits, 2)
	assert.GreaterOrEqual(t, waits[1], time.Duration(0))
}
