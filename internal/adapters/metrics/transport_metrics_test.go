package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentRoundTripper_RecordsStatus(t *testing.T) {
	// Arrange
	c := NewTransportMetricsCollector()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	client := &http.Client{Transport: InstrumentRoundTripper(c)(nil)}

	// Act
	resp, err := client.Post(server.URL, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	// Assert
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("POST", "503")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.requestDuration))
}

func TestInstrumentRoundTripper_RecordsTransportError(t *testing.T) {
	c := NewTransportMetricsCollector()
	failing := InstrumentRoundTripper(c)(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))
	req := httptest.NewRequest(http.MethodPost, "http://collector.test/api/logs", nil)

	_, err := failing.RoundTrip(req)

	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("POST", "error")))
}

func TestInstrumentRoundTripper_NilCollector(t *testing.T) {
	calls := 0
	next := roundTripperFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: http.StatusOK}, nil
	})

	resp, err := InstrumentRoundTripper(nil)(next).RoundTrip(httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestTransportMetricsCollector_RateLimitWait(t *testing.T) {
	c := NewTransportMetricsCollector()

	c.RecordRateLimitWait(20 * time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(c.rateLimitWait))
}
