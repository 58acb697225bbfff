package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
	diag "github.com/andrescamacho/logrelay/internal/infrastructure/logging"
)

const (
	defaultRatePerSecond = 20
	defaultBurst         = 5
	defaultClientTimeout = 15 * time.Second
	maxErrorBody         = 512

	statusSuccess = "success"
	statusHealthy = "healthy"
)

// batchRequest is the wire body of a delivery.
type batchRequest struct {
	Entries []logging.Entry `json:"entries"`
}

// batchResponse is the optional body of a 2xx reply.
type batchResponse struct {
	Status  *string `json:"status"`
	Message string  `json:"message"`
	Count   int     `json:"count"`
}

// HealthStatus is the reply of the backend health endpoint.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
	Service   string `json:"service,omitempty"`
}

// HTTPTransport POSTs batches as JSON. It makes exactly one request per
// Send; retrying is the queue's job.
type HTTPTransport struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	breaker     *CircuitBreaker
	waitObs     func(time.Duration)
	log         *zap.Logger
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) { t.httpClient = c }
}

// WithRoundTripper wraps the client's transport, e.g. with exceptions.Handler.RoundTripper.
func WithRoundTripper(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(t *HTTPTransport) {
		t.httpClient = &http.Client{
			Timeout:   t.httpClient.Timeout,
			Transport: wrap(t.httpClient.Transport),
		}
	}
}

// WithRateLimit sets requests per second and burst. A non-positive rate
// disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(t *HTTPTransport) {
		if perSecond <= 0 {
			t.rateLimiter = nil
			return
		}
		t.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRateLimitObserver reports how long each send waited for the limiter.
func WithRateLimitObserver(fn func(time.Duration)) Option {
	return func(t *HTTPTransport) { t.waitObs = fn }
}

// WithCircuitBreaker short-circuits sends while the backend keeps failing.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(t *HTTPTransport) { t.breaker = cb }
}

// WithDiagnostics sets the logger used for transport diagnostics.
func WithDiagnostics(base *zap.Logger) Option {
	return func(t *HTTPTransport) { t.log = diag.For(base, diag.ComponentTransport) }
}

// NewHTTPTransport creates a transport rate limited to 20 req/s with burst 5.
func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		httpClient:  &http.Client{Timeout: defaultClientTimeout},
		rateLimiter: rate.NewLimiter(rate.Limit(defaultRatePerSecond), defaultBurst),
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send implements logging.Transport.
func (t *HTTPTransport) Send(ctx context.Context, endpoint string, entries []logging.Entry) error {
	if t.breaker == nil {
		return t.post(ctx, endpoint, entries)
	}
	return t.breaker.Call(func() error {
		return t.post(ctx, endpoint, entries)
	})
}

func (t *HTTPTransport) post(ctx context.Context, endpoint string, entries []logging.Entry) error {
	if t.rateLimiter != nil {
		start := time.Now()
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}
		if t.waitObs != nil {
			t.waitObs(time.Since(start))
		}
	}

	payload, err := json.Marshal(batchRequest{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &logging.HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}

	if err := checkBody(body); err != nil {
		return err
	}

	t.log.Debug("batch accepted", zap.Int("entries", len(entries)), zap.Int("status", resp.StatusCode))
	return nil
}

// checkBody accepts an empty body, a JSON body without a status, or one
// whose status is "success".
func checkBody(body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var parsed batchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.Status == nil || *parsed.Status == statusSuccess {
		return nil
	}
	msg := parsed.Message
	if msg == "" {
		msg = "status " + *parsed.Status
	}
	return fmt.Errorf("%w: %s", logging.ErrRejectedByBackend, msg)
}

// Health probes the backend at <scheme>://<host>/health.
func (t *HTTPTransport) Health(ctx context.Context, endpoint string) (*HealthStatus, error) {
	healthURL, err := HealthURL(endpoint)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &logging.HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}

	var status HealthStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal health response: %w", err)
	}
	if status.Status != statusHealthy {
		return &status, fmt.Errorf("backend reports status %q", status.Status)
	}
	return &status, nil
}

// HealthURL derives the health endpoint from a log ingestion endpoint.
func HealthURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("endpoint must be an absolute URL")
	}
	return u.Scheme + "://" + u.Host + "/health", nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
