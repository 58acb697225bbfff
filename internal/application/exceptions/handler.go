package exceptions

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
	diag "github.com/andrescamacho/logrelay/internal/infrastructure/logging"
)

// ExceptionLogger is the subset of *logger.Logger the handler reports through.
type ExceptionLogger interface {
	LogExceptionWithComponent(err error, component, msg string, fields ...logging.Fields)
	LogWithComponent(level logging.Level, component, msg string, fields ...logging.Fields)
}

// Handler turns failures that would otherwise go unobserved into log entries.
// Every capture path is explicit: callers defer RecoverPanic, launch
// goroutines with Go, or wrap functions and HTTP clients.
type Handler struct {
	logger  ExceptionLogger
	pageURL string
	log     *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithPageURL adds a url field to every trapped failure.
func WithPageURL(url string) Option {
	return func(h *Handler) { h.pageURL = url }
}

// WithDiagnostics sets the logger used for the handler's own diagnostics.
func WithDiagnostics(base *zap.Logger) Option {
	return func(h *Handler) { h.log = diag.For(base, diag.ComponentHandler) }
}

// New creates a Handler reporting through logger.
func New(logger ExceptionLogger, opts ...Option) *Handler {
	h := &Handler{logger: logger, log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RecoverPanic must be deferred. It logs a panic as an exception and stops
// it there; the goroutine returns normally.
func (h *Handler) RecoverPanic(location string) {
	if r := recover(); r != nil {
		h.ReportPanic(r, location)
	}
}

// ReportPanic logs a value already taken from recover as an exception.
func (h *Handler) ReportPanic(r any, location string) {
	err := panicError(r)
	h.logger.LogExceptionWithComponent(err, "", err.Error(), h.withURL(logging.Fields{
		"type":       "panic",
		"location":   location,
		"panicValue": fmt.Sprint(r),
	}))
	h.log.Debug("panic recovered", zap.String("location", location))
}

// Go runs fn in a new goroutine. A returned error is logged as an unhandled
// rejection and a panic is recovered; neither reaches the caller.
func (h *Handler) Go(name string, fn func() error) {
	go func() {
		defer h.RecoverPanic(name)
		if err := fn(); err != nil {
			h.logger.LogExceptionWithComponent(err, "", err.Error(), h.withURL(logging.Fields{
				"type":      "unhandledrejection",
				"goroutine": name,
			}))
		}
	}()
}

// CaptureException logs err on request of the caller.
func (h *Handler) CaptureException(err error, fields ...logging.Fields) {
	h.logger.LogExceptionWithComponent(err, "", "", logging.Merge(logging.Merge(nil, fields...), logging.Fields{
		"capturedManually": true,
	}))
}

// CaptureExceptionWithContext logs err attributed to component, with the
// message "Error in <component> during <action>".
func (h *Handler) CaptureExceptionWithContext(err error, component, action string, fields ...logging.Fields) {
	msg := fmt.Sprintf("Error in %s during %s", component, action)
	h.logger.LogExceptionWithComponent(err, component, msg, logging.Merge(logging.Merge(nil, fields...), logging.Fields{
		"action": action,
	}))
}

// CaptureAsync runs op and reports its failure instead of returning it. The
// boolean is false when op failed or panicked.
func CaptureAsync[T any](ctx context.Context, h *Handler, op func(context.Context) (T, error), fields ...logging.Fields) (result T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.ReportPanic(r, "CaptureAsync")
			var zero T
			result, ok = zero, false
		}
	}()

	v, err := op(ctx)
	if err != nil {
		h.CaptureException(err, fields...)
		var zero T
		return zero, false
	}
	return v, true
}

// RoundTripper wraps next so that failed outbound requests are logged as
// warnings. Responses and errors pass through untouched.
func (h *Handler) RoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		resp, err := next.RoundTrip(req)
		switch {
		case err != nil:
			h.logger.LogWithComponent(logging.LevelWarn, "http", "HTTP request failed: "+err.Error(), logging.Fields{
				"type":   "http",
				"method": req.Method,
				"url":    req.URL.String(),
			})
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			h.logger.LogWithComponent(logging.LevelWarn, "http",
				fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
				logging.Fields{
					"type":   "http",
					"method": req.Method,
					"url":    req.URL.String(),
					"status": resp.StatusCode,
				})
		}
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func (h *Handler) withURL(f logging.Fields) logging.Fields {
	if h.pageURL != "" {
		f["url"] = h.pageURL
	}
	return f
}

// panicError converts a recovered value into an error carrying the stack of
// the panicking goroutine.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return logging.Trace(err)
	}
	return logging.NewTracedError("panic", fmt.Sprint(r))
}
