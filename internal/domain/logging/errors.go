package logging

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"
)

var (
	// ErrDeliveryFailed is wrapped by every error returned after retries are exhausted.
	ErrDeliveryFailed = errors.New("log delivery failed")

	// ErrRejectedByBackend marks a 2xx response whose body reported a non-success status.
	ErrRejectedByBackend = errors.New("backend rejected batch")
)

// DeliveryError reports a batch that could not be delivered and was written
// to the console instead.
type DeliveryError struct {
	Attempts int
	Entries  int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%v after %d attempt(s) (%d entries sent to console): %v",
		ErrDeliveryFailed, e.Attempts, e.Entries, e.Err)
}

func (e *DeliveryError) Unwrap() []error {
	return []error{ErrDeliveryFailed, e.Err}
}

// HTTPStatusError is returned by transports for non-2xx responses.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend responded with HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("backend responded with HTTP %d: %s", e.StatusCode, e.Body)
}

// StackTracer is implemented by errors that carry their own stack trace.
type StackTracer interface {
	StackTrace() string
}

// TracedError is an error that remembers where it was created.
type TracedError struct {
	Name    string
	Message string
	Stack   string
	Cause   error
}

// NewTracedError captures the current goroutine stack. The stack text starts
// with "<name>: <message>" so it reads like a thrown exception.
func NewTracedError(name, message string) *TracedError {
	if name == "" {
		name = "Error"
	}
	return &TracedError{
		Name:    name,
		Message: message,
		Stack:   fmt.Sprintf("%s: %s\n%s", name, message, debug.Stack()),
	}
}

// Trace wraps err with the current stack, keeping err reachable through Unwrap.
func Trace(err error) *TracedError {
	if err == nil {
		return nil
	}
	var traced *TracedError
	if errors.As(err, &traced) {
		return traced
	}
	t := NewTracedError(ErrorName(err), err.Error())
	t.Cause = err
	return t
}

func (e *TracedError) Error() string {
	return e.Message
}

func (e *TracedError) StackTrace() string {
	return e.Stack
}

func (e *TracedError) Unwrap() error {
	return e.Cause
}

// ErrorName returns a short, human-readable type name for err: the Name of a
// TracedError, otherwise the dynamic type without package or pointer marker.
func ErrorName(err error) string {
	if err == nil {
		return ""
	}
	var traced *TracedError
	if errors.As(err, &traced) && traced != nil {
		return traced.Name
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// StackOf returns the stack trace carried by err, or StackNotAvailable.
func StackOf(err error) string {
	var tracer StackTracer
	if errors.As(err, &tracer) && !IsNil(tracer) {
		if s := tracer.StackTrace(); s != "" {
			return s
		}
	}
	return StackNotAvailable
}

// IsNil reports whether v is nil or an interface holding a nil pointer.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
