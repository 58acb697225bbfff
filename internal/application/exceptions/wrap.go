package exceptions

import (
	"fmt"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

// WrapOptions attributes failures of a wrapped function.
type WrapOptions struct {
	Component    string
	FunctionName string
}

func (o WrapOptions) names() (component, action string) {
	component = o.Component
	if component == "" {
		component = logging.DefaultComponent
	}
	action = o.FunctionName
	if action == "" {
		action = "anonymous"
	}
	return component, action
}

// Wrap returns a function that behaves exactly like fn, except that an error
// or panic is first reported with the call's argument. The error is returned
// and the panic re-raised unchanged.
func Wrap[A, R any](h *Handler, opts WrapOptions, fn func(A) (R, error)) func(A) (R, error) {
	component, action := opts.names()
	return func(arg A) (R, error) {
		defer h.reportPanic(component, action, []any{arg})

		result, err := fn(arg)
		if err != nil {
			h.CaptureExceptionWithContext(err, component, action, logging.Fields{"args": []any{arg}})
		}
		return result, err
	}
}

// WrapVariadic is Wrap for functions taking any number of arguments.
func WrapVariadic(h *Handler, opts WrapOptions, fn func(args ...any) (any, error)) func(args ...any) (any, error) {
	component, action := opts.names()
	return func(args ...any) (any, error) {
		defer h.reportPanic(component, action, args)

		result, err := fn(args...)
		if err != nil {
			h.CaptureExceptionWithContext(err, component, action, logging.Fields{"args": args})
		}
		return result, err
	}
}

// reportPanic must be deferred directly by the wrapper.
func (h *Handler) reportPanic(component, action string, args []any) {
	r := recover()
	if r == nil {
		return
	}
	h.CaptureExceptionWithContext(panicError(r), component, action, logging.Fields{
		"args":       args,
		"panicValue": fmt.Sprint(r),
	})
	panic(r)
}
