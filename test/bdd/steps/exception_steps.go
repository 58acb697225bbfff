package steps

import (
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/logrelay/internal/application/exceptions"
	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

func (rc *relayContext) iCaptureAnException(name, msg string) error {
	if _, err := rc.logger(); err != nil {
		return err
	}
	rc.handler.CaptureException(logging.NewTracedError(name, msg))
	return nil
}

func (rc *relayContext) aWrappedFunctionThatFails(fn, component, msg string) error {
	if _, err := rc.logger(); err != nil {
		return err
	}
	rc.wantErr = errors.New(msg)
	rc.call = exceptions.Wrap(rc.handler, exceptions.WrapOptions{Component: component, FunctionName: fn},
		func(string) (string, error) { return "", rc.wantErr })
	return nil
}

func (rc *relayContext) aWrappedFunctionThatPanics(fn, component, msg string) error {
	if _, err := rc.logger(); err != nil {
		return err
	}
	rc.call = exceptions.Wrap(rc.handler, exceptions.WrapOptions{Component: component, FunctionName: fn},
		func(string) (string, error) { panic(msg) })
	return nil
}

func (rc *relayContext) iCallItWithArgument(arg string) error {
	if rc.call == nil {
		return fmt.Errorf("no wrapped function was defined")
	}
	func() {
		defer func() { rc.panicked = recover() }()
		rc.result, rc.lastErr = rc.call(arg)
	}()
	return nil
}

func (rc *relayContext) theCallShouldReturnTheOriginalError() error {
	if rc.lastErr != rc.wantErr {
		return fmt.Errorf("expected %v, got %v", rc.wantErr, rc.lastErr)
	}
	return nil
}

func (rc *relayContext) theCallShouldPanicWith(value string) error {
	if rc.panicked == nil {
		return fmt.Errorf("the call did not panic")
	}
	if got := fmt.Sprint(rc.panicked); got != value {
		return fmt.Errorf("expected panic %q, got %q", value, got)
	}
	return nil
}

func (rc *relayContext) aGoroutineStartedThroughTheHandlerPanics(msg string) error {
	if _, err := rc.logger(); err != nil {
		return err
	}
	rc.handler.Go("worker", func() error { panic(msg) })
	return nil
}

func (rc *relayContext) anEntryOfTypeShouldEventuallyBeQueued(kind string) error {
	if err := rc.eventually(func() bool { return rc.log.QueueStatus().Size > 0 }, "a queued entry"); err != nil {
		return err
	}
	return rc.theLastEntryContextShouldBe("type", kind)
}

func registerExceptionSteps(ctx *godog.ScenarioContext, rc *relayContext) {
	ctx.Step(`^I capture a "([^"]*)" exception "([^"]*)"$`, rc.iCaptureAnException)
	ctx.Step(`^a wrapped function "([^"]*)" in component "([^"]*)" that fails with "([^"]*)"$`, rc.aWrappedFunctionThatFails)
	ctx.Step(`^a wrapped function "([^"]*)" in component "([^"]*)" that panics with "([^"]*)"$`, rc.aWrappedFunctionThatPanics)
	ctx.Step(`^I call it with argument "([^"]*)"$`, rc.iCallItWithArgument)
	ctx.Step(`^the call should return the original error$`, rc.theCallShouldReturnTheOriginalError)
	ctx.Step(`^the call should panic with "([^"]*)"$`, rc.theCallShouldPanicWith)
	ctx.Step(`^a goroutine started through the handler panics with "([^"]*)"$`, rc.aGoroutineStartedThroughTheHandlerPanics)
	ctx.Step(`^an entry of type "([^"]*)" should eventually be queued$`, rc.anEntryOfTypeShouldEventuallyBeQueued)
}
