package steps

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/logrelay/internal/infrastructure/config"
)

// set applies a change to the overrides before the logger exists, and as a
// live update afterwards.
func (rc *relayContext) set(apply func(o *config.Overrides)) error {
	if rc.log == nil {
		apply(&rc.overrides)
		return nil
	}
	var partial config.Overrides
	apply(&partial)
	return rc.log.UpdateConfig(partial)
}

func (rc *relayContext) theLogLevelIs(level string) error {
	return rc.set(func(o *config.Overrides) { o.LogLevel = config.Ptr(level) })
}

func (rc *relayContext) loggingIsDisabled() error {
	return rc.set(func(o *config.Overrides) { o.Enabled = config.Ptr(false) })
}

func (rc *relayContext) theBatchSizeIs(n int) error {
	return rc.set(func(o *config.Overrides) { o.BatchSize = config.Ptr(n) })
}

func (rc *relayContext) theMaxQueueSizeIs(n int) error {
	return rc.set(func(o *config.Overrides) { o.MaxQueueSize = config.Ptr(n) })
}

func (rc *relayContext) theRetryAttemptsAre(n int) error {
	return rc.set(func(o *config.Overrides) { o.RetryAttempts = config.Ptr(n) })
}

func (rc *relayContext) theRetryDelayIs(ms int) error {
	return rc.set(func(o *config.Overrides) { o.RetryDelayMs = config.Ptr(ms) })
}

// iUpdateTheFieldTo decodes field/value through the JSON names of Overrides
// so feature files can address any setting.
func (rc *relayContext) iUpdateTheFieldTo(field, value string) error {
	l, err := rc.logger()
	if err != nil {
		return err
	}

	var raw any = value
	if n, convErr := strconv.Atoi(value); convErr == nil {
		raw = n
	} else if b, convErr := strconv.ParseBool(value); convErr == nil {
		raw = b
	}
	doc, err := json.Marshal(map[string]any{field: raw})
	if err != nil {
		return err
	}
	var partial config.Overrides
	if err := json.Unmarshal(doc, &partial); err != nil {
		return fmt.Errorf("cannot decode %s=%s: %w", field, value, err)
	}
	if reflect.ValueOf(partial).IsZero() {
		return fmt.Errorf("unknown configuration field %q", field)
	}

	rc.before = l.Config()
	rc.updateErr = l.UpdateConfig(partial)
	return nil
}

func (rc *relayContext) theUpdateShouldFailMentioning(field string) error {
	if rc.updateErr == nil {
		return fmt.Errorf("expected the update to fail")
	}
	if !errors.Is(rc.updateErr, config.ErrInvalidConfig) {
		return fmt.Errorf("expected an invalid configuration error, got %v", rc.updateErr)
	}
	if !strings.Contains(rc.updateErr.Error(), field) {
		return fmt.Errorf("error %q does not mention %q", rc.updateErr, field)
	}
	return nil
}

func (rc *relayContext) theConfigurationShouldBeUnchanged() error {
	if got := rc.log.Config(); got != rc.before {
		return fmt.Errorf("configuration changed from %+v to %+v", rc.before, got)
	}
	return nil
}

func (rc *relayContext) theEffectiveBatchSizeShouldBe(n int) error {
	l, err := rc.logger()
	if err != nil {
		return err
	}
	if got := l.Config().BatchSize; got != n {
		return fmt.Errorf("expected batch size %d, got %d", n, got)
	}
	return nil
}

func (rc *relayContext) theEffectiveLogLevelShouldBe(level string) error {
	l, err := rc.logger()
	if err != nil {
		return err
	}
	if got := l.Config().LogLevel; got != level {
		return fmt.Errorf("expected log level %q, got %q", level, got)
	}
	return nil
}

func (rc *relayContext) theEffectiveFlushIntervalShouldBe(ms int) error {
	l, err := rc.logger()
	if err != nil {
		return err
	}
	if got := l.Config().FlushInterval; got != ms {
		return fmt.Errorf("expected flush interval %d, got %d", ms, got)
	}
	return nil
}

func registerConfigSteps(ctx *godog.ScenarioContext, rc *relayContext) {
	ctx.Step(`^the log level is "([^"]*)"$`, rc.theLogLevelIs)
	ctx.Step(`^logging is disabled$`, rc.loggingIsDisabled)
	ctx.Step(`^the batch size is (\d+)$`, rc.theBatchSizeIs)
	ctx.Step(`^the max queue size is (\d+)$`, rc.theMaxQueueSizeIs)
	ctx.Step(`^the retry attempts are (\d+)$`, rc.theRetryAttemptsAre)
	ctx.Step(`^the retry delay is (\d+) ms$`, rc.theRetryDelayIs)
	ctx.Step(`^I update the "([^"]*)" to "([^"]*)"$`, rc.iUpdateTheFieldTo)
	ctx.Step(`^the update should fail mentioning "([^"]*)"$`, rc.theUpdateShouldFailMentioning)
	ctx.Step(`^the configuration should be unchanged$`, rc.theConfigurationShouldBeUnchanged)
	ctx.Step(`^the effective batch size should be (\d+)$`, rc.theEffectiveBatchSizeShouldBe)
	ctx.Step(`^the effective log level should be "([^"]*)"$`, rc.theEffectiveLogLevelShouldBe)
	ctx.Step(`^the effective flush interval should be (\d+)$`, rc.theEffectiveFlushIntervalShouldBe)
}
