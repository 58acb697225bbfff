package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

func (rc *relayContext) iLogMessage(level, msg string) error {
	return rc.logMessage(level, msg, nil)
}

func (rc *relayContext) iLogMessageWithField(level, msg, key, value string) error {
	return rc.logMessage(level, msg, logging.Fields{key: value})
}

func (rc *relayContext) logMessage(level, msg string, fields logging.Fields) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	l, err := rc.logger()
	if err != nil {
		return err
	}
	if fields == nil {
		l.LogWithComponent(lvl, "", msg)
		return nil
	}
	l.LogWithComponent(lvl, "", msg, fields)
	return nil
}

func (rc *relayContext) iLogMessages(n int, level string) error {
	for i := 0; i < n; i++ {
		if err := rc.logMessage(level, fmt.Sprintf("%s-%d", level, i), nil); err != nil {
			return err
		}
	}
	return nil
}

func (rc *relayContext) entriesShouldBeQueued(n int) error {
	l, err := rc.logger()
	if err != nil {
		return err
	}
	if got := l.QueueStatus().Size; got != n {
		return fmt.Errorf("expected %d queued entries, got %d", n, got)
	}
	return nil
}

// theQueueShouldContain drains the queue in one batch and compares messages
// in delivery order.
func (rc *relayContext) theQueueShouldContain(list string) error {
	if err := rc.log.FlushAllLogs(context.Background()); err != nil {
		return err
	}
	var want []string
	for _, m := range strings.Split(list, ",") {
		want = append(want, strings.TrimSpace(m))
	}
	got := rc.mock.SentMessages()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected queue %v, got %v", want, got)
	}
	return nil
}

func (rc *relayContext) theLastEntryShouldHaveLevel(level string) error {
	entry, err := rc.lastEntry()
	if err != nil {
		return err
	}
	if entry.Level.String() != level {
		return fmt.Errorf("expected level %q, got %q", level, entry.Level)
	}
	return nil
}

func (rc *relayContext) theLastEntryMessageShouldBe(msg string) error {
	entry, err := rc.lastEntry()
	if err != nil {
		return err
	}
	if entry.Message != msg {
		return fmt.Errorf("expected message %q, got %q", msg, entry.Message)
	}
	return nil
}

func (rc *relayContext) theLastEntryContextShouldBe(key, value string) error {
	entry, err := rc.lastEntry()
	if err != nil {
		return err
	}
	got, ok := entry.Context[key]
	if !ok {
		return fmt.Errorf("context has no %q: %v", key, entry.Context)
	}
	if fmt.Sprint(got) != value {
		return fmt.Errorf("expected context %s=%q, got %q", key, value, fmt.Sprint(got))
	}
	return nil
}

func (rc *relayContext) theLastEntryShouldHaveAStackTrace() error {
	entry, err := rc.lastEntry()
	if err != nil {
		return err
	}
	if entry.StackTrace == "" || entry.StackTrace == logging.StackNotAvailable {
		return fmt.Errorf("expected a stack trace, got %q", entry.StackTrace)
	}
	return nil
}

func registerLoggingSteps(ctx *godog.ScenarioContext, rc *relayContext) {
	ctx.Step(`^I log "([^"]*)" message "([^"]*)"$`, rc.iLogMessage)
	ctx.Step(`^I log "([^"]*)" message "([^"]*)" with field "([^"]*)" = "([^"]*)"$`, rc.iLogMessageWithField)
	ctx.Step(`^I log (\d+) "([^"]*)" messages$`, rc.iLogMessages)
	ctx.Step(`^(\d+) entries should be queued$`, rc.entriesShouldBeQueued)
	ctx.Step(`^the queue should contain "([^"]*)"$`, rc.theQueueShouldContain)
	ctx.Step(`^the last entry should have level "([^"]*)"$`, rc.theLastEntryShouldHaveLevel)
	ctx.Step(`^the last entry message should be "([^"]*)"$`, rc.theLastEntryMessageShouldBe)
	ctx.Step(`^the last entry context "([^"]*)" should be "([^"]*)"$`, rc.theLastEntryContextShouldBe)
	ctx.Step(`^the last entry should have a stack trace$`, rc.theLastEntryShouldHaveAStackTrace)
}
