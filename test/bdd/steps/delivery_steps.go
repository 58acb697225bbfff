package steps

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

var isoTimestamp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)

func (rc *relayContext) theBackendIsDown() error {
	if rc.log != nil {
		rc.mock.SetFailAlways(true)
		return nil
	}
	rc.failBackend = true
	return nil
}

func (rc *relayContext) theBackendIsSlow() error {
	if rc.log != nil {
		return fmt.Errorf("the backend speed must be set before logging starts")
	}
	rc.mock.Delay = 200 * time.Millisecond
	return nil
}

func (rc *relayContext) aCollectorServer() error {
	rc.startServer()
	return nil
}

func (rc *relayContext) aCollectorServerReplying(code int, body *godog.DocString) error {
	rc.startServer()
	rc.pendingCode = code
	rc.pendingBody = strings.TrimSpace(body.Content)
	return nil
}

func (rc *relayContext) iFlushTheLogs() error {
	l, err := rc.logger()
	if err != nil {
		return err
	}
	rc.lastErr = l.FlushLogs(context.Background())
	return nil
}

func (rc *relayContext) iFlushAllLogs() error {
	l, err := rc.logger()
	if err != nil {
		return err
	}
	rc.lastErr = l.FlushAllLogs(context.Background())
	return nil
}

func (rc *relayContext) iFlushTheLogsConcurrently(n int) error {
	l, err := rc.logger()
	if err != nil {
		return err
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.FlushLogs(context.Background())
		}()
	}
	wg.Wait()
	return nil
}

func (rc *relayContext) theTransportShouldNotHaveBeenCalled() error {
	if calls := rc.mock.Calls(); calls != 0 {
		return fmt.Errorf("expected no transport calls, got %d", calls)
	}
	return nil
}

func (rc *relayContext) theTransportShouldHaveBeenCalled(n int) error {
	if calls := rc.mock.Calls(); calls != n {
		return fmt.Errorf("expected %d transport calls, got %d", n, calls)
	}
	return nil
}

func (rc *relayContext) theTransportShouldEventuallyBeCalled(n int) error {
	return rc.eventually(func() bool { return rc.mock.Calls() == n }, fmt.Sprintf("%d transport calls", n))
}

func (rc *relayContext) batchShouldContainEntries(index, n int) error {
	if calls := rc.mock.Calls(); calls < index {
		return fmt.Errorf("only %d batches were sent", calls)
	}
	if got := len(rc.mock.Batches[index-1]); got != n {
		return fmt.Errorf("expected batch %d to hold %d entries, got %d", index, n, got)
	}
	return nil
}

func (rc *relayContext) theBackoffDelaysShouldBe(list string) error {
	var want []string
	for _, d := range strings.Split(list, ",") {
		want = append(want, strings.TrimSpace(d))
	}
	var got []string
	for _, d := range rc.clock.Sleeps() {
		got = append(got, d.String())
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected backoff %v, got %v", want, got)
	}
	return nil
}

func (rc *relayContext) theConsoleShouldShow(marker string) error {
	for _, m := range rc.console.MarkerMessages() {
		if strings.Contains(m, marker) {
			return nil
		}
	}
	return fmt.Errorf("no console marker contains %q: %v", marker, rc.console.MarkerMessages())
}

func (rc *relayContext) theConsoleShouldContainTheMessage(msg string) error {
	for _, m := range rc.console.Messages() {
		if m == msg {
			return nil
		}
	}
	return fmt.Errorf("console never printed %q", msg)
}

func (rc *relayContext) theFlushShouldFail() error {
	if rc.lastErr == nil {
		return fmt.Errorf("expected the flush to fail")
	}
	if !errors.Is(rc.lastErr, logging.ErrDeliveryFailed) {
		return fmt.Errorf("expected a delivery failure, got %v", rc.lastErr)
	}
	return nil
}

func (rc *relayContext) received() ([]map[string]any, error) {
	rc.serverMu.Lock()
	body := rc.serverBody
	rc.serverMu.Unlock()
	if body == nil {
		return nil, fmt.Errorf("the server received nothing")
	}
	doc, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	raw, ok := doc["entries"].([]any)
	if !ok {
		return nil, fmt.Errorf("body has no entries array: %s", body)
	}
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entry is not an object: %v", r)
		}
		out = append(out, m)
	}
	return out, nil
}

func (rc *relayContext) receivedEntry(index int) (map[string]any, error) {
	entries, err := rc.received()
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(entries) {
		return nil, fmt.Errorf("received %d entries, no entry %d", len(entries), index)
	}
	return entries[index-1], nil
}

func (rc *relayContext) theServerShouldReceiveEntries(n int) error {
	entries, err := rc.received()
	if err != nil {
		return err
	}
	if len(entries) != n {
		return fmt.Errorf("expected %d entries, got %d", n, len(entries))
	}
	return nil
}

func (rc *relayContext) receivedEntryShouldHaveLevelAndMessage(index int, level, msg string) error {
	entry, err := rc.receivedEntry(index)
	if err != nil {
		return err
	}
	if entry["level"] != level || entry["message"] != msg {
		return fmt.Errorf("expected %s %q, got %v %v", level, msg, entry["level"], entry["message"])
	}
	return nil
}

func (rc *relayContext) receivedEntryShouldHaveAnISOTimestamp(index int) error {
	entry, err := rc.receivedEntry(index)
	if err != nil {
		return err
	}
	ts, _ := entry["timestamp"].(string)
	if !isoTimestamp.MatchString(ts) {
		return fmt.Errorf("timestamp %q is not ISO-8601 UTC with milliseconds", ts)
	}
	return nil
}

func (rc *relayContext) receivedEntryShouldHaveSource(index int, source string) error {
	entry, err := rc.receivedEntry(index)
	if err != nil {
		return err
	}
	if entry["source"] != source {
		return fmt.Errorf("expected source %q, got %v", source, entry["source"])
	}
	return nil
}

func registerDeliverySteps(ctx *godog.ScenarioContext, rc *relayContext) {
	ctx.Step(`^the backend is down$`, rc.theBackendIsDown)
	ctx.Step(`^the backend is slow$`, rc.theBackendIsSlow)
	ctx.Step(`^a collector server$`, rc.aCollectorServer)
	ctx.Step(`^a collector server replying (\d+) with body:$`, rc.aCollectorServerReplying)
	ctx.Step(`^I flush the logs$`, rc.iFlushTheLogs)
	ctx.Step(`^I flush all logs$`, rc.iFlushAllLogs)
	ctx.Step(`^I flush the logs (\d+) times concurrently$`, rc.iFlushTheLogsConcurrently)
	ctx.Step(`^the transport should not have been called$`, rc.theTransportShouldNotHaveBeenCalled)
	ctx.Step(`^the transport should have been called (\d+) times?$`, rc.theTransportShouldHaveBeenCalled)
	ctx.Step(`^the transport should eventually be called (\d+) times?$`, rc.theTransportShouldEventuallyBeCalled)
	ctx.Step(`^batch (\d+) should contain (\d+) entries$`, rc.batchShouldContainEntries)
	ctx.Step(`^the backoff delays should be "([^"]*)"$`, rc.theBackoffDelaysShouldBe)
	ctx.Step(`^the console should show "([^"]*)"$`, rc.theConsoleShouldShow)
	ctx.Step(`^the console should contain the message "([^"]*)"$`, rc.theConsoleShouldContainTheMessage)
	ctx.Step(`^the flush should fail$`, rc.theFlushShouldFail)
	ctx.Step(`^the server should receive (\d+) entries$`, rc.theServerShouldReceiveEntries)
	ctx.Step(`^received entry (\d+) should have level "([^"]*)" and message "([^"]*)"$`, rc.receivedEntryShouldHaveLevelAndMessage)
	ctx.Step(`^received entry (\d+) should have an ISO-8601 timestamp$`, rc.receivedEntryShouldHaveAnISOTimestamp)
	ctx.Step(`^received entry (\d+) should have source "([^"]*)"$`, rc.receivedEntryShouldHaveSource)
}
