package logger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/andrescamacho/logrelay/internal/application/logger"
	"github.com/andrescamacho/logrelay/internal/domain/logging"
	"github.com/andrescamacho/logrelay/internal/domain/shared"
	"github.com/andrescamacho/logrelay/internal/infrastructure/config"
	"github.com/andrescamacho/logrelay/test/helpers"
)

type fixture struct {
	log       *logger.Logger
	cfg       *config.Manager
	transport *helpers.MockTransport
	console   *helpers.RecordingConsole
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T, overrides *config.Overrides, opts ...logger.Option) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		cfg:       helpers.NewTestConfig(overrides),
		transport: helpers.NewMockTransport(),
		console:   helpers.NewRecordingConsole(),
		logs:      logs,
	}
	base := []logger.Option{
		logger.WithConsole(f.console),
		logger.WithClock(shared.NewMockClock(helpers.FixedTime)),
		logger.WithDiagnostics(zap.New(core)),
		logger.WithSessionID("logrelay-test0001"),
	}
	f.log = logger.New(f.cfg, f.transport, append(base, opts...)...)
	t.Cleanup(func() { _ = f.log.Close(context.Background()) })
	return f
}

func (f *fixture) flush(t *testing.T) []logging.Entry {
	t.Helper()
	require.NoError(t, f.log.FlushAllLogs(context.Background()))
	return f.transport.Delivered()
}

func messages(entries []logging.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}

func TestNew_EnqueuesStartupMarker(t *testing.T) {
	// Arrange
	f := newFixture(t, nil, logger.WithProduct("Acme", "2.3.1"))

	// Act
	sent := f.flush(t)

	// Assert
	require.Len(t, sent, 1)
	marker := sent[0]
	assert.Equal(t, "Acme v2.3.1 loading", marker.Message)
	assert.Equal(t, logging.LevelInfo, marker.Level)
	assert.Equal(t, "Acme", marker.Context["product"])
	assert.Equal(t, "2.3.1", marker.Context["version"])
	assert.Equal(t, "logrelay-test0001", marker.Context["sessionId"])
	assert.Equal(t, "2024-01-01T12:00:00.000Z", marker.Timestamp)
}

func TestNew_GeneratesSessionID(t *testing.T) {
	cfg := helpers.NewTestConfig(nil)
	l := logger.New(cfg, helpers.NewMockTransport(), logger.WithConsole(helpers.NewRecordingConsole()))
	defer l.Close(context.Background())

	assert.Regexp(t, `^logrelay-[0-9a-f]{8}$`, l.SessionID())
}

func TestNew_PanicsOnInvalidVersion(t *testing.T) {
	assert.Panics(t, func() {
		logger.New(helpers.NewTestConfig(nil), helpers.NewMockTransport(), logger.WithProduct("Acme", "v1"))
	})
}

func TestNew_WarnsWhenQueueSmallerThanBatch(t *testing.T) {
	f := newFixture(t, &config.Overrides{BatchSize: config.Ptr(50), MaxQueueSize: config.Ptr(10)})

	assert.Equal(t, 1, f.logs.FilterMessageSnippet("maxQueueSize is below batchSize").Len())
}

func TestLog_FiltersBelowConfiguredLevel(t *testing.T) {
	// Arrange
	f := newFixture(t, &config.Overrides{LogLevel: config.Ptr("warn")})

	// Act
	f.log.Debug("debug message")
	f.log.Info("info message")
	f.log.Warn("warn message")
	f.log.Error("error message")

	// Assert
	assert.Equal(t, 2, f.log.QueueStatus().Size)
	assert.Equal(t, []string{"warn message", "error message"}, messages(f.flush(t)))
}

func TestLog_DisabledIsNoop(t *testing.T) {
	f := newFixture(t, &config.Overrides{Enabled: config.Ptr(false)})

	f.log.Error("nothing")
	f.log.LogException(errors.New("boom"), "")

	assert.Equal(t, 0, f.log.QueueStatus().Size)
}

func TestLog_BuildsEntry(t *testing.T) {
	// Arrange
	f := newFixture(t, &config.Overrides{LogLevel: config.Ptr("debug")})
	f.flush(t)

	// Act
	f.log.Info("user signed in", logging.Fields{"userId": 42}, logging.Fields{"plan": "pro"})
	f.log.LogWithComponent(logging.LevelWarn, "billing", "card declined")
	f.log.Debug("")

	// Assert
	sent := f.flush(t)[1:]
	require.Len(t, sent, 3)

	assert.Equal(t, logging.SourceFrontend, sent[0].Source)
	assert.Equal(t, logging.DefaultComponent, sent[0].Component)
	assert.Equal(t, logging.Fields{"userId": 42, "plan": "pro"}, sent[0].Context)

	assert.Equal(t, "billing", sent[1].Component)
	assert.Nil(t, sent[1].Context)

	assert.Equal(t, "(empty message)", sent[2].Message)
}

func TestLog_BatchTriggeredFlush(t *testing.T) {
	// Arrange
	f := newFixture(t, &config.Overrides{BatchSize: config.Ptr(10)})

	// Act
	for i := 0; i < 9; i++ {
		f.log.Info(fmt.Sprintf("msg-%d", i))
	}

	// Assert
	assert.Eventually(t, func() bool { return f.transport.Calls() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, f.transport.Batches[0], 10)
}

func TestLogException_CapturesNameMessageAndStack(t *testing.T) {
	// Arrange
	f := newFixture(t, nil)
	f.flush(t)
	err := logging.NewTracedError("TypeError", "x is undefined")

	// Act
	f.log.LogException(err, "", logging.Fields{"route": "/checkout"})

	// Assert
	sent := f.flush(t)[1:]
	require.Len(t, sent, 1)
	entry := sent[0]
	assert.Equal(t, logging.LevelError, entry.Level)
	assert.Equal(t, "x is undefined", entry.Message)
	assert.Equal(t, "TypeError", entry.Context["errorName"])
	assert.Equal(t, "x is undefined", entry.Context["errorMessage"])
	assert.Equal(t, "/checkout", entry.Context["route"])
	assert.Contains(t, entry.StackTrace, "TypeError: x is undefined")
}

func TestLogException_PlainErrorHasNoStack(t *testing.T) {
	f := newFixture(t, nil)
	f.flush(t)

	f.log.LogException(errors.New("plain"), "custom message")

	entry := f.flush(t)[1]
	assert.Equal(t, "custom message", entry.Message)
	assert.Equal(t, "errorString", entry.Context["errorName"])
	assert.Equal(t, logging.StackNotAvailable, entry.StackTrace)
}

func TestLogException_IgnoresLevelBelowError(t *testing.T) {
	f := newFixture(t, &config.Overrides{LogLevel: config.Ptr("error")})

	f.log.LogException(errors.New("still logged"), "")

	assert.Equal(t, 1, f.log.QueueStatus().Size)
}

func TestConsoleMirror(t *testing.T) {
	f := newFixture(t, nil, logger.WithConsoleMirror(true))

	f.log.Warn("mirrored")

	assert.Contains(t, f.console.Messages(), "mirrored")
}

func TestUpdateConfig_InvalidLeavesConfigUnchanged(t *testing.T) {
	// Arrange
	f := newFixture(t, nil)
	before := f.log.Config()

	// Act
	err := f.log.UpdateConfig(config.Overrides{BatchSize: config.Ptr(0)})

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
	assert.Equal(t, before, f.log.Config())
}

func TestUpdateConfig_AppliesToFiltering(t *testing.T) {
	f := newFixture(t, nil)
	f.flush(t)

	require.NoError(t, f.log.UpdateConfig(config.Overrides{LogLevel: config.Ptr("error")}))
	f.log.Warn("filtered")

	assert.Equal(t, 0, f.log.QueueStatus().Size)
}

func TestStart_AutoFlushesAndRestartsOnIntervalChange(t *testing.T) {
	// Arrange
	f := newFixture(t, &config.Overrides{FlushInterval: config.Ptr(3_600_000)})
	f.log.Start()

	// Act
	require.NoError(t, f.log.UpdateConfig(config.Overrides{FlushInterval: config.Ptr(10)}))

	// Assert
	assert.Eventually(t, func() bool { return f.log.QueueStatus().Size == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.transport.Calls())
}

func TestClose_DrainsQueue(t *testing.T) {
	// Arrange
	f := newFixture(t, &config.Overrides{BatchSize: config.Ptr(3)})
	f.flush(t)

	// Act
	f.log.Info("a")
	f.log.Info("b")
	err := f.log.Close(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, f.log.QueueStatus().Size)
	assert.Contains(t, f.transport.SentMessages(), "b")
	require.NoError(t, f.log.Close(context.Background()))
}

func TestClose_ExpiredContextFallsBackToConsole(t *testing.T) {
	// Arrange
	f := newFixture(t, nil)
	f.transport.Block = make(chan struct{})
	defer close(f.transport.Block)
	go func() { _ = f.log.FlushLogs(context.Background()) }()
	<-f.transport.Started()
	f.log.Info("late")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Act
	err := f.log.Close(ctx)

	// Assert
	require.Error(t, err)
	assert.Contains(t, f.console.Messages(), "late")
	assert.Equal(t, 1, f.logs.FilterMessageSnippet("shutdown deadline").Len())
}

type lookupError struct{ key string }

func (e *lookupError) Error() string { return "missing " + e.key }

func TestLog_TypedNilErrorInContext(t *testing.T) {
	// Arrange
	f := newFixture(t, nil)
	f.flush(t)

	// Act
	require.NotPanics(t, func() {
		f.log.Info("hello", logging.Fields{"cause": (*lookupError)(nil)})
	})

	// Assert
	sent := f.flush(t)[1:]
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Context, "cause")
	assert.Nil(t, sent[0].Context["cause"])
}

func TestLogException_TypedNilError(t *testing.T) {
	// Arrange
	f := newFixture(t, nil)
	f.flush(t)

	// Act
	require.NotPanics(t, func() {
		f.log.LogException((*lookupError)(nil), "")
	})

	// Assert
	sent := f.flush(t)[1:]
	require.Len(t, sent, 1)
	assert.Equal(t, "nil error", sent[0].Message)
	assert.Equal(t, logging.StackNotAvailable, sent[0].StackTrace)
}

func TestLog_UnknownLevelIsDropped(t *testing.T) {
	// Arrange
	f := newFixture(t, nil)

	// Act
	f.log.Error("important error")
	f.log.LogWithComponent(logging.Level(9), "x", "odd level")

	// Assert
	require.NoError(t, f.log.FlushAllLogs(context.Background()))
	sent := f.transport.SentMessages()
	assert.Contains(t, sent, "important error")
	assert.NotContains(t, sent, "odd level")
	assert.Empty(t, f.console.Messages())
	assert.Equal(t, 1, f.logs.FilterMessageSnippet("unknown level").Len())
}

func TestLog_AfterCloseWritesToConsole(t *testing.T) {
	// Arrange
	f := newFixture(t, nil)
	require.NoError(t, f.log.Close(context.Background()))
	calls := f.transport.Calls()

	// Act
	f.log.Warn("late entry")
	f.log.LogException(errors.New("stdin closed"), "")

	// Assert
	assert.Equal(t, 0, f.log.QueueStatus().Size)
	assert.Equal(t, calls, f.transport.Calls())
	assert.Contains(t, f.console.Messages(), "late entry")
	assert.Contains(t, f.console.Messages(), "stdin closed")
}
