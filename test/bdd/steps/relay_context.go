package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/andrescamacho/logrelay/internal/adapters/transport"
	"github.com/andrescamacho/logrelay/internal/application/exceptions"
	"github.com/andrescamacho/logrelay/internal/application/logger"
	"github.com/andrescamacho/logrelay/internal/domain/logging"
	"github.com/andrescamacho/logrelay/internal/domain/shared"
	"github.com/andrescamacho/logrelay/internal/infrastructure/config"
	"github.com/andrescamacho/logrelay/test/helpers"
)

// relayContext is shared by every logrelay scenario. Steps configure
// overrides first; the logger is built lazily on first use.
type relayContext struct {
	overrides config.Overrides
	cfg       *config.Manager
	log       *logger.Logger
	handler   *exceptions.Handler
	transport logging.Transport
	mock      *helpers.MockTransport
	console   *helpers.RecordingConsole
	clock     *shared.MockClock

	server     *httptest.Server
	serverMu   sync.Mutex
	serverBody []byte
	replyCode  int
	replyBody  string

	// applied once the startup marker has been delivered
	pendingCode int
	pendingBody string

	failBackend bool

	lastErr   error
	updateErr error
	before    config.LoggingConfig
	panicked  any
	result    any

	call    func(string) (string, error)
	wantErr error
}

func (rc *relayContext) reset() {
	if rc.log != nil {
		_ = rc.log.Close(context.Background())
	}
	if rc.server != nil {
		rc.server.Close()
	}
	rc.overrides = config.Overrides{
		APIEndpoint:   config.Ptr("http://collector.test/api/logs"),
		FlushInterval: config.Ptr(3_600_000),
		RetryDelayMs:  config.Ptr(1),
	}
	rc.cfg = nil
	rc.log = nil
	rc.handler = nil
	rc.mock = helpers.NewMockTransport()
	rc.console = helpers.NewRecordingConsole()
	rc.clock = shared.NewMockClock(helpers.FixedTime)
	rc.server = nil
	rc.serverBody = nil
	rc.replyCode, rc.replyBody = 0, ""
	rc.pendingCode, rc.pendingBody = 0, ""
	rc.failBackend = false
	rc.lastErr, rc.updateErr = nil, nil
	rc.before = config.LoggingConfig{}
	rc.panicked, rc.result = nil, nil
	rc.call, rc.wantErr = nil, nil
	rc.transport = rc.mock
}

// logger builds the logger on first use and discards the startup marker so
// assertions only see entries the scenario produced.
func (rc *relayContext) logger() (*logger.Logger, error) {
	if rc.log != nil {
		return rc.log, nil
	}
	cfg, err := config.NewManager(&rc.overrides)
	if err != nil {
		return nil, err
	}
	rc.cfg = cfg

	rc.log = logger.New(cfg, rc.transport,
		logger.WithConsole(rc.console),
		logger.WithClock(rc.clock),
		logger.WithDiagnostics(zap.NewNop()),
	)
	if err := rc.log.FlushAllLogs(context.Background()); err != nil {
		return nil, err
	}
	rc.mock.Batches = nil
	rc.mock.SetFailAlways(rc.failBackend)
	rc.serverMu.Lock()
	rc.replyCode, rc.replyBody = rc.pendingCode, rc.pendingBody
	rc.serverMu.Unlock()
	rc.handler = exceptions.New(rc.log)
	return rc.log, nil
}

func (rc *relayContext) startServer() {
	rc.replyCode = http.StatusOK
	rc.pendingCode = http.StatusOK
	rc.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rc.serverMu.Lock()
		rc.serverBody = body
		code, reply := rc.replyCode, rc.replyBody
		rc.serverMu.Unlock()
		w.WriteHeader(code)
		_, _ = w.Write([]byte(reply))
	}))
	rc.overrides.APIEndpoint = config.Ptr(rc.server.URL + "/api/logs")
	rc.transport = transport.NewHTTPTransport(transport.WithRateLimit(0, 0))
}

// sentEntries returns every entry passed to the mock transport, in order.
func (rc *relayContext) sentEntries() []logging.Entry {
	var out []logging.Entry
	for _, batch := range rc.mock.Batches {
		out = append(out, batch...)
	}
	return out
}

func (rc *relayContext) lastEntry() (logging.Entry, error) {
	if err := rc.log.FlushAllLogs(context.Background()); err != nil {
		return logging.Entry{}, err
	}
	sent := rc.sentEntries()
	if len(sent) == 0 {
		return logging.Entry{}, fmt.Errorf("no entries were sent")
	}
	return sent[len(sent)-1], nil
}

func (rc *relayContext) eventually(cond func() bool, what string) error {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for %s", what)
}

func parseLevel(s string) (logging.Level, error) {
	return logging.ParseLevel(strings.TrimSpace(s))
}

func decodeBody(body []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("body is not JSON: %w", err)
	}
	return out, nil
}

// InitializeRelayScenario registers every logrelay step definition.
func InitializeRelayScenario(ctx *godog.ScenarioContext) {
	rc := &relayContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		rc.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if rc.log != nil {
			_ = rc.log.Close(context.Background())
			rc.log = nil
		}
		if rc.server != nil {
			rc.server.Close()
			rc.server = nil
		}
		return ctx, nil
	})

	registerConfigSteps(ctx, rc)
	registerLoggingSteps(ctx, rc)
	registerDeliverySteps(ctx, rc)
	registerExceptionSteps(ctx, rc)
}
