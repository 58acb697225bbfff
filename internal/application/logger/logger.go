package logger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/andrescamacho/logrelay/internal/adapters/console"
	"github.com/andrescamacho/logrelay/internal/application/queue"
	"github.com/andrescamacho/logrelay/internal/domain/logging"
	"github.com/andrescamacho/logrelay/internal/domain/shared"
	"github.com/andrescamacho/logrelay/internal/infrastructure/config"
	diag "github.com/andrescamacho/logrelay/internal/infrastructure/logging"
	"github.com/andrescamacho/logrelay/pkg/utils"
)

const (
	DefaultProduct = "logrelay"
	DefaultVersion = "1.0.0"
)

// Logger is the public logging facade. It filters by level, builds entries
// and hands them to an AsyncLogQueue. Log calls never block on I/O.
type Logger struct {
	cfg      *config.Manager
	queue    *queue.Queue
	clock    shared.Clock
	console  logging.Console
	log      *zap.Logger
	source   string
	product  string
	version  string
	session  string
	mirror   bool
	recorder logging.Recorder
	timeout  queue.Option

	mu       sync.Mutex
	started  bool
	closed   bool
	interval time.Duration
}

// Option configures a Logger.
type Option func(*Logger)

// WithConsole sets the console used for fallback and mirroring.
func WithConsole(c logging.Console) Option {
	return func(l *Logger) { l.console = c }
}

// WithClock sets the clock used for timestamps and backoff.
func WithClock(c shared.Clock) Option {
	return func(l *Logger) { l.clock = c }
}

// WithRecorder wires queue metrics.
func WithRecorder(r logging.Recorder) Option {
	return func(l *Logger) { l.recorder = r }
}

// WithDiagnostics sets the base logger for logrelay's own diagnostics.
func WithDiagnostics(base *zap.Logger) Option {
	return func(l *Logger) { l.log = base }
}

// WithProduct sets the name and major.minor.build version announced at startup.
func WithProduct(name, version string) Option {
	return func(l *Logger) {
		l.product = name
		l.version = version
	}
}

// WithSource overrides the source tag stamped on every entry.
func WithSource(source string) Option {
	return func(l *Logger) { l.source = source }
}

// WithConsoleMirror also prints every accepted entry to the console.
func WithConsoleMirror(enabled bool) Option {
	return func(l *Logger) { l.mirror = enabled }
}

// WithSessionID pins the session identifier instead of generating one.
func WithSessionID(id string) Option {
	return func(l *Logger) { l.session = id }
}

// WithSendTimeout bounds each delivery attempt.
func WithSendTimeout(d time.Duration) Option {
	return func(l *Logger) { l.timeout = queue.WithSendTimeout(d) }
}

var versionValidator = validator.New()

// New builds a Logger over cfg and enqueues the startup marker. It panics if
// the product version is not a semantic version.
func New(cfg *config.Manager, transport logging.Transport, opts ...Option) *Logger {
	l := &Logger{
		cfg:      cfg,
		clock:    shared.NewRealClock(),
		console:  console.NewStd(),
		source:   logging.SourceFrontend,
		product:  DefaultProduct,
		version:  DefaultVersion,
		recorder: logging.NopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := versionValidator.Var(l.version, "required,semver"); err != nil {
		panic(fmt.Sprintf("logger: invalid product version %q: %v", l.version, err))
	}
	if l.log == nil {
		l.log = diag.NewDiagnostics(diag.Options{})
	}
	if l.session == "" {
		l.session = utils.GenerateSessionID(l.product)
	}

	qopts := []queue.Option{
		queue.WithConsole(l.console),
		queue.WithClock(l.clock),
		queue.WithRecorder(l.recorder),
		queue.WithDiagnostics(l.log),
	}
	if l.timeout != nil {
		qopts = append(qopts, l.timeout)
	}
	l.queue = queue.New(cfg, transport, qopts...)
	l.log = diag.For(l.log, diag.ComponentLogger)

	l.checkCapacity(cfg.Config())
	cfg.Subscribe(l.onConfigChange)

	l.Info(fmt.Sprintf("%s v%s loading", l.product, l.version), logging.Fields{
		"product":   l.product,
		"version":   l.version,
		"sessionId": l.session,
	})
	return l
}

// SessionID returns the identifier announced in the startup marker.
func (l *Logger) SessionID() string {
	return l.session
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...logging.Fields) {
	l.record(logging.LevelDebug, "", msg, fields)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...logging.Fields) {
	l.record(logging.LevelInfo, "", msg, fields)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...logging.Fields) {
	l.record(logging.LevelWarn, "", msg, fields)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...logging.Fields) {
	l.record(logging.LevelError, "", msg, fields)
}

// LogWithComponent logs with an explicit component attribution.
func (l *Logger) LogWithComponent(level logging.Level, component, msg string, fields ...logging.Fields) {
	l.record(level, component, msg, fields)
}

// LogException logs err at error level with its name, message and stack.
// An empty msg defaults to err.Error().
func (l *Logger) LogException(err error, msg string, fields ...logging.Fields) {
	l.LogExceptionWithComponent(err, "", msg, fields...)
}

// LogExceptionWithComponent is LogException with a component attribution.
func (l *Logger) LogExceptionWithComponent(err error, component, msg string, fields ...logging.Fields) {
	if !l.cfg.ShouldLog(logging.LevelError) {
		return
	}
	if logging.IsNil(err) {
		err = errors.New("nil error")
	}
	if msg == "" {
		msg = err.Error()
	}

	ctx := logging.Merge(logging.Merge(nil, fields...), logging.Fields{
		"errorName":    logging.ErrorName(err),
		"errorMessage": err.Error(),
	})
	l.emit(logging.EntryParams{
		Level:      logging.LevelError,
		Message:    msg,
		Component:  component,
		Context:    ctx,
		StackTrace: logging.StackOf(err),
	})
}

// record is the filtered path shared by every level method.
func (l *Logger) record(level logging.Level, component, msg string, fields []logging.Fields) {
	if !level.Valid() {
		l.log.Warn("dropping entry with unknown level",
			zap.Int("level", int(level)),
			zap.String("message", msg),
		)
		return
	}
	if !l.cfg.ShouldLog(level) {
		return
	}
	l.emit(logging.EntryParams{
		Level:     level,
		Message:   msg,
		Component: component,
		Context:   logging.Merge(nil, fields...),
	})
}

func (l *Logger) emit(p logging.EntryParams) {
	p.Time = l.clock.Now()
	p.Source = l.source
	entry := logging.NewEntry(p)
	if l.mirror {
		l.console.Write(entry)
	}

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		if !l.mirror {
			l.console.Write(entry)
		}
		return
	}
	l.queue.Enqueue(entry)
}

// FlushLogs delivers at most one batch.
func (l *Logger) FlushLogs(ctx context.Context) error {
	return l.queue.Flush(ctx)
}

// FlushAllLogs delivers until the queue is empty.
func (l *Logger) FlushAllLogs(ctx context.Context) error {
	return l.queue.FlushAll(ctx)
}

// QueueStatus reports the queue size and whether a flush is running.
func (l *Logger) QueueStatus() queue.Status {
	return l.queue.Status()
}

// Start begins periodic flushing at the configured interval.
func (l *Logger) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.started = true
	l.interval = l.cfg.FlushInterval()
	l.queue.StartAutoFlush(l.interval)
}

// Close stops periodic flushing and drains the queue. Whatever is still
// queued when ctx expires is written to the console.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.started = false
	l.mu.Unlock()

	l.queue.StopAutoFlush()
	err := l.queue.FlushAll(ctx)
	if n := l.queue.DrainToConsole(); n > 0 {
		l.log.Warn("shutdown deadline reached, remaining entries sent to console", zap.Int("entries", n))
	}
	return err
}

// UpdateConfig merges partial into the live configuration.
func (l *Logger) UpdateConfig(partial config.Overrides) error {
	return l.cfg.Update(partial)
}

// Config returns the current configuration.
func (l *Logger) Config() config.LoggingConfig {
	return l.cfg.Config()
}

func (l *Logger) onConfigChange(cfg config.LoggingConfig) {
	l.checkCapacity(cfg)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started && !l.closed && cfg.FlushEvery() != l.interval {
		l.interval = cfg.FlushEvery()
		l.queue.StartAutoFlush(l.interval)
	}
}

func (l *Logger) checkCapacity(cfg config.LoggingConfig) {
	if cfg.MaxQueueSize < cfg.BatchSize {
		l.log.Warn("maxQueueSize is below batchSize, batch-triggered flushes will never fire",
			zap.Int("max_queue_size", cfg.MaxQueueSize),
			zap.Int("batch_size", cfg.BatchSize),
		)
	}
}
