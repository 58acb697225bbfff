package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andrescamacho/logrelay/internal/adapters/console"
	"github.com/andrescamacho/logrelay/internal/domain/logging"
	"github.com/andrescamacho/logrelay/internal/domain/shared"
	diag "github.com/andrescamacho/logrelay/internal/infrastructure/logging"
	"github.com/andrescamacho/logrelay/pkg/utils"
)

const (
	// DefaultSendTimeout bounds every individual transport attempt
	DefaultSendTimeout = 10 * time.Second

	// FallbackMarker is printed before a batch is downgraded to console output
	FallbackMarker = "Falling back to console logging"

	flushAllYield = 10 * time.Millisecond
)

// ConfigSource exposes the settings the queue reads at the start of each
// operation. *config.Manager satisfies it, so updates apply to the next flush.
type ConfigSource interface {
	Endpoint() string
	BatchSize() int
	MaxQueueSize() int
	RetryAttempts() int
	RetryDelay() time.Duration
}

// Status is a read-only snapshot for health reporting.
type Status struct {
	Size              int  `json:"size"`
	IsFlushInProgress bool `json:"isFlushInProgress"`
}

// Option configures a Queue.
type Option func(*Queue)

// WithConsole sets the console used for fallback output. Default: stdout/stderr.
func WithConsole(c logging.Console) Option {
	return func(q *Queue) { q.console = c }
}

// WithClock sets the clock used for backoff sleeps. Default: RealClock.
func WithClock(c shared.Clock) Option {
	return func(q *Queue) { q.clock = c }
}

// WithRecorder sets the metrics recorder. Default: NopRecorder.
func WithRecorder(r logging.Recorder) Option {
	return func(q *Queue) { q.recorder = r }
}

// WithDiagnostics sets the logger the queue reports its own events to.
func WithDiagnostics(l *zap.Logger) Option {
	return func(q *Queue) { q.log = diag.For(l, diag.ComponentQueue) }
}

// WithSendTimeout overrides the per-attempt timeout. Default: 10s.
func WithSendTimeout(d time.Duration) Option {
	return func(q *Queue) { q.sendTimeout = d }
}

// Queue is a bounded, priority-aware, batching delivery buffer.
//
// Enqueue never waits on I/O. Flushes are single-flight: while one is in
// progress further Flush calls return immediately. A failed batch is retried
// with exponential backoff and, once retries are exhausted, written to the
// console so no entry is both undelivered and unlogged.
type Queue struct {
	cfg         ConfigSource
	transport   logging.Transport
	console     logging.Console
	clock       shared.Clock
	recorder    logging.Recorder
	log         *zap.Logger
	sendTimeout time.Duration

	mu       sync.Mutex
	entries  []logging.Entry
	flushing bool

	tickerMu   sync.Mutex
	stopTicker chan struct{}
}

// New creates a queue delivering through transport.
func New(cfg ConfigSource, transport logging.Transport, opts ...Option) *Queue {
	q := &Queue{
		cfg:         cfg,
		transport:   transport,
		console:     console.NewStd(),
		clock:       shared.NewRealClock(),
		recorder:    logging.NopRecorder{},
		log:         diag.For(diag.NewDiagnostics(diag.Options{}), diag.ComponentQueue),
		sendTimeout: DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends entry, evicting the lowest-priority entry first when the
// queue is full, and starts a background flush once a batch is available.
func (q *Queue) Enqueue(entry logging.Entry) {
	q.mu.Lock()
	max := q.cfg.MaxQueueSize()
	for len(q.entries) > 0 && len(q.entries) >= max {
		q.evictLocked()
	}
	q.entries = append(q.entries, entry)
	size := len(q.entries)
	trigger := size >= q.cfg.BatchSize() && !q.flushing
	q.mu.Unlock()

	q.recorder.RecordEnqueued(entry.Level)
	q.recorder.SetQueueSize(size)

	if trigger {
		go func() {
			if err := q.Flush(context.Background()); err != nil {
				q.log.Warn("batch-triggered flush failed", zap.Error(err))
			}
		}()
	}
}

// evictLocked drops the oldest entry of the lowest level present.
// Caller must hold q.mu and the queue must not be empty.
func (q *Queue) evictLocked() {
	victim := 0
	found := false
	for _, level := range logging.Levels {
		for i, e := range q.entries {
			if e.Level == level {
				victim, found = i, true
				break
			}
		}
		if found {
			break
		}
	}

	dropped := q.entries[victim]
	q.entries = append(q.entries[:victim], q.entries[victim+1:]...)

	q.recorder.RecordDropped(dropped.Level)
	q.log.Warn("queue full, dropped entry",
		zap.String("dropped_level", dropped.Level.String()),
		zap.String("component", dropped.Component),
		zap.Bool("priority_match", found),
	)
}

// Flush delivers at most one batch from the head of the queue. It returns
// nil when there is nothing to do or another flush is already running, and a
// *logging.DeliveryError when the batch had to fall back to the console.
func (q *Queue) Flush(ctx context.Context) error {
	_, err := q.flush(ctx)
	return err
}

// flush reports whether this call took ownership of a batch.
func (q *Queue) flush(ctx context.Context) (bool, error) {
	q.mu.Lock()
	if q.flushing || len(q.entries) == 0 {
		q.mu.Unlock()
		return false, nil
	}
	q.flushing = true

	n := utils.Min(len(q.entries), q.cfg.BatchSize())
	batch := make([]logging.Entry, n)
	copy(batch, q.entries[:n])
	q.entries = append([]logging.Entry(nil), q.entries[n:]...)
	remaining := len(q.entries)
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.flushing = false
		q.mu.Unlock()
	}()

	q.recorder.SetQueueSize(remaining)
	return true, q.sendBatchWithRetry(ctx, batch)
}

// sendBatchWithRetry makes up to RetryAttempts+1 attempts, sleeping
// RetryDelay*2^attempt between them, then falls back to the console.
func (q *Queue) sendBatchWithRetry(ctx context.Context, batch []logging.Entry) error {
	endpoint := q.cfg.Endpoint()
	retries := q.cfg.RetryAttempts()
	base := q.cfg.RetryDelay()

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= retries; attempt++ {
		attempts++
		err := q.sendOnce(ctx, endpoint, batch)
		q.recorder.RecordSendAttempt(err == nil)
		if err == nil {
			q.recorder.RecordFlush(logging.FlushDelivered, len(batch))
			q.log.Debug("batch delivered", zap.Int("entries", len(batch)), zap.Int("attempts", attempts))
			return nil
		}
		lastErr = err

		// Last attempt - don't sleep
		if attempt >= retries {
			break
		}

		delay := utils.BackoffDelay(base, attempt)
		q.recorder.RecordRetry()
		q.log.Debug("send failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if sleepErr := q.clock.Sleep(ctx, delay); sleepErr != nil {
			lastErr = fmt.Errorf("%w (retry aborted: %v)", lastErr, sleepErr)
			break
		}
	}

	q.fallback(batch, lastErr)
	return &logging.DeliveryError{Attempts: attempts, Entries: len(batch), Err: lastErr}
}

// sendOnce performs one bounded transport call. A panicking transport counts
// as a failed attempt.
func (q *Queue) sendOnce(ctx context.Context, endpoint string, batch []logging.Entry) (err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, q.sendTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()

	err = q.transport.Send(attemptCtx, endpoint, batch)
	if err == nil && attemptCtx.Err() != nil {
		err = attemptCtx.Err()
	}
	return err
}

// fallback writes every entry of an undeliverable batch to the console.
func (q *Queue) fallback(batch []logging.Entry, cause error) {
	q.log.Warn("delivery failed, writing batch to console",
		zap.Int("entries", len(batch)),
		zap.Error(cause),
	)
	q.console.Marker(fmt.Sprintf("%s (%d entries): %v", FallbackMarker, len(batch), cause))
	for _, entry := range batch {
		q.console.Write(entry)
	}
	q.recorder.RecordFallback(len(batch))
	q.recorder.RecordFlush(logging.FlushFallback, len(batch))
}

// FlushAll flushes until the queue is empty, yielding between rounds so an
// in-flight flush owned by someone else can settle. Errors from individual
// batches are joined; their entries have already gone to the console.
func (q *Queue) FlushAll(ctx context.Context) error {
	var errs []error
	for q.Size() > 0 {
		owned, err := q.flush(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		if owned {
			runtime.Gosched()
			continue
		}

		select {
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			return errors.Join(errs...)
		case <-time.After(flushAllYield):
		}
	}
	return errors.Join(errs...)
}

// DrainToConsole removes every queued entry and prints it to the console.
// Used when shutdown runs out of time before FlushAll completes.
func (q *Queue) DrainToConsole() int {
	q.mu.Lock()
	rest := q.entries
	q.entries = nil
	q.mu.Unlock()

	if len(rest) == 0 {
		return 0
	}
	q.recorder.SetQueueSize(0)
	q.fallback(rest, errors.New("queue drained before delivery"))
	return len(rest)
}

// StartAutoFlush flushes every interval until StopAutoFlush. Calling it
// again replaces the running ticker.
func (q *Queue) StartAutoFlush(interval time.Duration) {
	if interval <= 0 {
		return
	}

	q.tickerMu.Lock()
	defer q.tickerMu.Unlock()
	q.stopLocked()

	stop := make(chan struct{})
	q.stopTicker = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				// Failures were already written to the console by the fallback path
				if err := q.Flush(context.Background()); err != nil {
					q.log.Debug("timer flush failed", zap.Error(err))
				}
			}
		}
	}()
}

// StopAutoFlush stops the ticker. A flush already running completes.
func (q *Queue) StopAutoFlush() {
	q.tickerMu.Lock()
	defer q.tickerMu.Unlock()
	q.stopLocked()
}

func (q *Queue) stopLocked() {
	if q.stopTicker != nil {
		close(q.stopTicker)
		q.stopTicker = nil
	}
}

// AutoFlushRunning reports whether a ticker is active.
func (q *Queue) AutoFlushRunning() bool {
	q.tickerMu.Lock()
	defer q.tickerMu.Unlock()
	return q.stopTicker != nil
}

// Size returns the number of queued entries.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Status returns the current size and flush flag.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{Size: len(q.entries), IsFlushInProgress: q.flushing}
}

// Snapshot returns a copy of the queued entries in delivery order.
func (q *Queue) Snapshot() []logging.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]logging.Entry, len(q.entries))
	copy(out, q.entries)
	return out
}
