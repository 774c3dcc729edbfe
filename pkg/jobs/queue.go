package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrQueueNotStarted is returned by Enqueue before Start, after Stop, or once the context given
// to Start is done.
var ErrQueueNotStarted = errors.New("queue not started")

// Job is one unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A returned error schedules a retry until MaxRetries is exhausted.
type Handler func(context.Context, Job) error

// QueueConfig configures the worker pool.
type QueueConfig struct {
	Workers      int
	BufferSize   int
	MaxRetries   int
	RetryDelay   time.Duration
	DrainTimeout time.Duration
	Logger       *zap.Logger
}

// QueueStats is a point-in-time view of the queue counters.
type QueueStats struct {
	Pending   int    `json:"pending"`
	Processed uint64 `json:"processed"`
	Retried   uint64 `json:"retried"`
	Failed    uint64 `json:"failed"`
}

// Queue dispatches jobs to a fixed pool of goroutines. Failed jobs are retried in place by the
// worker that picked them up, with a delay growing linearly per attempt. Jobs still buffered when
// Stop is called are handled under DrainTimeout before Stop returns.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	closing bool
	senders sync.WaitGroup

	processed atomic.Uint64
	retried   atomic.Uint64
	failed    atomic.Uint64
}

// NewQueue builds a queue around handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calls after the first are ignored until Stop.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.closing = false
	for i := 1; i <= q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.run(i)
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits until the buffer is drained.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	stats := q.Stats()
	q.logger.Info("queue stopped",
		zap.Uint64("processed", stats.Processed),
		zap.Uint64("failed", stats.Failed),
	)
}

// Running reports whether the queue still accepts jobs.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.accepting()
}

// Enqueue hands job to the pool, blocking while the buffer is full. A nil return guarantees the
// job is handled, at the latest while the workers drain on shutdown.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	if !q.accepting() {
		q.mu.Unlock()
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueNotStarted)
	}
	q.senders.Add(1)
	ctx := q.ctx
	q.mu.Unlock()
	defer q.senders.Done()
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	}
}

// Stats returns the counters accumulated since construction.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Pending:   len(q.jobs),
		Processed: q.processed.Load(),
		Retried:   q.retried.Load(),
		Failed:    q.failed.Load(),
	}
}

// accepting must be called with mu held.
func (q *Queue) accepting() bool {
	return q.started && !q.closing && q.ctx.Err() == nil
}

// close stops intake and waits for senders already past the intake check, so drain sees every
// job that Enqueue reported as accepted.
func (q *Queue) close() {
	q.mu.Lock()
	q.closing = true
	q.mu.Unlock()
	q.senders.Wait()
}

func (q *Queue) run(worker int) {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.jobs:
			q.handle(q.ctx, context.WithoutCancel(q.ctx), worker, job)
		case <-q.ctx.Done():
			q.close()
			q.drain(worker)
			return
		}
	}
}

func (q *Queue) drain(worker int) {
	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.DrainTimeout)
	defer cancel()
	for {
		select {
		case job := <-q.jobs:
			q.handle(ctx, ctx, worker, job)
		default:
			return
		}
	}
}

// handle runs job under jobCtx until it succeeds, retries are exhausted or waitCtx ends between
// attempts. Stopping the queue never cancels an attempt already in flight.
func (q *Queue) handle(waitCtx, jobCtx context.Context, worker int, job Job) {
	for {
		err := q.handler(jobCtx, job)
		if err == nil {
			q.processed.Add(1)
			return
		}
		if job.Attempt >= q.cfg.MaxRetries {
			q.failed.Add(1)
			q.logger.Error("job failed",
				zap.Int("worker", worker),
				zap.String("job_id", job.ID),
				zap.String("type", job.Type),
				zap.Int("attempts", job.Attempt+1),
				zap.Error(err),
			)
			return
		}
		job.Attempt++
		q.retried.Add(1)
		q.logger.Warn("job failed, retrying",
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		)

		timer := time.NewTimer(q.cfg.RetryDelay * time.Duration(job.Attempt))
		select {
		case <-timer.C:
		case <-waitCtx.Done():
			timer.Stop()
			q.failed.Add(1)
			q.logger.Warn("retry abandoned", zap.String("job_id", job.ID), zap.Error(waitCtx.Err()))
			return
		}
	}
}
