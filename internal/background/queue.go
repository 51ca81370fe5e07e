// Package background runs detached, best-effort tasks off the request path.
package background

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"alcyxob/rehab-course/internal/logger"
	"alcyxob/rehab-course/internal/observability"
)

// ErrQueueFull is reported on the error channel when Submit drops a task.
var ErrQueueFull = errors.New("background queue full")

// Task is a unit of detached work. ctx is cancelled on hard shutdown or
// when the task exceeds its timeout.
type Task func(ctx context.Context) error

// TaskError reports a failed or dropped task.
type TaskError struct {
	Name string
	Err  error
}

func (e TaskError) Error() string { return fmt.Sprintf("background task %s: %v", e.Name, e.Err) }

type job struct {
	name string
	task Task
}

// Options configure a Queue.
type Options struct {
	Workers     int
	Size        int
	TaskTimeout time.Duration
}

// Queue is a bounded worker pool. Submit never blocks and callers never
// observe task results; failures go to the log, metrics and Errors().
type Queue struct {
	jobs    chan job
	errs    chan TaskError
	timeout time.Duration
	log     *logger.Logger
	metrics *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts opts.Workers workers.
func NewQueue(opts Options, log *logger.Logger, metrics *observability.Metrics) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Size <= 0 {
		opts.Size = 1
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:    make(chan job, opts.Size),
		errs:    make(chan TaskError, opts.Size),
		timeout: opts.TaskTimeout,
		log:     log.With("component", "BackgroundQueue"),
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < opts.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Submit enqueues task without blocking. It reports false when the queue is
// full or shut down.
func (q *Queue) Submit(name string, task Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		// errs may already be closed.
		q.log.Warn("background task submitted after shutdown", "task", name)
		q.metrics.BackgroundTask(name, "dropped")
		return false
	}

	select {
	case q.jobs <- job{name: name, task: task}:
		q.metrics.QueueDepth(len(q.jobs))
		return true
	default:
		q.report(name, ErrQueueFull, "dropped")
		return false
	}
}

// Errors exposes task failures. It is closed once Shutdown has drained the
// queue.
func (q *Queue) Errors() <-chan TaskError {
	return q.errs
}

// Shutdown stops accepting tasks and waits for queued ones to finish. When
// ctx expires first, running tasks are cancelled and ctx.Err() is returned.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		close(q.errs)
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		close(q.errs)
		return ctx.Err()
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.metrics.QueueDepth(len(q.jobs))
		if err := q.run(j); err != nil {
			q.report(j.name, err, "failed")
			continue
		}
		q.metrics.BackgroundTask(j.name, "ok")
	}
}

func (q *Queue) run(j job) (err error) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return j.task(ctx)
}

func (q *Queue) report(name string, err error, result string) {
	q.log.Warn("background task not completed", "task", name, "result", result, "error", err)
	q.metrics.BackgroundTask(name, result)
	select {
	case q.errs <- TaskError{Name: name, Err: err}:
	default:
	}
}
