package queue

import (
	"context"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/metrics"
)

// Inline runs jobs in-process through the same handler the worker uses.
// It stands in for Redis in development and tests. Delayed jobs that have not
// started when Close is called are dropped.
type Inline struct {
	handler asynq.Handler
	delays  bool
	log     *zap.Logger

	mu     sync.Mutex
	closed bool
	stop   chan struct{}
	wg     sync.WaitGroup
}

var _ Enqueuer = (*Inline)(nil)

// InlineOption customises an Inline dispatcher.
type InlineOption func(*Inline)

// WithoutDelays runs low priority jobs immediately.
func WithoutDelays() InlineOption {
	return func(i *Inline) { i.delays = false }
}

// NewInline returns a dispatcher backed by handler.
func NewInline(handler asynq.Handler, opts ...InlineOption) *Inline {
	i := &Inline{
		handler: handler,
		delays:  true,
		log:     logger.WithModule("queue"),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Enqueue schedules the job on a goroutine.
func (i *Inline) Enqueue(_ context.Context, taskType string, payload any, priority Priority) error {
	task, err := NewTask(taskType, payload, priority)
	if err != nil {
		return err
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		metrics.JobsEnqueued.WithLabelValues(taskType, QueueFor(priority), "error").Inc()
		return ErrClosed
	}
	i.wg.Add(1)
	i.mu.Unlock()

	metrics.JobsEnqueued.WithLabelValues(taskType, QueueFor(priority), "ok").Inc()

	var delay time.Duration
	if i.delays {
		delay = DelayFor(priority)
	}
	go i.run(task, delay)
	return nil
}

func (i *Inline) run(task *asynq.Task, delay time.Duration) {
	defer i.wg.Done()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-i.stop:
			i.log.Warn("dropping delayed job on shutdown", zap.String("task", task.Type()))
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := i.handler.ProcessTask(ctx, task); err != nil {
		i.log.Error("inline job failed", zap.String("task", task.Type()), zap.Error(err))
	}
}

// Close waits for running jobs to finish.
func (i *Inline) Close() error {
	i.mu.Lock()
	if !i.closed {
		i.closed = true
		close(i.stop)
	}
	i.mu.Unlock()
	i.wg.Wait()
	return nil
}
