// Package queue submits background jobs to asynq priority queues.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Priority selects the queue and scheduling of a job.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityDefault  Priority = "default"
	PriorityLow      Priority = "low"
	// PriorityBatch shares the low queue and its delay.
	PriorityBatch Priority = "batch"
)

// Queue names served by the worker.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// LowPriorityDelay postpones low and batch jobs.
const LowPriorityDelay = 30 * time.Second

// Task types.
const (
	TypeEmailSend  = "email:send"
	TypeSlackAlert = "alert:slack"
)

// Enqueuer submits jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any, priority Priority) error
}

// Queues returns the weighted queue map the worker polls.
func Queues() map[string]int {
	return map[string]int{
		QueueCritical: 6,
		QueueDefault:  3,
		QueueLow:      1,
	}
}

// QueueFor maps a priority to its queue name.
func QueueFor(priority Priority) string {
	switch priority {
	case PriorityCritical:
		return QueueCritical
	case PriorityLow, PriorityBatch:
		return QueueLow
	default:
		return QueueDefault
	}
}

// DelayFor returns how long a job of the given priority waits before it runs.
func DelayFor(priority Priority) time.Duration {
	switch priority {
	case PriorityLow, PriorityBatch:
		return LowPriorityDelay
	default:
		return 0
	}
}

// NewTask encodes payload as JSON and attaches the options for priority.
func NewTask(taskType string, payload any, priority Priority) (*asynq.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal %s payload: %w", taskType, err)
	}

	opts := []asynq.Option{
		asynq.Queue(QueueFor(priority)),
		asynq.Timeout(2 * time.Minute),
		asynq.Retention(24 * time.Hour),
	}
	if priority == PriorityCritical {
		opts = append(opts, asynq.MaxRetry(5))
	} else {
		opts = append(opts, asynq.MaxRetry(3))
	}
	if delay := DelayFor(priority); delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}

	return asynq.NewTask(taskType, raw, opts...), nil
}
