package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/metrics"
)

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client enqueues jobs on Redis through asynq.
type Client struct {
	client taskEnqueuer
	log    *zap.Logger
}

var _ Enqueuer = (*Client)(nil)

// NewClient connects an asynq client to Redis.
func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{
		client: asynq.NewClient(opt),
		log:    logger.WithModule("queue"),
	}
}

// Enqueue submits the job and records the outcome.
func (c *Client) Enqueue(ctx context.Context, taskType string, payload any, priority Priority) error {
	task, err := NewTask(taskType, payload, priority)
	if err != nil {
		return err
	}
	queueName := QueueFor(priority)

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		metrics.JobsEnqueued.WithLabelValues(taskType, queueName, "error").Inc()
		return fmt.Errorf("queue: enqueue %s: %w", taskType, err)
	}

	metrics.JobsEnqueued.WithLabelValues(taskType, queueName, "ok").Inc()
	c.log.Debug("job enqueued",
		zap.String("task", taskType),
		zap.String("queue", info.Queue),
		zap.String("id", info.ID))
	return nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
