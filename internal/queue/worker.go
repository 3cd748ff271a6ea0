package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/pkg/logger"
)

// zapAdapter satisfies asynq.Logger.
type zapAdapter struct {
	log *zap.SugaredLogger
}

func (a *zapAdapter) Debug(args ...interface{}) { a.log.Debug(args...) }
func (a *zapAdapter) Info(args ...interface{})  { a.log.Info(args...) }
func (a *zapAdapter) Warn(args ...interface{})  { a.log.Warn(args...) }
func (a *zapAdapter) Error(args ...interface{}) { a.log.Error(args...) }
func (a *zapAdapter) Fatal(args ...interface{}) {
	a.log.Error(args...)
	panic(fmt.Sprint(args...))
}

// WorkerConfig tunes the embedded asynq server.
type WorkerConfig struct {
	Concurrency     int
	ShutdownTimeout time.Duration
}

// Worker processes jobs from Redis.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

// NewWorker builds an asynq server polling every queue by weight.
func NewWorker(opt asynq.RedisConnOpt, mux *asynq.ServeMux, cfg WorkerConfig) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	log := logger.WithModule("worker")

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          Queues(),
		ShutdownTimeout: cfg.ShutdownTimeout,
		ErrorHandler:    asynq.ErrorHandlerFunc(errorHandler(log)),
		Logger:          &zapAdapter{log: log.Sugar()},
	})
	return &Worker{srv: srv, mux: mux}
}

// Start runs the worker without blocking.
func (w *Worker) Start() error {
	if err := w.srv.Start(w.mux); err != nil {
		return fmt.Errorf("queue: start worker: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight jobs up to the configured timeout.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

func errorHandler(log *zap.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		log.Error("job failed",
			zap.String("task", task.Type()),
			zap.Error(err),
			zap.Int("retry", retried),
			zap.Int("max_retry", maxRetry))

		if retried >= maxRetry {
			log.Error("job archived after exhausting retries",
				zap.String("task", task.Type()),
				zap.ByteString("payload", task.Payload()))
		}
	}
}
