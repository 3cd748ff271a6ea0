package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/internal/alerting"
	"github.com/charlesng35/roadboard/pkg/logger"
	"github.com/charlesng35/roadboard/pkg/mail"
)

// Handlers are the job processors shared by the worker and the inline dispatcher.
type Handlers struct {
	Mailer   mail.Mailer
	Notifier alerting.Notifier
}

// NewMux registers every task type.
func NewMux(h Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailSend, h.handleEmail)
	mux.HandleFunc(TypeSlackAlert, h.handleAlert)
	return mux
}

func (h Handlers) handleEmail(ctx context.Context, task *asynq.Task) error {
	var msg mail.Message
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
	}
	if h.Mailer == nil {
		logger.WithModule("queue").Debug("no mailer configured, dropping email", zap.String("subject", msg.Subject))
		return nil
	}

	err := h.Mailer.Send(ctx, msg)
	if errors.Is(err, mail.ErrSMTPDisabled) {
		logger.WithModule("queue").Debug("smtp disabled, dropping email", zap.String("subject", msg.Subject))
		return nil
	}
	return err
}

func (h Handlers) handleAlert(ctx context.Context, task *asynq.Task) error {
	var alert alerting.Alert
	if err := json.Unmarshal(task.Payload(), &alert); err != nil {
		return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
	}
	if h.Notifier == nil {
		return nil
	}
	return h.Notifier.Notify(ctx, alert)
}

// EnqueueEmail submits an email job.
func EnqueueEmail(ctx context.Context, q Enqueuer, msg mail.Message, priority Priority) error {
	if q == nil {
		return nil
	}
	return q.Enqueue(ctx, TypeEmailSend, msg, priority)
}

// EnqueueAlert submits a Slack alert job on the critical queue.
func EnqueueAlert(ctx context.Context, q Enqueuer, alert alerting.Alert) error {
	if q == nil {
		return nil
	}
	return q.Enqueue(ctx, TypeSlackAlert, alert, PriorityCritical)
}
