package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/internal/alerting"
	"github.com/charlesng35/roadboard/pkg/mail"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeNotifier struct {
	alerts []alerting.Alert
}

func (f *fakeNotifier) Notify(_ context.Context, alert alerting.Alert) error {
	f.alerts = append(f.alerts, alert)
	return nil
}

type fakeAsynqClient struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeAsynqClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func (f *fakeAsynqClient) Close() error { return nil }

func TestPriorityMapping(t *testing.T) {
	require.Equal(t, QueueCritical, QueueFor(PriorityCritical))
	require.Equal(t, QueueDefault, QueueFor(PriorityDefault))
	require.Equal(t, QueueDefault, QueueFor("unknown"))
	require.Equal(t, QueueLow, QueueFor(PriorityLow))
	require.Equal(t, QueueLow, QueueFor(PriorityBatch))

	require.Zero(t, DelayFor(PriorityCritical))
	require.Zero(t, DelayFor(PriorityDefault))
	require.Equal(t, 30*time.Second, DelayFor(PriorityLow))
	require.Equal(t, 30*time.Second, DelayFor(PriorityBatch))

	weights := Queues()
	require.Greater(t, weights[QueueCritical], weights[QueueDefault])
	require.Greater(t, weights[QueueDefault], weights[QueueLow])
}

func TestNewTaskEncodesPayload(t *testing.T) {
	task, err := NewTask(TypeEmailSend, mail.Message{Subject: "hello"}, PriorityDefault)
	require.NoError(t, err)
	require.Equal(t, TypeEmailSend, task.Type())

	var decoded mail.Message
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, "hello", decoded.Subject)

	_, err = NewTask(TypeEmailSend, make(chan int), PriorityDefault)
	require.Error(t, err)
}

func TestClientEnqueue(t *testing.T) {
	fake := &fakeAsynqClient{}
	client := &Client{client: fake, log: zap.NewNop()}

	require.NoError(t, client.Enqueue(context.Background(), TypeEmailSend, mail.Message{Subject: "s"}, PriorityDefault))
	require.Len(t, fake.tasks, 1)

	fake.err = errors.New("redis down")
	require.Error(t, client.Enqueue(context.Background(), TypeEmailSend, mail.Message{}, PriorityDefault))
}

func TestInlineRunsHandlers(t *testing.T) {
	mailer := &fakeMailer{}
	notifier := &fakeNotifier{}
	inline := NewInline(NewMux(Handlers{Mailer: mailer, Notifier: notifier}), WithoutDelays())

	ctx := context.Background()
	require.NoError(t, EnqueueEmail(ctx, inline, mail.Message{Subject: "New user"}, PriorityLow))
	require.NoError(t, EnqueueAlert(ctx, inline, alerting.Alert{Title: "boom", Critical: true}))
	require.NoError(t, inline.Close())

	require.Equal(t, 1, mailer.count())
	require.Len(t, notifier.alerts, 1)
	require.Equal(t, "boom", notifier.alerts[0].Title)

	require.ErrorIs(t, inline.Enqueue(ctx, TypeEmailSend, mail.Message{}, PriorityDefault), ErrClosed)
}

func TestInlineDropsDelayedJobsOnClose(t *testing.T) {
	mailer := &fakeMailer{}
	inline := NewInline(NewMux(Handlers{Mailer: mailer}))

	require.NoError(t, EnqueueEmail(context.Background(), inline, mail.Message{Subject: "later"}, PriorityBatch))
	require.NoError(t, inline.Close())
	require.Zero(t, mailer.count())
}

func TestEmailHandlerIgnoresDisabledSMTP(t *testing.T) {
	h := Handlers{Mailer: &fakeMailer{err: mail.ErrSMTPDisabled}}
	task, err := NewTask(TypeEmailSend, mail.Message{Subject: "x"}, PriorityDefault)
	require.NoError(t, err)
	require.NoError(t, h.handleEmail(context.Background(), task))

	bad := asynq.NewTask(TypeEmailSend, []byte("{"))
	require.ErrorIs(t, h.handleEmail(context.Background(), bad), asynq.SkipRetry)
}

func TestEnqueueHelpersTolerateNilQueue(t *testing.T) {
	require.NoError(t, EnqueueEmail(context.Background(), nil, mail.Message{}, PriorityDefault))
	require.NoError(t, EnqueueAlert(context.Background(), nil, alerting.Alert{}))
}
