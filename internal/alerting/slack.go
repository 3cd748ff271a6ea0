// Package alerting forwards critical application errors to Slack.
package alerting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	apperrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/logger"
)

// Alert describes an operational event worth a human's attention.
type Alert struct {
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Code       string            `json:"code,omitempty"`
	Status     int               `json:"status,omitempty"`
	Method     string            `json:"method,omitempty"`
	Path       string            `json:"path,omitempty"`
	RequestID  string            `json:"requestId,omitempty"`
	Critical   bool              `json:"critical"`
	Context    map[string]string `json:"context,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Config selects the Slack workspace and channels.
type Config struct {
	Enabled         bool
	Token           string
	CriticalChannel string
	DevChannel      string
	// Environment is "production", "development" or "test". Test never posts.
	Environment string
	// APIURL overrides the Slack endpoint, used by tests.
	APIURL string
}

type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts alerts to the critical channel in production and to
// the dev channel everywhere else.
type SlackNotifier struct {
	client poster
	cfg    Config
	log    *zap.Logger
}

var _ Notifier = (*SlackNotifier)(nil)

// NewSlackNotifier validates cfg and returns a notifier. A disabled config
// yields a notifier that only logs.
func NewSlackNotifier(cfg Config) (*SlackNotifier, error) {
	n := &SlackNotifier{cfg: cfg, log: logger.WithModule("alerting")}
	if !cfg.Enabled {
		return n, nil
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, apperrors.NewEnvConfiguration("alerting.slack.token")
	}
	if strings.TrimSpace(cfg.CriticalChannel) == "" && strings.TrimSpace(cfg.DevChannel) == "" {
		return nil, apperrors.NewEnvConfiguration("alerting.slack.channels")
	}

	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	n.client = slack.New(cfg.Token, opts...)
	return n, nil
}

// Notify posts the alert headline and, when context is present, a threaded
// reply with the details.
func (n *SlackNotifier) Notify(ctx context.Context, alert Alert) error {
	if n.shouldSkip() {
		n.log.Debug("skipping slack alert", zap.String("title", alert.Title), zap.String("environment", n.cfg.Environment))
		return nil
	}

	channel := n.resolveChannel()
	_, ts, err := n.client.PostMessageContext(ctx, channel, slack.MsgOptionText(formatHeadline(alert), false))
	if err != nil {
		n.log.Error("post slack alert", zap.Error(err), zap.String("channel", channel), zap.String("title", truncate(alert.Title, 100)))
		return apperrors.NewExternalService("slack", err)
	}

	if details := formatDetails(alert); details != "" {
		if _, _, err := n.client.PostMessageContext(ctx, channel,
			slack.MsgOptionText(details, false),
			slack.MsgOptionTS(ts),
		); err != nil {
			n.log.Warn("post slack alert thread", zap.Error(err), zap.String("channel", channel))
		}
	}

	n.log.Debug("slack alert posted", zap.String("channel", channel), zap.String("ts", ts))
	return nil
}

// NotifySafe is Notify for best-effort callers: failures are logged, never returned.
func (n *SlackNotifier) NotifySafe(ctx context.Context, alert Alert) {
	if err := n.Notify(ctx, alert); err != nil {
		n.log.Warn("slack notification failed", zap.Error(err))
	}
}

func (n *SlackNotifier) shouldSkip() bool {
	return n.client == nil || strings.EqualFold(n.cfg.Environment, "test")
}

func (n *SlackNotifier) resolveChannel() string {
	if strings.EqualFold(n.cfg.Environment, "production") && n.cfg.CriticalChannel != "" {
		return n.cfg.CriticalChannel
	}
	if n.cfg.DevChannel != "" {
		return n.cfg.DevChannel
	}
	return n.cfg.CriticalChannel
}

func formatHeadline(alert Alert) string {
	level := ":warning:"
	if alert.Critical {
		level = ":rotating_light:"
	}
	title := alert.Title
	if title == "" {
		title = "Application error"
	}
	line := fmt.Sprintf("%s *%s*: %s", level, title, alert.Message)
	if alert.Code != "" {
		line += fmt.Sprintf(" (`%s`)", alert.Code)
	}
	return line
}

func formatDetails(alert Alert) string {
	var lines []string
	if alert.Method != "" || alert.Path != "" {
		lines = append(lines, fmt.Sprintf("*Request:* %s %s", alert.Method, alert.Path))
	}
	if alert.Status != 0 {
		lines = append(lines, fmt.Sprintf("*Status:* %d", alert.Status))
	}
	if alert.RequestID != "" {
		lines = append(lines, fmt.Sprintf("*Request ID:* %s", alert.RequestID))
	}
	keys := make([]string, 0, len(alert.Context))
	for k := range alert.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("*%s:* %s", k, truncate(alert.Context[k], 500)))
	}
	if !alert.OccurredAt.IsZero() {
		lines = append(lines, fmt.Sprintf("*At:* %s", alert.OccurredAt.UTC().Format(time.RFC3339)))
	}
	return strings.Join(lines, "\n")
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max] + "..."
}

// ErrorAlert builds an Alert from an application error.
func ErrorAlert(err error) Alert {
	appErr := apperrors.FromError(err)
	alert := Alert{
		Title:      "Critical error",
		Message:    appErr.Message,
		Code:       appErr.Code,
		Status:     appErr.StatusCode,
		Critical:   appErr.Critical,
		OccurredAt: time.Now().UTC(),
	}
	if appErr.Internal != nil {
		alert.Context = map[string]string{"cause": appErr.Internal.Error()}
	}
	return alert
}
