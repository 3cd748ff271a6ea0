package app

import (
	"strings"

	"github.com/charlesng35/roadboard/internal/alerting"
	"github.com/charlesng35/roadboard/pkg/mail"
)

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     strings.TrimSpace(c.SMTP.Host),
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     strings.TrimSpace(c.SMTP.From),
		Receiver: strings.TrimSpace(c.SMTP.Receiver),
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// SlackConfig converts the alerting settings into the alerting package
// representation. environment decides which channel receives alerts.
func (c AlertingConfig) SlackConfig(environment string) alerting.Config {
	return alerting.Config{
		Enabled:         c.Slack.Enabled,
		Token:           strings.TrimSpace(c.Slack.Token),
		CriticalChannel: strings.TrimSpace(c.Slack.CriticalChannel),
		DevChannel:      strings.TrimSpace(c.Slack.DevChannel),
		Environment:     strings.ToLower(strings.TrimSpace(environment)),
	}
}
