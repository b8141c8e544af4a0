// Package alerts emails the operations address when a reportback submission
// fails. Delivery is fire-and-forget off the event bus; a failed alert is
// logged and dropped.
package alerts

import (
	"context"
	"fmt"
	"net"
	"time"

	"sms_chatbot_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers one alert email.
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// SMTPSender delivers alerts over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
}

// NewSMTPSender creates an alert sender from configuration.
func NewSMTPSender(cfg config.AlertConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.GetSMTPHost(),
		port:     cfg.GetSMTPPort(),
		username: cfg.GetSMTPUsername(),
		password: cfg.GetSMTPPassword(),
		from:     cfg.GetAlertFromAddress(),
		to:       cfg.GetAlertToAddress(),
	}
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("alert from: %w", err)
	}
	if err := msg.To(s.to); err != nil {
		return fmt.Errorf("alert to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("alert smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("alert smtp send: %w", err)
	}
	return nil
}
