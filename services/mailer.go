package services

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/BadissRH/easypm/logging"
	"github.com/sony/gobreaker"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	if err := smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them. It is used when no
// SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	logging.Logger.Infof("Event ID: EMAIL_NOT_SENT, Description: No SMTP host configured; email to '%s' with subject '%s': %s", to, subject, body)
	return nil
}

// BreakerMailer stops calling a failing mail server until the breaker half-opens.
type BreakerMailer struct {
	Next    Mailer
	Breaker *gobreaker.CircuitBreaker
}

func (m *BreakerMailer) Send(ctx context.Context, to, subject, body string) error {
	return runGuarded(m.Breaker, func() error {
		return m.Next.Send(ctx, to, subject, body)
	})
}
