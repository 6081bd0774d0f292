package delivery

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"budgetwise/internal/logger"
)

// EmailConfig is the SMTP account notifications are sent from.
type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// EmailSink mails notifications to users who enabled the email channel.
type EmailSink struct {
	cfg  EmailConfig
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewEmailSink creates an EmailSink sending through cfg.
func NewEmailSink(cfg EmailConfig) *EmailSink {
	return &EmailSink{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Deliver implements Dispatcher.
func (s *EmailSink) Deliver(ctx context.Context, msg Message) error {
	if msg.Email == "" || msg.Notification == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	n := msg.Notification
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{msg.Email}
	e.Subject = n.Title
	e.Text = []byte(n.Message + "\n\nBudgetWise")

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := s.send(e, addr, auth); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}

	logger.Get().Infow("notification email sent", "notification_id", n.ID, "type", n.Type)
	return nil
}
