package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Sender sends plain-text notification copies over SMTP.
type Sender struct {
	cfg  Config
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewSender(cfg Config) *Sender {
	return &Sender{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	log := logger.FromContext(ctx)

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body + "\n\nCardwise")

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(e, addr, auth); err != nil {
		return errs.NewExternalServiceError("smtp", "failed to send email", true, err)
	}

	log.Debug("email sent", "subject", subject)
	return nil
}
