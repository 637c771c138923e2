package mailer

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/jordan-wright/email"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/pkg/helpers"
)

func TestSenderSend(t *testing.T) {
	s := NewSender(Config{Host: "smtp.test", Port: "587", Username: "u", Password: "p", From: "noreply@test"})

	var got *email.Email
	var gotAddr string
	s.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		got, gotAddr = e, addr
		if auth == nil {
			t.Fatalf("expected auth to be set")
		}
		return nil
	}

	if err := s.Send(helpers.TestCtx(), "jane@example.com", "Payment failed", "Rent could not be paid."); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if gotAddr != "smtp.test:587" {
		t.Fatalf("addr = %q", gotAddr)
	}
	if got.From != "noreply@test" || len(got.To) != 1 || got.To[0] != "jane@example.com" {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if !strings.HasPrefix(string(got.Text), "Rent could not be paid.") {
		t.Fatalf("unexpected body: %q", got.Text)
	}
}

func TestSenderSendError(t *testing.T) {
	s := NewSender(Config{Host: "smtp.test", Port: "25"})
	s.send = func(*email.Email, string, smtp.Auth) error { return errors.New("refused") }

	err := s.Send(helpers.TestCtx(), "jane@example.com", "s", "b")
	var ext *errs.ExternalServiceError
	if !errors.As(err, &ext) || ext.Service != "smtp" {
		t.Fatalf("expected smtp ExternalServiceError, got %v", err)
	}
}
