package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/GregMSThompson/cardwise-backend/internal/config"
	"github.com/GregMSThompson/cardwise-backend/pkg/helpers"
)

type stubSecrets struct {
	values   map[string]string
	accessed []string
}

func (s *stubSecrets) Access(_ context.Context, name string) (string, error) {
	s.accessed = append(s.accessed, name)
	v, ok := s.values[name]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func TestResolveSecrets(t *testing.T) {
	cfg := &config.Config{
		StripeSecretKey:     "sm://stripe-key",
		StripeWebhookSecret: "whsec_plain",
		SMTPPassword:        "sm://smtp-password",
	}
	secrets := &stubSecrets{values: map[string]string{"stripe-key": "sk_test_1", "smtp-password": "hunter2"}}

	if err := ResolveSecrets(helpers.TestCtx(), cfg, secrets); err != nil {
		t.Fatalf("ResolveSecrets returned error: %v", err)
	}
	if cfg.StripeSecretKey != "sk_test_1" || cfg.SMTPPassword != "hunter2" {
		t.Fatalf("secrets not resolved: %+v", cfg)
	}
	if cfg.StripeWebhookSecret != "whsec_plain" || len(secrets.accessed) != 2 {
		t.Fatalf("plain values must not be looked up: %v", secrets.accessed)
	}
}

func TestResolveSecretsMissing(t *testing.T) {
	cfg := &config.Config{StripeSecretKey: "sm://missing"}
	if err := ResolveSecrets(helpers.TestCtx(), cfg, &stubSecrets{}); err == nil {
		t.Fatalf("expected error for a missing secret")
	}
}
