package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/GregMSThompson/cardwise-backend/internal/config"
)

type secretAccessor interface {
	Access(ctx context.Context, name string) (string, error)
}

// ResolveSecrets replaces every config value of the form sm://name with the latest
// version of that Secret Manager secret. Plain values are left alone.
func ResolveSecrets(ctx context.Context, cfg *config.Config, secrets secretAccessor) error {
	fields := map[string]*string{
		"STRIPESECRETKEY":     &cfg.StripeSecretKey,
		"STRIPEWEBHOOKSECRET": &cfg.StripeWebhookSecret,
		"SMTPPASSWORD":        &cfg.SMTPPassword,
	}
	for env, field := range fields {
		name, ok := strings.CutPrefix(*field, config.SecretPrefix)
		if !ok {
			continue
		}
		value, err := secrets.Access(ctx, name)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", env, err)
		}
		*field = value
	}
	return nil
}
