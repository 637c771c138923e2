package billingclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

type Adapter struct {
	api *client.API
	cfg Config
}

func NewAdapter(cfg Config) *Adapter {
	return &Adapter{
		api: client.New(cfg.SecretKey, nil),
		cfg: cfg,
	}
}

// CreateCheckoutSession starts a subscription checkout. The uid is copied into the
// subscription metadata so webhook events can be routed back to the user.
func (a *Adapter) CreateCheckoutSession(ctx context.Context, uid, email, customerID string) (dto.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(a.cfg.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(a.cfg.SuccessURL),
		CancelURL:         stripe.String(a.cfg.CancelURL),
		ClientReferenceID: stripe.String(uid),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"uid": uid},
		},
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	} else if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.Context = ctx

	sess, err := a.api.CheckoutSessions.New(params)
	if err != nil {
		return dto.CheckoutSession{}, stripeError("failed to create checkout session", err)
	}
	return dto.CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

func (a *Adapter) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*dto.SubscriptionEvent, error) {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx

	sub, err := a.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, stripeError("failed to cancel subscription", err)
	}
	return toSubscriptionEvent(sub), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes subscription
// events. Other event types come back with a nil Subscription.
func (a *Adapter) ParseWebhook(payload []byte, signature string) (dto.BillingEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, a.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return dto.BillingEvent{}, errs.NewValidationError("invalid webhook signature")
	}

	out := dto.BillingEvent{ID: event.ID, Type: string(event.Type)}
	if event.Created > 0 {
		out.Created = time.Unix(event.Created, 0).UTC()
	}
	switch out.Type {
	case dto.EventSubscriptionCreated, dto.EventSubscriptionUpdated,
		dto.EventSubscriptionDeleted, dto.EventTrialWillEnd:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return dto.BillingEvent{}, errs.NewValidationError("invalid subscription payload")
		}
		out.Subscription = toSubscriptionEvent(&sub)
	}
	return out, nil
}

func toSubscriptionEvent(sub *stripe.Subscription) *dto.SubscriptionEvent {
	ev := &dto.SubscriptionEvent{
		ID:                sub.ID,
		UID:               sub.Metadata["uid"],
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		ev.CustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		ev.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0).UTC()
		ev.TrialEnd = &t
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		ev.PriceID = sub.Items.Data[0].Price.ID
	}
	return ev
}

func stripeError(msg string, err error) error {
	transient := true
	var se *stripe.Error
	if errors.As(err, &se) {
		transient = se.HTTPStatusCode >= http.StatusInternalServerError || se.HTTPStatusCode == http.StatusTooManyRequests
	}
	return errs.NewExternalServiceError("stripe", msg, transient, err)
}
