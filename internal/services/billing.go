package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

type billingClient interface {
	CreateCheckoutSession(ctx context.Context, uid, email, customerID string) (dto.CheckoutSession, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*dto.SubscriptionEvent, error)
	ParseWebhook(payload []byte, signature string) (dto.BillingEvent, error)
}

type billingUserStore interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ApplyBillingEvent(ctx context.Context, uid, eventID, eventType string, update func(*models.User) error) (*models.User, error)
}

type sealer interface {
	Seal(ctx context.Context, uid, plaintext string) (string, error)
	Open(ctx context.Context, uid, ciphertext string) (string, error)
}

type billingService struct {
	client   billingClient
	users    billingUserStore
	sealer   sealer
	notifier notifier
	clockNow func() time.Time
}

func NewBillingService(client billingClient, users billingUserStore, sealer sealer, notifier notifier) *billingService {
	return &billingService{
		client:   client,
		users:    users,
		sealer:   sealer,
		notifier: notifier,
		clockNow: time.Now,
	}
}

func activeSubscription(sub *models.Subscription) bool {
	return sub != nil && (sub.Status == "active" || sub.Status == "trialing")
}

func (s *billingService) Checkout(ctx context.Context, uid, email string) (dto.CheckoutSession, error) {
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return dto.CheckoutSession{}, err
	}
	if activeSubscription(user.Subscription) {
		return dto.CheckoutSession{}, errs.NewAlreadyExistsError("subscription already active")
	}

	var customerID string
	if user.Subscription != nil && user.Subscription.CustomerIDEnc != "" {
		customerID, err = s.sealer.Open(ctx, uid, user.Subscription.CustomerIDEnc)
		if err != nil {
			return dto.CheckoutSession{}, err
		}
	}

	sess, err := s.client.CreateCheckoutSession(ctx, uid, email, customerID)
	if err != nil {
		return dto.CheckoutSession{}, err
	}
	logger.FromContext(ctx).Info("checkout session created", "session_id", sess.SessionID)
	return sess, nil
}

func (s *billingService) Cancel(ctx context.Context, uid string) (*models.Subscription, error) {
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !activeSubscription(user.Subscription) {
		return nil, errs.NewNotFoundError("no active subscription")
	}

	ev, err := s.client.CancelAtPeriodEnd(ctx, user.Subscription.SubscriptionID)
	if err != nil {
		return nil, err
	}
	user.Subscription.CancelAtPeriodEnd = true
	if !ev.CurrentPeriodEnd.IsZero() {
		user.Subscription.CurrentPeriodEnd = ev.CurrentPeriodEnd
	}
	user.Subscription.UpdatedAt = s.clockNow()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("subscription set to cancel at period end", "subscription_id", user.Subscription.SubscriptionID)
	return user.Subscription, nil
}

// HandleWebhook verifies and applies one Stripe event. Events that cannot be
// routed to a user, replays and unhandled types are acknowledged without error
// so Stripe stops retrying them.
func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	log := logger.FromContext(ctx)

	ev, err := s.client.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	log = log.With("event_id", ev.ID, "event_type", ev.Type)
	if ev.Subscription == nil {
		log.Debug("ignoring billing event")
		return nil
	}
	sub := ev.Subscription
	if sub.UID == "" {
		log.Warn("subscription event without uid metadata", "subscription_id", sub.ID)
		return nil
	}

	user, err := s.users.ApplyBillingEvent(ctx, sub.UID, ev.ID, ev.Type, func(u *models.User) error {
		cur := u.Subscription
		if cur == nil {
			cur = &models.Subscription{}
		}
		if staleEvent(cur, ev) {
			return errs.NewAlreadyProcessedError("billing event is older than the stored subscription")
		}
		// the customer only changes with a new subscription
		if sub.CustomerID != "" && (cur.CustomerIDEnc == "" || cur.SubscriptionID != sub.ID) {
			enc, err := s.sealer.Seal(ctx, sub.UID, sub.CustomerID)
			if err != nil {
				return err
			}
			cur.CustomerIDEnc = enc
		}
		cur.SubscriptionID = sub.ID
		cur.Status = sub.Status
		if sub.PriceID != "" {
			cur.PriceID = sub.PriceID
		}
		if !sub.CurrentPeriodEnd.IsZero() {
			cur.CurrentPeriodEnd = sub.CurrentPeriodEnd
		}
		cur.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		cur.TrialEnd = sub.TrialEnd
		if ev.Type == dto.EventSubscriptionDeleted {
			cur.Status = "canceled"
		}
		if ev.Created.After(cur.LastEventAt) {
			cur.LastEventAt = ev.Created
		}
		cur.UpdatedAt = s.clockNow()
		u.Subscription = cur
		return nil
	})
	if err != nil {
		var (
			ap *errs.AlreadyProcessedError
			nf *errs.NotFoundError
		)
		switch {
		case errors.As(err, &ap):
			log.Info("billing event skipped", "reason", ap.Message)
			return nil
		case errors.As(err, &nf):
			log.Warn("billing event for unknown user", "uid", sub.UID)
			return nil
		}
		return err
	}

	log.Info("billing event applied", "uid", sub.UID, "status", user.Subscription.Status)
	if n := subscriptionNotification(ev.Type, user.Subscription); n != nil {
		if err := s.notifier.Notify(ctx, sub.UID, user.Email, n); err != nil {
			log.Error("failed to create billing notification", "error", err)
		}
	}
	return nil
}

// staleEvent reports whether ev is older than what is stored for the same
// subscription. Stripe does not order deliveries, and a canceled subscription
// never becomes active again under the same id.
func staleEvent(cur *models.Subscription, ev dto.BillingEvent) bool {
	if cur.SubscriptionID == "" || cur.SubscriptionID != ev.Subscription.ID {
		return false
	}
	if cur.Status == "canceled" && ev.Type != dto.EventSubscriptionDeleted {
		return true
	}
	return !ev.Created.IsZero() && ev.Created.Before(cur.LastEventAt)
}

func subscriptionNotification(eventType string, sub *models.Subscription) *models.Notification {
	n := &models.Notification{RelatedID: sub.SubscriptionID}
	switch eventType {
	case dto.EventSubscriptionCreated:
		n.Type = models.NotificationSubscriptionCreated
		n.Title = "Subscription started"
		n.Message = "Thanks for subscribing to Cardwise Premium."
	case dto.EventSubscriptionUpdated:
		n.Type = models.NotificationSubscriptionUpdated
		n.Title = "Subscription updated"
		n.Message = fmt.Sprintf("Your subscription is now %s.", sub.Status)
		if sub.CancelAtPeriodEnd {
			n.Message = fmt.Sprintf("Your subscription ends on %s.", sub.CurrentPeriodEnd.Format(dateLayout))
		}
	case dto.EventSubscriptionDeleted:
		n.Type = models.NotificationSubscriptionDeleted
		n.Title = "Subscription ended"
		n.Message = "Your premium subscription has ended."
	case dto.EventTrialWillEnd:
		n.Type = models.NotificationTrialEnding
		n.Title = "Trial ending soon"
		n.Message = "Your free trial ends soon."
		if sub.TrialEnd != nil {
			n.Message = fmt.Sprintf("Your free trial ends on %s.", sub.TrialEnd.Format(dateLayout))
		}
	default:
		return nil
	}
	return n
}
