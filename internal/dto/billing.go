package dto

import "time"

// Stripe subscription event types handled by the webhook.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventTrialWillEnd        = "customer.subscription.trial_will_end"
)

// BillingEvent is a verified webhook event reduced to what the app stores.
type BillingEvent struct {
	ID           string
	Type         string
	Created      time.Time
	Subscription *SubscriptionEvent
}

type SubscriptionEvent struct {
	ID                string
	CustomerID        string
	UID               string // from subscription metadata
	Status            string
	PriceID           string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	TrialEnd          *time.Time
}

type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}
