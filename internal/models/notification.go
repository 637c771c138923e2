package models

import "time"

const (
	NotificationPaymentProcessed    = "payment_processed"
	NotificationPaymentFailed       = "payment_failed"
	NotificationInsufficientFunds   = "insufficient_funds"
	NotificationBudgetAlert         = "budget_alert"
	NotificationSubscriptionCreated = "subscription_created"
	NotificationSubscriptionUpdated = "subscription_updated"
	NotificationSubscriptionDeleted = "subscription_deleted"
	NotificationTrialEnding         = "trial_ending"
)

type Notification struct {
	NotificationID string    `firestore:"notificationId" json:"notificationId"`
	Type           string    `firestore:"type" json:"type"`
	Title          string    `firestore:"title" json:"title"`
	Message        string    `firestore:"message" json:"message"`
	Amount         float64   `firestore:"amount,omitempty" json:"amount,omitempty"`
	Shortfall      float64   `firestore:"shortfall,omitempty" json:"shortfall,omitempty"`
	DaysUntilDue   int       `firestore:"daysUntilDue" json:"daysUntilDue"`
	RelatedID      string    `firestore:"relatedId,omitempty" json:"relatedId,omitempty"`
	Read           bool      `firestore:"read" json:"read"`
	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
}
