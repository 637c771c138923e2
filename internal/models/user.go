package models

import (
	"time"
)

type User struct {
	UID          string        `firestore:"uid" json:"uid"`
	Email        string        `firestore:"email" json:"email"`
	FirstName    string        `firestore:"firstName" json:"firstName"`
	LastName     string        `firestore:"lastName" json:"lastName"`
	Currency     string        `firestore:"currency,omitempty" json:"currency,omitempty"`
	Theme        string        `firestore:"theme,omitempty" json:"theme,omitempty"`
	Subscription *Subscription `firestore:"subscription,omitempty" json:"subscription,omitempty"`
	LastActiveAt time.Time     `firestore:"lastActiveAt,omitempty" json:"lastActiveAt,omitempty"`
	CreatedAt    time.Time     `firestore:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `firestore:"updatedAt" json:"updatedAt"`
}

// Subscription mirrors the user's Stripe subscription. The customer id is stored
// KMS-encrypted and never returned to clients.
type Subscription struct {
	SubscriptionID    string     `firestore:"subscriptionId" json:"subscriptionId"`
	CustomerIDEnc     string     `firestore:"customerIdEnc" json:"-"`
	Status            string     `firestore:"status" json:"status"`
	PriceID           string     `firestore:"priceId,omitempty" json:"priceId,omitempty"`
	CurrentPeriodEnd  time.Time  `firestore:"currentPeriodEnd" json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool       `firestore:"cancelAtPeriodEnd" json:"cancelAtPeriodEnd"`
	TrialEnd          *time.Time `firestore:"trialEnd,omitempty" json:"trialEnd,omitempty"`
	LastEventAt       time.Time  `firestore:"lastEventAt,omitempty" json:"-"`
	UpdatedAt         time.Time  `firestore:"updatedAt" json:"updatedAt"`
}
