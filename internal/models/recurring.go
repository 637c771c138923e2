package models

import "time"

const (
	FrequencyMonthly = "monthly"
	FrequencyWeekly  = "weekly"
	FrequencyYearly  = "yearly"
)

// RecurringExpense is charged to CardID once per calendar period.
type RecurringExpense struct {
	ID            string    `firestore:"id" json:"id"`
	UserID        string    `firestore:"userId" json:"userId"`
	Name          string    `firestore:"name" json:"name"`
	Amount        float64   `firestore:"amount" json:"amount"`
	Category      string    `firestore:"category" json:"category"`
	CardID        string    `firestore:"cardId" json:"cardId"`
	Frequency     string    `firestore:"frequency" json:"frequency"`
	DayOfMonth    int       `firestore:"dayOfMonth" json:"dayOfMonth"` // monthly only
	IsActive      bool      `firestore:"isActive" json:"isActive"`
	StartDate     string    `firestore:"startDate" json:"startDate"` // YYYY-MM-DD
	EndDate       string    `firestore:"endDate,omitempty" json:"endDate,omitempty"`
	LastProcessed string    `firestore:"lastProcessed,omitempty" json:"lastProcessed,omitempty"` // RFC3339 of last charge
	LastWarned    string    `firestore:"lastWarned,omitempty" json:"lastWarned,omitempty"`       // due date warned about
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updatedAt"`
}
