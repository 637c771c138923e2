package models

import "time"

const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

type Budget struct {
	BudgetID       string    `firestore:"budgetId" json:"budgetId"`
	Name           string    `firestore:"name" json:"name"`
	Category       string    `firestore:"category" json:"category"`
	Amount         float64   `firestore:"amount" json:"amount"`
	Spent          float64   `firestore:"spent" json:"spent"`
	Period         string    `firestore:"period" json:"period"`
	AlertThreshold float64   `firestore:"alertThreshold" json:"alertThreshold"`               // percent
	PeriodStart    string    `firestore:"periodStart,omitempty" json:"periodStart,omitempty"` // period that spent covers
	LastAlerted    string    `firestore:"lastAlerted,omitempty" json:"lastAlerted,omitempty"`
	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt" json:"updatedAt"`
}
