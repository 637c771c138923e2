package dto

import "github.com/GregMSThompson/cardwise-backend/internal/models"

// Budget status buckets
const (
	BudgetSafe     = "safe"
	BudgetWarning  = "warning"
	BudgetDanger   = "danger"
	BudgetExceeded = "exceeded"
)

type BudgetStatus struct {
	Percentage  float64 `json:"percentage"`
	Status      string  `json:"status"`
	Remaining   float64 `json:"remaining"`
	DaysLeft    int     `json:"daysLeft"`
	PeriodStart string  `json:"periodStart"`
	PeriodEnd   string  `json:"periodEnd"`
}

type BudgetView struct {
	*models.Budget
	Status BudgetStatus `json:"status"`
}

type CreateBudgetRequest struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Amount         float64 `json:"amount"`
	Period         string  `json:"period"`
	AlertThreshold float64 `json:"alertThreshold"`
}

type UpdateBudgetRequest struct {
	Name           *string  `json:"name,omitempty"`
	Category       *string  `json:"category,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	Spent          *float64 `json:"spent,omitempty"`
	Period         *string  `json:"period,omitempty"`
	AlertThreshold *float64 `json:"alertThreshold,omitempty"`
}
