package dto

type CreateRecurringRequest struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Category   string  `json:"category"`
	CardID     string  `json:"cardId"`
	Frequency  string  `json:"frequency"`
	DayOfMonth int     `json:"dayOfMonth"`
	StartDate  string  `json:"startDate,omitempty"`
	EndDate    string  `json:"endDate,omitempty"`
}

type UpdateRecurringRequest struct {
	Name       *string  `json:"name,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	Category   *string  `json:"category,omitempty"`
	CardID     *string  `json:"cardId,omitempty"`
	Frequency  *string  `json:"frequency,omitempty"`
	DayOfMonth *int     `json:"dayOfMonth,omitempty"`
	IsActive   *bool    `json:"isActive,omitempty"`
	StartDate  *string  `json:"startDate,omitempty"`
	EndDate    *string  `json:"endDate,omitempty"`
}
