package dto

type TransactionQuery struct {
	CardID      *string
	RecurringID *string
	DateFrom    *string
	DateTo      *string
	Limit       int
}

type CreateTransactionRequest struct {
	CardID      string  `json:"cardId"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date,omitempty"`
}
