package dto

import "github.com/GregMSThompson/cardwise-backend/internal/models"

type CreateCardRequest struct {
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	Currency           string   `json:"currency,omitempty"`
	Balance            float64  `json:"balance"`
	CreditLimit        *float64 `json:"creditLimit,omitempty"`
	StatementDay       int      `json:"statementDay,omitempty"`
	PaymentDueDay      int      `json:"paymentDueDay,omitempty"`
	AutoPayEnabled     bool     `json:"autoPayEnabled"`
	AutoPayAmount      string   `json:"autoPayAmount,omitempty"`
	MinimumPayment     float64  `json:"minimumPayment,omitempty"`
	PaymentDebitCardID string   `json:"paymentDebitCardId,omitempty"`
}

// UpdateCardRequest is a partial update; nil fields are left alone. Balance edits
// are the explicit-edit path for changing a balance without a transaction.
type UpdateCardRequest struct {
	Name               *string  `json:"name,omitempty"`
	Balance            *float64 `json:"balance,omitempty"`
	CreditLimit        *float64 `json:"creditLimit,omitempty"`
	StatementDay       *int     `json:"statementDay,omitempty"`
	PaymentDueDay      *int     `json:"paymentDueDay,omitempty"`
	AutoPayEnabled     *bool    `json:"autoPayEnabled,omitempty"`
	AutoPayAmount      *string  `json:"autoPayAmount,omitempty"`
	MinimumPayment     *float64 `json:"minimumPayment,omitempty"`
	PaymentDebitCardID *string  `json:"paymentDebitCardId,omitempty"`
	IsActive           *bool    `json:"isActive,omitempty"`
}

type CardView struct {
	*models.Card
	Outstanding     float64  `json:"outstanding"`
	AvailableCredit *float64 `json:"availableCredit,omitempty"`
	Utilization     *float64 `json:"utilization,omitempty"` // percent
}
