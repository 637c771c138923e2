package models

import (
	"time"
)

const (
	CardTypeCredit = "credit"
	CardTypeDebit  = "debit"
)

// Auto-pay amount options for credit cards.
const (
	AutoPayMinimum   = "minimum"
	AutoPayStatement = "statement"
	AutoPayFull      = "full"
)

// Card is a debit or credit card. Balance is a signed funds position: available
// funds on a debit card, minus the outstanding debt on a credit card.
type Card struct {
	CardID               string    `firestore:"cardId" json:"cardId"`
	Name                 string    `firestore:"name" json:"name"`
	Type                 string    `firestore:"type" json:"type"` // "credit" or "debit"
	Currency             string    `firestore:"currency" json:"currency,omitempty"`
	Balance              float64   `firestore:"balance" json:"balance"`
	CreditLimit          *float64  `firestore:"creditLimit,omitempty" json:"creditLimit,omitempty"`
	StatementDay         int       `firestore:"statementDay,omitempty" json:"statementDay,omitempty"`
	PaymentDueDay        int       `firestore:"paymentDueDay,omitempty" json:"paymentDueDay,omitempty"`
	AutoPayEnabled       bool      `firestore:"autoPayEnabled" json:"autoPayEnabled"`
	AutoPayAmount        string    `firestore:"autoPayAmount,omitempty" json:"autoPayAmount,omitempty"`
	MinimumPayment       float64   `firestore:"minimumPayment,omitempty" json:"minimumPayment,omitempty"`
	PaymentDebitCardID   string    `firestore:"paymentDebitCardId,omitempty" json:"paymentDebitCardId,omitempty"`
	StatementBalance     float64   `firestore:"statementBalance" json:"statementBalance"`
	LastStatementDate    string    `firestore:"lastStatementDate,omitempty" json:"lastStatementDate,omitempty"`       // YYYY-MM-DD
	LastPaymentProcessed string    `firestore:"lastPaymentProcessed,omitempty" json:"lastPaymentProcessed,omitempty"` // RFC3339
	LastFundsWarning     string    `firestore:"lastFundsWarning,omitempty" json:"lastFundsWarning,omitempty"`         // due date warned about
	IsActive             bool      `firestore:"isActive" json:"isActive"`
	CreatedAt            time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time `firestore:"updatedAt" json:"updatedAt"`
}

func (c *Card) IsCredit() bool {
	return c.Type == CardTypeCredit
}

// Outstanding is the debt owed on a credit card.
func (c *Card) Outstanding() float64 {
	if c.Balance >= 0 {
		return 0
	}
	return -c.Balance
}
