package models

import (
	"time"
)

const (
	TransactionExpense  = "expense"
	TransactionIncome   = "income"
	TransactionRefund   = "refund"
	TransactionTransfer = "transfer"
)

// Transaction is written once and never updated.
type Transaction struct {
	TransactionID  string    `firestore:"transactionId" json:"transactionId"`
	UserID         string    `firestore:"userId" json:"userId"`
	CardID         string    `firestore:"cardId" json:"cardId"`
	Amount         float64   `firestore:"amount" json:"amount"`
	Type           string    `firestore:"type" json:"type"`
	Category       string    `firestore:"category" json:"category,omitempty"`
	Description    string    `firestore:"description" json:"description,omitempty"`
	Date           string    `firestore:"date" json:"date"` // YYYY-MM-DD
	RecurringID    string    `firestore:"recurringId,omitempty" json:"recurringId,omitempty"`
	TransferPairID string    `firestore:"transferPairId,omitempty" json:"transferPairId,omitempty"`
	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
}

// BalanceDelta is the signed effect of the transaction on its card. Expenses and
// outgoing transfers reduce the balance.
func (t *Transaction) BalanceDelta() float64 {
	switch t.Type {
	case TransactionIncome, TransactionRefund:
		return t.Amount
	default:
		return -t.Amount
	}
}

// CountsTowardBudget is false for the two legs of a card payment.
func (t *Transaction) CountsTowardBudget() bool {
	return t.Type == TransactionExpense && t.TransferPairID == ""
}
