package dto

import (
	"github.com/GregMSThompson/cardwise-backend/internal/models"
)

// Obligation kinds
const (
	ObligationRecurring  = "recurring"
	ObligationCardPay    = "cardPayment"
	ObligationStatement  = "statement"
	ObligationFundsAlert = "fundsWarning"
)

// Outcome statuses
const (
	OutcomeProcessed         = "processed"
	OutcomeSkipped           = "skipped"
	OutcomeAlreadyProcessed  = "alreadyProcessed"
	OutcomeInsufficientFunds = "insufficientFunds"
	OutcomeMissingReference  = "missingReference"
	OutcomeFailed            = "failed"
	OutcomeNothingDue        = "nothingDue"
	OutcomeWarned            = "warned"
)

// ChargeFunc decides a recurring charge inside a store transaction against freshly
// read documents. It mutates exp and card in place and returns the transaction to
// create; any error aborts the store transaction without writes.
type ChargeFunc func(exp *models.RecurringExpense, card *models.Card) (*models.Transaction, error)

// PaymentFunc decides a credit card payment inside a store transaction. It mutates
// both cards in place and returns the transactions to create (none when nothing is owed).
type PaymentFunc func(credit, funding *models.Card) ([]*models.Transaction, error)

// BudgetFunc applies a committed transaction to a budget of the same category,
// rolling the spent total over when the budget period has changed.
type BudgetFunc func(b *models.Budget, t *models.Transaction)

// BudgetChange is a budget whose spent total moved inside a ledger write.
type BudgetChange struct {
	Budget        *models.Budget
	PreviousSpent float64
}

// LedgerResult is what a ledger write committed.
type LedgerResult struct {
	Transactions []*models.Transaction
	Budgets      []BudgetChange
}

type ObligationOutcome struct {
	Kind   string  `json:"kind"`
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
	Error  string  `json:"error,omitempty"`
}

// ProcessResult summarises one processor run for one user.
type ProcessResult struct {
	Date              string              `json:"date"`
	Due               int                 `json:"due"`
	Processed         int                 `json:"processed"`
	Skipped           int                 `json:"skipped"`
	Failed            int                 `json:"failed"`
	InsufficientFunds int                 `json:"insufficientFunds"`
	Warnings          int                 `json:"warnings"`
	Outcomes          []ObligationOutcome `json:"outcomes"`
}

func (r *ProcessResult) add(o ObligationOutcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Record tallies an outcome.
func (r *ProcessResult) Record(o ObligationOutcome) {
	r.add(o)
	switch o.Status {
	case OutcomeProcessed, OutcomeNothingDue:
		r.Processed++
	case OutcomeAlreadyProcessed, OutcomeMissingReference, OutcomeSkipped:
		r.Skipped++
	case OutcomeInsufficientFunds:
		r.InsufficientFunds++
	case OutcomeFailed:
		r.Failed++
	case OutcomeWarned:
		r.Warnings++
	}
}

type UpcomingObligation struct {
	Kind         string  `json:"kind"`
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	CardID       string  `json:"cardId"`
	DueDate      string  `json:"dueDate"`
	DaysUntilDue int     `json:"daysUntilDue"`
}
