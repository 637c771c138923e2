package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/money"
)

// ledgerStore owns every write that moves money: the transaction documents, the
// card balances they touch and the budget totals they count toward are committed
// together in one Firestore transaction.
type ledgerStore struct {
	client *firestore.Client
}

func NewLedgerStore(client *firestore.Client) *ledgerStore {
	return &ledgerStore{client: client}
}

type budgetDoc struct {
	ref    *firestore.DocumentRef
	budget *models.Budget
}

// ChargeRecurring re-reads the recurring expense and its card, lets charge decide
// the charge against that snapshot, then writes the transaction, the new card
// balance, the expense's period marker and the budget totals.
func (s *ledgerStore) ChargeRecurring(ctx context.Context, uid, expenseID string, charge dto.ChargeFunc, apply dto.BudgetFunc) (*dto.LedgerResult, error) {
	var result *dto.LedgerResult
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		expRef := recurringCollection(s.client, uid).Doc(expenseID)
		snap, err := tx.Get(expRef)
		if err != nil {
			return readError(err, "recurring expense not found", "failed to read recurring expense")
		}
		var exp models.RecurringExpense
		if err := snap.DataTo(&exp); err != nil {
			return errs.NewDatabaseError("read", "failed to parse recurring expense data", err)
		}

		cardRef := cardsCollection(s.client, uid).Doc(exp.CardID)
		card, err := s.readCard(tx, cardRef)
		if err != nil {
			return err
		}

		t, err := charge(&exp, card)
		if err != nil {
			return err
		}
		txs := []*models.Transaction{t}

		budgets, err := s.readBudgets(tx, uid, txs)
		if err != nil {
			return err
		}

		now := time.Now()
		exp.UpdatedAt = now
		card.UpdatedAt = now
		if err := tx.Set(expRef, &exp); err != nil {
			return err
		}
		if err := tx.Set(cardRef, card); err != nil {
			return err
		}
		result, err = s.writeLedger(tx, uid, txs, budgets, apply, now)
		return err
	})
	if err != nil {
		return nil, wrapTxError(err, "failed to charge recurring expense")
	}
	return result, nil
}

// PayCard reads a credit card and its funding card, lets pay decide the payment
// and writes both cards plus the payment legs.
func (s *ledgerStore) PayCard(ctx context.Context, uid, cardID string, pay dto.PaymentFunc) (*dto.LedgerResult, error) {
	var result *dto.LedgerResult
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		creditRef := cardsCollection(s.client, uid).Doc(cardID)
		credit, err := s.readCard(tx, creditRef)
		if err != nil {
			return err
		}
		if credit.PaymentDebitCardID == "" {
			return errs.NewNotFoundError("no payment card configured")
		}
		fundingRef := cardsCollection(s.client, uid).Doc(credit.PaymentDebitCardID)
		funding, err := s.readCard(tx, fundingRef)
		if err != nil {
			return err
		}

		txs, err := pay(credit, funding)
		if err != nil {
			return err
		}

		now := time.Now()
		credit.UpdatedAt = now
		if err := tx.Set(creditRef, credit); err != nil {
			return err
		}
		if len(txs) > 0 {
			funding.UpdatedAt = now
			if err := tx.Set(fundingRef, funding); err != nil {
				return err
			}
		}
		result, err = s.writeLedger(tx, uid, txs, nil, nil, now)
		return err
	})
	if err != nil {
		return nil, wrapTxError(err, "failed to pay card")
	}
	return result, nil
}

// Record stores a manually entered transaction and applies it to its card.
func (s *ledgerStore) Record(ctx context.Context, uid string, t *models.Transaction, apply dto.BudgetFunc) (*dto.LedgerResult, error) {
	var result *dto.LedgerResult
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cardRef := cardsCollection(s.client, uid).Doc(t.CardID)
		card, err := s.readCard(tx, cardRef)
		if err != nil {
			return err
		}
		txs := []*models.Transaction{t}
		budgets, err := s.readBudgets(tx, uid, txs)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Update(cardRef, []firestore.Update{
			{Path: "balance", Value: money.Add(card.Balance, t.BalanceDelta())},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}
		result, err = s.writeLedger(tx, uid, txs, budgets, apply, now)
		return err
	})
	if err != nil {
		return nil, wrapTxError(err, "failed to record transaction")
	}
	return result, nil
}

func (s *ledgerStore) readCard(tx *firestore.Transaction, ref *firestore.DocumentRef) (*models.Card, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		return nil, readError(err, "card not found", "failed to read card")
	}
	var c models.Card
	if err := snap.DataTo(&c); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse card data", err)
	}
	return &c, nil
}

// readBudgets loads the budgets matching the categories of txs. Firestore requires
// all reads to happen before the first write.
func (s *ledgerStore) readBudgets(tx *firestore.Transaction, uid string, txs []*models.Transaction) ([]budgetDoc, error) {
	seen := map[string]bool{}
	var out []budgetDoc
	for _, t := range txs {
		if !t.CountsTowardBudget() || t.Category == "" || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		q := budgetsCollection(s.client, uid).Where("category", "==", t.Category)
		docs, err := tx.Documents(q).GetAll()
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to read budgets", err)
		}
		for _, d := range docs {
			var b models.Budget
			if err := d.DataTo(&b); err != nil {
				return nil, errs.NewDatabaseError("read", "failed to parse budget data", err)
			}
			out = append(out, budgetDoc{ref: d.Ref, budget: &b})
		}
	}
	return out, nil
}

func (s *ledgerStore) writeLedger(tx *firestore.Transaction, uid string, txs []*models.Transaction, budgets []budgetDoc, apply dto.BudgetFunc, now time.Time) (*dto.LedgerResult, error) {
	result := &dto.LedgerResult{Transactions: txs}
	for _, t := range txs {
		if t.TransactionID == "" {
			t.TransactionID = uuid.NewString()
		}
		t.UserID = uid
		t.CreatedAt = now
		ref := transactionsCollection(s.client, uid).Doc(t.TransactionID)
		if err := tx.Create(ref, t); err != nil {
			return nil, err
		}
	}
	if apply == nil {
		return result, nil
	}
	for _, bd := range budgets {
		prev := bd.budget.Spent
		for _, t := range txs {
			if t.CountsTowardBudget() && t.Category == bd.budget.Category {
				apply(bd.budget, t)
			}
		}
		bd.budget.UpdatedAt = now
		if err := tx.Set(bd.ref, bd.budget); err != nil {
			return nil, err
		}
		result.Budgets = append(result.Budgets, dto.BudgetChange{Budget: bd.budget, PreviousSpent: prev})
	}
	return result, nil
}
