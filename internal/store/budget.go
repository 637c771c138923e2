package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
)

type budgetStore struct {
	client *firestore.Client
}

func NewBudgetStore(client *firestore.Client) *budgetStore {
	return &budgetStore{client: client}
}

func (s *budgetStore) collection(uid string) *firestore.CollectionRef {
	return budgetsCollection(s.client, uid)
}

func (s *budgetStore) Create(ctx context.Context, uid string, b *models.Budget) error {
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	_, err := s.collection(uid).Doc(b.BudgetID).Set(ctx, b)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create budget", err)
	}
	return nil
}

func (s *budgetStore) Get(ctx context.Context, uid, budgetID string) (*models.Budget, error) {
	doc, err := s.collection(uid).Doc(budgetID).Get(ctx)
	if err != nil {
		return nil, readError(err, "budget not found", "failed to get budget")
	}
	var b models.Budget
	if err := doc.DataTo(&b); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse budget data", err)
	}
	return &b, nil
}

func (s *budgetStore) List(ctx context.Context, uid string) ([]*models.Budget, error) {
	docs, err := s.collection(uid).OrderBy("name", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list budgets", err)
	}
	out := make([]*models.Budget, 0, len(docs))
	for _, d := range docs {
		var b models.Budget
		if err := d.DataTo(&b); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse budget data", err)
		}
		out = append(out, &b)
	}
	return out, nil
}

func (s *budgetStore) Update(ctx context.Context, uid, budgetID string, fn func(*models.Budget) error) (*models.Budget, error) {
	ref := s.collection(uid).Doc(budgetID)
	var out *models.Budget
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return readError(err, "budget not found", "failed to get budget")
		}
		var b models.Budget
		if err := snap.DataTo(&b); err != nil {
			return errs.NewDatabaseError("read", "failed to parse budget data", err)
		}
		if err := fn(&b); err != nil {
			return err
		}
		b.UpdatedAt = time.Now()
		out = &b
		return tx.Set(ref, &b)
	})
	if err != nil {
		return nil, wrapTxError(err, "failed to update budget")
	}
	return out, nil
}

func (s *budgetStore) Delete(ctx context.Context, uid, budgetID string) error {
	_, err := s.collection(uid).Doc(budgetID).Delete(ctx)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete budget", err)
	}
	return nil
}
